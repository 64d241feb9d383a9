package providers

import (
	"fmt"
	"strings"
	"time"

	"github.com/vikasprajapat2/nexa/pkg/config"
)

const (
	defaultOpenAIAPIBase = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4o-mini"
)

func init() {
	mustRegister(ProviderOpenAI, Factory{
		Build:       newOpenAIProviderFromConfig,
		Validate:    validateOpenAIConfig,
		Credentials: openAICredentialStatus,
	})
}

func validateOpenAIConfig(cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if strings.TrimSpace(cfg.Providers.OpenAI.APIKey) == "" {
		return fmt.Errorf("OpenAI API key is required (set providers.openai.api_key or NEXA_PROVIDERS_OPENAI_API_KEY)")
	}
	return nil
}

func openAICredentialStatus(cfg *config.Config) CredentialStatus {
	if cfg == nil || strings.TrimSpace(cfg.Providers.OpenAI.APIKey) == "" {
		return CredentialStatus{}
	}
	return CredentialStatus{Configured: true, Mode: authModeAPIKey}
}

func newOpenAIProviderFromConfig(cfg *config.Config) (LLMProvider, error) {
	if err := validateOpenAIConfig(cfg); err != nil {
		return nil, err
	}
	pc := cfg.Providers.OpenAI

	apiBase := strings.TrimSpace(pc.APIBase)
	if apiBase == "" {
		apiBase = defaultOpenAIAPIBase
	}
	model := strings.TrimSpace(pc.Model)
	if model == "" {
		model = defaultOpenAIModel
	}
	return newChatCompletionsProvider(chatCompletionsSettings{
		name:         ProviderOpenAI,
		apiBase:      apiBase,
		defaultModel: model,
		proxy:        pc.Proxy,
		timeout:      time.Duration(pc.TimeoutSeconds) * time.Second,
		auth:         NewAPIKeyAuth(NewStaticTokenSource(pc.APIKey, "providers.openai.api_key")),
	})
}
