package providers

import (
	"fmt"
	"strings"
	"time"

	"github.com/vikasprajapat2/nexa/pkg/config"
)

const (
	defaultOpenRouterAPIBase = "https://openrouter.ai/api/v1"
	defaultOpenRouterModel   = "meta-llama/llama-3.1-8b-instruct"
)

func init() {
	mustRegister(ProviderOpenRouter, Factory{
		Build:       newOpenRouterProviderFromConfig,
		Validate:    validateOpenRouterConfig,
		Credentials: openRouterCredentialStatus,
	})
}

func validateOpenRouterConfig(cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if strings.TrimSpace(cfg.Providers.OpenRouter.APIKey) == "" {
		return fmt.Errorf("OpenRouter API key is required (set providers.openrouter.api_key or NEXA_PROVIDERS_OPENROUTER_API_KEY)")
	}
	return nil
}

func openRouterCredentialStatus(cfg *config.Config) CredentialStatus {
	if cfg == nil || strings.TrimSpace(cfg.Providers.OpenRouter.APIKey) == "" {
		return CredentialStatus{}
	}
	return CredentialStatus{Configured: true, Mode: authModeAPIKey}
}

func newOpenRouterProviderFromConfig(cfg *config.Config) (LLMProvider, error) {
	if err := validateOpenRouterConfig(cfg); err != nil {
		return nil, err
	}
	pc := cfg.Providers.OpenRouter

	apiBase := strings.TrimSpace(pc.APIBase)
	if apiBase == "" {
		apiBase = defaultOpenRouterAPIBase
	}
	model := strings.TrimSpace(pc.Model)
	if model == "" {
		model = defaultOpenRouterModel
	}
	return newChatCompletionsProvider(chatCompletionsSettings{
		name:         ProviderOpenRouter,
		apiBase:      apiBase,
		defaultModel: model,
		proxy:        pc.Proxy,
		timeout:      time.Duration(pc.TimeoutSeconds) * time.Second,
		auth:         NewAPIKeyAuth(NewStaticTokenSource(pc.APIKey, "providers.openrouter.api_key")),
		headers:      map[string]string{"X-Title": "Nexa"},
	})
}
