package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vikasprajapat2/nexa/pkg/config"
	"github.com/vikasprajapat2/nexa/pkg/logger"
)

const (
	defaultHuggingFaceAPIBase = "https://api-inference.huggingface.co"
	defaultHuggingFaceTimeout = 10 * time.Second
)

var defaultHuggingFaceModels = []string{
	"facebook/blenderbot-400M-distill",
	"google/flan-t5-base",
	"microsoft/DialoGPT-medium",
}

func init() {
	mustRegister(ProviderHuggingFace, Factory{
		Build:       newHuggingFaceProviderFromConfig,
		Validate:    validateHuggingFaceConfig,
		Credentials: huggingFaceCredentialStatus,
	})
}

// huggingFaceProvider calls the hosted inference API, falling through its
// model list until one produces text.
type huggingFaceProvider struct {
	apiBase  string
	models   []string
	endpoint jsonEndpoint
}

type huggingFaceRequest struct {
	Inputs     string                 `json:"inputs"`
	Parameters *huggingFaceParameters `json:"parameters,omitempty"`
}

type huggingFaceParameters struct {
	MaxNewTokens int     `json:"max_new_tokens,omitempty"`
	Temperature  float64 `json:"temperature,omitempty"`
}

func validateHuggingFaceConfig(cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if len(huggingFaceModels(cfg)) == 0 {
		return fmt.Errorf("at least one Hugging Face model is required (set providers.huggingface.models)")
	}
	return nil
}

func huggingFaceCredentialStatus(cfg *config.Config) CredentialStatus {
	if cfg == nil {
		return CredentialStatus{}
	}
	if strings.TrimSpace(cfg.Providers.HuggingFace.APIKey) == "" {
		return CredentialStatus{Configured: true, Mode: authModeAnonymous}
	}
	return CredentialStatus{Configured: true, Mode: authModeAPIKey}
}

func huggingFaceModels(cfg *config.Config) []string {
	models := make([]string, 0, len(cfg.Providers.HuggingFace.Models))
	for _, m := range cfg.Providers.HuggingFace.Models {
		if m = strings.TrimSpace(m); m != "" {
			models = append(models, m)
		}
	}
	return models
}

func newHuggingFaceProviderFromConfig(cfg *config.Config) (LLMProvider, error) {
	if err := validateHuggingFaceConfig(cfg); err != nil {
		return nil, err
	}
	hf := cfg.Providers.HuggingFace

	apiBase := strings.TrimRight(strings.TrimSpace(hf.APIBase), "/")
	if apiBase == "" {
		apiBase = defaultHuggingFaceAPIBase
	}
	timeout := time.Duration(hf.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultHuggingFaceTimeout
	}
	var auth AuthStrategy = NewAnonymousAuth()
	if strings.TrimSpace(hf.APIKey) != "" {
		auth = NewAPIKeyAuth(NewStaticTokenSource(hf.APIKey, "providers.huggingface.api_key"))
	}
	client, err := newHTTPClient(ProviderHuggingFace, timeout, "")
	if err != nil {
		return nil, err
	}

	return &huggingFaceProvider{
		apiBase:  apiBase,
		models:   huggingFaceModels(cfg),
		endpoint: jsonEndpoint{provider: ProviderHuggingFace, client: client, auth: auth},
	}, nil
}

func (p *huggingFaceProvider) Name() string { return ProviderHuggingFace }

func (p *huggingFaceProvider) GetDefaultModel() string {
	if len(p.models) == 0 {
		return ""
	}
	return p.models[0]
}

// Chat sends the latest user message as the inference input. When no
// model is requested every configured model is tried in order.
func (p *huggingFaceProvider) Chat(ctx context.Context, messages []Message, opts ReplyOptions) (*LLMResponse, error) {
	input := strings.TrimSpace(lastUserContent(messages))
	if input == "" {
		return nil, fmt.Errorf("huggingface: no user input")
	}

	models := p.models
	if model := strings.TrimSpace(opts.Model); model != "" {
		models = []string{model}
	}

	req := huggingFaceRequest{Inputs: input}
	if opts.MaxTokens > 0 || opts.Temperature > 0 {
		req.Parameters = &huggingFaceParameters{MaxNewTokens: opts.MaxTokens, Temperature: opts.Temperature}
	}

	var errs []error
	for _, m := range models {
		text, err := p.query(ctx, m, req)
		if err == nil {
			return &LLMResponse{Content: text, Model: m, FinishReason: "stop"}, nil
		}
		logger.WarnCF("providers", "Hugging Face model failed, trying next", map[string]interface{}{
			"model": m,
			"error": err.Error(),
		})
		errs = append(errs, fmt.Errorf("%s: %w", m, err))
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("huggingface: all models failed: %w", errors.Join(errs...))
}

func (p *huggingFaceProvider) query(ctx context.Context, model string, req huggingFaceRequest) (string, error) {
	body, err := p.endpoint.post(ctx, p.apiBase+"/models/"+model, req)
	if err != nil {
		return "", err
	}
	return parseHuggingFaceResponse(body)
}

// parseHuggingFaceResponse accepts a list of generations, a single
// generation object, or an {"error": ...} body.
func parseHuggingFaceResponse(body []byte) (string, error) {
	type generation struct {
		GeneratedText string      `json:"generated_text"`
		Error         interface{} `json:"error"`
	}

	trimmed := bytes.TrimSpace(body)
	var gen generation
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []generation
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return "", fmt.Errorf("decode generations: %w", err)
		}
		if len(list) == 0 {
			return "", fmt.Errorf("empty generation list")
		}
		gen = list[0]
	} else if err := json.Unmarshal(trimmed, &gen); err != nil {
		return "", fmt.Errorf("decode generation: %w", err)
	}

	if gen.Error != nil {
		return "", fmt.Errorf("model error: %v", gen.Error)
	}
	if strings.TrimSpace(gen.GeneratedText) == "" {
		return "", fmt.Errorf("empty generated_text")
	}
	return gen.GeneratedText, nil
}
