package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// chatCompletionsProvider speaks the OpenAI-compatible /chat/completions
// dialect used by OpenAI and OpenRouter.
type chatCompletionsProvider struct {
	name         string
	apiBase      string
	defaultModel string
	endpoint     jsonEndpoint
}

type chatCompletionsRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

type chatCompletionsResponse struct {
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *UsageInfo `json:"usage"`
}

type chatCompletionsSettings struct {
	name         string
	apiBase      string
	defaultModel string
	proxy        string
	timeout      time.Duration
	auth         AuthStrategy
	headers      map[string]string
}

func newChatCompletionsProvider(s chatCompletionsSettings) (*chatCompletionsProvider, error) {
	name := NormalizeProviderName(s.name)
	if name == "" {
		return nil, fmt.Errorf("provider name is required")
	}
	apiBase := strings.TrimRight(strings.TrimSpace(s.apiBase), "/")
	if apiBase == "" {
		return nil, fmt.Errorf("%s API base not configured", name)
	}
	if s.auth == nil {
		return nil, fmt.Errorf("%s auth is not configured", name)
	}
	client, err := newHTTPClient(name, s.timeout, s.proxy)
	if err != nil {
		return nil, err
	}

	headers := make(map[string]string, len(s.headers))
	for k, v := range s.headers {
		if k, v = strings.TrimSpace(k), strings.TrimSpace(v); k != "" && v != "" {
			headers[k] = v
		}
	}

	return &chatCompletionsProvider{
		name:         name,
		apiBase:      apiBase,
		defaultModel: strings.TrimSpace(s.defaultModel),
		endpoint:     jsonEndpoint{provider: name, client: client, auth: s.auth, headers: headers},
	}, nil
}

func (p *chatCompletionsProvider) Name() string { return p.name }

func (p *chatCompletionsProvider) GetDefaultModel() string { return p.defaultModel }

func (p *chatCompletionsProvider) Chat(ctx context.Context, messages []Message, opts ReplyOptions) (*LLMResponse, error) {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = p.defaultModel
	}

	body, err := p.endpoint.post(ctx, p.apiBase+"/chat/completions", chatCompletionsRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%s API request failed: %w", p.name, err)
	}

	var parsed chatCompletionsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse %s response: %w", p.name, err)
	}
	out := &LLMResponse{Model: model, FinishReason: "stop", Usage: parsed.Usage}
	if len(parsed.Choices) > 0 {
		choice := parsed.Choices[0]
		out.Content = messageText(choice.Message.Content)
		out.FinishReason = choice.FinishReason
	}
	return out, nil
}

// messageText accepts either a plain string or a list of typed content
// parts and returns the concatenated text.
func messageText(raw json.RawMessage) string {
	var text string
	if json.Unmarshal(raw, &text) == nil {
		return text
	}
	var parts []struct {
		Text string `json:"text"`
	}
	if json.Unmarshal(raw, &parts) != nil {
		return ""
	}
	var b strings.Builder
	for _, part := range parts {
		b.WriteString(part.Text)
	}
	return b.String()
}
