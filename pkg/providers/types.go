package providers

import "context"

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type UsageInfo struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type LLMResponse struct {
	Content      string     `json:"content"`
	Model        string     `json:"model,omitempty"`
	FinishReason string     `json:"finish_reason"`
	Usage        *UsageInfo `json:"usage,omitempty"`
}

// ReplyOptions shapes a single generation. Zero fields leave the upstream
// default in place, so temperature 0 cannot be requested explicitly.
type ReplyOptions struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// LLMProvider is one upstream text generator.
type LLMProvider interface {
	Name() string
	Chat(ctx context.Context, messages []Message, opts ReplyOptions) (*LLMResponse, error)
	GetDefaultModel() string
}

// lastUserContent returns the most recent user message, which is all the
// plain text-generation endpoints accept.
func lastUserContent(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return ""
}
