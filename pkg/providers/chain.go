package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vikasprajapat2/nexa/pkg/config"
	"github.com/vikasprajapat2/nexa/pkg/logger"
)

// ErrAllProvidersFailed is returned when no upstream produced a usable reply.
var ErrAllProvidersFailed = errors.New("all upstream providers failed")

// Chain tries its providers in order and returns the first non-empty reply.
type Chain struct {
	providers    []LLMProvider
	systemPrompt string
	options      ReplyOptions
}

// NewChain builds a chain that sends opts with every request. Spoken replies
// want a small MaxTokens.
func NewChain(systemPrompt string, opts ReplyOptions, providers ...LLMProvider) *Chain {
	return &Chain{providers: providers, systemPrompt: strings.TrimSpace(systemPrompt), options: opts}
}

// NewChainFromConfig builds the providers named in providers.order.
// Providers without credentials are skipped with a warning; unknown names
// are a configuration error.
func NewChainFromConfig(cfg *config.Config) (*Chain, error) {
	var built []LLMProvider
	for _, name := range cfg.ProviderOrder() {
		if err := ValidateProviderConfig(cfg, name); err != nil {
			if _, ferr := lookupFactory(name); ferr != nil {
				return nil, ferr
			}
			logger.WarnCF("providers", "Skipping unconfigured provider", map[string]interface{}{
				"provider": name,
				"error":    err.Error(),
			})
			continue
		}
		p, err := CreateProvider(cfg, name)
		if err != nil {
			return nil, fmt.Errorf("create provider %s: %w", name, err)
		}
		built = append(built, p)
	}
	opts := ReplyOptions{
		MaxTokens:   cfg.Assistant.MaxReplyTokens,
		Temperature: cfg.Assistant.Temperature,
	}
	return NewChain(cfg.Assistant.SystemPrompt, opts, built...), nil
}

func (c *Chain) Len() int { return len(c.providers) }

// Names lists the providers in the order they are tried.
func (c *Chain) Names() []string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return names
}

// Generate returns the cleaned reply and the name of the provider that
// produced it.
func (c *Chain) Generate(ctx context.Context, input string) (string, string, error) {
	messages := make([]Message, 0, 2)
	if c.systemPrompt != "" {
		messages = append(messages, Message{Role: "system", Content: c.systemPrompt})
	}
	messages = append(messages, Message{Role: "user", Content: input})

	var errs []error
	for _, p := range c.providers {
		resp, err := p.Chat(ctx, messages, c.options)
		if err == nil {
			if reply := CleanReply(resp.Content); reply != "" {
				logger.DebugCF("providers", "Upstream reply", map[string]interface{}{
					"provider": p.Name(),
					"model":    resp.Model,
				})
				return reply, p.Name(), nil
			}
			err = fmt.Errorf("empty reply")
		}
		logger.WarnCF("providers", "Provider failed, trying next", map[string]interface{}{
			"provider": p.Name(),
			"error":    err.Error(),
		})
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}
	if len(errs) == 0 {
		return "", "", ErrAllProvidersFailed
	}
	return "", "", fmt.Errorf("%w: %w", ErrAllProvidersFailed, errors.Join(errs...))
}

// CleanReply strips echoed dialogue prefixes that text-generation models
// often repeat back.
func CleanReply(text string) string {
	if i := strings.LastIndex(text, "Assistant:"); i >= 0 {
		return strings.TrimSpace(text[i+len("Assistant:"):])
	}
	if i := strings.LastIndex(text, "User:"); i >= 0 {
		return strings.TrimSpace(text[i+len("User:"):])
	}
	return strings.TrimSpace(text)
}
