package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/vikasprajapat2/nexa/pkg/bus"
	"github.com/vikasprajapat2/nexa/pkg/logger"
	"github.com/vikasprajapat2/nexa/pkg/memory"
)

const (
	SourceEmpty   = "empty"
	SourceCommand = "command"
	SourceMemory  = "memory"
	SourceOffline = "offline"

	providerSourcePrefix = "provider:"
	emptyReply           = "I didn't hear anything."
)

// ProviderSource labels a reply produced by the named upstream provider.
func ProviderSource(name string) string { return providerSourcePrefix + name }

// Reply is what the user hears back and where it came from.
type Reply struct {
	Text   string `json:"reply"`
	Source string `json:"source"`
}

type CommandDispatcher interface {
	Dispatch(ctx context.Context, text string) (string, bool)
}

type Memory interface {
	memory.Responder
	memory.Trainer
}

type Upstream interface {
	Generate(ctx context.Context, input string) (reply, provider string, err error)
}

type Options struct {
	Bus      *bus.MessageBus
	Memory   Memory
	Commands CommandDispatcher
	Upstream Upstream
}

// Assistant answers one utterance at a time: local commands first, then
// learned memory, then upstream providers, then the offline responder.
type Assistant struct {
	bus      *bus.MessageBus
	memory   Memory
	commands CommandDispatcher
	upstream Upstream
	mu       sync.Mutex
	running  atomic.Bool
}

func New(opts Options) (*Assistant, error) {
	if opts.Memory == nil {
		return nil, fmt.Errorf("assistant: memory is required")
	}
	return &Assistant{
		bus:      opts.Bus,
		memory:   opts.Memory,
		commands: opts.Commands,
		upstream: opts.Upstream,
	}, nil
}

// Process answers text. The returned error is only set when ctx ended
// before an answer was produced; every other failure degrades to a
// lower tier.
func (a *Assistant) Process(ctx context.Context, text string) (Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{Text: emptyReply, Source: SourceEmpty}, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Reply{}, err
	}

	if a.commands != nil {
		if reply, ok := a.commands.Dispatch(ctx, text); ok {
			return Reply{Text: reply, Source: SourceCommand}, nil
		}
	}

	reply, ok := a.memory.GenerateResponse(text)
	source := SourceMemory
	if !ok {
		reply, source = a.askUpstream(ctx, text)
	}
	if err := ctx.Err(); err != nil && source == SourceOffline {
		return Reply{}, err
	}

	// A shutdown arriving mid-request must not drop the exchange.
	if err := a.memory.Train(context.WithoutCancel(ctx), text, reply); err != nil {
		logger.WarnCF("assistant", "Failed to persist learned exchange", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return Reply{Text: reply, Source: source}, nil
}

func (a *Assistant) askUpstream(ctx context.Context, text string) (string, string) {
	if a.upstream != nil {
		reply, name, err := a.upstream.Generate(ctx, text)
		if err == nil {
			return reply, ProviderSource(name)
		}
		level := logger.WarnCF
		if errors.Is(err, context.Canceled) {
			level = logger.DebugCF
		}
		level("assistant", "Upstream unavailable, answering offline", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return OfflineReply(text), SourceOffline
}

// Run answers inbound bus messages until ctx is done or the bus closes.
func (a *Assistant) Run(ctx context.Context) error {
	if a.bus == nil {
		return fmt.Errorf("assistant: message bus is not configured")
	}
	a.running.Store(true)
	defer a.running.Store(false)

	for {
		msg, ok := a.bus.ConsumeInbound(ctx)
		if !ok {
			if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		}

		logger.InfoCF("assistant", "Processing message", map[string]interface{}{
			"id":      msg.ID,
			"channel": msg.Channel,
			"chat_id": msg.ChatID,
		})

		reply, err := a.Process(ctx, msg.Content)
		if err != nil {
			reply = Reply{Text: fmt.Sprintf("Error processing message: %v", err), Source: "error"}
		}
		a.bus.Respond(msg, msg.ReplyTo(reply.Text, reply.Source))
	}
}

func (a *Assistant) Running() bool { return a.running.Load() }
