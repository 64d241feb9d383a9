package commands

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vikasprajapat2/nexa/pkg/logger"
)

// Handler performs one kind of local system command.
type Handler interface {
	Name() string
	// Match reports whether the lowercased utterance addresses this handler.
	Match(lower string) bool
	Execute(ctx context.Context, text string) *Result
}

// Result is the user-facing reply of a handled command. Err is set when the
// side effect failed; Reply still carries what to tell the user.
type Result struct {
	Reply string
	Err   error
}

func Reply(text string) *Result { return &Result{Reply: text} }

func Failed(text string, err error) *Result { return &Result{Reply: text, Err: err} }

// Dispatcher holds handlers in priority order; the first match wins.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers []Handler
}

func NewDispatcher(handlers ...Handler) *Dispatcher {
	d := &Dispatcher{}
	for _, h := range handlers {
		d.Register(h)
	}
	return d
}

// Register appends h at the lowest priority.
func (d *Dispatcher) Register(h Handler) {
	if h == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, h)
}

// Names returns handler names in priority order.
func (d *Dispatcher) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.handlers))
	for _, h := range d.handlers {
		names = append(names, h.Name())
	}
	return names
}

// Dispatch runs the first matching handler. ok is false when text is not a
// system command.
func (d *Dispatcher) Dispatch(ctx context.Context, text string) (reply string, ok bool) {
	lower := strings.ToLower(text)

	d.mu.RLock()
	var handler Handler
	for _, h := range d.handlers {
		if h.Match(lower) {
			handler = h
			break
		}
	}
	d.mu.RUnlock()
	if handler == nil {
		return "", false
	}

	logger.InfoCF("commands", "Command execution started",
		map[string]interface{}{
			"command": handler.Name(),
			"input":   truncateLogString(text),
		})

	start := time.Now()
	result := handler.Execute(ctx, text)
	duration := time.Since(start)
	if result == nil {
		err := fmt.Errorf("command %q returned nil result", handler.Name())
		logger.ErrorCF("commands", "Command returned nil result",
			map[string]interface{}{
				"command": handler.Name(),
			})
		return err.Error(), true
	}

	if result.Err != nil {
		logger.ErrorCF("commands", "Command execution failed",
			map[string]interface{}{
				"command":     handler.Name(),
				"duration_ms": duration.Milliseconds(),
				"error":       result.Err.Error(),
			})
	} else {
		logger.InfoCF("commands", "Command execution completed",
			map[string]interface{}{
				"command":     handler.Name(),
				"duration_ms": duration.Milliseconds(),
			})
	}
	return result.Reply, true
}

func truncateLogString(value string) string {
	const maxLen = 256
	if len(value) <= maxLen {
		return value
	}
	return value[:maxLen] + "...(truncated)"
}
