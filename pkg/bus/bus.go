package bus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrClosed is returned when publishing to a closed bus.
	ErrClosed = errors.New("message bus closed")
	// ErrFull is returned when the inbound queue stayed full past the publish timeout.
	ErrFull = errors.New("message bus full")
)

type MessageBus struct {
	inbound  chan InboundMessage
	outbound chan OutboundMessage
	closed   bool
	dropped  droppedCounters
	mu       sync.RWMutex
}

type droppedCounters struct {
	inbound  atomic.Uint64
	outbound atomic.Uint64
}

const (
	publishTimeout = 100 * time.Millisecond
	queueSize      = 100
)

func NewMessageBus() *MessageBus {
	return &MessageBus{
		inbound:  make(chan InboundMessage, queueSize),
		outbound: make(chan OutboundMessage, queueSize),
	}
}

// PublishInbound queues msg for the consumer, filling in ID and
// ReceivedAt when unset.
func (mb *MessageBus) PublishInbound(msg InboundMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.ReceivedAt.IsZero() {
		msg.ReceivedAt = time.Now()
	}

	mb.mu.RLock()
	defer mb.mu.RUnlock()
	if mb.closed {
		return ErrClosed
	}

	select {
	case mb.inbound <- msg:
		return nil
	default:
		timer := time.NewTimer(publishTimeout)
		defer timer.Stop()
		select {
		case mb.inbound <- msg:
			return nil
		case <-timer.C:
			mb.dropped.inbound.Add(1)
			return ErrFull
		}
	}
}

func (mb *MessageBus) ConsumeInbound(ctx context.Context) (InboundMessage, bool) {
	select {
	case msg, ok := <-mb.inbound:
		if !ok {
			return InboundMessage{}, false
		}
		return msg, true
	case <-ctx.Done():
		return InboundMessage{}, false
	}
}

// Request publishes msg and waits for the consumer's direct reply.
func (mb *MessageBus) Request(ctx context.Context, msg InboundMessage) (OutboundMessage, error) {
	msg.reply = make(chan OutboundMessage, 1)
	if err := mb.PublishInbound(msg); err != nil {
		return OutboundMessage{}, err
	}
	select {
	case out := <-msg.reply:
		return out, nil
	case <-ctx.Done():
		return OutboundMessage{}, ctx.Err()
	}
}

// Respond delivers out to the requester waiting on msg, or to the outbound
// stream when msg was published without a waiter.
func (mb *MessageBus) Respond(msg InboundMessage, out OutboundMessage) {
	if msg.reply != nil {
		msg.reply <- out
		return
	}
	mb.PublishOutbound(out)
}

func (mb *MessageBus) PublishOutbound(msg OutboundMessage) {
	mb.mu.RLock()
	defer mb.mu.RUnlock()
	if mb.closed {
		return
	}

	select {
	case mb.outbound <- msg:
	default:
		timer := time.NewTimer(publishTimeout)
		defer timer.Stop()
		select {
		case mb.outbound <- msg:
		case <-timer.C:
			mb.dropped.outbound.Add(1)
		}
	}
}

func (mb *MessageBus) SubscribeOutbound(ctx context.Context) (OutboundMessage, bool) {
	select {
	case msg, ok := <-mb.outbound:
		if !ok {
			return OutboundMessage{}, false
		}
		return msg, true
	case <-ctx.Done():
		return OutboundMessage{}, false
	}
}

func (mb *MessageBus) Close() {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if mb.closed {
		return
	}
	mb.closed = true
	close(mb.inbound)
	close(mb.outbound)
}

func (mb *MessageBus) DroppedInbound() uint64 {
	return mb.dropped.inbound.Load()
}

func (mb *MessageBus) DroppedOutbound() uint64 {
	return mb.dropped.outbound.Load()
}
