package memory

// DefaultHistorySize is how many recent exchanges the live conversation keeps.
const DefaultHistorySize = 10

// ConversationHistory is a bounded window of the most recent exchanges.
// It is never persisted.
type ConversationHistory struct {
	capacity  int
	exchanges []Exchange
}

func NewConversationHistory(capacity int) *ConversationHistory {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &ConversationHistory{
		capacity:  capacity,
		exchanges: make([]Exchange, 0, capacity),
	}
}

// Append adds ex and evicts the oldest exchanges over capacity.
func (h *ConversationHistory) Append(ex Exchange) {
	h.exchanges = append(h.exchanges, ex)
	if over := len(h.exchanges) - h.capacity; over > 0 {
		h.exchanges = append(h.exchanges[:0:0], h.exchanges[over:]...)
	}
}

func (h *ConversationHistory) Len() int { return len(h.exchanges) }

func (h *ConversationHistory) Capacity() int { return h.capacity }

// Last returns the most recent exchange.
func (h *ConversationHistory) Last() (Exchange, bool) {
	if len(h.exchanges) == 0 {
		return Exchange{}, false
	}
	return h.exchanges[len(h.exchanges)-1], true
}

// Recent returns a copy of up to n most recent exchanges, oldest first.
func (h *ConversationHistory) Recent(n int) []Exchange {
	if n <= 0 || len(h.exchanges) == 0 {
		return nil
	}
	if n > len(h.exchanges) {
		n = len(h.exchanges)
	}
	out := make([]Exchange, n)
	copy(out, h.exchanges[len(h.exchanges)-n:])
	return out
}

func (h *ConversationHistory) Snapshot() []Exchange {
	return h.Recent(len(h.exchanges))
}

func (h *ConversationHistory) Reset() {
	h.exchanges = h.exchanges[:0]
}
