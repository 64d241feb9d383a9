package memory

import "context"

// Store persists the knowledge model as one document.
type Store interface {
	// Load returns the persisted model, or an empty model when nothing has
	// been stored yet.
	Load(ctx context.Context) (*KnowledgeModel, error)
	// Save replaces the persisted model with m.
	Save(ctx context.Context, m *KnowledgeModel) error
	// Describe names the storage location for status output.
	Describe() string
	Close() error
}

// RandomSource picks the small-talk fallback response.
// *rand.Rand satisfies it.
type RandomSource interface {
	Intn(n int) int
}

// Responder answers from learned knowledge or declines.
type Responder interface {
	GenerateResponse(input string) (string, bool)
}

// Trainer reinforces the knowledge model with a finished exchange.
type Trainer interface {
	Train(ctx context.Context, input, response string) error
}
