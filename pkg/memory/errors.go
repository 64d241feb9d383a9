package memory

import "errors"

var (
	// ErrStorage marks a failure to read or write the persisted knowledge
	// model. Callers treat it as non-fatal.
	ErrStorage = errors.New("knowledge storage failure")

	// ErrUnreadableModel marks a stored document that exists but cannot be
	// decoded. It always travels together with ErrStorage.
	ErrUnreadableModel = errors.New("unreadable knowledge model")

	// ErrUnknownBackend is returned for an unsupported store backend name.
	ErrUnknownBackend = errors.New("unknown knowledge store backend")
)
