package commands

import "time"

type Options struct {
	TypeDelay   time.Duration
	SearchRoots []string
	Now         func() time.Time
}

// NewDefaultDispatcher wires the built-in handlers in priority order.
func NewDefaultDispatcher(host Host, opts Options) *Dispatcher {
	return NewDispatcher(
		NewTypeHandler(host, opts.TypeDelay),
		NewWebSearchHandler(host),
		NewMediaHandler(host),
		NewOpenAppHandler(host),
		NewFindFileHandler(opts.SearchRoots),
		NewTimeHandler(opts.Now),
	)
}
