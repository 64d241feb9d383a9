package memory

import (
	"context"
	"fmt"
	"strings"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// StoreOptions selects and configures a Store backend.
type StoreOptions struct {
	Backend  string
	Path     string
	RedisURL string
	RedisKey string
}

// OpenStore builds the Store named by opts.Backend (file when empty).
func OpenStore(ctx context.Context, opts StoreOptions) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendFile:
		return NewFileStore(opts.Path)
	case BackendSQLite:
		return NewSQLiteStore(opts.Path)
	case BackendRedis:
		return NewRedisStore(ctx, opts.RedisURL, opts.RedisKey)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}
