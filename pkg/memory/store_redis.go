package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the model as one JSON value under a single key.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(ctx context.Context, redisURL, key string) (*RedisStore, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis url is required for the redis backend")
	}
	if key == "" {
		key = "nexa:knowledge"
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client, key: key}, nil
}

func (s *RedisStore) Describe() string { return "redis:" + s.key }

func (s *RedisStore) Load(ctx context.Context) (*KnowledgeModel, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return NewKnowledgeModel(), nil
		}
		return nil, fmt.Errorf("%w: get %s: %w", ErrStorage, s.key, err)
	}
	return decodeModel(data)
}

func (s *RedisStore) Save(ctx context.Context, m *KnowledgeModel) error {
	data, err := encodeModel(m)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %w", ErrStorage, s.key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
