package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/volunteerhub/volunteerhub/internal/config"
)

// RedisStore keeps the namespace in Redis. It implements the same
// single-writer contract as the file backend; nothing here attempts
// cross-process coordination.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	return &RedisStore{client: client}, nil
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Get(key string) ([]byte, bool, error) {
	v, err := s.client.Get(context.Background(), key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return v, true, nil
}

func (s *RedisStore) Set(key string, value []byte) error {
	if err := s.client.Set(context.Background(), key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(key string) error {
	if err := s.client.Del(context.Background(), key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Clear() error {
	if err := s.client.Del(context.Background(), Keys...).Err(); err != nil {
		return fmt.Errorf("failed to clear namespace: %w", err)
	}
	return nil
}
