package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bookshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// pendingValue marks a key claimed by a request that has not finished
const pendingValue = "pending"

const defaultKeyPrefix = "bookshop:idempotency:"

// RedisIdempotencyStore implements IdempotencyStore using Redis so every
// server instance sees the same keys.
type RedisIdempotencyStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisIdempotencyStore connects to Redis and verifies the connection
func NewRedisIdempotencyStore(ctx context.Context, cfg RedisConfig) (*RedisIdempotencyStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisIdempotencyStoreWithClient(client, ""), nil
}

// NewRedisIdempotencyStoreWithClient creates a store with an existing Redis client
func NewRedisIdempotencyStoreWithClient(client *redis.Client, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Claim stores a pending marker with SETNX. When the key exists its value
// is returned: uuid.Nil while pending, the resource ID once complete.
func (s *RedisIdempotencyStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, uuid.UUID, error) {
	redisKey := s.keyPrefix + key

	ok, err := s.client.SetNX(ctx, redisKey, pendingValue, ttl).Result()
	if err != nil {
		return false, uuid.Nil, fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	if ok {
		return true, uuid.Nil, nil
	}

	value, err := s.client.Get(ctx, redisKey).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET; report in-flight and let the client retry
		return false, uuid.Nil, nil
	}
	if err != nil {
		return false, uuid.Nil, fmt.Errorf("failed to read idempotency key: %w", err)
	}
	if value == pendingValue {
		return false, uuid.Nil, nil
	}

	id, err := uuid.Parse(value)
	if err != nil {
		return false, uuid.Nil, fmt.Errorf("corrupt idempotency value for %s: %w", key, err)
	}
	return false, id, nil
}

// Complete overwrites the pending marker with the resource ID
func (s *RedisIdempotencyStore) Complete(ctx context.Context, key string, resourceID uuid.UUID, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.keyPrefix+key, resourceID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to complete idempotency key: %w", err)
	}
	return nil
}

// Release deletes the key
func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisIdempotencyStore) Close() error {
	return s.client.Close()
}

// Ensure RedisIdempotencyStore implements IdempotencyStore
var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
