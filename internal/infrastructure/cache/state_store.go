package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	invoicingapp "github.com/invoicer/backend/internal/application/invoicing"
	"github.com/redis/go-redis/v9"
)

// RedisStateStore implements StateStore using Redis. Each nonce is stored
// with a TTL and removed atomically when consumed, so a state value can
// complete at most one authorization.
type RedisStateStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisStateStore creates a state store with an existing Redis client
func NewRedisStateStore(client redis.UniversalClient) *RedisStateStore {
	return &RedisStateStore{
		client:    client,
		keyPrefix: "oauth:state:",
	}
}

func (s *RedisStateStore) key(nonce string) string {
	return s.keyPrefix + nonce
}

// Put records nonce as issued to principalID
func (s *RedisStateStore) Put(ctx context.Context, nonce, principalID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(nonce), principalID, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store oauth state: %w", err)
	}
	return nil
}

// Consume removes nonce and returns the principal it was issued to
func (s *RedisStateStore) Consume(ctx context.Context, nonce string) (string, bool, error) {
	principalID, err := s.client.GetDel(ctx, s.key(nonce)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to consume oauth state: %w", err)
	}
	return principalID, true, nil
}

var _ invoicingapp.StateStore = (*RedisStateStore)(nil)

type stateEntry struct {
	principalID string
	expiresAt   time.Time
}

// InMemoryStateStore provides an in-memory implementation
// WARNING: This should not be used in production with multiple instances
type InMemoryStateStore struct {
	mu      sync.Mutex
	entries map[string]stateEntry
	now     func() time.Time
}

// NewInMemoryStateStore creates a new in-memory state store
func NewInMemoryStateStore() *InMemoryStateStore {
	return &InMemoryStateStore{
		entries: make(map[string]stateEntry),
		now:     time.Now,
	}
}

// Put records nonce as issued to principalID
func (s *InMemoryStateStore) Put(_ context.Context, nonce, principalID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
		}
	}
	s.entries[nonce] = stateEntry{principalID: principalID, expiresAt: now.Add(ttl)}
	return nil
}

// Consume removes nonce and returns the principal it was issued to
func (s *InMemoryStateStore) Consume(_ context.Context, nonce string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[nonce]
	if !ok {
		return "", false, nil
	}
	delete(s.entries, nonce)
	if s.now().After(entry.expiresAt) {
		return "", false, nil
	}
	return entry.principalID, true, nil
}

var _ invoicingapp.StateStore = (*InMemoryStateStore)(nil)
