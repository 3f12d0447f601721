package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	invoicingapp "github.com/invoicer/backend/internal/application/invoicing"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// releaseScript deletes the lock only if it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements Locker using Redis
// Locks are shared by every instance connected to the same Redis
type RedisLocker struct {
	client    redis.UniversalClient
	keyPrefix string
	logger    *zap.Logger
}

// NewRedisLocker creates a locker with an existing Redis client
func NewRedisLocker(client redis.UniversalClient, logger *zap.Logger) *RedisLocker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLocker{
		client:    client,
		keyPrefix: "lock:",
		logger:    logger,
	}
}

// TryLock uses SET NX PX so the lock expires even if the holder dies
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	redisKey := l.keyPrefix + key
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, redisKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !ok {
		return nil, nil
	}

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err(); err != nil {
			l.logger.Warn("failed to release lock", zap.String("key", redisKey), zap.Error(err))
		}
	}, nil
}

// Ensure RedisLocker implements Locker
var _ invoicingapp.Locker = (*RedisLocker)(nil)
