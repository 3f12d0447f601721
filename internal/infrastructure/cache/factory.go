package cache

import (
	"context"
	"fmt"
	"time"

	invoicingapp "github.com/invoicer/backend/internal/application/invoicing"
	"github.com/invoicer/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Coordination bundles the shared-state stores used by the invoicing services.
type Coordination struct {
	Locker     invoicingapp.Locker
	StateStore invoicingapp.StateStore
	close      func() error
}

// Close releases the underlying client or background goroutines
func (c *Coordination) Close() error {
	if c.close == nil {
		return nil
	}
	return c.close()
}

// Factory creates coordination stores based on configuration
type Factory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory stores when Redis is unavailable
// Default is true (allow fallback)
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a new factory
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// CreateRedis creates Redis-backed stores
func (f *Factory) CreateRedis() (*Coordination, error) {
	client, err := NewRedisClient(f.redisConfig)
	if err != nil {
		return nil, err
	}
	return &Coordination{
		Locker:     NewRedisLocker(client, f.logger),
		StateStore: NewRedisStateStore(client),
		close:      client.Close,
	}, nil
}

// CreateInMemory creates process-local stores
// WARNING: In-memory stores do not share state across process instances
func (f *Factory) CreateInMemory() *Coordination {
	locker := NewInMemoryLocker()
	return &Coordination{
		Locker:     locker,
		StateStore: NewInMemoryStateStore(),
		close:      locker.Close,
	}
}

// Create returns Redis-backed stores when Redis is enabled and reachable.
// It falls back to in-memory stores if Redis is disabled, or if it is
// unreachable and fallback is allowed.
func (f *Factory) Create() (*Coordination, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Redis disabled, using in-memory coordination stores")
		return f.CreateInMemory(), nil
	}

	c, err := f.CreateRedis()
	if err == nil {
		f.logger.Info("using Redis coordination stores", zap.String("addr", f.redisConfig.Addr()))
		return c, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory coordination stores. "+
		"Render locks and OAuth state are not shared between instances.",
		zap.Error(err),
	)
	return f.CreateInMemory(), nil
}
