package mail

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryNonces struct {
	mu      sync.Mutex
	entries map[string]string
}

func (m *memoryNonces) Put(_ context.Context, nonce, principalID string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = make(map[string]string)
	}
	m.entries[nonce] = principalID
	return nil
}

func (m *memoryNonces) Consume(_ context.Context, nonce string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.entries[nonce]
	delete(m.entries, nonce)
	return p, ok, nil
}

const stateSecret = "state-secret-state-secret-state-secret"

func TestStateCodec_RoundTripSingleUse(t *testing.T) {
	codec := NewStateCodec(stateSecret, time.Minute, &memoryNonces{})
	ctx := context.Background()

	state, err := codec.Issue(ctx, "user-a")
	require.NoError(t, err)
	assert.NotContains(t, state, "user-a", "principal id is not readable without decoding")

	principal, err := codec.Consume(ctx, state)
	require.NoError(t, err)
	assert.Equal(t, "user-a", principal)

	_, err = codec.Consume(ctx, state)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestStateCodec_Rejects(t *testing.T) {
	ctx := context.Background()
	store := &memoryNonces{}
	codec := NewStateCodec(stateSecret, time.Minute, store)

	t.Run("forged signature", func(t *testing.T) {
		forger := NewStateCodec("another-secret-another-secret-xx", time.Minute, store)
		state, err := forger.Issue(ctx, "user-a")
		require.NoError(t, err)

		_, err = codec.Consume(ctx, state)
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("expired", func(t *testing.T) {
		now := time.Now()
		expiring := NewStateCodec(stateSecret, time.Minute, store)
		expiring.now = func() time.Time { return now }
		state, err := expiring.Issue(ctx, "user-a")
		require.NoError(t, err)

		now = now.Add(2 * time.Minute)
		_, err = expiring.Consume(ctx, state)
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := codec.Consume(ctx, "user-a")
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("empty principal", func(t *testing.T) {
		_, err := codec.Issue(ctx, "")
		assert.Error(t, err)
	})
}
