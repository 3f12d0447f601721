package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	invoicingapp "github.com/invoicer/backend/internal/application/invoicing"
)

// lockEntry represents a held lock with expiration
type lockEntry struct {
	token     string
	expiresAt time.Time
}

// InMemoryLocker implements Locker using an in-memory map
// This is suitable for single-instance deployments and testing
type InMemoryLocker struct {
	mu        sync.Mutex
	entries   map[string]lockEntry
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryLocker creates a new in-memory locker
// It starts a background goroutine to clean up expired entries
func NewInMemoryLocker() *InMemoryLocker {
	l := &InMemoryLocker{
		entries:  make(map[string]lockEntry),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	l.wg.Add(1)
	go l.cleanupLoop()

	return l
}

// TryLock takes the lock for key unless another holder has an unexpired entry
func (l *InMemoryLocker) TryLock(_ context.Context, key string, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, exists := l.entries[key]; exists && now.Before(e.expiresAt) {
		return nil, nil
	}

	token := uuid.NewString()
	l.entries[key] = lockEntry{token: token, expiresAt: now.Add(ttl)}

	return func() { l.release(key, token) }, nil
}

// release deletes the entry only if it still belongs to token
func (l *InMemoryLocker) release(key, token string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, exists := l.entries[key]; exists && e.token == token {
		delete(l.entries, key)
	}
}

// Close stops the cleanup goroutine and releases resources
// Safe to call multiple times
func (l *InMemoryLocker) Close() error {
	l.closeOnce.Do(func() {
		close(l.stopChan)
		l.wg.Wait()
	})
	return nil
}

func (l *InMemoryLocker) cleanupLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			return
		case <-ticker.C:
			l.cleanup()
		}
	}
}

func (l *InMemoryLocker) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, e := range l.entries {
		if now.After(e.expiresAt) {
			delete(l.entries, key)
		}
	}
}

// Size returns the number of entries in the store (for testing/monitoring)
func (l *InMemoryLocker) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Ensure InMemoryLocker implements Locker
var _ invoicingapp.Locker = (*InMemoryLocker)(nil)
