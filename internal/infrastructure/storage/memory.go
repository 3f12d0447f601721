package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	invoicingapp "github.com/invoicer/backend/internal/application/invoicing"
	"github.com/invoicer/backend/internal/domain/shared"
)

// StoredObject is an object held by MemoryObjectStore.
type StoredObject struct {
	Body     []byte
	Metadata invoicingapp.ObjectMetadata
}

// MemoryObjectStore keeps objects in process memory. It is used in
// development when no bucket is configured and in tests.
type MemoryObjectStore struct {
	// BaseURL prefixes signed URLs. Defaults to "memory://<bucket>".
	BaseURL string
	// BucketMissing simulates a bucket that was never created.
	BucketMissing bool

	bucket  string
	mu      sync.RWMutex
	objects map[string]StoredObject
	now     func() time.Time
}

// Ensure MemoryObjectStore implements ObjectStore
var _ invoicingapp.ObjectStore = (*MemoryObjectStore)(nil)

// NewMemoryObjectStore creates an empty store for bucket.
func NewMemoryObjectStore(bucket string) *MemoryObjectStore {
	if bucket == "" {
		bucket = "local"
	}
	return &MemoryObjectStore{
		BaseURL: "memory://" + bucket,
		bucket:  bucket,
		objects: make(map[string]StoredObject),
		now:     time.Now,
	}
}

// Put stores a copy of body under key.
func (s *MemoryObjectStore) Put(_ context.Context, key string, body []byte, meta invoicingapp.ObjectMetadata) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	if s.BucketMissing {
		return shared.NewDomainError(shared.CodeStorageUnavailable, "storage bucket does not exist")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = StoredObject{Body: append([]byte(nil), body...), Metadata: meta}
	return nil
}

// SignedReadURL returns a pseudo URL carrying the expiry time.
func (s *MemoryObjectStore) SignedReadURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	if key == "" {
		return "", errors.New("storage key is required")
	}
	expires := s.now().Add(ttl).Unix()
	return fmt.Sprintf("%s/%s?expires=%d", s.BaseURL, key, expires), nil
}

// Get returns a copy of the object under key.
func (s *MemoryObjectStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, invoicingapp.ErrObjectNotFound
	}
	return append([]byte(nil), obj.Body...), nil
}

// Object returns the stored object and whether it exists.
func (s *MemoryObjectStore) Object(key string) (StoredObject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	return obj, ok
}

// Len returns the number of stored objects
func (s *MemoryObjectStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// BucketExists reports false only when BucketMissing is set.
func (s *MemoryObjectStore) BucketExists(context.Context) (bool, error) {
	return !s.BucketMissing, nil
}

// Bucket returns the bucket name
func (s *MemoryObjectStore) Bucket() string {
	return s.bucket
}
