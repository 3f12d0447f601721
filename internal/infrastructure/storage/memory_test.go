package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	invoicingapp "github.com/invoicer/backend/internal/application/invoicing"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryObjectStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryObjectStore("docs")
	store.now = func() time.Time { return time.Unix(1000, 0) }

	body := []byte("%PDF-1.4")
	require.NoError(t, store.Put(ctx, "invoices/a.pdf", body, invoicingapp.ObjectMetadata{ContentType: "application/pdf"}))
	body[0] = 'X'

	got, err := store.Get(ctx, "invoices/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(got))

	obj, ok := store.Object("invoices/a.pdf")
	require.True(t, ok)
	assert.Equal(t, "application/pdf", obj.Metadata.ContentType)

	signed, err := store.SignedReadURL(ctx, "invoices/a.pdf", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "memory://docs/invoices/a.pdf?expires=4600", signed)

	_, err = store.Get(ctx, "invoices/missing.pdf")
	assert.ErrorIs(t, err, invoicingapp.ErrObjectNotFound)
}

func TestMemoryObjectStore_BucketMissing(t *testing.T) {
	store := NewMemoryObjectStore("")
	store.BucketMissing = true

	err := store.Put(context.Background(), "invoices/a.pdf", []byte("x"), invoicingapp.ObjectMetadata{})
	assert.True(t, errors.Is(err, shared.ErrStorageUnavailable))
	assert.Equal(t, 0, store.Len())

	exists, err := store.BucketExists(context.Background())
	assert.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, "local", store.Bucket())
}
