package invoicing

import (
	"context"
	"errors"
	"time"

	"github.com/invoicer/backend/internal/infrastructure/mail"
	"github.com/invoicer/backend/internal/infrastructure/printing"
)

// ErrObjectNotFound is returned by an ObjectStore when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ObjectMetadata is stored alongside an object.
type ObjectMetadata struct {
	ContentType  string
	CacheControl string
	Attributes   map[string]string
}

// ObjectStore defines the interface for the document bucket.
type ObjectStore interface {
	// Put writes body under key, replacing any previous object. It fails with
	// StorageUnavailable when the bucket does not exist.
	Put(ctx context.Context, key string, body []byte, meta ObjectMetadata) error

	// SignedReadURL returns a time-limited read URL for key
	SignedReadURL(ctx context.Context, key string, ttl time.Duration) (string, error)

	// Get returns the object bytes or ErrObjectNotFound
	Get(ctx context.Context, key string) ([]byte, error)
}

// MarkupRenderer produces the invoice HTML document.
type MarkupRenderer interface {
	Render(view printing.InvoiceView) ([]byte, error)
}

// Locker serializes work on a single key across processes.
type Locker interface {
	// TryLock attempts to take the lock once. The returned unlock func is nil
	// when the lock is held elsewhere.
	TryLock(ctx context.Context, key string, ttl time.Duration) (unlock func(), err error)
}

// StateStore records single-use OAuth state nonces.
type StateStore interface {
	Put(ctx context.Context, nonce, principalID string, ttl time.Duration) error
	// Consume removes the nonce and returns the principal it was issued to.
	// The second result is false when the nonce is unknown or expired.
	Consume(ctx context.Context, nonce string) (string, bool, error)
}

// TokenSealer encrypts mail refresh tokens at rest, bound to their owner.
type TokenSealer interface {
	Seal(plaintext, principalID string) (string, error)
	Open(sealed, principalID string) (string, error)
}

// Rasterizer turns rendered markup into a PDF.
type Rasterizer interface {
	Rasterize(ctx context.Context, markup []byte) (*printing.RenderResult, error)
}

// MailSender delivers an envelope using a refresh token.
type MailSender interface {
	Send(ctx context.Context, refreshToken string, env mail.Envelope) (string, error)
}

// MailAuthorizer runs the provider side of the OAuth consent flow.
type MailAuthorizer interface {
	AuthorizationURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*mail.Grant, error)
}

// StateIssuer issues and redeems single-use OAuth state values.
type StateIssuer interface {
	Issue(ctx context.Context, principalID string) (string, error)
	Consume(ctx context.Context, state string) (string, error)
}
