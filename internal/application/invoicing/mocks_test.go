package invoicing

import (
	"context"
	"sync"
	"time"

	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/infrastructure/mail"
	"github.com/invoicer/backend/internal/infrastructure/printing"
	"github.com/stretchr/testify/mock"
)

// MockInvoiceRepository is a mock implementation of InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id string) (*invoicing.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *invoicing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) MarkPublished(ctx context.Context, id, url string, at time.Time) error {
	args := m.Called(ctx, id, url, at)
	return args.Error(0)
}

func (m *MockInvoiceRepository) MarkEmailed(ctx context.Context, id, recipient string, at time.Time) error {
	args := m.Called(ctx, id, recipient, at)
	return args.Error(0)
}

// MockClientRepository is a mock implementation of ClientRepository
type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) FindByID(ctx context.Context, id string) (*invoicing.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Client), args.Error(1)
}

func (m *MockClientRepository) Save(ctx context.Context, client *invoicing.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

// MockIssuerProfileRepository is a mock implementation of IssuerProfileRepository
type MockIssuerProfileRepository struct {
	mock.Mock
}

func (m *MockIssuerProfileRepository) FindByPrincipal(ctx context.Context, principalID string) (*invoicing.IssuerProfile, error) {
	args := m.Called(ctx, principalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.IssuerProfile), args.Error(1)
}

func (m *MockIssuerProfileRepository) Save(ctx context.Context, profile *invoicing.IssuerProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockIssuerProfileRepository) ConnectMail(ctx context.Context, principalID, mailbox, sealedToken string, at time.Time) error {
	args := m.Called(ctx, principalID, mailbox, sealedToken, at)
	return args.Error(0)
}

func (m *MockIssuerProfileRepository) DisconnectMail(ctx context.Context, principalID string, at time.Time) error {
	args := m.Called(ctx, principalID, at)
	return args.Error(0)
}

// MockObjectStore is a mock implementation of ObjectStore
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Put(ctx context.Context, key string, body []byte, meta ObjectMetadata) error {
	args := m.Called(ctx, key, body, meta)
	return args.Error(0)
}

func (m *MockObjectStore) SignedReadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockRasterizer is a mock implementation of Rasterizer
type MockRasterizer struct {
	mock.Mock
}

func (m *MockRasterizer) Rasterize(ctx context.Context, markup []byte) (*printing.RenderResult, error) {
	args := m.Called(ctx, markup)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*printing.RenderResult), args.Error(1)
}

// MockMailSender is a mock implementation of MailSender
type MockMailSender struct {
	mock.Mock
}

func (m *MockMailSender) Send(ctx context.Context, refreshToken string, env mail.Envelope) (string, error) {
	args := m.Called(ctx, refreshToken, env)
	return args.String(0), args.Error(1)
}

// MockMailAuthorizer is a mock implementation of MailAuthorizer
type MockMailAuthorizer struct {
	mock.Mock
}

func (m *MockMailAuthorizer) AuthorizationURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}

func (m *MockMailAuthorizer) ExchangeCode(ctx context.Context, code string) (*mail.Grant, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mail.Grant), args.Error(1)
}

// MockStateIssuer is a mock implementation of StateIssuer
type MockStateIssuer struct {
	mock.Mock
}

func (m *MockStateIssuer) Issue(ctx context.Context, principalID string) (string, error) {
	args := m.Called(ctx, principalID)
	return args.String(0), args.Error(1)
}

func (m *MockStateIssuer) Consume(ctx context.Context, state string) (string, error) {
	args := m.Called(ctx, state)
	return args.String(0), args.Error(1)
}

// MockTokenSealer is a mock implementation of TokenSealer
type MockTokenSealer struct {
	mock.Mock
}

func (m *MockTokenSealer) Seal(plaintext, principalID string) (string, error) {
	args := m.Called(plaintext, principalID)
	return args.String(0), args.Error(1)
}

func (m *MockTokenSealer) Open(sealed, principalID string) (string, error) {
	args := m.Called(sealed, principalID)
	return args.String(0), args.Error(1)
}

// fakeLocker grants the lock unless held is set, and counts releases.
type fakeLocker struct {
	mu       sync.Mutex
	held     bool
	attempts int
	releases int
}

func (l *fakeLocker) TryLock(_ context.Context, _ string, _ time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attempts++
	if l.held {
		return nil, nil
	}
	return func() {
		l.mu.Lock()
		l.releases++
		l.mu.Unlock()
	}, nil
}

func (l *fakeLocker) counts() (attempts, releases int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.attempts, l.releases
}
