// Package testutil provides common test utilities for the invoice service.
// It contains helpers for building fixtures, faking the database and
// driving gin handlers.
package testutil

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/invoicing"
	"github.com/invoicer/backend/internal/infrastructure/auth"
	"github.com/invoicer/backend/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// TokenSecret and TokenIssuer configure the HMAC verifier used in tests.
const (
	TokenSecret = "integration-secret-at-least-32-bytes!"
	TokenIssuer = "invoicer-test"
)

// MockDB wraps a GORM database with sqlmock for testing.
type MockDB struct {
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

// NewMockDB creates a postgres-dialect GORM connection backed by sqlmock.
// The connection is closed when the test ends.
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create sqlmock")

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err, "Failed to open GORM connection")

	m := &MockDB{
		DB:    gormDB,
		Mock:  mock,
		SqlDB: mockDB,
	}
	t.Cleanup(func() { _ = m.SqlDB.Close() })
	return m
}

// ExpectationsWereMet verifies that all expectations were met.
func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	err := m.Mock.ExpectationsWereMet()
	require.NoError(t, err, "Unmet database expectations")
}

// TestContext wraps a Gin test context with HTTP recorder.
type TestContext struct {
	Context  *gin.Context
	Recorder *httptest.ResponseRecorder
	Engine   *gin.Engine
}

// NewTestContext creates a new Gin test context.
func NewTestContext(t *testing.T) *TestContext {
	t.Helper()

	w := httptest.NewRecorder()
	c, engine := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	return &TestContext{
		Context:  c,
		Recorder: w,
		Engine:   engine,
	}
}

// SetRequestID sets the request id the way the RequestID middleware does.
func (tc *TestContext) SetRequestID(id string) {
	tc.Context.Set(logger.GinRequestIDKey, id)
}

// SetPrincipalID marks the request as authenticated by id.
func (tc *TestContext) SetPrincipalID(id string) {
	tc.Context.Set(logger.GinPrincipalIDKey, id)
	tc.Context.Request = tc.Context.Request.WithContext(
		logger.WithPrincipalID(tc.Context.Request.Context(), id))
}

// SetHeader sets a header on the request.
func (tc *TestContext) SetHeader(key, value string) {
	tc.Context.Request.Header.Set(key, value)
}

// ResponseBody returns the response body as bytes.
func (tc *TestContext) ResponseBody() []byte {
	return tc.Recorder.Body.Bytes()
}

// ResponseCode returns the HTTP status code.
func (tc *TestContext) ResponseCode() int {
	return tc.Recorder.Code
}

// NewTestUUID generates a deterministic UUID for testing.
func NewTestUUID(seed string) uuid.UUID {
	namespace := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	return uuid.NewSHA1(namespace, []byte(seed))
}

// NewVerifier returns the HMAC verifier matching BearerToken.
func NewVerifier() *auth.HMACVerifier {
	return auth.NewHMACVerifier(TokenSecret, TokenIssuer)
}

// BearerToken returns an Authorization header value for principalID.
func BearerToken(t *testing.T, principalID string) string {
	t.Helper()
	token, err := NewVerifier().Issue(principalID, principalID+"@example.com", time.Hour)
	require.NoError(t, err, "Failed to issue token")
	return "Bearer " + token
}

// NewClient returns a client owned by ownerID.
func NewClient(ownerID string) *invoicing.Client {
	now := time.Now().UTC().Truncate(time.Second)
	return &invoicing.Client{
		ID:        NewTestUUID("client-" + ownerID).String(),
		OwnedBy:   ownerID,
		Name:      "Globex Corporation",
		Email:     "ap@globex.example",
		Address:   "1 Globex Way\nCypress Creek",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewInvoice returns a draft invoice of 80 hours at 75 USD with totals applied.
func NewInvoice(ownerID, clientID, number string) *invoicing.Invoice {
	now := time.Now().UTC().Truncate(time.Second)
	issued := time.Date(2025, 10, 31, 0, 0, 0, 0, time.UTC)
	inv := &invoicing.Invoice{
		ID:        NewTestUUID("invoice-" + ownerID + "-" + number).String(),
		OwnedBy:   ownerID,
		ClientID:  clientID,
		Number:    number,
		IssueDate: issued,
		DueDate:   issued,
		Items: []invoicing.LineItem{{
			Description: "2025 Week 43 & 44 Salary",
			Quantity:    decimal.NewFromInt(80),
			UnitPrice:   decimal.NewFromInt(75),
		}},
		TaxRate:   decimal.Zero,
		Currency:  "USD",
		Status:    invoicing.StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	inv.ApplyTotals()
	return inv
}

// ContextWithTimeout creates a context that is cancelled when the test ends.
func ContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// AssertEventually retries condition until it passes or times out.
func AssertEventually(t *testing.T, condition func() bool, timeout, interval time.Duration, msgAndArgs ...any) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(interval)
	}

	require.Fail(t, "Condition not met within timeout", msgAndArgs...)
}
