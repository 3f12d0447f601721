package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	invoicingapp "github.com/invoicer/backend/internal/application/invoicing"
	"github.com/invoicer/backend/internal/infrastructure/auth"
	"github.com/invoicer/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test-secret-at-least-32-bytes-long!!"
	testIssuer = "invoicer-test"
)

type MockPipeline struct {
	mock.Mock
}

func (m *MockPipeline) RenderAndPublish(ctx context.Context, principalID, invoiceID string) (*invoicingapp.PublishResult, error) {
	args := m.Called(ctx, principalID, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicingapp.PublishResult), args.Error(1)
}

func (m *MockPipeline) SendByEmail(ctx context.Context, principalID string, req invoicingapp.SendRequest) error {
	args := m.Called(ctx, principalID, req)
	return args.Error(0)
}

type MockConnector struct {
	mock.Mock
}

func (m *MockConnector) AuthorizationURL(ctx context.Context, principalID string) (string, error) {
	args := m.Called(ctx, principalID)
	return args.String(0), args.Error(1)
}

func (m *MockConnector) CompleteAuthorization(ctx context.Context, code, state string) (string, error) {
	args := m.Called(ctx, code, state)
	return args.String(0), args.Error(1)
}

func (m *MockConnector) Disconnect(ctx context.Context, principalID string) error {
	args := m.Called(ctx, principalID)
	return args.Error(0)
}

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

func newVerifier() *auth.HMACVerifier {
	return auth.NewHMACVerifier(testSecret, testIssuer)
}

func bearer(t *testing.T, v *auth.HMACVerifier, subject string) string {
	t.Helper()
	token, err := v.Issue(subject, subject+"@example.com", time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	return r
}

func doJSON(r http.Handler, method, path string, body any, authHeader string) *httptest.ResponseRecorder {
	var reader io.Reader = http.NoBody
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			raw, _ := json.Marshal(b)
			reader = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
