package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	invoicingapp "github.com/invoicer/backend/internal/application/invoicing"
	"github.com/invoicer/backend/internal/interfaces/http/handler"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.NotNil(t, r)
	assert.Equal(t, "/", r.basePath)
	assert.Empty(t, r.registrars)
}

func TestRouterWithBasePath(t *testing.T) {
	r := NewRouter(gin.New(), WithBasePath("/api"))

	assert.Equal(t, "/api", r.basePath)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithBasePath("/api"))

	group := NewDomainGroup("test", "/test")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	r.Register(group).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/test/ping", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestDomainGroup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	var order []string
	group := NewDomainGroup("gmail", "/gmail").Use(func(c *gin.Context) {
		order = append(order, "group")
		c.Next()
	})
	group.POST("/disconnect", func(c *gin.Context) {
		order = append(order, "handler")
		c.Status(http.StatusOK)
	})
	group.Group("nested", "/nested").GET("/x", func(c *gin.Context) {
		c.Status(http.StatusAccepted)
	})
	r.Register(group).Setup()

	assert.Equal(t, "gmail", group.Name())
	assert.Equal(t, "/gmail", group.Prefix())

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/gmail/disconnect", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"group", "handler"}, order)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/gmail/nested/x", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/gmail/disconnect", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type okBucket struct{}

func (okBucket) BucketExists(context.Context) (bool, error) { return true, nil }
func (okBucket) Bucket() string                              { return "invoices" }

type nopPipeline struct{}

func (nopPipeline) RenderAndPublish(context.Context, string, string) (*invoicingapp.PublishResult, error) {
	return &invoicingapp.PublishResult{URL: "https://signed.example/x.pdf"}, nil
}

func (nopPipeline) SendByEmail(context.Context, string, invoicingapp.SendRequest) error {
	return nil
}

type nopConnector struct{}

func (nopConnector) AuthorizationURL(context.Context, string) (string, error) {
	return "https://consent.example", nil
}

func (nopConnector) CompleteAuthorization(context.Context, string, string) (string, error) {
	return "user-1", nil
}

func (nopConnector) Disconnect(context.Context, string) error { return nil }

func TestRegister(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	deny := func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) }
	Register(r, Handlers{
		System:  handler.NewSystemHandler(okBucket{}, nil),
		Invoice: handler.NewInvoiceHandler(nopPipeline{}, nil),
		Gmail:   handler.NewGmailHandler(nopConnector{}, "https://app.example.com"),
	}, deny)
	r.Setup()

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/gmail/callback?code=c&state=s", http.StatusFound},
		{http.MethodPost, "/send-invoice-email", http.StatusUnauthorized},
		{http.MethodGet, "/gmail/auth-url", http.StatusUnauthorized},
		{http.MethodPost, "/gmail/disconnect", http.StatusUnauthorized},
		// validated before authentication
		{http.MethodPost, "/generate-pdf", http.StatusBadRequest},
		{http.MethodGet, "/api/v1/ping", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, http.NoBody))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
