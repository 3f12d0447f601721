package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

const frontendURL = "https://app.example.com/settings"

func newGmailRouter(connector MailConnector) *gin.Engine {
	verifier := newVerifier()
	h := NewGmailHandler(connector, frontendURL)
	r := newEngine()
	authed := middleware.BearerAuth(verifier, nil)
	r.GET("/gmail/auth-url", authed, h.AuthURL)
	r.GET("/gmail/callback", h.Callback)
	r.POST("/gmail/disconnect", authed, h.Disconnect)
	return r
}

func TestGmailHandler_AuthURL(t *testing.T) {
	verifier := newVerifier()

	t.Run("returns the consent url", func(t *testing.T) {
		connector := new(MockConnector)
		connector.On("AuthorizationURL", mock.Anything, "user-1").
			Return("https://accounts.google.com/o/oauth2/auth?state=abc", nil)

		w := doJSON(newGmailRouter(connector), http.MethodGet, "/gmail/auth-url", nil, bearer(t, verifier, "user-1"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"authUrl":"https://accounts.google.com/o/oauth2/auth?state=abc"}`, w.Body.String())
	})

	t.Run("requires authentication", func(t *testing.T) {
		connector := new(MockConnector)

		w := doJSON(newGmailRouter(connector), http.MethodGet, "/gmail/auth-url", nil, "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		connector.AssertNotCalled(t, "AuthorizationURL", mock.Anything, mock.Anything)
	})

	t.Run("state failure", func(t *testing.T) {
		connector := new(MockConnector)
		connector.On("AuthorizationURL", mock.Anything, "user-1").Return("", errors.New("redis down"))

		w := doJSON(newGmailRouter(connector), http.MethodGet, "/gmail/auth-url", nil, bearer(t, verifier, "user-1"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestGmailHandler_Callback(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		setup    func(*MockConnector)
		location string
	}{
		{
			name:  "connected",
			query: "?code=auth-code&state=signed-state",
			setup: func(m *MockConnector) {
				m.On("CompleteAuthorization", mock.Anything, "auth-code", "signed-state").Return("user-1", nil)
			},
			location: frontendURL + "?gmail=connected",
		},
		{
			name:     "provider error",
			query:    "?error=access_denied&state=signed-state",
			location: frontendURL + "?gmail=error",
		},
		{
			name:     "missing code",
			query:    "?state=signed-state",
			location: frontendURL + "?gmail=error",
		},
		{
			name:     "missing state",
			query:    "?code=auth-code",
			location: frontendURL + "?gmail=error",
		},
		{
			name:  "exchange failure",
			query: "?code=auth-code&state=signed-state",
			setup: func(m *MockConnector) {
				m.On("CompleteAuthorization", mock.Anything, "auth-code", "signed-state").
					Return("", shared.ErrNoRefreshTokenIssued)
			},
			location: frontendURL + "?gmail=error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			connector := new(MockConnector)
			if tt.setup != nil {
				tt.setup(connector)
			}

			w := doJSON(newGmailRouter(connector), http.MethodGet, "/gmail/callback"+tt.query, nil, "")

			assert.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, tt.location, w.Header().Get("Location"))
			connector.AssertExpectations(t)
			if tt.setup == nil {
				connector.AssertNotCalled(t, "CompleteAuthorization", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestGmailHandler_Disconnect(t *testing.T) {
	verifier := newVerifier()

	t.Run("success", func(t *testing.T) {
		connector := new(MockConnector)
		connector.On("Disconnect", mock.Anything, "user-1").Return(nil)

		w := doJSON(newGmailRouter(connector), http.MethodPost, "/gmail/disconnect", nil, bearer(t, verifier, "user-1"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"message":"Gmail disconnected"}`, w.Body.String())
	})

	t.Run("repository failure", func(t *testing.T) {
		connector := new(MockConnector)
		connector.On("Disconnect", mock.Anything, "user-1").Return(errors.New("db closed"))

		w := doJSON(newGmailRouter(connector), http.MethodPost, "/gmail/disconnect", nil, bearer(t, verifier, "user-1"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Failed to disconnect Gmail", decode(t, w)["error"])
	})
}
