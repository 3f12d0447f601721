package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/invoicer/backend/internal/infrastructure/auth"
	"github.com/invoicer/backend/internal/infrastructure/logger"
	"github.com/invoicer/backend/internal/interfaces/http/dto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Context keys set by BearerAuth
const (
	PrincipalKey   = "principal"
	PrincipalIDKey = logger.GinPrincipalIDKey
	AuthHeaderKey  = "Authorization"
)

// BearerAuth verifies the Authorization header and stores the principal in
// the gin context. Requests without a valid token are aborted with 401.
func BearerAuth(verifier auth.TokenVerifier, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if Authenticate(c, verifier, log) == nil {
			return
		}
		c.Next()
	}
}

// Authenticate verifies the Authorization header in place. On failure it
// aborts the request with 401 and returns nil. Handlers that must validate
// their input before authenticating call it directly.
func Authenticate(c *gin.Context, verifier auth.TokenVerifier, log *zap.Logger) *auth.Principal {
	principal, err := auth.Verify(c.Request.Context(), verifier, c.GetHeader(AuthHeaderKey))
	if err != nil {
		if log != nil {
			log.Debug("bearer authentication failed",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err))
		}
		status, body := dto.NewErrorResponse(err, "Unauthorized")
		body.RequestID = GetRequestID(c)
		c.AbortWithStatusJSON(status, body)
		return nil
	}

	c.Set(PrincipalKey, principal)
	c.Set(PrincipalIDKey, principal.ID)

	ctx := logger.WithPrincipalID(c.Request.Context(), principal.ID)
	c.Request = c.Request.WithContext(ctx)

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(attribute.String("principal_id", principal.ID))
	}
	return principal
}

// GetPrincipal retrieves the authenticated principal from gin.Context
func GetPrincipal(c *gin.Context) *auth.Principal {
	if v, exists := c.Get(PrincipalKey); exists {
		if p, ok := v.(*auth.Principal); ok {
			return p
		}
	}
	return nil
}

// GetPrincipalID retrieves the authenticated principal id from gin.Context
func GetPrincipalID(c *gin.Context) string {
	return c.GetString(PrincipalIDKey)
}
