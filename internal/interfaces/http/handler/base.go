// Package handler implements the HTTP endpoints of the invoice service.
package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	invoicingapp "github.com/invoicer/backend/internal/application/invoicing"
	"github.com/invoicer/backend/internal/infrastructure/logger"
	"github.com/invoicer/backend/internal/interfaces/http/dto"
	"github.com/invoicer/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// DocumentPipeline renders, publishes and emails invoice documents.
type DocumentPipeline interface {
	RenderAndPublish(ctx context.Context, principalID, invoiceID string) (*invoicingapp.PublishResult, error)
	SendByEmail(ctx context.Context, principalID string, req invoicingapp.SendRequest) error
}

// MailConnector manages a principal's mailbox connection.
type MailConnector interface {
	AuthorizationURL(ctx context.Context, principalID string) (string, error)
	CompleteAuthorization(ctx context.Context, code, state string) (string, error)
	Disconnect(ctx context.Context, principalID string) error
}

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Error writes err as an ErrorResponse. operation is the summary used for
// server-side failures.
func (h *BaseHandler) Error(c *gin.Context, err error, operation string) {
	status, body := dto.NewErrorResponse(err, operation)
	body.RequestID = middleware.GetRequestID(c)
	if status >= 500 {
		logger.GetGinLogger(c).Error(operation, zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(status, body)
}
