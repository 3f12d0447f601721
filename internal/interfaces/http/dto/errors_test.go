package dto

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{shared.CodeUnauthorized, http.StatusUnauthorized},
		{shared.CodeInvalidToken, http.StatusUnauthorized},
		{shared.CodeForbidden, http.StatusForbidden},
		{shared.CodeNotFound, http.StatusNotFound},
		{shared.CodeValidation, http.StatusBadRequest},
		{shared.CodeMailNotConnected, http.StatusBadRequest},
		{shared.CodeAttachmentMissing, http.StatusBadRequest},
		{shared.CodeMailSendFailure, http.StatusBadGateway},
		{shared.CodeRenderTimeout, http.StatusInternalServerError},
		{shared.CodeRenderProcessFailure, http.StatusInternalServerError},
		{shared.CodeStorageUnavailable, http.StatusInternalServerError},
		{shared.CodeStorageIO, http.StatusInternalServerError},
		// Unknown code should return 500
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNewErrorResponse(t *testing.T) {
	t.Run("auth errors carry only the summary", func(t *testing.T) {
		status, body := NewErrorResponse(shared.ErrForbidden, "Failed to generate PDF")
		assert.Equal(t, http.StatusForbidden, status)
		assert.Equal(t, "Forbidden", body.Error)
		assert.Empty(t, body.Message)
		assert.Equal(t, shared.CodeForbidden, body.Code)
	})

	t.Run("validation uses the domain message as summary", func(t *testing.T) {
		status, body := NewErrorResponse(shared.NewDomainError(shared.CodeValidation, "invoiceId is required"), "")
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "invoiceId is required", body.Error)
	})

	t.Run("pipeline failures use the operation summary", func(t *testing.T) {
		err := fmt.Errorf("publish: %w",
			shared.Wrap(shared.CodeStorageUnavailable, `storage bucket "invoices" does not exist`, nil))
		status, body := NewErrorResponse(err, "Failed to generate PDF")
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, "Failed to generate PDF", body.Error)
		assert.Equal(t, `storage bucket "invoices" does not exist`, body.Message)
		assert.Equal(t, shared.CodeStorageUnavailable, body.Code)
	})

	t.Run("plain errors are internal", func(t *testing.T) {
		status, body := NewErrorResponse(errors.New("boom"), "Failed to send email")
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, "Failed to send email", body.Error)
		assert.Equal(t, "boom", body.Message)
		assert.Equal(t, shared.CodeInternal, body.Code)
	})

	t.Run("provider failure is a bad gateway", func(t *testing.T) {
		status, body := NewErrorResponse(shared.Wrap(shared.CodeMailSendFailure, "Daily sending quota exceeded", nil), "")
		assert.Equal(t, http.StatusBadGateway, status)
		assert.Equal(t, "Failed to send email", body.Error)
		assert.Equal(t, "Daily sending quota exceeded", body.Message)
	})
}
