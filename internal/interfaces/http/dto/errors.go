package dto

import (
	"errors"
	"net/http"

	"github.com/invoicer/backend/internal/domain/shared"
)

// errorSpec describes how a domain error code is rendered over HTTP.
type errorSpec struct {
	status int
	// summary is the "error" field. Empty means the caller's operation summary.
	summary string
	// detail includes the underlying message in the "message" field.
	detail bool
}

// errorTable maps domain error codes to HTTP status codes and summaries
var errorTable = map[string]errorSpec{
	// Authentication
	shared.CodeUnauthorized: {status: http.StatusUnauthorized, summary: "Unauthorized"},
	shared.CodeInvalidToken: {status: http.StatusUnauthorized, summary: "Invalid token"},
	shared.CodeForbidden:    {status: http.StatusForbidden, summary: "Forbidden"},

	// Resource
	shared.CodeNotFound: {status: http.StatusNotFound, summary: "Invoice not found"},

	// Input and preconditions -> 400 Bad Request
	shared.CodeValidation:           {status: http.StatusBadRequest},
	shared.CodeMailNotConnected:     {status: http.StatusBadRequest, summary: "Gmail not connected", detail: true},
	shared.CodeAttachmentMissing:    {status: http.StatusBadRequest, summary: "PDF not generated", detail: true},
	shared.CodeNoRefreshTokenIssued: {status: http.StatusBadRequest, summary: "Gmail authorization incomplete", detail: true},

	// Upstream provider
	shared.CodeMailSendFailure: {status: http.StatusBadGateway, summary: "Failed to send email", detail: true},

	// Pipeline failures -> 500
	shared.CodeRenderTimeout:        {status: http.StatusInternalServerError, detail: true},
	shared.CodeRenderProcessFailure: {status: http.StatusInternalServerError, detail: true},
	shared.CodeStorageUnavailable:   {status: http.StatusInternalServerError, detail: true},
	shared.CodeStorageIO:            {status: http.StatusInternalServerError, detail: true},
	shared.CodeInternal:             {status: http.StatusInternalServerError, detail: true},
}

// GetHTTPStatus returns the HTTP status code for a domain error code.
// Unknown codes map to 500 Internal Server Error.
func GetHTTPStatus(code string) int {
	if entry, ok := errorTable[code]; ok {
		return entry.status
	}
	return http.StatusInternalServerError
}

// NewErrorResponse converts err into a status code and body. operation is the
// summary used for server-side failures, e.g. "Failed to generate PDF".
func NewErrorResponse(err error, operation string) (int, ErrorResponse) {
	code := shared.CodeOf(err)
	entry, ok := errorTable[code]
	if !ok {
		entry = errorTable[shared.CodeInternal]
	}

	resp := ErrorResponse{Error: entry.summary, Code: code}
	if code == shared.CodeValidation {
		resp.Error = domainMessage(err)
		return entry.status, resp
	}
	if resp.Error == "" {
		resp.Error = operation
	}
	if resp.Error == "" {
		resp.Error = "Internal server error"
	}
	if entry.detail {
		resp.Message = domainMessage(err)
	}
	return entry.status, resp
}

// domainMessage returns the message of the first DomainError in err's chain.
func domainMessage(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return err.Error()
}
