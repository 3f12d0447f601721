package shared

import "errors"

// Error codes for the invoice pipeline taxonomy.
const (
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeInvalidToken         = "INVALID_TOKEN"
	CodeForbidden            = "FORBIDDEN"
	CodeNotFound             = "NOT_FOUND"
	CodeValidation           = "VALIDATION_FAILED"
	CodeRenderTimeout        = "RENDER_TIMEOUT"
	CodeRenderProcessFailure = "RENDER_PROCESS_FAILURE"
	CodeStorageUnavailable   = "STORAGE_UNAVAILABLE"
	CodeStorageIO            = "STORAGE_IO_ERROR"
	CodeMailNotConnected     = "MAIL_NOT_CONNECTED"
	CodeNoRefreshTokenIssued = "NO_REFRESH_TOKEN_ISSUED"
	CodeMailSendFailure      = "MAIL_SEND_FAILURE"
	CodeAttachmentMissing    = "ATTACHMENT_MISSING"
	CodeInternal             = "INTERNAL_ERROR"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a DomainError carrying the same code, so a
// wrapped error still matches the package sentinels.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a domain error with the given code that wraps cause.
func Wrap(code, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf returns the code of the first DomainError in err's chain, or
// CodeInternal when there is none.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// Pipeline errors
var (
	ErrUnauthorized         = NewDomainError(CodeUnauthorized, "Unauthorized")
	ErrInvalidToken         = NewDomainError(CodeInvalidToken, "Invalid token")
	ErrForbidden            = NewDomainError(CodeForbidden, "Forbidden")
	ErrNotFound             = NewDomainError(CodeNotFound, "Resource not found")
	ErrValidation           = NewDomainError(CodeValidation, "Validation failed")
	ErrRenderTimeout        = NewDomainError(CodeRenderTimeout, "Document did not settle before the render deadline")
	ErrRenderProcessFailure = NewDomainError(CodeRenderProcessFailure, "Rendering process failed")
	ErrStorageUnavailable   = NewDomainError(CodeStorageUnavailable, "Storage bucket does not exist")
	ErrStorageIO            = NewDomainError(CodeStorageIO, "Storage operation failed")
	ErrMailNotConnected     = NewDomainError(CodeMailNotConnected, "Gmail is not connected")
	ErrNoRefreshTokenIssued = NewDomainError(CodeNoRefreshTokenIssued, "Provider did not issue a refresh token")
	ErrMailSendFailure      = NewDomainError(CodeMailSendFailure, "Failed to send email")
	ErrAttachmentMissing    = NewDomainError(CodeAttachmentMissing, "Invoice PDF has not been generated yet")
)
