package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/invoicer/backend/internal/interfaces/http/dto"
)

// SetupValidator makes validation errors name fields by their JSON tags.
func SetupValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			}
			return name
		})
	}
}

// FormatValidationErrors builds the 400 body for a binding error. Malformed
// JSON yields a response without field details.
func FormatValidationErrors(err error, requestID string) dto.ValidationErrorResponse {
	resp := dto.ValidationErrorResponse{
		Error:     "Request validation failed",
		Code:      shared.CodeValidation,
		RequestID: requestID,
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		resp.Error = "Invalid request body"
		return resp
	}
	for _, e := range validationErrors {
		resp.Details = append(resp.Details, dto.ValidationDetail{
			Field:   e.Field(),
			Message: getValidationMessage(e),
		})
	}
	if len(resp.Details) == 1 && resp.Details[0].Message == requiredMessage {
		resp.Error = resp.Details[0].Field + " is required"
	}
	return resp
}

// HandleValidationError aborts with a validation error response
func HandleValidationError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, FormatValidationErrors(err, GetRequestID(c)))
}

const requiredMessage = "This field is required"

// getValidationMessage returns a human-readable validation message
func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return requiredMessage
	case "email":
		return "Invalid email format"
	case "max":
		if e.Type().Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "uuid":
		return "Invalid UUID format"
	default:
		return "Invalid value"
	}
}
