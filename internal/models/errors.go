package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes returned in the "code" field of every error response.
const (
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeNotFound        = "NOT_FOUND"
	CodeFieldValidation = "FIELD_VALIDATION"
	CodeMalformedFilter = "MALFORMED_FILTER"
	CodeStoreFailure    = "STORE_FAILURE"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Fields  map[string]string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the status code a handler should answer with.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case CodeUnauthenticated:
		return fiber.StatusUnauthorized
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeFieldValidation, CodeMalformedFilter:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewUnauthenticatedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthenticated,
		Message: message,
	}
}

// NewFieldValidationError reports every offending field at once.
func NewFieldValidationError(fields map[string]string) *AppError {
	return &AppError{
		Code:    CodeFieldValidation,
		Message: "validation failed",
		Fields:  fields,
	}
}

// NewValidationError is a single-field-less validation failure, e.g. bad credentials.
func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeFieldValidation,
		Message: message,
	}
}

func NewMalformedFilterError(param, value string) *AppError {
	return &AppError{
		Code:    CodeMalformedFilter,
		Message: fmt.Sprintf("invalid value %q for filter %s", value, param),
	}
}

func NewStoreError(err error) *AppError {
	return &AppError{
		Code:    CodeStoreFailure,
		Message: "Internal server error",
		Err:     err,
	}
}

// StatusFor maps any error to the HTTP status it should be reported with.
func StatusFor(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus()
	}
	return fiber.StatusInternalServerError
}

// RespondWithError creates a standardized error response. Store failures
// never leak the underlying driver error to the client.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	if errors.As(err, &appErr) {
		response = ErrorResponse{
			Error:  appErr.Message,
			Code:   appErr.Code,
			Fields: appErr.Fields,
		}
	} else {
		response = ErrorResponse{
			Error: "Internal server error",
			Code:  CodeStoreFailure,
		}
	}

	return c.Status(status).JSON(response)
}
