package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes used across the API and the operation gateway.
const (
	CodeNotFound               = "NOT_FOUND"
	CodeKeyNotFound            = "KEY_NOT_FOUND"
	CodePersistedOperationOnly = "PERSISTED_OPERATION_ONLY"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeValidation             = "VALIDATION_ERROR"
	CodeInternal               = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
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

// Predefined error constructors
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: CodeNotFound, Message: message}
}

func NewKeyNotFoundError(message string) *AppError {
	return &AppError{Code: CodeKeyNotFound, Message: message}
}

func NewPersistedOperationOnlyError() *AppError {
	return &AppError{Code: CodePersistedOperationOnly, Message: "Only persisted operations are allowed"}
}

func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: message}
}

func NewInternalError(err error) *AppError {
	return &AppError{Code: CodeInternal, Message: "Internal server error", Err: err}
}

// StatusForCode maps an error code to the HTTP status the gateway uses for
// transport-level failures.
func StatusForCode(code string) int {
	switch code {
	case CodeNotFound, CodeKeyNotFound:
		return fiber.StatusNotFound
	case CodePersistedOperationOnly:
		return fiber.StatusForbidden
	case CodeUnauthorized:
		return fiber.StatusUnauthorized
	case CodeValidation:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// AsAppError returns err as *AppError, wrapping unknown errors as internal
// so raw storage/provider error text never reaches clients directly.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError(err)
}

// RespondWithError writes a standardized error response. Internal
// errors serialize as their generic message only; the wrapped storage
// or provider error stays server-side.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	appErr := AsAppError(err)
	response := ErrorResponse{
		Error: appErr.Message,
		Code:  appErr.Code,
	}
	if appErr.Err != nil && appErr.Code != CodeInternal {
		response.Details = appErr.Err.Error()
	}
	return c.Status(status).JSON(response)
}
