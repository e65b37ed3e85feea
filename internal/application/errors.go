package application

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dumensel/payment-service/internal/domain"
)

// GatewayError is the typed outcome of a failed gateway call. A
// decline, a timeout and a transport failure all land here; the
// orchestrator maps it to a FAILED payment, never to a crash.
type GatewayError struct {
	Code    string
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway error [%s]: %s", e.Code, e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

func IsGatewayError(err error) (*GatewayError, bool) {
	var gwErr *GatewayError
	ok := errors.As(err, &gwErr)
	return gwErr, ok
}

// FieldError is one entry of a request validation failure.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ServiceError is an application-level error with its HTTP mapping.
type ServiceError struct {
	Code       string
	Message    string
	HTTPStatus int
	Fields     []FieldError
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeInsufficientPoints = "INSUFFICIENT_POINTS"
	ErrCodeInvalidState       = "INVALID_STATE"
	ErrCodeUnknownProvider    = "UNKNOWN_PROVIDER"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

func NewValidationError(fields ...FieldError) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeValidation,
		Message:    "Validation failed for one or more fields",
		HTTPStatus: http.StatusBadRequest,
		Fields:     fields,
	}
}

// NewValidationErrorFrom converts a domain InvalidValueError into a
// single-field validation failure.
func NewValidationErrorFrom(err error) *ServiceError {
	var invErr *domain.InvalidValueError
	if errors.As(err, &invErr) {
		return NewValidationError(FieldError{Field: invErr.Field, Reason: invErr.Reason})
	}
	return &ServiceError{
		Code:       ErrCodeValidation,
		Message:    "Validation failed",
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
	}
}

func NewNotFoundError(message string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeNotFound,
		Message:    message,
		HTTPStatus: http.StatusNotFound,
	}
}

func NewInsufficientPointsError(err *domain.InsufficientPointsError) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInsufficientPoints,
		Message:    err.Error(),
		HTTPStatus: http.StatusUnprocessableEntity,
		Err:        err,
	}
}

// NewInvalidStateError wraps an invariant violation: a conflict, never
// silently swallowed.
func NewInvalidStateError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInvalidState,
		Message:    "Operation conflicts with current state",
		HTTPStatus: http.StatusConflict,
		Err:        err,
	}
}

func NewUnknownProviderError(provider domain.Provider) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeUnknownProvider,
		Message:    fmt.Sprintf("no payment gateway registered for provider %s", provider),
		HTTPStatus: http.StatusInternalServerError,
	}
}

func NewInternalError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInternal,
		Message:    "An internal error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func IsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	ok := errors.As(err, &svcErr)
	return svcErr, ok
}
