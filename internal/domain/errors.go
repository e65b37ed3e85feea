package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// DomainError represents a business logic error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeInvalidValue      = "INVALID_VALUE"
)

func NewInvalidTransitionError(from, to PaymentStatus) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}

func IsDomainError(err error) (*DomainError, bool) {
	var domErr *DomainError
	ok := errors.As(err, &domErr)
	return domErr, ok
}

// InvalidValueError reports a field-level validation failure.
// Construction of a value object never partially succeeds: the first
// invalid field aborts it.
type InvalidValueError struct {
	Field  string
	Reason string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewInvalidValueError(field, reason string) *InvalidValueError {
	return &InvalidValueError{Field: field, Reason: reason}
}

// InsufficientPointsError is a normal business outcome of spend/lock,
// not a system failure.
type InsufficientPointsError struct {
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("insufficient available points: available %s, requested %s",
		e.Available.StringFixed(2), e.Requested.StringFixed(2))
}

// LockedPointsError reports an unlock or consume exceeding the locked
// balance. This signals a caller bug or corrupted state, never a
// normal outcome.
type LockedPointsError struct {
	Op        string
	Locked    decimal.Decimal
	Requested decimal.Decimal
}

func (e *LockedPointsError) Error() string {
	return fmt.Sprintf("cannot %s more points than locked: locked %s, requested %s",
		e.Op, e.Locked.StringFixed(2), e.Requested.StringFixed(2))
}
