package errors

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// Slot errors
	ErrSlotUnavailable = errors.New("schedule slot unavailable")
	ErrSlotNotFound    = errors.New("schedule slot not found")
	ErrSlotExists      = errors.New("schedule slot already exists")

	// Booking errors
	ErrBookingNotFound        = errors.New("booking not found")
	ErrInvalidStatus          = errors.New("invalid booking status")
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// User errors
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrNothingToSave = errors.New("no fields to update")

	// Court errors
	ErrCourtNotFound     = errors.New("court not found")
	ErrCourtTypeNotFound = errors.New("court type not found")

	// Store errors
	ErrTransientStore      = errors.New("transient store failure")
	ErrConstraintViolation = errors.New("constraint violation")

	// Idempotency errors
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
)

// DomainError wraps errors with additional context
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

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// SlotUnavailableError reports the requested slots that were missing or
// already taken when the booking transaction acquired its locks.
type SlotUnavailableError struct {
	Missing []int64
}

func (e *SlotUnavailableError) Error() string {
	ids := make([]string, len(e.Missing))
	for i, id := range e.Missing {
		ids[i] = strconv.FormatInt(id, 10)
	}
	return fmt.Sprintf("%s: %s", ErrSlotUnavailable.Error(), strings.Join(ids, ","))
}

func (e *SlotUnavailableError) Unwrap() error {
	return ErrSlotUnavailable
}

// NewSlotUnavailableError creates a new slot unavailable error
func NewSlotUnavailableError(missing []int64) *SlotUnavailableError {
	return &SlotUnavailableError{Missing: missing}
}

// IsRetryable reports whether err is safe to retry as a whole operation.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransientStore)
}
