package domain

import (
	"errors"
	"fmt"
)

// ErrorKind groups error codes by how callers should react
type ErrorKind string

const (
	KindNotFound  ErrorKind = "not_found"
	KindConflict  ErrorKind = "conflict"
	KindForbidden ErrorKind = "forbidden"
	KindExhausted ErrorKind = "exhausted"
	KindInvalid   ErrorKind = "invalid"
	KindInfra     ErrorKind = "infra"
)

// AppError is a typed failure carrying a machine-readable code.
// Callers branch on Code, never on Message.
type AppError struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any AppError with the same code
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithMessage returns a copy of e with a more specific message
func (e *AppError) WithMessage(format string, args ...interface{}) *AppError {
	return &AppError{Kind: e.Kind, Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

func newError(kind ErrorKind, code, message string) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message}
}

// Not found
var (
	ErrBookingNotFound = newError(KindNotFound, "BOOKING_NOT_FOUND", "booking not found")
	ErrSalonNotFound   = newError(KindNotFound, "SALON_NOT_FOUND", "salon not found")
	ErrStaffNotFound   = newError(KindNotFound, "STAFF_NOT_FOUND", "staff member not found")
	ErrServiceNotFound = newError(KindNotFound, "SERVICE_NOT_FOUND", "service not found")
	ErrUserNotFound    = newError(KindNotFound, "USER_NOT_FOUND", "user not found")
)

// Lifecycle guard violations
var (
	ErrInvalidTransition = newError(KindConflict, "INVALID_STATUS_TRANSITION", "booking status does not allow this action")
	ErrStaffBusy         = newError(KindConflict, "STAFF_BUSY", "staff member is already serving another booking")
	ErrStaffInactive     = newError(KindConflict, "STAFF_INACTIVE", "staff member is not active")
	ErrPriorityLimit     = newError(KindConflict, "PRIORITY_LIMIT_REACHED", "daily priority limit reached")
	ErrNoBarbers         = newError(KindConflict, "NO_BARBERS_AVAILABLE", "no idle barber is available")
	ErrQueueFull         = newError(KindConflict, "QUEUE_FULL", "queue is full")
	ErrDuplicateBooking  = newError(KindConflict, "DUPLICATE_BOOKING", "you already have an active booking at this salon")
	ErrSalonClosed       = newError(KindConflict, "SALON_CLOSED", "salon is closed")
	ErrSalonInactive     = newError(KindConflict, "SALON_INACTIVE", "salon is not active")
	ErrSalonBusyMode     = newError(KindConflict, "SALON_BUSY_MODE", "salon accepts walk-ins only")
	ErrAlreadyArrived    = newError(KindConflict, "ALREADY_ARRIVED", "booking is already checked in")
	ErrNotScheduled      = newError(KindConflict, "NOT_SCHEDULED", "booking is not a scheduled appointment")
)

// Invalid input
var (
	ErrEmptyServices         = newError(KindInvalid, "EMPTY_SERVICES", "at least one service is required")
	ErrInvalidPriorityReason = newError(KindInvalid, "INVALID_PRIORITY_REASON", "priority reason is not allowed")
	ErrSkipReasonRequired    = newError(KindInvalid, "SKIP_REASON_REQUIRED", "skip reason is required")
	ErrValidation            = newError(KindInvalid, "VALIDATION_ERROR", "validation error")
)

// Permission and exhaustion
var (
	ErrInsufficientPermissions = newError(KindForbidden, "INSUFFICIENT_PERMISSIONS", "insufficient permissions")
	ErrTokenExhausted          = newError(KindExhausted, "TOKEN_EXHAUSTED", "could not allocate a walk-in token")
)

// CodeOf returns the machine code of err, or an empty string when err is not an AppError
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
