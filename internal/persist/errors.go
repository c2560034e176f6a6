package persist

import (
	"errors"
	"fmt"
	"strings"
)

// Error is a persistence error with a stable code.
type Error struct {
	Code    string // Error code (e.g., "PS-CFG-4001")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetails returns a copy of the error with additional details.
func (e *Error) WithDetails(details string) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *Error) WithCause(cause error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

func newError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

const configCodePrefix = "PS-CFG-"

// Configuration errors. Raised by Attach before any I/O; never recovered.
var (
	ErrMissingSerializer = newError("PS-CFG-4001", "store does not implement SerializeState")
	ErrMissingRestorer   = newError("PS-CFG-4002", "store does not implement RestoreState")
	ErrNilStore          = newError("PS-CFG-4003", "store is nil")
	ErrStorageRequired   = newError("PS-CFG-4004", "no backing storage configured")
)

// Runtime errors.
var (
	// ErrDeserialize wraps a persisted record that could not be decoded or applied.
	ErrDeserialize = newError("PS-RST-4220", "persisted record could not be restored")

	ErrStorageRead  = newError("PS-STO-5001", "backing storage read failed")
	ErrStorageWrite = newError("PS-STO-5002", "backing storage write failed")
	ErrSerialize    = newError("PS-SER-5003", "state could not be serialized")
)

// IsConfigurationError reports whether err is a configuration error.
func IsConfigurationError(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return strings.HasPrefix(pe.Code, configCodePrefix)
	}
	return false
}

// ErrorCode extracts the code from err, or "" if it is not an *Error.
func ErrorCode(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// normalize turns a recovered panic value into an error.
func normalize(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return fmt.Errorf("panic: %v", v)
}
