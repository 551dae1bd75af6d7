package helpers

import (
	"errors"
	"fmt"
)

// -----------------------------------------------------------------------------
// Bridge Error Taxonomy
//
// Only ConnectionError and PlatformUnavailableError touch session/process
// state; everything else is per-request. Nothing here is retried.
// -----------------------------------------------------------------------------

type BridgeError struct {
	Message string
	Cause   error
}

func (e *BridgeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *BridgeError) Unwrap() error {
	return e.Cause
}

// -----------------------------------------------------------------------------

// PlatformUnavailableError means native initialization failed. Code/Detail
// carry the terminal's last_error pair.
type PlatformUnavailableError struct {
	BridgeError
	Code int
}

// ValidationError rejects a malformed request before any native call.
type ValidationError struct{ BridgeError }

// MarshallingError means a native result did not match its snapshot schema.
type MarshallingError struct{ BridgeError }

// ConnectionError is a session-level transport failure.
type ConnectionError struct{ BridgeError }

// -----------------------------------------------------------------------------
// Constructors
// -----------------------------------------------------------------------------

func NewPlatformUnavailable(code int, format string, args ...interface{}) *PlatformUnavailableError {
	return &PlatformUnavailableError{
		BridgeError: BridgeError{Message: fmt.Sprintf(format, args...)},
		Code:        code,
	}
}

func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{BridgeError{Message: fmt.Sprintf(format, args...)}}
}

func NewMarshallingError(format string, args ...interface{}) *MarshallingError {
	return &MarshallingError{BridgeError{Message: fmt.Sprintf(format, args...)}}
}

func NewConnectionError(cause error, format string, args ...interface{}) *ConnectionError {
	return &ConnectionError{BridgeError{Message: fmt.Sprintf(format, args...), Cause: cause}}
}

// -----------------------------------------------------------------------------
// Wire classification
// -----------------------------------------------------------------------------

// Error kind strings as they appear in MErrorDetail.Kind.
const (
	KindPlatformUnavailable = "PLATFORM_UNAVAILABLE"
	KindValidationFailure   = "VALIDATION_FAILURE"
	KindMarshallingFailure  = "MARSHALLING_FAILURE"
	KindConnectionError     = "CONNECTION_ERROR"
	KindInternal            = "INTERNAL"
)

// KindOf maps a bridge error to its wire kind and native code (0 if none).
func KindOf(err error) (string, int) {
	var pu *PlatformUnavailableError
	if errors.As(err, &pu) {
		return KindPlatformUnavailable, pu.Code
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return KindValidationFailure, 0
	}
	var me *MarshallingError
	if errors.As(err, &me) {
		return KindMarshallingFailure, 0
	}
	var ce *ConnectionError
	if errors.As(err, &ce) {
		return KindConnectionError, 0
	}
	return KindInternal, 0
}
