// Package errors provides the error taxonomy for the cleanfire chat client.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrMissingAPIKey = errors.New("GEMINI_API_KEY or API_KEY environment variable not set")
	ErrEmptyInput    = errors.New("message is empty")
	ErrBusy          = errors.New("a reply is still streaming")
	ErrNotReady      = errors.New("session is not initialized")
	ErrStreamClosed  = errors.New("stream is closed")
)

// ConfigurationError represents a missing or invalid credential or setting.
// It is surfaced once at session start and disables submission.
type ConfigurationError struct {
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	case e.Message != "":
		return e.Message
	default:
		return "invalid configuration"
	}
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// NewConfigurationError creates a new ConfigurationError
func NewConfigurationError(message string, err error) *ConfigurationError {
	return &ConfigurationError{Message: message, Err: err}
}

// TransportError represents a network failure while talking to the
// completion service, either opening the request or mid-stream.
type TransportError struct {
	Op       string
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s failed", e.Op)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a new TransportError
func NewTransportError(op, endpoint string, err error) *TransportError {
	return &TransportError{Op: op, Endpoint: endpoint, Err: err}
}

// ServiceError represents an error payload returned by the provider instead
// of content.
type ServiceError struct {
	StatusCode int
	Status     string // provider status, e.g. "INVALID_ARGUMENT"
	Message    string
	Endpoint   string
}

func (e *ServiceError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "service returned an error"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("[%d] %s", e.StatusCode, msg)
	}
	return msg
}

// NewServiceError creates a new ServiceError
func NewServiceError(statusCode int, status, endpoint, message string) *ServiceError {
	return &ServiceError{
		StatusCode: statusCode,
		Status:     status,
		Endpoint:   endpoint,
		Message:    message,
	}
}

// ValidationError is a local rejection of a submission. It is never shown
// to the user.
type ValidationError struct {
	Reason error
}

func (e *ValidationError) Error() string {
	if e.Reason == nil {
		return "invalid submission"
	}
	return "invalid submission: " + e.Reason.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Reason
}

// Is allows comparison with another ValidationError regardless of reason
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// NewValidationError creates a new ValidationError
func NewValidationError(reason error) *ValidationError {
	return &ValidationError{Reason: reason}
}

// IsConfigurationError reports whether err is or wraps a ConfigurationError
func IsConfigurationError(err error) bool {
	var e *ConfigurationError
	return errors.As(err, &e)
}

// IsTransportError reports whether err is or wraps a TransportError
func IsTransportError(err error) bool {
	var e *TransportError
	return errors.As(err, &e)
}

// IsServiceError reports whether err is or wraps a ServiceError
func IsServiceError(err error) bool {
	var e *ServiceError
	return errors.As(err, &e)
}

// IsValidationError reports whether err is or wraps a ValidationError
func IsValidationError(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// IsRemoteError reports whether err came from the completion service,
// either as a transport failure or a service error payload.
func IsRemoteError(err error) bool {
	return IsTransportError(err) || IsServiceError(err)
}

// GetHTTPStatus returns the HTTP status carried by a ServiceError, or 0.
func GetHTTPStatus(err error) int {
	var e *ServiceError
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}

// Describe returns the human-readable part of err, without the package
// wrapping added on the way up.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var svc *ServiceError
	if errors.As(err, &svc) {
		return svc.Error()
	}
	var tr *TransportError
	if errors.As(err, &tr) && tr.Err != nil {
		return tr.Err.Error()
	}
	return err.Error()
}

// Re-exported so callers can import a single errors package.
var (
	Is     = errors.Is
	As     = errors.As
	New    = errors.New
	Unwrap = errors.Unwrap
)
