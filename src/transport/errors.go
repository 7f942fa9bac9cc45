package transport

import (
	"errors"
	"fmt"
)

var (
	ErrTransport   = errors.New("transport failure")
	ErrAuthFailed  = errors.New("authentication failed")
	ErrNotFound    = errors.New("resource not found")
	ErrUnavailable = errors.New("reporting service unavailable")
)

// TransportError describes a failed remote call.
// StatusCode is zero when no response was received.
type TransportError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	msg := e.Op + " failed"
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" with status %d", e.StatusCode)
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	if e.Err != nil {
		msg += fmt.Sprintf(" (%v)", e.Err)
	}
	return msg
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is makes every TransportError match ErrTransport.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// NewStatusError builds a TransportError for a non-2xx response,
// classifying well-known status codes.
func NewStatusError(op string, status int, body string) *TransportError {
	var cause error
	switch {
	case status == 401 || status == 403:
		cause = ErrAuthFailed
	case status == 404:
		cause = ErrNotFound
	case status == 502 || status == 503 || status == 504:
		cause = ErrUnavailable
	}
	return &TransportError{Op: op, StatusCode: status, Body: body, Err: cause}
}

// UserError wraps errors with user-friendly messages
type UserError struct {
	Message string
	Hint    string
	Err     error
}

func (e *UserError) Error() string {
	msg := e.Message
	if e.Hint != "" {
		msg += "\n\nHint: " + e.Hint
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n\nDetails: %v", e.Err)
	}
	return msg
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// WrapError converts transport errors to user-friendly messages
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrAuthFailed) {
		return &UserError{
			Message: "Authentication failed",
			Hint:    "Check that ANGLES_API_TOKEN is valid for this reporting service.",
			Err:     err,
		}
	}

	if errors.Is(err, ErrNotFound) {
		return &UserError{
			Message: "Resource not found",
			Hint:    "Check that ANGLES_BASE_URL points at the REST API root (e.g. http://127.0.0.1:3000/rest/api/v1.0/) and the build exists.",
			Err:     err,
		}
	}

	if errors.Is(err, ErrUnavailable) {
		return &UserError{
			Message: "Reporting service unavailable",
			Hint:    "Check that the Angles service is running and reachable from this machine.",
			Err:     err,
		}
	}

	return err
}
