package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
)

// ErrNotFound is returned when a resource is not found
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnauthorized is returned when authentication fails
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrValidation is returned when validation fails
type ErrValidation struct {
	Message string
	Fields  map[string]string
}

func (e *ErrValidation) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "validation failed"
}

// ConfigError is returned when required configuration is missing or malformed.
type ConfigError struct {
	Key     string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("configuration error: %s: %s", e.Key, e.Message)
	}
	return fmt.Sprintf("configuration error: %s is required", e.Key)
}

// TransportError wraps a network-level failure talking to a remote service.
type TransportError struct {
	Service string
	Op      string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: transport error: %v", e.Service, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// TimeoutError is returned when a per-call or overall deadline expires.
type TimeoutError struct {
	Service string
	Op      string
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s %s: timed out: %v", e.Service, e.Op, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// RemoteRejection is a non-success HTTP status from a remote service.
type RemoteRejection struct {
	Service    string
	Op         string
	StatusCode int
	Body       string
}

func (e *RemoteRejection) Error() string {
	return fmt.Sprintf("%s %s: status %d, body: %s", e.Service, e.Op, e.StatusCode, e.Body)
}

// ParseError is returned when a remote response cannot be decoded.
type ParseError struct {
	What string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.What, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// UnrecoverableError reports a failed compensation. Both the original failure
// and the rollback failure are kept and always appear in the message.
type UnrecoverableError struct {
	Original error
	Rollback error
}

func (e *UnrecoverableError) Error() string {
	return fmt.Sprintf("transfer failed and rollback failed: original error: %v; rollback error: %v", e.Original, e.Rollback)
}

func (e *UnrecoverableError) Unwrap() []error { return []error{e.Original, e.Rollback} }

// TransferError is returned when a transfer fails before any stock has moved.
type TransferError struct {
	Stage string
	Err   error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer %s failed: %v", e.Stage, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// Classify turns a raw client error into a TransportError or TimeoutError.
func Classify(service, op string, err error) error {
	if err == nil {
		return nil
	}
	if isDeadline(err) {
		return &TimeoutError{Service: service, Op: op, Err: err}
	}
	return &TransportError{Service: service, Op: op, Err: err}
}

func isDeadline(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}

// IsTimeout reports whether err is, or wraps, a TimeoutError or an expired deadline.
func IsTimeout(err error) bool {
	var te *TimeoutError
	if stderrors.As(err, &te) {
		return true
	}
	return err != nil && isDeadline(err)
}

// StatusCode returns the HTTP status of a wrapped RemoteRejection, or 0.
func StatusCode(err error) int {
	var rr *RemoteRejection
	if stderrors.As(err, &rr) {
		return rr.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is an ErrNotFound or a 404 rejection.
func IsNotFound(err error) bool {
	var nf *ErrNotFound
	return stderrors.As(err, &nf) || StatusCode(err) == 404
}

// IsConfig reports whether err is a ConfigError.
func IsConfig(err error) bool {
	var ce *ConfigError
	return stderrors.As(err, &ce)
}
