package document

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidInput is returned when a caller supplies input that cannot be
	// sent, such as a file without a content type.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTemporaryStore is returned when the bytes of a file cannot be read.
	ErrTemporaryStore = errors.New("temporary store failure")

	// ErrTransport is matched by every *TransportError.
	ErrTransport = errors.New("transport failure")

	// ErrDecode is returned when a response body does not match the expected
	// schema.
	ErrDecode = errors.New("failed to decode response")
)

// Error describes a failed client operation.
type Error struct {
	Op  string // Operation that failed (e.g., "Upload", "GetMetadata")
	Err error  // Underlying error, wraps one of the Err* sentinels
	Msg string // Optional context
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// TransportError is returned when the HTTP exchange itself fails: the request
// could not be sent, or the service answered with a non-2xx status. The status
// and body are kept exactly as received.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int    // 0 when no response was received
	Status     string // e.g. "403 Forbidden"
	Body       []byte
	Err        error // network or read error, nil for status failures
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	}

	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	if len(e.Body) > 0 {
		return fmt.Sprintf("%s %s returned %s: %s", e.Method, e.URL, status, string(e.Body))
	}
	return fmt.Sprintf("%s %s returned %s", e.Method, e.URL, status)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrTransport.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// IsRetryable returns true if the same request could succeed later: no
// response was received, or the service answered with a 5xx status.
func (e *TransportError) IsRetryable() bool {
	if e.StatusCode == 0 {
		return !errors.Is(e.Err, context.Canceled)
	}
	return e.StatusCode >= http.StatusInternalServerError
}

// StatusCode returns the HTTP status carried by err, if any.
func StatusCode(err error) (int, bool) {
	var te *TransportError
	if errors.As(err, &te) && te.StatusCode != 0 {
		return te.StatusCode, true
	}
	return 0, false
}

// IsRetryable returns true if err is a transport failure worth retrying.
// Input, read and decode failures are never retryable.
func IsRetryable(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return te.IsRetryable()
	}
	return false
}
