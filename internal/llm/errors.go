package llm

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMissingKey means no API key is configured for the provider. It is
	// never retried and aborts a whole solve run.
	ErrMissingKey = errors.New("API key not configured")

	// ErrEmptyResponse means the provider answered without any candidate.
	ErrEmptyResponse = errors.New("provider returned no candidates")
)

// ErrInvalidRequest covers 400 and any other 4xx not mapped elsewhere.
type ErrInvalidRequest struct {
	Status  int
	Message string
	Err     error
}

func (e *ErrInvalidRequest) Error() string {
	return fmt.Sprintf("invalid request (HTTP %d): %s", e.Status, e.Message)
}

func (e *ErrInvalidRequest) Unwrap() error { return e.Err }

// ErrUnauthorized indicates a rejected or under-privileged API key.
type ErrUnauthorized struct {
	Status  int
	Message string
	Err     error
}

func (e *ErrUnauthorized) Error() string {
	return fmt.Sprintf("unauthorized (HTTP %d): %s; check the API key", e.Status, e.Message)
}

func (e *ErrUnauthorized) Unwrap() error { return e.Err }

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrServer indicates a 5xx from the provider.
type ErrServer struct {
	Status  int
	Message string
	Err     error
}

func (e *ErrServer) Error() string {
	return fmt.Sprintf("provider server error (HTTP %d): %s", e.Status, e.Message)
}

func (e *ErrServer) Unwrap() error { return e.Err }

// ErrNetwork indicates the request never produced an HTTP response.
type ErrNetwork struct {
	Err error
}

func (e *ErrNetwork) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *ErrNetwork) Unwrap() error { return e.Err }

// IsRetryable reports whether err is a transient provider failure.
func IsRetryable(err error) bool {
	var (
		rl  *ErrRateLimit
		srv *ErrServer
		nw  *ErrNetwork
	)
	return errors.As(err, &rl) || errors.As(err, &srv) || errors.As(err, &nw)
}

// errorFromStatus maps an HTTP status to the error taxonomy. Statuses
// below 400 return nil.
func errorFromStatus(status int, message string, retryAfter time.Duration, cause error) error {
	if cause == nil {
		cause = errors.New(message)
	}
	switch {
	case status == 401 || status == 403:
		return &ErrUnauthorized{Status: status, Message: message, Err: cause}
	case status == 429:
		return &ErrRateLimit{RetryAfter: retryAfter, Err: cause}
	case status >= 500:
		return &ErrServer{Status: status, Message: message, Err: cause}
	case status >= 400:
		return &ErrInvalidRequest{Status: status, Message: message, Err: cause}
	}
	return nil
}
