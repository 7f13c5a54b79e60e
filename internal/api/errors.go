package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrCancelled is returned when the caller cancelled the request. It is never
// shown to the user.
var ErrCancelled = fmt.Errorf("request cancelled: %w", context.Canceled)

// Normalized messages for failures without a usable response.
const (
	MsgNoResponse  = "No response received from server"
	MsgTimedOut    = "Request timed out"
	MsgUnavailable = "Service temporarily unavailable"
)

// TransportError is a failed request normalized for display. Message is
// safe to show as is.
type TransportError struct {
	Status  int
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	return e.Message
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// normalizeDoError maps an error from http.Client.Do.
func normalizeDoError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) || errors.Is(err, context.Canceled) {
		return ErrCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TransportError{Status: http.StatusInternalServerError, Message: MsgTimedOut, Err: err}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &TransportError{Status: http.StatusInternalServerError, Message: MsgTimedOut, Err: err}
	}
	return &TransportError{Status: http.StatusInternalServerError, Message: MsgNoResponse, Err: err}
}

// statusError builds the error for a non-2xx response. The server's own
// message wins when the body carries one.
func statusError(code int, body []byte) *TransportError {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return &TransportError{Status: code, Message: payload.Message}
	}
	return &TransportError{Status: code, Message: fmt.Sprintf("Error: %d %s", code, http.StatusText(code))}
}

// IsCancelled reports whether err is a caller cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}
