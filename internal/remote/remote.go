// Package remote holds the failure taxonomy shared by the embedding and
// generation clients, plus helpers for classifying transport errors.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
)

// Kind classifies a failed remote call.
type Kind string

const (
	// KindUnreachable means the service could not be contacted.
	KindUnreachable Kind = "unreachable"
	// KindBadResponse means the service answered with a non-success status or
	// a body that does not decode to the expected shape.
	KindBadResponse Kind = "bad_response"
	// KindTimeout means the call exceeded its deadline.
	KindTimeout Kind = "timeout"
	// KindEmptyResponse means the service succeeded but returned no content.
	KindEmptyResponse Kind = "empty_response"
)

// Sentinels matched by [*Error] through errors.Is.
var (
	ErrUnreachable   = errors.New("remote: unreachable")
	ErrBadResponse   = errors.New("remote: bad response")
	ErrTimeout       = errors.New("remote: timeout")
	ErrEmptyResponse = errors.New("remote: empty response")
)

// maxErrorBody bounds how much of a failed response body is kept for logs.
const maxErrorBody = 512

// Error is a classified remote failure.
type Error struct {
	// Op names the call, e.g. "embed" or "generate".
	Op string
	// Kind is the failure class.
	Kind Kind
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	return target == sentinel(e.Kind)
}

// Retryable reports whether the failure class is transient.
func (e *Error) Retryable() bool {
	return e.Kind == KindUnreachable || e.Kind == KindTimeout
}

func sentinel(k Kind) error {
	switch k {
	case KindUnreachable:
		return ErrUnreachable
	case KindBadResponse:
		return ErrBadResponse
	case KindTimeout:
		return ErrTimeout
	case KindEmptyResponse:
		return ErrEmptyResponse
	default:
		return nil
	}
}

// New returns an [*Error] for op with a formatted cause.
func New(op string, kind Kind, format string, args ...any) *Error {
	return &Error{Op: op, Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Classify turns a transport error from [http.Client.Do] into an [*Error].
// Deadline and timeout errors map to [KindTimeout]; everything else,
// including caller cancellation, maps to [KindUnreachable].
func Classify(op string, err error) *Error {
	var re *Error
	if errors.As(err, &re) {
		return re
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Op: op, Kind: KindTimeout, Err: err}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &Error{Op: op, Kind: KindTimeout, Err: err}
	}
	return &Error{Op: op, Kind: KindUnreachable, Err: err}
}

// CheckStatus returns a [KindBadResponse] error for any non-2xx response.
// The body is read up to a small limit so the remote message shows in logs.
func CheckStatus(op string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return New(op, KindBadResponse, "status %d", resp.StatusCode)
	}
	return New(op, KindBadResponse, "status %d: %s", resp.StatusCode, msg)
}

// KindOf returns the [Kind] of err, or "" when err is not a remote error.
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return ""
}
