package rag

import (
	"errors"
	"fmt"
)

// Kind classifies a failed Answer call. The values are stable and appear in
// HTTP error bodies.
type Kind string

const (
	// KindInvalidInput means the question or k was rejected before any remote call.
	KindInvalidInput Kind = "invalid_input"
	// KindNotReady means the corpus is not loaded.
	KindNotReady Kind = "not_ready"
	// KindRetrievalFailed means embedding the question or ranking the corpus failed.
	KindRetrievalFailed Kind = "retrieval_failed"
	// KindGenerationFailed means the generation backend failed.
	KindGenerationFailed Kind = "generation_failed"
)

// Sentinels matched by [*Error] through errors.Is.
var (
	ErrInvalidInput     = errors.New("rag: invalid input")
	ErrNotReady         = errors.New("rag: not ready")
	ErrRetrievalFailed  = errors.New("rag: retrieval failed")
	ErrGenerationFailed = errors.New("rag: generation failed")
)

// Error is a per-request orchestrator failure. Message is safe to show to
// clients; Err carries the cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("rag: %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("rag: %s: %s: %v", e.Kind, e.Message, e.Err)
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case KindInvalidInput:
		return target == ErrInvalidInput
	case KindNotReady:
		return target == ErrNotReady
	case KindRetrievalFailed:
		return target == ErrRetrievalFailed
	case KindGenerationFailed:
		return target == ErrGenerationFailed
	}
	return false
}

func newError(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf returns the [Kind] of err, or "" when err is not an [*Error].
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
