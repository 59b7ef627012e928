package vectorstore

import (
	"errors"
	"fmt"
)

// Kind classifies why a load failed.
type Kind string

const (
	// KindMissingArtifact means one of the artifact files does not exist.
	KindMissingArtifact Kind = "missing_artifact"
	// KindShapeMismatch means the matrix and the texts disagree on row count,
	// the matrix is not two-dimensional, or the corpus is empty.
	KindShapeMismatch Kind = "shape_mismatch"
	// KindCorrupt means an artifact exists but cannot be decoded.
	KindCorrupt Kind = "corrupt"
)

// LoadError is returned by [Load] and [New]. A store is never returned
// alongside a LoadError.
type LoadError struct {
	// Kind is the failure class.
	Kind Kind
	// Path is the artifact that caused the failure, if any.
	Path string
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("vectorstore: %s: %s: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("vectorstore: %s: %v", e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error { return e.Err }

// Is reports whether target is a LoadError of the same kind, so callers can
// match with errors.Is(err, &LoadError{Kind: KindCorrupt}).
func (e *LoadError) Is(target error) bool {
	t, ok := target.(*LoadError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Path == "" && t.Err == nil
}

// ErrInvalidK is returned by [Rank] when k is not positive.
var ErrInvalidK = errors.New("vectorstore: k must be positive")

// ErrDimensionMismatch matches any [*DimensionMismatchError] via errors.Is.
var ErrDimensionMismatch = errors.New("vectorstore: dimension mismatch")

// DimensionMismatchError is returned by [Rank] when the query vector does
// not have the corpus dimension.
type DimensionMismatchError struct {
	// Got is the query dimension.
	Got int
	// Want is the corpus dimension.
	Want int
}

// Error implements the error interface.
func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vectorstore: query dim %d != index dim %d", e.Got, e.Want)
}

// Is matches [ErrDimensionMismatch].
func (e *DimensionMismatchError) Is(target error) bool {
	return target == ErrDimensionMismatch
}

func loadErr(kind Kind, path string, format string, args ...any) *LoadError {
	return &LoadError{Kind: kind, Path: path, Err: fmt.Errorf(format, args...)}
}
