// Package errs defines the error taxonomy shared by the engine packages.
// Callers classify failures with errors.Is against the sentinel values.
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedData = errors.New("malformed data")
	ErrNotFound      = errors.New("not found")
	ErrPrecondition  = errors.New("precondition failed")
	ErrIOFailure     = errors.New("io failure")
)

// MalformedError reports a parse or shape violation in a data file.
// Line is 1-based; 0 means the whole file.
type MalformedError struct {
	File string
	Line int
	Msg  string
}

func (e *MalformedError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Msg)
}

// Is lets errors.Is(err, ErrMalformedData) match.
func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformedData
}

// Malformed builds a MalformedError.
func Malformed(file string, line int, format string, args ...any) error {
	return &MalformedError{File: file, Line: line, Msg: fmt.Sprintf(format, args...)}
}

// NotFound reports a catalog reference that does not resolve.
func NotFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}

// Precondition reports an operation rejected before any state mutation.
func Precondition(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrPrecondition)
}

// IO wraps a collaborator I/O failure.
func IO(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrIOFailure, err)
}
