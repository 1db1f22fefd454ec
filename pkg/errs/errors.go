// Package errs defines the classified errors surfaced by every adapter
// operation. Callers can branch on the code via [CodeOf] without depending
// on the failing component.
package errs

import (
	"errors"
	"fmt"
)

// Code classifies a failure. The zero value is [Unknown].
type Code int

const (
	// Unknown wraps any unexpected underlying failure so internal store
	// errors never leak untyped past the adapter.
	Unknown Code = iota
	// MissingPrecondition means a required id, docId or transaction was
	// absent.
	MissingPrecondition
	// InvalidArgument means a malformed constraint, direction, limit,
	// callback or search string.
	InvalidArgument
	// NotFound means a referenced document, autonumber document or
	// archive document is absent.
	NotFound
	// PreconditionFailed means the autonumber document exists but is
	// disabled.
	PreconditionFailed
	// ResourceExhausted means the autonumber ceiling was reached.
	ResourceExhausted
	// Conflict means a child reference exists and blocks a delete.
	Conflict
	// Unsupported means an unknown constraint tag or an operation the
	// store cannot perform.
	Unsupported
)

// String returns the canonical code name.
func (c Code) String() string {
	switch c {
	case MissingPrecondition:
		return "missing-precondition"
	case InvalidArgument:
		return "invalid-argument"
	case NotFound:
		return "not-found"
	case PreconditionFailed:
		return "precondition-failed"
	case ResourceExhausted:
		return "resource-exhausted"
	case Conflict:
		return "conflict"
	case Unsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Error is a classified failure. Op names the adapter operation or component
// that produced it.
type Error struct {
	Code Code
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, e.Err)
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// E builds a classified error. args may contain a Code, an error and a
// message string, in any order; later values win.
func E(op string, args ...any) error {
	e := &Error{Op: op}
	for _, arg := range args {
		switch t := arg.(type) {
		case Code:
			e.Code = t
		case *Error:
			e.Err = t
			if e.Code == Unknown {
				e.Code = t.Code
			}
		case error:
			e.Err = t
		case string:
			e.Err = errors.New(t)
		}
	}
	return e
}

// CodeOf extracts the classification of err. Unclassified errors report
// [Unknown]; a nil err also reports [Unknown], so check err first.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return Unknown
}

// Is reports whether err carries the given code.
func Is(err error, c Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == c
}

// Classified reports whether err (or anything it wraps) is an [*Error].
func Classified(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
