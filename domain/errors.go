package domain

import (
	"errors"
	"fmt"
)

// ErrQueryInTransaction is returned by [Transaction.GetAll] when the store's
// transaction primitive cannot serve query reads. Callers may translate it
// into a non-transactional read if their consistency policy allows.
var ErrQueryInTransaction = errors.New("query reads are not supported inside a transaction")

// ErrConflict is returned by [Store.RunTransaction] implementations when a
// transaction keeps failing read-set validation after exhausting retries.
var ErrConflict = errors.New("transaction aborted after repeated conflicts")

// ErrReadAfterWrite is returned when a transactional read is attempted after
// the first buffered write, which would break re-execution safety.
var ErrReadAfterWrite = errors.New("transactional reads must precede all writes")

// ErrDirection represents an invalid orderBy direction in a constraint
// tuple.
type ErrDirection struct {
	Direction any
}

func (e ErrDirection) Error() string {
	return fmt.Sprintf("orderBy direction must be %q or %q, got %v", "asc", "desc", e.Direction)
}

// ErrLimit represents an invalid limit value in a constraint tuple.
type ErrLimit struct {
	Value any
}

func (e ErrLimit) Error() string {
	return fmt.Sprintf("limit must be a positive number, got %v", e.Value)
}

// ErrConstraintTag is returned when a constraint tuple carries an unknown
// tag.
type ErrConstraintTag struct {
	Tag any
}

func (e ErrConstraintTag) Error() string {
	return fmt.Sprintf("unsupported constraint type %v", e.Tag)
}

// ErrAutonumberExhausted is returned when the next sequential code would not
// fit the configured width.
type ErrAutonumberExhausted struct {
	Next   int64
	Length int64
}

func (e ErrAutonumberExhausted) Error() string {
	return fmt.Sprintf("autonumber %d exceeds the maximum for length %d", e.Next, e.Length)
}
