// Package ctxsync provides synchronization primitives that honor context
// cancellation while waiting.
package ctxsync

import "context"

// NewMutex creates a new unlocked Mutex.
func NewMutex() *Mutex {
	return &Mutex{sem: make(chan struct{}, 1)}
}

// A Mutex is a mutual exclusion lock whose acquisition can be abandoned when
// a context is cancelled.
type Mutex struct {
	sem chan struct{}
}

// Lock blocks until the mutex is acquired.
func (m *Mutex) Lock() {
	m.sem <- struct{}{}
}

// LockWithContext blocks until the mutex is acquired or ctx is cancelled,
// returning the context error in the latter case.
func (m *Mutex) LockWithContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case m.sem <- struct{}{}:
		return nil
	}
}

// TryLock acquires the mutex without blocking and reports whether it
// succeeded.
func (m *Mutex) TryLock() bool {
	select {
	case m.sem <- struct{}{}:
		return true
	default:
		return false
	}
}

// Unlock releases the mutex. Unlocking an unlocked mutex panics.
func (m *Mutex) Unlock() {
	select {
	case <-m.sem:
	default:
		panic("ctxsync: unlock of unlocked mutex")
	}
}
