package memstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff"
	"go.uber.org/zap"

	"github.com/firemodel-go/firemodel/adapter/data"
	"github.com/firemodel-go/firemodel/domain"
)

// errConflict marks a failed read-set validation; RunTransaction retries on
// it and nothing else.
var errConflict = errors.New("memstore: read-set conflict")

type writeKind int

const (
	writeSet writeKind = iota
	writeUpdate
	writeDelete
)

type write struct {
	kind writeKind
	path string
	doc  data.M // payload for set, fields for update
}

// transaction implements [domain.Transaction] with optimistic concurrency:
// reads record the version they observed, writes are buffered, and commit
// validates the whole read set before applying anything.
type transaction struct {
	s        *Store
	reads    map[string]uint64 // doc path → observed version (0 = absent)
	colReads map[string]uint64 // collection path → observed version
	writes   []write
}

func newTransaction(s *Store) *transaction {
	return &transaction{
		s:        s,
		reads:    map[string]uint64{},
		colReads: map[string]uint64{},
	}
}

// Get implements [domain.Transaction].
func (t *transaction) Get(ctx context.Context, path string) (domain.Snapshot, error) {
	if len(t.writes) > 0 {
		return nil, domain.ErrReadAfterWrite
	}
	if err := t.s.mu.LockWithContext(ctx); err != nil {
		return nil, err
	}
	defer t.s.mu.Unlock()
	snap := t.s.snapshotLocked(path)
	t.reads[path] = snap.version
	return snap, nil
}

// GetAll implements [domain.Transaction]. The whole addressed collection
// joins the read set, so any commit touching it conflicts.
func (t *transaction) GetAll(ctx context.Context, q domain.Query) ([]domain.Snapshot, error) {
	if len(t.writes) > 0 {
		return nil, domain.ErrReadAfterWrite
	}
	if err := t.s.mu.LockWithContext(ctx); err != nil {
		return nil, err
	}
	defer t.s.mu.Unlock()
	for _, col := range t.s.collectionPathsLocked(q) {
		t.colReads[col] = t.s.colVersions[col]
	}
	return t.s.evaluateLocked(q)
}

// Set implements [domain.Transaction].
func (t *transaction) Set(path string, doc map[string]any) error {
	t.writes = append(t.writes, write{kind: writeSet, path: path, doc: doc})
	return nil
}

// Update implements [domain.Transaction].
func (t *transaction) Update(path string, fields map[string]any) error {
	t.writes = append(t.writes, write{kind: writeUpdate, path: path, doc: fields})
	return nil
}

// Delete implements [domain.Transaction].
func (t *transaction) Delete(path string) error {
	t.writes = append(t.writes, write{kind: writeDelete, path: path})
	return nil
}

// RunTransaction implements [domain.Store]. The body may be re-executed on
// contention; errors returned by the body abort without retry and surface
// unchanged.
func (s *Store) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx domain.Transaction) error) error {
	attempts := 0
	operation := func() error {
		attempts++
		tx := newTransaction(s)
		if err := fn(ctx, tx); err != nil {
			return backoff.Permanent(err)
		}
		if err := s.commit(ctx, tx); err != nil {
			if errors.Is(err, errConflict) {
				return err
			}
			return backoff.Permanent(err)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.retryInterval
	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, s.maxRetries), ctx))
	if errors.Is(err, errConflict) {
		s.logger.Warn("transaction aborted after repeated conflicts",
			zap.Int("attempts", attempts))
		return domain.ErrConflict
	}
	return err
}

// commit validates the transaction's read set and applies its writes as one
// batch. Notifications go out after the lock is released.
func (s *Store) commit(ctx context.Context, tx *transaction) error {
	if err := s.mu.LockWithContext(ctx); err != nil {
		return err
	}
	for path, version := range tx.reads {
		current := uint64(0)
		if e, ok := s.docs[path]; ok {
			current = e.version
		}
		if current != version {
			s.mu.Unlock()
			return errConflict
		}
	}
	for col, version := range tx.colReads {
		if s.colVersions[col] != version {
			s.mu.Unlock()
			return errConflict
		}
	}
	if err := s.checkWritesLocked(tx.writes); err != nil {
		s.mu.Unlock()
		return err
	}
	s.applyWritesLocked(tx.writes)
	pending := s.collectNotificationsLocked(tx.writes)
	s.mu.Unlock()
	dispatch(pending)
	return nil
}

// checkWritesLocked rejects batches that cannot apply, before any state
// changes, keeping commits all-or-nothing.
func (s *Store) checkWritesLocked(writes []write) error {
	// Track documents created earlier in the same batch so an update
	// following a set validates.
	created := map[string]bool{}
	for _, w := range writes {
		switch w.kind {
		case writeSet:
			created[w.path] = true
		case writeDelete:
			delete(created, w.path)
		case writeUpdate:
			if _, ok := s.docs[w.path]; !ok && !created[w.path] {
				return fmt.Errorf("memstore: cannot update missing document %s", w.path)
			}
		}
	}
	return nil
}

// applyWritesLocked applies a validated batch under one new commit version.
func (s *Store) applyWritesLocked(writes []write) {
	s.version++
	v := s.version
	for _, w := range writes {
		switch w.kind {
		case writeSet:
			s.insertLocked(w.path, data.Clone(w.doc), v)
		case writeUpdate:
			e := s.docs[w.path]
			for field, value := range w.doc {
				if inc, ok := value.(domain.Increment); ok {
					current, _ := data.AsInt64(e.data[field])
					e.data[field] = current + inc.By
					continue
				}
				e.data[field] = data.CloneValue(value)
			}
			e.version = v
			s.colVersions[collectionOf(w.path)] = v
		case writeDelete:
			s.removeLocked(w.path, v)
		}
	}
}
