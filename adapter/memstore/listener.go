package memstore

import (
	"context"
	"sync"

	"github.com/firemodel-go/firemodel/domain"
)

type docListener struct {
	path string
	fn   func(domain.Snapshot)
}

type queryListener struct {
	q  domain.Query
	fn func([]domain.Change)
	// Last delivered result set, for diffing: ids in result order and the
	// version each one had.
	lastOrder []string
	lastVers  map[string]uint64
}

// ListenDocument implements [domain.Store]. fn is called synchronously with
// the current snapshot before registration returns, then once after every
// commit that writes the document.
func (s *Store) ListenDocument(ctx context.Context, path string, fn func(domain.Snapshot)) (domain.CancelFunc, error) {
	if err := s.mu.LockWithContext(ctx); err != nil {
		return nil, err
	}
	id := s.nextListener
	s.nextListener++
	s.docListeners[id] = &docListener{path: path, fn: fn}
	initial := s.snapshotLocked(path)
	s.mu.Unlock()

	fn(initial)
	return s.cancelFunc(func() { delete(s.docListeners, id) }), nil
}

// ListenQuery implements [domain.Store]. The initial result set is
// delivered synchronously as added changes before registration returns;
// afterwards fn receives the delta of every commit affecting the addressed
// collections, in commit order.
func (s *Store) ListenQuery(ctx context.Context, q domain.Query, fn func([]domain.Change)) (domain.CancelFunc, error) {
	if err := s.mu.LockWithContext(ctx); err != nil {
		return nil, err
	}
	snaps, err := s.evaluateLocked(q)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	l := &queryListener{q: q, fn: fn, lastVers: map[string]uint64{}}
	initial := make([]domain.Change, len(snaps))
	for i, snap := range snaps {
		concrete := snap.(snapshot)
		initial[i] = domain.Change{Kind: domain.ChangeAdded, Doc: snap}
		l.lastOrder = append(l.lastOrder, concrete.id)
		l.lastVers[concrete.id] = concrete.version
	}
	id := s.nextListener
	s.nextListener++
	s.queryListeners[id] = l
	s.mu.Unlock()

	if len(initial) > 0 {
		fn(initial)
	}
	return s.cancelFunc(func() { delete(s.queryListeners, id) }), nil
}

// cancelFunc wraps an unregistration so it runs at most once, under the
// store lock.
func (s *Store) cancelFunc(remove func()) domain.CancelFunc {
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			remove()
			s.mu.Unlock()
		})
	}
}

// collectNotificationsLocked computes every listener callback a committed
// batch triggers. The returned closures run after the lock is released, on
// the committing goroutine.
func (s *Store) collectNotificationsLocked(writes []write) []func() {
	written := map[string]struct{}{}
	touchedCols := map[string]struct{}{}
	for _, w := range writes {
		written[w.path] = struct{}{}
		touchedCols[collectionOf(w.path)] = struct{}{}
	}

	var pending []func()
	for _, l := range s.docListeners {
		if _, ok := written[l.path]; !ok {
			continue
		}
		listener, snap := l, s.snapshotLocked(l.path)
		pending = append(pending, func() { listener.fn(snap) })
	}
	for _, l := range s.queryListeners {
		if !l.affectedLocked(s, touchedCols) {
			continue
		}
		changes, err := l.diffLocked(s)
		if err != nil || len(changes) == 0 {
			continue
		}
		listener := l
		pending = append(pending, func() { listener.fn(changes) })
	}
	return pending
}

// affectedLocked reports whether any written collection is addressed by the
// listener's query.
func (l *queryListener) affectedLocked(s *Store, touched map[string]struct{}) bool {
	for col := range touched {
		if l.q.Group {
			if docID(col) == l.q.Path {
				return true
			}
			continue
		}
		if col == l.q.Path {
			return true
		}
	}
	return false
}

// diffLocked re-evaluates the query and produces added/modified changes in
// result order followed by removed changes in previous-result order, then
// advances the listener's last-seen state.
func (l *queryListener) diffLocked(s *Store) ([]domain.Change, error) {
	snaps, err := s.evaluateLocked(l.q)
	if err != nil {
		return nil, err
	}
	var changes []domain.Change
	newOrder := make([]string, 0, len(snaps))
	newVers := make(map[string]uint64, len(snaps))
	for _, snap := range snaps {
		concrete := snap.(snapshot)
		newOrder = append(newOrder, concrete.id)
		newVers[concrete.id] = concrete.version
		last, ok := l.lastVers[concrete.id]
		switch {
		case !ok:
			changes = append(changes, domain.Change{Kind: domain.ChangeAdded, Doc: snap})
		case last != concrete.version:
			changes = append(changes, domain.Change{Kind: domain.ChangeModified, Doc: snap})
		}
	}
	for _, id := range l.lastOrder {
		if _, ok := newVers[id]; !ok {
			changes = append(changes, domain.Change{
				Kind: domain.ChangeRemoved,
				Doc:  snapshot{id: id},
			})
		}
	}
	l.lastOrder, l.lastVers = newOrder, newVers
	return changes, nil
}

func dispatch(pending []func()) {
	for _, fn := range pending {
		fn()
	}
}
