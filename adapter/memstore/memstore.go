// Package memstore contains an in-memory [domain.Store] implementation with
// optimistic transactions, queries and change notifications. It backs the
// test suites and doubles as an embedded backend for small deployments.
package memstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/vinicius-lino-figueiredo/bst"
	bstcomparer "github.com/vinicius-lino-figueiredo/bst/adapter/comparer"
	"github.com/vinicius-lino-figueiredo/bst/adapter/unbalanced"
	"go.uber.org/zap"

	"github.com/firemodel-go/firemodel/adapter/comparer"
	"github.com/firemodel-go/firemodel/adapter/data"
	"github.com/firemodel-go/firemodel/adapter/idgenerator"
	"github.com/firemodel-go/firemodel/domain"
	"github.com/firemodel-go/firemodel/pkg/ctxsync"
)

// entry is one live document. version is the commit sequence number of its
// last write, used for read-set validation.
type entry struct {
	data    data.M
	version uint64
}

// Store implements [domain.Store]. All state is guarded by a single
// context-aware mutex; notification callbacks run outside it, on the
// committing goroutine.
type Store struct {
	mu *ctxsync.Mutex

	docs        map[string]*entry
	collections map[string]bst.BST[string, string] // collection path → docId tree
	colVersions map[string]uint64
	version     uint64

	idgen         domain.IDGenerator
	cmp           *comparer.Comparer
	logger        *zap.Logger
	maxRetries    uint64
	retryInterval time.Duration

	docListeners   map[int]*docListener
	queryListeners map[int]*queryListener
	nextListener   int
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator sets the document id generator.
func WithIDGenerator(g domain.IDGenerator) Option {
	return func(s *Store) {
		s.idgen = g
	}
}

// WithLogger sets the logger, zap.NewNop() by default.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithMaxRetries caps how often a conflicting transaction is re-executed
// before giving up with [domain.ErrConflict].
func WithMaxRetries(n uint64) Option {
	return func(s *Store) {
		s.maxRetries = n
	}
}

// WithRetryInterval sets the initial backoff interval between transaction
// retries.
func WithRetryInterval(d time.Duration) Option {
	return func(s *Store) {
		s.retryInterval = d
	}
}

// NewStore returns an empty in-memory store.
func NewStore(options ...Option) *Store {
	s := &Store{
		mu:             ctxsync.NewMutex(),
		docs:           map[string]*entry{},
		collections:    map[string]bst.BST[string, string]{},
		colVersions:    map[string]uint64{},
		idgen:          idgenerator.NewIDGenerator(),
		cmp:            comparer.NewComparer(),
		logger:         zap.NewNop(),
		maxRetries:     10,
		retryInterval:  5 * time.Millisecond,
		docListeners:   map[int]*docListener{},
		queryListeners: map[int]*queryListener{},
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// GenerateID implements [domain.Store].
func (s *Store) GenerateID() (string, error) {
	return s.idgen.GenerateID()
}

// Get implements [domain.Store].
func (s *Store) Get(ctx context.Context, path string) (domain.Snapshot, error) {
	if err := s.mu.LockWithContext(ctx); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	return s.snapshotLocked(path), nil
}

// Set implements [domain.Store].
func (s *Store) Set(ctx context.Context, path string, doc map[string]any) error {
	return s.applyOne(ctx, write{kind: writeSet, path: path, doc: doc})
}

// Update implements [domain.Store].
func (s *Store) Update(ctx context.Context, path string, fields map[string]any) error {
	return s.applyOne(ctx, write{kind: writeUpdate, path: path, doc: fields})
}

// Delete implements [domain.Store].
func (s *Store) Delete(ctx context.Context, path string) error {
	return s.applyOne(ctx, write{kind: writeDelete, path: path})
}

// Query implements [domain.Store].
func (s *Store) Query(ctx context.Context, q domain.Query) ([]domain.Snapshot, error) {
	if err := s.mu.LockWithContext(ctx); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	return s.evaluateLocked(q)
}

// applyOne commits a single write as its own batch.
func (s *Store) applyOne(ctx context.Context, w write) error {
	if err := s.mu.LockWithContext(ctx); err != nil {
		return err
	}
	if err := s.checkWritesLocked([]write{w}); err != nil {
		s.mu.Unlock()
		return err
	}
	s.applyWritesLocked([]write{w})
	pending := s.collectNotificationsLocked([]write{w})
	s.mu.Unlock()
	dispatch(pending)
	return nil
}

// snapshotLocked builds an immutable snapshot of the document at path.
func (s *Store) snapshotLocked(path string) snapshot {
	id := docID(path)
	e, ok := s.docs[path]
	if !ok {
		return snapshot{id: id, path: path}
	}
	return snapshot{id: id, path: path, data: data.Clone(e.data), version: e.version}
}

// insertLocked registers a document in its collection index.
func (s *Store) insertLocked(path string, doc data.M, version uint64) {
	s.docs[path] = &entry{data: doc, version: version}
	col := collectionOf(path)
	tree, ok := s.collections[col]
	if !ok {
		tree = unbalanced.NewBST[string, string](true, 0, bstcomparer.NewComparer[string, string]())
		s.collections[col] = tree
	}
	_ = tree.Insert(docID(path), path)
	s.colVersions[col] = version
}

// removeLocked drops a document from the store and its collection index.
func (s *Store) removeLocked(path string, version uint64) {
	if _, ok := s.docs[path]; !ok {
		return
	}
	delete(s.docs, path)
	col := collectionOf(path)
	if tree, ok := s.collections[col]; ok {
		_ = tree.Delete(docID(path), &path)
		if tree.GetNumberOfKeys() == 0 {
			delete(s.collections, col)
		}
	}
	s.colVersions[col] = version
}

// collectionPathsLocked resolves the collections a query addresses, in
// deterministic order.
func (s *Store) collectionPathsLocked(q domain.Query) []string {
	if !q.Group {
		return []string{strings.Trim(q.Path, "/")}
	}
	var res []string
	for col := range s.collections {
		if docID(col) == q.Path {
			res = append(res, col)
		}
	}
	// Stable iteration order for collection-group scans.
	sort.Strings(res)
	return res
}

// pathsInLocked lists document paths of a collection in id order.
func (s *Store) pathsInLocked(col string) []string {
	tree, ok := s.collections[col]
	if !ok {
		return nil
	}
	var res []string
	for v := range tree.GetAll() {
		res = append(res, v)
	}
	return res
}

// docID returns the last path segment.
func docID(path string) string {
	trimmed := strings.Trim(path, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

// collectionOf returns everything before the last path segment.
func collectionOf(path string) string {
	trimmed := strings.Trim(path, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[:i]
	}
	return ""
}

// snapshot implements [domain.Snapshot]. data is privately owned; Data
// clones it so callers can never alias store state.
type snapshot struct {
	id      string
	path    string
	data    data.M
	version uint64
}

func (s snapshot) ID() string   { return s.id }
func (s snapshot) Path() string { return s.path }
func (s snapshot) Exists() bool { return s.data != nil }

func (s snapshot) Data() map[string]any {
	return data.Clone(s.data)
}
