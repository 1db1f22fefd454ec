// Package domain contains domain-specific interfaces and option types for
// firemodel.
//
// This package defines the boundary to the external document store, the
// contract a model type must satisfy to be driven by the orchestrator, and
// functional options for every orchestrator operation.
package domain

import (
	"context"
	"time"
)

// Snapshot is the immutable result of reading a document, inside or outside
// a transaction.
type Snapshot interface {
	// ID returns the document id (the last path segment).
	ID() string
	// Path returns the full document path.
	Path() string
	// Exists reports whether the document was present at read time.
	Exists() bool
	// Data returns a deep copy of the document payload. It returns nil for
	// a missing document.
	Data() map[string]any
}

// Transaction exposes the primitives available inside a [Store.RunTransaction]
// body. The store may re-execute the body on contention, so the body must be
// a pure function of its transactional reads. All reads must happen before
// the first buffered write is registered.
type Transaction interface {
	// Get reads a single document by path within the transaction.
	Get(ctx context.Context, path string) (Snapshot, error)
	// GetAll executes a query within the transaction. Stores whose
	// transaction primitive cannot serve query reads return
	// [ErrQueryInTransaction], which callers may translate into a
	// non-transactional read.
	GetAll(ctx context.Context, q Query) ([]Snapshot, error)
	// Set buffers a full document write.
	Set(path string, data map[string]any) error
	// Update buffers a partial document write. Field values of type
	// [Increment] are applied atomically at commit time.
	Update(path string, fields map[string]any) error
	// Delete buffers a document deletion.
	Delete(path string) error
}

// CancelFunc cancels a document or query subscription. It is safe to call
// more than once.
type CancelFunc func()

// Store is the external document database this adapter orchestrates. All
// mutual exclusion for contended documents is delegated to the store's
// transaction isolation.
type Store interface {
	// Get reads a single document by path.
	Get(ctx context.Context, path string) (Snapshot, error)
	// Set writes a full document, creating it if absent.
	Set(ctx context.Context, path string, data map[string]any) error
	// Update writes the given fields of an existing document. Field values
	// of type [Increment] are applied atomically.
	Update(ctx context.Context, path string, fields map[string]any) error
	// Delete removes a document. Deleting a missing document is not an
	// error.
	Delete(ctx context.Context, path string) error
	// Query executes a query outside any transaction.
	Query(ctx context.Context, q Query) ([]Snapshot, error)
	// RunTransaction executes fn atomically, retrying the whole body on
	// conflict. If fn returns an error the transaction is discarded and
	// the error is returned unchanged.
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
	// ListenDocument registers fn to be called with the current snapshot
	// of the document and again after every change to it.
	ListenDocument(ctx context.Context, path string, fn func(Snapshot)) (CancelFunc, error)
	// ListenQuery registers fn to be called with the initial result set
	// (as added changes) and with the delta after every commit that
	// affects the result set.
	ListenQuery(ctx context.Context, q Query, fn func([]Change)) (CancelFunc, error)
	// GenerateID returns a new unique document id.
	GenerateID() (string, error)
}

// Identity resolves the id of the user performing an operation. The
// orchestrator stamps it on every written document, falling back to
// "unknown" when no identity is available.
type Identity interface {
	// UID returns the current user id and whether one is available.
	UID(ctx context.Context) (string, bool)
}

// TimeGetter provides current time for timestamping operations.
type TimeGetter interface {
	// GetTime returns the current time.
	GetTime() time.Time
}

// IDGenerator creates new document ids.
type IDGenerator interface {
	// GenerateID returns a new unique id.
	GenerateID() (string, error)
}

// Model is the contract a user-defined document type must satisfy to be
// driven by the orchestrator. Embedding firemodel.Base provides every method
// except CollectionPath with a usable default.
type Model interface {
	// CollectionPath resolves the collection this model lives in, given
	// the adapter's path prefix. The prefix is either empty or ends with
	// "/".
	CollectionPath(prefix string) string
	// UseAutonumber reports whether Create assigns a sequential code from
	// the collection's autonumber document.
	UseAutonumber() bool
	// LogicalDelete reports whether Delete archives the document for a
	// later Restore instead of discarding it.
	LogicalDelete() bool
	// HasMany lists child-reference descriptors checked, in order, before
	// a delete is allowed.
	HasMany() []ChildRef
	// TokenFields lists the string fields whose values feed the document's
	// token map. An empty list disables token map maintenance.
	TokenFields() []string

	// Lifecycle hooks. Any returned error aborts the whole operation.
	BeforeCreate(ctx context.Context) error
	BeforeUpdate(ctx context.Context) error
	BeforeDelete(ctx context.Context) error
	BeforeEdit(ctx context.Context) error
	// Validate checks field constraints before a write.
	Validate(ctx context.Context) error

	// Framework-managed fields.
	GetDocID() string
	SetDocID(string)
	GetCreatedAt() time.Time
	SetCreatedAt(time.Time)
	GetUpdatedAt() time.Time
	SetUpdatedAt(time.Time)
	GetUID() string
	SetUID(string)
}
