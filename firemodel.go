// Package firemodel provides a transactional document-model adapter for
// document databases.
//
// A model is any struct embedding [Base] that implements
// [domain.Model.CollectionPath]. Binding it to an adapter gives it
// transactional CRUD, auto-numbering, soft-delete/restore and live-query
// capabilities against any [domain.Store]:
//
//	type Customer struct {
//		firemodel.Base `fire:",squash"`
//		Name           string `fire:"name"`
//	}
//
//	func (c *Customer) CollectionPath(prefix string) string {
//		return prefix + "Customers"
//	}
//
//	adapter, err := firemodel.New(&customer, firemodel.WithStore(store))
//
// Every mutating operation runs in a single all-or-nothing transaction;
// failures surface as classified errors whose kind is available through
// [CodeOf].
package firemodel

import (
	"context"
	"time"

	"github.com/firemodel-go/firemodel/adapter/memstore"
	"github.com/firemodel-go/firemodel/adapter/orchestrator"
	"github.com/firemodel-go/firemodel/domain"
	"github.com/firemodel-go/firemodel/pkg/errs"
)

// Adapter drives one model instance. See [orchestrator.Orchestrator] for
// the full operation set.
type Adapter = orchestrator.Orchestrator

// Option configures an [Adapter].
type Option = orchestrator.Option

// New returns an adapter bound to the given model instance. Options:
//
// - [WithStore]: sets the document store (required).
//
// - [WithIdentity]: sets the identity provider stamping the uid field.
//
// - [WithLogger]: sets the zap logger.
//
// - [WithPrefix]: sets the default collection path prefix.
//
// - [WithTimeGetter]: sets the clock for createdAt/updatedAt stamps.
//
// - [WithTransactionalQueries]: forbids the non-transactional query-read
// fallback.
func New(model domain.Model, options ...Option) (*Adapter, error) {
	return orchestrator.New(model, options...)
}

// Adapter options, re-exported from the orchestrator.
var (
	WithStore                = orchestrator.WithStore
	WithIdentity             = orchestrator.WithIdentity
	WithLogger               = orchestrator.WithLogger
	WithPrefix               = orchestrator.WithPrefix
	WithTimeGetter           = orchestrator.WithTimeGetter
	WithTransactionalQueries = orchestrator.WithTransactionalQueries
)

// NewMemStore returns the in-memory [domain.Store] implementation, useful
// for tests and embedded deployments.
func NewMemStore(options ...memstore.Option) *memstore.Store {
	return memstore.NewStore(options...)
}

// Error classification, re-exported from pkg/errs. Every failure an adapter
// operation returns carries one of these codes.
const (
	Unknown             = errs.Unknown
	MissingPrecondition = errs.MissingPrecondition
	InvalidArgument     = errs.InvalidArgument
	NotFound            = errs.NotFound
	PreconditionFailed  = errs.PreconditionFailed
	ResourceExhausted   = errs.ResourceExhausted
	Conflict            = errs.Conflict
	Unsupported         = errs.Unsupported
)

// CodeOf extracts the classification of an error returned by an adapter
// operation.
func CodeOf(err error) errs.Code {
	return errs.CodeOf(err)
}

// Where filters documents on a single field; field, op and value pass
// through to the store verbatim.
func Where(field, op string, value any) domain.Constraint {
	return domain.Where{Field: field, Op: op, Value: value}
}

// OrderBy sorts results by field; direction is ascending.
func OrderBy(field string) domain.Constraint {
	return domain.OrderBy{Field: field}
}

// OrderByDesc sorts results by field, descending.
func OrderByDesc(field string) domain.Constraint {
	return domain.OrderBy{Field: field, Descending: true}
}

// Limit caps the number of returned documents.
func Limit(n int64) domain.Constraint {
	return domain.Limit{N: n}
}

// StaticIdentity returns an [domain.Identity] that always reports the given
// uid. Useful for tests and single-user tools.
func StaticIdentity(uid string) domain.Identity {
	return staticIdentity(uid)
}

type staticIdentity string

func (s staticIdentity) UID(context.Context) (string, bool) {
	return string(s), s != ""
}

// Base carries the framework-managed fields and default class metadata.
// Embed it with a `fire:",squash"` tag so its fields flatten into the
// document payload. All hook defaults are no-ops; override the methods your
// model needs.
type Base struct {
	DocID     string    `fire:"docId"`
	CreatedAt time.Time `fire:"createdAt"`
	UpdatedAt time.Time `fire:"updatedAt"`
	UID       string    `fire:"uid"`
}

// UseAutonumber implements [domain.Model]; autonumbering is off by default.
func (b *Base) UseAutonumber() bool { return false }

// LogicalDelete implements [domain.Model]; deletes are physical by default.
func (b *Base) LogicalDelete() bool { return false }

// HasMany implements [domain.Model]; no child references by default.
func (b *Base) HasMany() []domain.ChildRef { return nil }

// TokenFields implements [domain.Model]; token map maintenance is off by
// default.
func (b *Base) TokenFields() []string { return nil }

// BeforeCreate implements [domain.Model].
func (b *Base) BeforeCreate(context.Context) error { return nil }

// BeforeUpdate implements [domain.Model].
func (b *Base) BeforeUpdate(context.Context) error { return nil }

// BeforeDelete implements [domain.Model].
func (b *Base) BeforeDelete(context.Context) error { return nil }

// BeforeEdit implements [domain.Model].
func (b *Base) BeforeEdit(context.Context) error { return nil }

// Validate implements [domain.Model].
func (b *Base) Validate(context.Context) error { return nil }

// GetDocID implements [domain.Model].
func (b *Base) GetDocID() string { return b.DocID }

// SetDocID implements [domain.Model].
func (b *Base) SetDocID(id string) { b.DocID = id }

// GetCreatedAt implements [domain.Model].
func (b *Base) GetCreatedAt() time.Time { return b.CreatedAt }

// SetCreatedAt implements [domain.Model].
func (b *Base) SetCreatedAt(t time.Time) { b.CreatedAt = t }

// GetUpdatedAt implements [domain.Model].
func (b *Base) GetUpdatedAt() time.Time { return b.UpdatedAt }

// SetUpdatedAt implements [domain.Model].
func (b *Base) SetUpdatedAt(t time.Time) { b.UpdatedAt = t }

// GetUID implements [domain.Model].
func (b *Base) GetUID() string { return b.UID }

// SetUID implements [domain.Model].
func (b *Base) SetUID(uid string) { b.UID = uid }
