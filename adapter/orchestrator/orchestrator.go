// Package orchestrator composes the query, counter and autonumber helpers
// into atomic document lifecycle operations: create, fetch, update, delete,
// restore and live subscriptions. Every mutating operation runs inside a
// single all-or-nothing store transaction; on any failure no partial state
// is persisted.
package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/firemodel-go/firemodel/adapter/autonumber"
	"github.com/firemodel-go/firemodel/adapter/counter"
	"github.com/firemodel-go/firemodel/adapter/data"
	"github.com/firemodel-go/firemodel/adapter/decoder"
	"github.com/firemodel-go/firemodel/adapter/timegetter"
	"github.com/firemodel-go/firemodel/domain"
	"github.com/firemodel-go/firemodel/pkg/errs"
)

// UnknownUID is stamped on written documents when no identity is available.
const UnknownUID = "unknown"

// Orchestrator drives one model instance against a document store. It is
// not safe for concurrent operations on the same instance; live
// subscription callbacks run on the store's notification goroutine and are
// not ordered against in-flight operations (callers must not rely on
// ordering between the two).
type Orchestrator struct {
	store      domain.Store
	identity   domain.Identity
	logger     *zap.Logger
	timeGetter domain.TimeGetter
	prefix     string
	txQueries  bool

	model domain.Model

	counterUpdater     *counter.Updater
	autonumberAssigner *autonumber.Assigner
	decoder            *decoder.Decoder

	mu     sync.Mutex
	cancel domain.CancelFunc
	docs   []data.M
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithStore sets the document store. Required.
func WithStore(s domain.Store) Option {
	return func(o *Orchestrator) {
		o.store = s
	}
}

// WithIdentity sets the identity provider stamping the uid field. Without
// one, documents are stamped with [UnknownUID].
func WithIdentity(id domain.Identity) Option {
	return func(o *Orchestrator) {
		o.identity = id
	}
}

// WithLogger sets the logger, zap.NewNop() by default.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// WithPrefix sets the default collection path prefix for every operation.
func WithPrefix(p string) Option {
	return func(o *Orchestrator) {
		o.prefix = p
	}
}

// WithTimeGetter sets the clock used for createdAt/updatedAt stamps.
func WithTimeGetter(t domain.TimeGetter) Option {
	return func(o *Orchestrator) {
		o.timeGetter = t
	}
}

// WithTransactionalQueries requires query reads inside transactions to be
// served by the transaction itself. When false (the default), a store that
// cannot serve them causes a logged downgrade to a non-transactional read,
// a known consistency relaxation.
func WithTransactionalQueries(required bool) Option {
	return func(o *Orchestrator) {
		o.txQueries = required
	}
}

// New returns an orchestrator bound to the given model instance.
func New(model domain.Model, options ...Option) (*Orchestrator, error) {
	if model == nil {
		return nil, errs.E("new", errs.InvalidArgument, "model is nil")
	}
	o := &Orchestrator{
		model:              model,
		logger:             zap.NewNop(),
		timeGetter:         timegetter.NewTimeGetter(),
		counterUpdater:     counter.NewUpdater(),
		autonumberAssigner: autonumber.NewAssigner(),
		decoder:            decoder.NewDecoder(),
	}
	for _, option := range options {
		option(o)
	}
	if o.store == nil {
		return nil, errs.E("new", errs.InvalidArgument, "store is nil")
	}
	return o, nil
}

// Model returns the bound model instance.
func (o *Orchestrator) Model() domain.Model {
	return o.model
}

// resolvePrefix applies a per-call override and normalizes a non-empty
// prefix to end with "/".
func (o *Orchestrator) resolvePrefix(override *string) string {
	p := o.prefix
	if override != nil {
		p = *override
	}
	if p != "" && !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

func (o *Orchestrator) uid(ctx context.Context) string {
	if o.identity == nil {
		return UnknownUID
	}
	uid, ok := o.identity.UID(ctx)
	if !ok || uid == "" {
		return UnknownUID
	}
	return uid
}

// runTx joins the caller's transaction when one was supplied, otherwise it
// opens a new one. The store may re-execute body on contention, so body
// must not capture state read outside the transaction.
func (o *Orchestrator) runTx(ctx context.Context, tx domain.Transaction, body func(ctx context.Context, tx domain.Transaction) error) error {
	if tx != nil {
		return body(ctx, tx)
	}
	return o.store.RunTransaction(ctx, body)
}

// getAll serves a query read, inside the transaction when possible. When
// the store's transaction cannot serve queries the read is downgraded to a
// non-transactional one unless transactional queries were required; the
// downgrade is logged so callers can detect the relaxed consistency.
func (o *Orchestrator) getAll(ctx context.Context, tx domain.Transaction, q domain.Query, op string) ([]domain.Snapshot, error) {
	if tx == nil {
		return o.store.Query(ctx, q)
	}
	snaps, err := tx.GetAll(ctx, q)
	if err == nil || !errors.Is(err, domain.ErrQueryInTransaction) {
		return snaps, err
	}
	if o.txQueries {
		return nil, errs.E(op, errs.Unsupported, err)
	}
	o.logger.Warn("query read downgraded to non-transactional",
		zap.String("operation", op),
		zap.String("path", q.Path))
	return o.store.Query(ctx, q)
}

// classify turns any unexpected failure into a classified Unknown error,
// logging it once with the operation name. Already-classified errors pass
// through unchanged and unlogged.
func (o *Orchestrator) classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errs.Classified(err) {
		return err
	}
	o.logger.Error("operation failed",
		zap.String("operation", op),
		zap.Error(err))
	return errs.E(op, errs.Unknown, err)
}
