package domain

import "context"

// TransactionCallback runs inside an operation's transaction after the
// operation's own writes are buffered.
type TransactionCallback func(ctx context.Context, tx Transaction) error

// WithCreateDocID sets the document id instead of generating one.
func WithCreateDocID(id string) CreateOption {
	return func(o *CreateOptions) {
		o.DocID = id
	}
}

// WithCreateTransaction joins an already-open transaction instead of opening
// a new one.
func WithCreateTransaction(tx Transaction) CreateOption {
	return func(o *CreateOptions) {
		o.Tx = tx
	}
}

// WithCreatePrefix overrides the adapter's path prefix for this call.
func WithCreatePrefix(p string) CreateOption {
	return func(o *CreateOptions) {
		o.Prefix = &p
	}
}

// WithCreateCallback runs cb inside the transaction, after the document and
// its deferred counter/autonumber writes.
func WithCreateCallback(cb TransactionCallback) CreateOption {
	return func(o *CreateOptions) {
		o.Callback = cb
	}
}

// WithoutAutonumber skips autonumber assignment even when the model class
// opts in.
func WithoutAutonumber() CreateOption {
	return func(o *CreateOptions) {
		o.DisableAutonumber = true
	}
}

// CreateOption configures a single Create call.
type CreateOption func(*CreateOptions)

// CreateOptions contains parameters for a Create call.
type CreateOptions struct {
	DocID             string
	Tx                Transaction
	Prefix            *string
	Callback          TransactionCallback
	DisableAutonumber bool
}

// WithFetchDocID sets the id to read instead of the instance's current id.
func WithFetchDocID(id string) FetchOption {
	return func(o *FetchOptions) {
		o.DocID = id
	}
}

// WithFetchTransaction performs the read inside an open transaction.
func WithFetchTransaction(tx Transaction) FetchOption {
	return func(o *FetchOptions) {
		o.Tx = tx
	}
}

// WithFetchPrefix overrides the adapter's path prefix for this call.
func WithFetchPrefix(p string) FetchOption {
	return func(o *FetchOptions) {
		o.Prefix = &p
	}
}

// FetchOption configures a single Fetch or FetchDoc call.
type FetchOption func(*FetchOptions)

// FetchOptions contains parameters for a Fetch or FetchDoc call.
type FetchOptions struct {
	DocID  string
	Tx     Transaction
	Prefix *string
}

// WithQueryTransaction performs query reads inside an open transaction,
// subject to the adapter's fallback policy.
func WithQueryTransaction(tx Transaction) QueryOption {
	return func(o *QueryOptions) {
		o.Tx = tx
	}
}

// WithQueryPrefix overrides the adapter's path prefix for this call.
func WithQueryPrefix(p string) QueryOption {
	return func(o *QueryOptions) {
		o.Prefix = &p
	}
}

// WithQueryConstraints adds validated constraints on top of the ones derived
// from the primary argument (token search filters, for example).
func WithQueryConstraints(cons ...Constraint) QueryOption {
	return func(o *QueryOptions) {
		o.Constraints = append(o.Constraints, cons...)
	}
}

// QueryOption configures a FetchDocs or FetchDocsByIds call.
type QueryOption func(*QueryOptions)

// QueryOptions contains parameters for a FetchDocs or FetchDocsByIds call.
type QueryOptions struct {
	Tx          Transaction
	Prefix      *string
	Constraints []Constraint
}

// WithUpdateTransaction joins an already-open transaction.
func WithUpdateTransaction(tx Transaction) UpdateOption {
	return func(o *UpdateOptions) {
		o.Tx = tx
	}
}

// WithUpdatePrefix overrides the adapter's path prefix for this call.
func WithUpdatePrefix(p string) UpdateOption {
	return func(o *UpdateOptions) {
		o.Prefix = &p
	}
}

// WithUpdateCallback runs cb inside the transaction after the document
// write.
func WithUpdateCallback(cb TransactionCallback) UpdateOption {
	return func(o *UpdateOptions) {
		o.Callback = cb
	}
}

// UpdateOption configures a single Update call.
type UpdateOption func(*UpdateOptions)

// UpdateOptions contains parameters for an Update call.
type UpdateOptions struct {
	Tx       Transaction
	Prefix   *string
	Callback TransactionCallback
}

// WithDeleteDocID sets the id to delete instead of the instance's current
// id.
func WithDeleteDocID(id string) DeleteOption {
	return func(o *DeleteOptions) {
		o.DocID = id
	}
}

// WithDeleteTransaction joins an already-open transaction.
func WithDeleteTransaction(tx Transaction) DeleteOption {
	return func(o *DeleteOptions) {
		o.Tx = tx
	}
}

// WithDeletePrefix overrides the adapter's path prefix for this call.
func WithDeletePrefix(p string) DeleteOption {
	return func(o *DeleteOptions) {
		o.Prefix = &p
	}
}

// WithDeleteCallback runs cb inside the transaction after the delete and
// its deferred counter write.
func WithDeleteCallback(cb TransactionCallback) DeleteOption {
	return func(o *DeleteOptions) {
		o.Callback = cb
	}
}

// DeleteOption configures a single Delete call.
type DeleteOption func(*DeleteOptions)

// DeleteOptions contains parameters for a Delete call.
type DeleteOptions struct {
	DocID    string
	Tx       Transaction
	Prefix   *string
	Callback TransactionCallback
}

// WithRestoreTransaction joins an already-open transaction.
func WithRestoreTransaction(tx Transaction) RestoreOption {
	return func(o *RestoreOptions) {
		o.Tx = tx
	}
}

// WithRestorePrefix overrides the adapter's path prefix for this call.
func WithRestorePrefix(p string) RestoreOption {
	return func(o *RestoreOptions) {
		o.Prefix = &p
	}
}

// RestoreOption configures a single Restore call.
type RestoreOption func(*RestoreOptions)

// RestoreOptions contains parameters for a Restore call.
type RestoreOptions struct {
	Tx     Transaction
	Prefix *string
}

// ChangeCallback is invoked once per live-query change with the document
// payload and the change kind.
type ChangeCallback func(doc map[string]any, kind ChangeKind)

// WithSubscribePrefix overrides the adapter's path prefix for this
// subscription.
func WithSubscribePrefix(p string) SubscribeOption {
	return func(o *SubscribeOptions) {
		o.Prefix = &p
	}
}

// WithSubscribeCallback invokes cb for every change delivered to the
// subscription, after the mirror is updated.
func WithSubscribeCallback(cb ChangeCallback) SubscribeOption {
	return func(o *SubscribeOptions) {
		o.Callback = cb
	}
}

// SubscribeOption configures a Subscribe or SubscribeDocs call.
type SubscribeOption func(*SubscribeOptions)

// SubscribeOptions contains parameters for a Subscribe or SubscribeDocs
// call.
type SubscribeOptions struct {
	Prefix   *string
	Callback ChangeCallback
}
