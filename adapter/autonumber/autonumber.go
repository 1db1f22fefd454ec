// Package autonumber allocates sequential, zero-padded codes from a shared
// per-collection counter document.
package autonumber

import (
	"context"
	"fmt"

	"github.com/firemodel-go/firemodel/adapter/data"
	"github.com/firemodel-go/firemodel/domain"
	"github.com/firemodel-go/firemodel/pkg/errs"
)

const op = "autonumber.plan"

// CollectionName is the collection holding one autonumber document per
// counted collection, resolved under the adapter's path prefix.
const CollectionName = "Autonumbers"

// Assigner issues the next code for a collection. The counter read happens
// immediately, inside the enclosing transaction's read phase; persisting the
// issued number is deferred to the returned plan so no code is committed
// without the document that consumes it.
type Assigner struct{}

// NewAssigner returns a new Assigner.
func NewAssigner() *Assigner {
	return &Assigner{}
}

// Plan reads {prefix}Autonumbers/{collection}, validates its status flag,
// computes the next zero-padded code and assigns it to the document field
// named by the autonumber document. The returned plan updates the current
// counter. It fails with NotFound when the autonumber document is absent,
// PreconditionFailed when its status is falsy and ResourceExhausted when
// the next number would not fit the configured width.
func (a *Assigner) Plan(ctx context.Context, tx domain.Transaction, prefix, collection string, doc data.M) (domain.WritePlan, error) {
	if tx == nil {
		return nil, errs.E(op, errs.MissingPrecondition, "an active transaction is required")
	}
	path := Resolve(prefix, collection)
	snap, err := tx.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	if !snap.Exists() {
		return nil, errs.E(op, errs.NotFound, fmt.Errorf("no autonumber document at %s", path))
	}
	payload := snap.Data()
	if !data.AsBool(payload["status"]) {
		return nil, errs.E(op, errs.PreconditionFailed, fmt.Errorf("autonumber for %s is disabled", collection))
	}
	current, _ := data.AsInt64(payload["current"])
	length, ok := data.AsInt64(payload["length"])
	if !ok || length <= 0 {
		return nil, errs.E(op, errs.PreconditionFailed, fmt.Errorf("autonumber for %s has no usable length", collection))
	}
	field, _ := payload["field"].(string)
	if field == "" {
		return nil, errs.E(op, errs.PreconditionFailed, fmt.Errorf("autonumber for %s names no target field", collection))
	}

	next := current + 1
	if next > max10(length) {
		return nil, errs.E(op, errs.ResourceExhausted, domain.ErrAutonumberExhausted{Next: next, Length: length})
	}
	doc[field] = fmt.Sprintf("%0*d", int(length), next)

	return func(tx domain.Transaction) error {
		return tx.Update(path, data.M{"current": next})
	}, nil
}

// Resolve derives the autonumber document path for a collection under the
// given prefix. A non-empty prefix is normalized to end with "/".
func Resolve(prefix, collection string) string {
	if prefix != "" && prefix[len(prefix)-1] != '/' {
		prefix += "/"
	}
	return prefix + CollectionName + "/" + collection
}

// max10 returns 10^length - 1 without floating point.
func max10(length int64) int64 {
	res := int64(1)
	for range length {
		res *= 10
	}
	return res - 1
}
