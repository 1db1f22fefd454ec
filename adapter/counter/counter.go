// Package counter maintains a denormalized per-collection document count in
// a sibling metadata document.
package counter

import (
	"context"
	"strings"

	"github.com/firemodel-go/firemodel/adapter/data"
	"github.com/firemodel-go/firemodel/domain"
	"github.com/firemodel-go/firemodel/pkg/errs"
)

const op = "counter.plan"

// DocName is the metadata document holding the counts, stored under the
// "meta" sibling collection of the counted collection.
const DocName = "meta/docCounter"

// Updater produces deferred count adjustments. The read happens immediately
// so it lands in the enclosing transaction's read phase; the returned plan
// is applied after every other read has completed.
type Updater struct{}

// NewUpdater returns a new Updater.
func NewUpdater() *Updater {
	return &Updater{}
}

// Plan reads the collection's counter document within tx and returns the
// deferred write adjusting the count by delta (+1 or -1). If the counter
// document does not exist yet, the plan creates it with the collection's
// field initialized to 1 for an increment and 0 otherwise, so a decrement
// can never take the count negative.
func (u *Updater) Plan(ctx context.Context, tx domain.Transaction, collectionPath string, delta int64) (domain.WritePlan, error) {
	if tx == nil {
		return nil, errs.E(op, errs.MissingPrecondition, "an active transaction is required")
	}
	counterPath, field := Resolve(collectionPath)
	snap, err := tx.Get(ctx, counterPath)
	if err != nil {
		return nil, err
	}
	if !snap.Exists() {
		initial := int64(0)
		if delta > 0 {
			initial = 1
		}
		return func(tx domain.Transaction) error {
			return tx.Set(counterPath, data.M{field: initial})
		}, nil
	}
	return func(tx domain.Transaction) error {
		return tx.Update(counterPath, data.M{field: domain.Increment{By: delta}})
	}, nil
}

// Resolve derives the counter document path and the count field for a
// collection: the collection name (last path segment) becomes the field,
// the remaining prefix gains the meta/docCounter suffix.
func Resolve(collectionPath string) (counterPath, field string) {
	trimmed := strings.Trim(collectionPath, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[:i] + "/" + DocName, trimmed[i+1:]
	}
	return DocName, trimmed
}
