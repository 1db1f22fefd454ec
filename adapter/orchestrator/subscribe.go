package orchestrator

import (
	"context"

	"go.uber.org/zap"

	"github.com/firemodel-go/firemodel/adapter/data"
	"github.com/firemodel-go/firemodel/domain"
	"github.com/firemodel-go/firemodel/pkg/errs"
)

// Subscribe cancels any existing subscription and registers a change
// listener on a single document. Every notification re-hydrates the bound
// instance from the latest payload, or resets it when the document was
// deleted. At most one subscription is active per orchestrator.
func (o *Orchestrator) Subscribe(ctx context.Context, docID string, options ...domain.SubscribeOption) (domain.CancelFunc, error) {
	const op = "subscribe"
	var opts domain.SubscribeOptions
	for _, option := range options {
		option(&opts)
	}
	if docID == "" {
		docID = o.model.GetDocID()
	}
	if docID == "" {
		return nil, errs.E(op, errs.MissingPrecondition, "no docId to subscribe to")
	}
	o.Unsubscribe()

	path := o.model.CollectionPath(o.resolvePrefix(opts.Prefix)) + "/" + docID
	cancel, err := o.store.ListenDocument(ctx, path, func(snap domain.Snapshot) {
		var err error
		if snap.Exists() {
			err = o.decoder.Decode(snap.Data(), o.model)
		} else {
			err = o.decoder.Reset(o.model)
		}
		if err != nil {
			o.logger.Error("failed to hydrate instance from notification",
				zap.String("operation", op),
				zap.String("path", path),
				zap.Error(err))
		}
	})
	if err != nil {
		return nil, o.classify(op, err)
	}

	o.mu.Lock()
	o.cancel = cancel
	o.mu.Unlock()
	return cancel, nil
}

// SubscribeDocs cancels any existing subscription, builds the query exactly
// as FetchDocs does and registers a change listener on it. The locally
// mirrored list (see Docs) applies every event strictly in delivery order:
// added appends, modified replaces in place, removed deletes at the found
// index. The optional callback runs once per change after the mirror is
// updated.
func (o *Orchestrator) SubscribeDocs(ctx context.Context, constraints any, options ...domain.SubscribeOption) (domain.CancelFunc, error) {
	const op = "subscribeDocs"
	var opts domain.SubscribeOptions
	for _, option := range options {
		option(&opts)
	}
	cons, err := resolveConstraints(op, constraints)
	if err != nil {
		return nil, err
	}
	o.Unsubscribe()

	q := domain.Query{
		Path:        o.model.CollectionPath(o.resolvePrefix(opts.Prefix)),
		Constraints: cons,
	}
	cancel, err := o.store.ListenQuery(ctx, q, func(changes []domain.Change) {
		for _, change := range changes {
			doc := o.applyChange(change)
			if opts.Callback != nil {
				opts.Callback(doc, change.Kind)
			}
		}
	})
	if err != nil {
		return nil, o.classify(op, err)
	}

	o.mu.Lock()
	o.cancel = cancel
	o.mu.Unlock()
	return cancel, nil
}

// applyChange mutates the mirror for one event and returns the payload
// handed to the user callback.
func (o *Orchestrator) applyChange(change domain.Change) data.M {
	doc := change.Doc.Data()
	if doc == nil {
		doc = data.M{}
	}
	if _, ok := doc["docId"]; !ok {
		doc["docId"] = change.Doc.ID()
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	switch change.Kind {
	case domain.ChangeAdded:
		o.docs = append(o.docs, doc)
	case domain.ChangeModified:
		if i := o.indexOf(change.Doc.ID()); i >= 0 {
			o.docs[i] = doc
		}
	case domain.ChangeRemoved:
		if i := o.indexOf(change.Doc.ID()); i >= 0 {
			o.docs = append(o.docs[:i], o.docs[i+1:]...)
		}
	}
	return doc
}

// indexOf finds a mirror entry by document id. Callers hold o.mu.
func (o *Orchestrator) indexOf(docID string) int {
	for i, doc := range o.docs {
		if id, _ := doc["docId"].(string); id == docID {
			return i
		}
	}
	return -1
}

// Docs returns a copy of the subscription mirror: the cumulative effect of
// every change delivered so far, in delivery order. It does not re-sort to
// match any query ordering after initial population.
func (o *Orchestrator) Docs() []data.M {
	o.mu.Lock()
	defer o.mu.Unlock()
	res := make([]data.M, len(o.docs))
	copy(res, o.docs)
	return res
}

// Unsubscribe cancels the active listener, if any, and clears the mirror
// unconditionally. It is idempotent.
func (o *Orchestrator) Unsubscribe() {
	o.mu.Lock()
	cancel := o.cancel
	o.cancel = nil
	o.docs = nil
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
