package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/firemodel-go/firemodel/adapter/data"
	"github.com/firemodel-go/firemodel/adapter/querybuilder"
	"github.com/firemodel-go/firemodel/adapter/tokenmap"
	"github.com/firemodel-go/firemodel/domain"
	"github.com/firemodel-go/firemodel/pkg/errs"
)

// IDChunkSize is the store's batch limit for "id in" queries.
const IDChunkSize = 30

// ArchiveSuffix derives the archive collection of a logically-deleted
// collection.
const ArchiveSuffix = "_archive"

// Create writes the model as a new document. Inside a single transaction it
// assigns an autonumber code when the class opts in, adjusts the collection
// counter, stamps docId/createdAt/updatedAt/uid, writes the document and
// applies the deferred counter and autonumber writes after all reads. The
// instance is rehydrated from the written payload on success. Returns the
// document id.
func (o *Orchestrator) Create(ctx context.Context, options ...domain.CreateOption) (string, error) {
	const op = "create"
	var opts domain.CreateOptions
	for _, option := range options {
		option(&opts)
	}

	if err := o.model.BeforeCreate(ctx); err != nil {
		return "", o.classify(op, err)
	}
	if err := o.model.BeforeEdit(ctx); err != nil {
		return "", o.classify(op, err)
	}
	if err := o.model.Validate(ctx); err != nil {
		return "", o.classify(op, err)
	}

	prefix := o.resolvePrefix(opts.Prefix)
	colPath := o.model.CollectionPath(prefix)

	var docID string
	var written data.M
	body := func(ctx context.Context, tx domain.Transaction) error {
		doc, err := data.NewDocument(o.model)
		if err != nil {
			return err
		}

		// Read phase: both plans read their counter documents now, so
		// every read precedes the first write.
		plans := make([]domain.WritePlan, 0, 2)
		if o.model.UseAutonumber() && !opts.DisableAutonumber {
			plan, err := o.autonumberAssigner.Plan(ctx, tx, prefix, collectionName(colPath), doc)
			if err != nil {
				return err
			}
			plans = append(plans, plan)
		}
		countPlan, err := o.counterUpdater.Plan(ctx, tx, colPath, +1)
		if err != nil {
			return err
		}
		plans = append(plans, countPlan)

		id := opts.DocID
		if id == "" {
			id = o.model.GetDocID()
		}
		if id == "" {
			if id, err = o.store.GenerateID(); err != nil {
				return err
			}
		}
		now := o.timeGetter.GetTime()
		doc["docId"] = id
		doc["createdAt"] = now
		doc["updatedAt"] = now
		doc["uid"] = o.uid(ctx)
		if fields := o.model.TokenFields(); len(fields) > 0 {
			doc[tokenmap.FieldName] = tokenmap.Build(fields, doc)
		}

		if err := tx.Set(colPath+"/"+id, doc); err != nil {
			return err
		}
		for _, plan := range plans {
			if err := plan.Apply(tx); err != nil {
				return err
			}
		}
		if opts.Callback != nil {
			if err := opts.Callback(ctx, tx); err != nil {
				return err
			}
		}
		docID, written = id, doc
		return nil
	}
	if err := o.runTx(ctx, opts.Tx, body); err != nil {
		return "", o.classify(op, err)
	}
	if err := o.decoder.Decode(written, o.model); err != nil {
		return "", o.classify(op, err)
	}
	return docID, nil
}

// Fetch reads one document and hydrates the bound instance from it. A
// missing document resets the instance to its empty state without failing.
func (o *Orchestrator) Fetch(ctx context.Context, options ...domain.FetchOption) error {
	const op = "fetch"
	snap, err := o.fetchSnapshot(ctx, op, options)
	if err != nil {
		return err
	}
	if !snap.Exists() {
		return o.classify(op, o.decoder.Reset(o.model))
	}
	return o.classify(op, o.decoder.Decode(snap.Data(), o.model))
}

// FetchDoc reads one document and returns a detached copy of its payload
// without touching instance state. It fails with NotFound for a missing
// document.
func (o *Orchestrator) FetchDoc(ctx context.Context, options ...domain.FetchOption) (data.M, error) {
	const op = "fetchDoc"
	snap, err := o.fetchSnapshot(ctx, op, options)
	if err != nil {
		return nil, err
	}
	if !snap.Exists() {
		return nil, errs.E(op, errs.NotFound, fmt.Errorf("no document at %s", snap.Path()))
	}
	return snap.Data(), nil
}

func (o *Orchestrator) fetchSnapshot(ctx context.Context, op string, options []domain.FetchOption) (domain.Snapshot, error) {
	var opts domain.FetchOptions
	for _, option := range options {
		option(&opts)
	}
	id := opts.DocID
	if id == "" {
		id = o.model.GetDocID()
	}
	if id == "" {
		return nil, errs.E(op, errs.MissingPrecondition, "no docId to fetch")
	}
	path := o.model.CollectionPath(o.resolvePrefix(opts.Prefix)) + "/" + id
	var snap domain.Snapshot
	var err error
	if opts.Tx != nil {
		snap, err = opts.Tx.Get(ctx, path)
	} else {
		snap, err = o.store.Get(ctx, path)
	}
	if err != nil {
		return nil, o.classify(op, err)
	}
	return snap, nil
}

// FetchDocs executes a query against the model's collection and returns the
// matching payloads. constraints may be a search string (translated into
// token-map equality filters), raw constraint tuples ([][]any), or
// already-validated []domain.Constraint; nil fetches the whole collection.
func (o *Orchestrator) FetchDocs(ctx context.Context, constraints any, options ...domain.QueryOption) ([]data.M, error) {
	const op = "fetchDocs"
	var opts domain.QueryOptions
	for _, option := range options {
		option(&opts)
	}
	cons, err := resolveConstraints(op, constraints)
	if err != nil {
		return nil, err
	}
	cons = append(cons, opts.Constraints...)

	q := domain.Query{
		Path:        o.model.CollectionPath(o.resolvePrefix(opts.Prefix)),
		Constraints: cons,
	}
	snaps, err := o.getAll(ctx, opts.Tx, q, op)
	if err != nil {
		return nil, o.classify(op, err)
	}
	return payloads(snaps), nil
}

// FetchDocsByIds reads the documents with the given ids, deduplicated, in
// chunks of [IDChunkSize] ids per query. Chunks run concurrently when no
// transaction was supplied. Empty input yields an empty result, not an
// error.
func (o *Orchestrator) FetchDocsByIds(ctx context.Context, ids []string, options ...domain.QueryOption) ([]data.M, error) {
	const op = "fetchDocsByIds"
	var opts domain.QueryOptions
	for _, option := range options {
		option(&opts)
	}
	unique := dedup(ids)
	if len(unique) == 0 {
		return []data.M{}, nil
	}
	colPath := o.model.CollectionPath(o.resolvePrefix(opts.Prefix))

	chunks := make([][]string, 0, (len(unique)+IDChunkSize-1)/IDChunkSize)
	for start := 0; start < len(unique); start += IDChunkSize {
		chunks = append(chunks, unique[start:min(start+IDChunkSize, len(unique))])
	}

	results := make([][]domain.Snapshot, len(chunks))
	query := func(n int) error {
		values := make([]any, len(chunks[n]))
		for i, id := range chunks[n] {
			values[i] = id
		}
		q := domain.Query{
			Path:        colPath,
			Constraints: []domain.Constraint{domain.Where{Field: "docId", Op: "in", Value: values}},
		}
		snaps, err := o.getAll(ctx, opts.Tx, q, op)
		if err != nil {
			return err
		}
		results[n] = snaps
		return nil
	}

	var err error
	if opts.Tx != nil {
		// A transaction handle is not safe for concurrent use.
		for n := range chunks {
			if err = query(n); err != nil {
				break
			}
		}
	} else {
		var wg sync.WaitGroup
		var mu sync.Mutex
		for n := range chunks {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if qerr := query(n); qerr != nil {
					mu.Lock()
					if err == nil {
						err = qerr
					}
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
	}
	if err != nil {
		return nil, o.classify(op, err)
	}

	var res []data.M
	for _, snaps := range results {
		res = append(res, payloads(snaps)...)
	}
	return res, nil
}

// Update overwrites the document at the instance's current id, stamping
// updatedAt and uid. It fails with MissingPrecondition when the instance
// has no docId.
func (o *Orchestrator) Update(ctx context.Context, options ...domain.UpdateOption) (string, error) {
	const op = "update"
	var opts domain.UpdateOptions
	for _, option := range options {
		option(&opts)
	}
	id := o.model.GetDocID()
	if id == "" {
		return "", errs.E(op, errs.MissingPrecondition, "instance has no docId to update")
	}

	if err := o.model.BeforeUpdate(ctx); err != nil {
		return "", o.classify(op, err)
	}
	if err := o.model.BeforeEdit(ctx); err != nil {
		return "", o.classify(op, err)
	}
	if err := o.model.Validate(ctx); err != nil {
		return "", o.classify(op, err)
	}

	colPath := o.model.CollectionPath(o.resolvePrefix(opts.Prefix))

	var written data.M
	body := func(ctx context.Context, tx domain.Transaction) error {
		doc, err := data.NewDocument(o.model)
		if err != nil {
			return err
		}
		doc["docId"] = id
		doc["updatedAt"] = o.timeGetter.GetTime()
		doc["uid"] = o.uid(ctx)
		if fields := o.model.TokenFields(); len(fields) > 0 {
			doc[tokenmap.FieldName] = tokenmap.Build(fields, doc)
		}
		if err := tx.Set(colPath+"/"+id, doc); err != nil {
			return err
		}
		if opts.Callback != nil {
			if err := opts.Callback(ctx, tx); err != nil {
				return err
			}
		}
		written = doc
		return nil
	}
	if err := o.runTx(ctx, opts.Tx, body); err != nil {
		return "", o.classify(op, err)
	}
	if err := o.decoder.Decode(written, o.model); err != nil {
		return "", o.classify(op, err)
	}
	return id, nil
}

// HasChild checks the model's child-reference descriptors in declared order
// and returns the first one with at least one document referencing this
// instance's id, or nil when no child exists. Descriptor order defines
// check priority.
func (o *Orchestrator) HasChild(ctx context.Context, options ...domain.QueryOption) (*domain.ChildRef, error) {
	const op = "hasChild"
	var opts domain.QueryOptions
	for _, option := range options {
		option(&opts)
	}
	id := o.model.GetDocID()
	if id == "" {
		return nil, errs.E(op, errs.MissingPrecondition, "instance has no docId")
	}
	ref, err := o.hasChild(ctx, opts.Tx, o.resolvePrefix(opts.Prefix), id, op)
	if err != nil {
		return nil, o.classify(op, err)
	}
	return ref, nil
}

func (o *Orchestrator) hasChild(ctx context.Context, tx domain.Transaction, prefix, id, op string) (*domain.ChildRef, error) {
	for _, ref := range o.model.HasMany() {
		operator := ref.Op
		if operator == "" {
			operator = "=="
		}
		q := domain.Query{
			Path:  ref.Path,
			Group: ref.Kind == domain.RelationCollectionGroup,
			Constraints: []domain.Constraint{
				domain.Where{Field: ref.Field, Op: operator, Value: id},
				domain.Limit{N: 1},
			},
		}
		if !q.Group {
			q.Path = prefix + ref.Path
		}
		snaps, err := o.getAll(ctx, tx, q, op)
		if err != nil {
			return nil, err
		}
		if len(snaps) > 0 {
			found := ref
			return &found, nil
		}
	}
	return nil, nil
}

// Delete removes the document at the instance's current id. If any child
// reference exists the whole transaction aborts with Conflict and the
// document survives untouched. When the class uses logical delete, the
// payload is re-read inside the transaction and copied to the archive
// collection under the same id before the live document is deleted.
func (o *Orchestrator) Delete(ctx context.Context, options ...domain.DeleteOption) error {
	const op = "delete"
	var opts domain.DeleteOptions
	for _, option := range options {
		option(&opts)
	}
	id := opts.DocID
	if id == "" {
		id = o.model.GetDocID()
	}
	if id == "" {
		return errs.E(op, errs.MissingPrecondition, "no docId to delete")
	}

	if err := o.model.BeforeDelete(ctx); err != nil {
		return o.classify(op, err)
	}

	prefix := o.resolvePrefix(opts.Prefix)
	colPath := o.model.CollectionPath(prefix)
	docPath := colPath + "/" + id

	body := func(ctx context.Context, tx domain.Transaction) error {
		ref, err := o.hasChild(ctx, tx, prefix, id, op)
		if err != nil {
			return err
		}
		if ref != nil {
			return errs.E(op, errs.Conflict,
				fmt.Errorf("documents in %s still reference %s via %s", ref.Path, id, ref.Field))
		}
		countPlan, err := o.counterUpdater.Plan(ctx, tx, colPath, -1)
		if err != nil {
			return err
		}
		if o.model.LogicalDelete() {
			snap, err := tx.Get(ctx, docPath)
			if err != nil {
				return err
			}
			if !snap.Exists() {
				return errs.E(op, errs.NotFound, fmt.Errorf("no document at %s", docPath))
			}
			if err := tx.Set(colPath+ArchiveSuffix+"/"+id, snap.Data()); err != nil {
				return err
			}
		}
		if err := tx.Delete(docPath); err != nil {
			return err
		}
		if err := countPlan.Apply(tx); err != nil {
			return err
		}
		if opts.Callback != nil {
			if err := opts.Callback(ctx, tx); err != nil {
				return err
			}
		}
		return nil
	}
	return o.classify(op, o.runTx(ctx, opts.Tx, body))
}

// Restore moves an archived document back into the live collection under
// the same id, restoring its payload byte for byte and re-incrementing the
// collection counter. Returns the document id.
func (o *Orchestrator) Restore(ctx context.Context, docID string, options ...domain.RestoreOption) (string, error) {
	const op = "restore"
	var opts domain.RestoreOptions
	for _, option := range options {
		option(&opts)
	}
	if docID == "" {
		return "", errs.E(op, errs.MissingPrecondition, "no docId to restore")
	}

	colPath := o.model.CollectionPath(o.resolvePrefix(opts.Prefix))
	archPath := colPath + ArchiveSuffix + "/" + docID

	body := func(ctx context.Context, tx domain.Transaction) error {
		snap, err := tx.Get(ctx, archPath)
		if err != nil {
			return err
		}
		if !snap.Exists() {
			return errs.E(op, errs.NotFound, fmt.Errorf("no archived document at %s", archPath))
		}
		countPlan, err := o.counterUpdater.Plan(ctx, tx, colPath, +1)
		if err != nil {
			return err
		}
		if err := tx.Delete(archPath); err != nil {
			return err
		}
		if err := tx.Set(colPath+"/"+docID, snap.Data()); err != nil {
			return err
		}
		return countPlan.Apply(tx)
	}
	if err := o.runTx(ctx, opts.Tx, body); err != nil {
		return "", o.classify(op, err)
	}
	return docID, nil
}

// resolveConstraints accepts the three supported constraint inputs: a
// search string, raw tuples, or validated constraints.
func resolveConstraints(op string, constraints any) ([]domain.Constraint, error) {
	switch t := constraints.(type) {
	case nil:
		return nil, nil
	case string:
		return tokenmap.Constraints(t)
	case [][]any:
		return querybuilder.Parse(t)
	case []domain.Constraint:
		return t, nil
	default:
		return nil, errs.E(op, errs.InvalidArgument,
			fmt.Errorf("constraints must be a string, [][]any or []domain.Constraint, got %T", constraints))
	}
}

func payloads(snaps []domain.Snapshot) []data.M {
	res := make([]data.M, len(snaps))
	for i, snap := range snaps {
		res[i] = snap.Data()
	}
	return res
}

func dedup(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	res := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		res = append(res, id)
	}
	return res
}

// collectionName returns the last segment of a collection path.
func collectionName(colPath string) string {
	if i := strings.LastIndex(strings.Trim(colPath, "/"), "/"); i >= 0 {
		return strings.Trim(colPath, "/")[i+1:]
	}
	return strings.Trim(colPath, "/")
}
