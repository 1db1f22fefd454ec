package domain

// Constraint is a validated query constraint. It is a closed variant:
// [Where], [OrderBy] and [Limit] are the only implementations.
type Constraint interface {
	constraint()
}

// Where filters documents on a single field. Field, Op and Value are passed
// through to the store verbatim.
type Where struct {
	Field string
	Op    string
	Value any
}

// OrderBy sorts results by a single field.
type OrderBy struct {
	Field      string
	Descending bool
}

// Limit caps the number of returned documents. N is always positive.
type Limit struct {
	N int64
}

func (Where) constraint()   {}
func (OrderBy) constraint() {}
func (Limit) constraint()   {}

// Query addresses a collection (or a collection group) together with its
// constraints. Constraint order is preserved and determines evaluation
// order in the store.
type Query struct {
	// Path is the collection path, or the collection group name when
	// Group is set.
	Path string
	// Group marks a collection-group query, matching every collection
	// whose last path segment equals Path.
	Group       bool
	Constraints []Constraint
}

// RelationKind tells how a [ChildRef] addresses the related documents.
type RelationKind int

const (
	// RelationCollection targets a single collection path.
	RelationCollection RelationKind = iota
	// RelationCollectionGroup targets every collection with the given
	// name.
	RelationCollectionGroup
)

// ChildRef describes a foreign-key relationship used for pre-delete
// referential checks. Descriptor order on a model defines check priority.
type ChildRef struct {
	Kind RelationKind
	// Path is the related collection path (relative to the adapter
	// prefix) or the collection group name.
	Path string
	// Field is the property on the related documents holding this
	// document's id.
	Field string
	// Op is the comparison operator, "==" if empty.
	Op string
}

// ChangeKind classifies a single live-query change event.
type ChangeKind int

const (
	// ChangeAdded means the document entered the result set.
	ChangeAdded ChangeKind = iota
	// ChangeModified means the document changed while staying in the
	// result set.
	ChangeModified
	// ChangeRemoved means the document left the result set.
	ChangeRemoved
)

// String returns the lowercase event name.
func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "added"
	case ChangeModified:
		return "modified"
	case ChangeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Change is one live-query event. Events are delivered in commit order and
// the mirror applies them strictly in delivery order.
type Change struct {
	Kind ChangeKind
	Doc  Snapshot
}

// Increment marks a field for atomic increment when passed as a value in
// [Store.Update] or [Transaction.Update].
type Increment struct {
	By int64
}

// WritePlan is a deferred write produced during a transaction's read phase
// and applied during its write phase. A nil plan applies as a no-op, so
// optional plans compose without branching.
type WritePlan func(tx Transaction) error

// Apply runs the plan against the transaction.
func (p WritePlan) Apply(tx Transaction) error {
	if p == nil {
		return nil
	}
	return p(tx)
}
