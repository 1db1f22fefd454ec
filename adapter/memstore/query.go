package memstore

import (
	"fmt"
	"sort"

	"github.com/firemodel-go/firemodel/adapter/data"
	"github.com/firemodel-go/firemodel/domain"
)

// evaluateLocked runs a query over the store. Documents scan in id order
// per collection; filters apply in constraint order, then sorts, then the
// limit. Callers hold s.mu.
func (s *Store) evaluateLocked(q domain.Query) ([]domain.Snapshot, error) {
	var filters []domain.Where
	var orders []domain.OrderBy
	limit := int64(0)
	for _, c := range q.Constraints {
		switch t := c.(type) {
		case domain.Where:
			filters = append(filters, t)
		case domain.OrderBy:
			orders = append(orders, t)
		case domain.Limit:
			limit = t.N
		default:
			return nil, fmt.Errorf("memstore: unsupported constraint %T", c)
		}
	}

	var res []snapshot
	for _, col := range s.collectionPathsLocked(q) {
		for _, path := range s.pathsInLocked(col) {
			e := s.docs[path]
			match, err := s.matches(e.data, filters)
			if err != nil {
				return nil, err
			}
			if match {
				res = append(res, s.snapshotLocked(path))
			}
		}
	}

	if len(orders) > 0 {
		var sortErr error
		sort.SliceStable(res, func(i, j int) bool {
			for _, o := range orders {
				a, _ := data.GetPath(res[i].data, o.Field)
				b, _ := data.GetPath(res[j].data, o.Field)
				c, err := s.cmp.Compare(a, b)
				if err != nil {
					sortErr = err
					return false
				}
				if c == 0 {
					continue
				}
				if o.Descending {
					return c > 0
				}
				return c < 0
			}
			return false
		})
		if sortErr != nil {
			return nil, sortErr
		}
	}
	if limit > 0 && int64(len(res)) > limit {
		res = res[:limit]
	}

	out := make([]domain.Snapshot, len(res))
	for i, snap := range res {
		out[i] = snap
	}
	return out, nil
}

func (s *Store) matches(doc data.M, filters []domain.Where) (bool, error) {
	for _, f := range filters {
		ok, err := s.matchOne(doc, f)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (s *Store) matchOne(doc data.M, f domain.Where) (bool, error) {
	value, present := data.GetPath(doc, f.Field)
	// A missing field matches no filter.
	if !present {
		return false, nil
	}
	switch f.Op {
	case "==":
		return s.equal(value, f.Value), nil
	case "!=":
		return !s.equal(value, f.Value), nil
	case "<", "<=", ">", ">=":
		if !s.cmp.Comparable(value, f.Value) {
			return false, nil
		}
		c, err := s.cmp.Compare(value, f.Value)
		if err != nil {
			return false, err
		}
		switch f.Op {
		case "<":
			return c < 0, nil
		case "<=":
			return c <= 0, nil
		case ">":
			return c > 0, nil
		default:
			return c >= 0, nil
		}
	case "in":
		elems, ok := f.Value.([]any)
		if !ok {
			return false, fmt.Errorf("memstore: \"in\" needs a []any value, got %T", f.Value)
		}
		for _, elem := range elems {
			if s.equal(value, elem) {
				return true, nil
			}
		}
		return false, nil
	case "array-contains":
		elems, ok := value.([]any)
		if !ok {
			return false, nil
		}
		for _, elem := range elems {
			if s.equal(elem, f.Value) {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("memstore: unsupported operator %q", f.Op)
	}
}

func (s *Store) equal(a, b any) bool {
	if s.cmp.Comparable(a, b) {
		c, err := s.cmp.Compare(a, b)
		return err == nil && c == 0
	}
	return false
}
