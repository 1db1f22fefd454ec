// Package comparer provides value ordering for query filters and sorts.
package comparer

import (
	"cmp"
	"fmt"
	"time"
)

// Comparer orders the scalar types a document field can hold: nil, bool,
// numbers, strings and time.Time. Mixed types order by type rank
// (nil < bool < number < string < time), matching a stable but arbitrary
// cross-type order so sorts never fail on heterogeneous fields.
type Comparer struct{}

// NewComparer returns a new Comparer.
func NewComparer() *Comparer {
	return &Comparer{}
}

// Comparable reports whether a and b order within the same type rank.
func (c *Comparer) Comparable(a, b any) bool {
	return rank(a) == rank(b) && rank(a) >= 0
}

// Compare returns -1, 0 or 1. It fails only for values outside the
// supported scalar set.
func (c *Comparer) Compare(a, b any) (int, error) {
	ra, rb := rank(a), rank(b)
	if ra < 0 {
		return 0, ErrCannotCompare{Value: a}
	}
	if rb < 0 {
		return 0, ErrCannotCompare{Value: b}
	}
	if ra != rb {
		return cmp.Compare(ra, rb), nil
	}
	switch ra {
	case rankNil:
		return 0, nil
	case rankBool:
		av, bv := a.(bool), b.(bool)
		if av == bv {
			return 0, nil
		}
		if bv {
			return -1, nil
		}
		return 1, nil
	case rankNumber:
		af, _ := asFloat(a)
		bf, _ := asFloat(b)
		return cmp.Compare(af, bf), nil
	case rankString:
		return cmp.Compare(a.(string), b.(string)), nil
	default:
		return a.(time.Time).Compare(b.(time.Time)), nil
	}
}

const (
	rankNil = iota
	rankBool
	rankNumber
	rankString
	rankTime
)

func rank(v any) int {
	if v == nil {
		return rankNil
	}
	if _, ok := v.(bool); ok {
		return rankBool
	}
	if _, ok := asFloat(v); ok {
		return rankNumber
	}
	if _, ok := v.(string); ok {
		return rankString
	}
	if _, ok := v.(time.Time); ok {
		return rankTime
	}
	return -1
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	default:
		return 0, false
	}
}

// ErrCannotCompare is returned when a value cannot participate in ordering.
type ErrCannotCompare struct {
	Value any
}

func (e ErrCannotCompare) Error() string {
	return fmt.Sprintf("cannot compare value of type %T", e.Value)
}
