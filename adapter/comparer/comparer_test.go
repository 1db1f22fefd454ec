package comparer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type ComparerTestSuite struct {
	suite.Suite
	cmp *Comparer
}

func (s *ComparerTestSuite) SetupTest() {
	s.cmp = NewComparer()
}

// Values of the same kind order naturally.
func (s *ComparerTestSuite) TestSameKindOrdering() {
	early := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)
	cases := []struct {
		a, b any
		want int
	}{
		{1, 2, -1},
		{int64(2), float64(2), 0},
		{3.5, 2, 1},
		{"a", "b", -1},
		{"b", "b", 0},
		{false, true, -1},
		{true, true, 0},
		{early, late, -1},
		{nil, nil, 0},
	}
	for _, c := range cases {
		got, err := s.cmp.Compare(c.a, c.b)
		s.Require().NoError(err)
		s.Equal(c.want, got)
	}
}

// Mixed kinds order by rank: nil < bool < number < string < time.
func (s *ComparerTestSuite) TestCrossKindOrdering() {
	now := time.Now()
	ordered := []any{nil, true, 7, "x", now}
	for i := range ordered {
		for j := range ordered {
			got, err := s.cmp.Compare(ordered[i], ordered[j])
			s.Require().NoError(err)
			switch {
			case i < j:
				s.Equal(-1, got)
			case i > j:
				s.Equal(1, got)
			default:
				s.Equal(0, got)
			}
		}
	}
}

// Comparable is true only within one kind.
func (s *ComparerTestSuite) TestComparable() {
	s.True(s.cmp.Comparable(1, 2.5))
	s.True(s.cmp.Comparable("a", "b"))
	s.False(s.cmp.Comparable(1, "1"))
	s.False(s.cmp.Comparable(nil, false))
	s.False(s.cmp.Comparable([]any{}, []any{}))
}

// Unsupported values fail instead of silently ordering.
func (s *ComparerTestSuite) TestUnsupportedValuesFail() {
	_, err := s.cmp.Compare([]any{1}, 2)
	s.Require().Error(err)
	s.ErrorAs(err, &ErrCannotCompare{})
}

func TestComparerTestSuite(t *testing.T) {
	suite.Run(t, new(ComparerTestSuite))
}
