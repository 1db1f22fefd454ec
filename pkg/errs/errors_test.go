package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorsTestSuite struct {
	suite.Suite
}

// E assembles op, code and message into one classified error.
func (s *ErrorsTestSuite) TestBuildFromParts() {
	err := E("adapter.create", NotFound, "no such document")
	s.EqualError(err, "adapter.create: not-found: no such document")
	s.Equal(NotFound, CodeOf(err))
}

// Wrapping a classified error keeps its code unless the wrapper sets its
// own.
func (s *ErrorsTestSuite) TestWrappingKeepsInnerCode() {
	inner := E("counter.plan", MissingPrecondition, "an active transaction is required")
	outer := E("adapter.delete", inner.(*Error))
	s.Equal(MissingPrecondition, CodeOf(outer))

	overridden := E("adapter.delete", Conflict, inner.(*Error))
	s.Equal(Conflict, CodeOf(overridden))
}

// The cause chain stays reachable through errors.Is.
func (s *ErrorsTestSuite) TestUnwrapReachesCause() {
	cause := errors.New("disk full")
	err := E("store.set", Unknown, cause)
	s.ErrorIs(err, cause)
}

// Classification survives further wrapping by fmt.Errorf.
func (s *ErrorsTestSuite) TestClassificationSurvivesWrapping() {
	err := fmt.Errorf("while syncing: %w", E("adapter.fetch", NotFound))
	s.True(Classified(err))
	s.True(Is(err, NotFound))
	s.False(Is(err, Conflict))
}

// Plain errors are unclassified and report Unknown.
func (s *ErrorsTestSuite) TestPlainErrorsAreUnknown() {
	err := errors.New("boom")
	s.False(Classified(err))
	s.Equal(Unknown, CodeOf(err))
	s.Equal(Unknown, CodeOf(nil))
}

// Every code renders a distinct canonical name.
func (s *ErrorsTestSuite) TestCodeNames() {
	seen := map[string]struct{}{}
	for _, c := range []Code{
		Unknown, MissingPrecondition, InvalidArgument, NotFound,
		PreconditionFailed, ResourceExhausted, Conflict, Unsupported,
	} {
		name := c.String()
		s.NotEmpty(name)
		_, dup := seen[name]
		s.False(dup)
		seen[name] = struct{}{}
	}
}

func TestErrorsTestSuite(t *testing.T) {
	suite.Run(t, new(ErrorsTestSuite))
}
