package idgenerator

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy exhausted")
}

type IDGeneratorTestSuite struct {
	suite.Suite
}

// Generated ids are 32 lowercase hex characters with no separators, so
// they are safe as a single path segment.
func (s *IDGeneratorTestSuite) TestGenerateIDShape() {
	g := NewIDGenerator()
	id, err := g.GenerateID()
	s.Require().NoError(err)
	s.Len(id, 32)
	s.NotContains(id, "-")
	s.NotContains(id, "/")
	s.Equal(strings.ToLower(id), id)
}

// Consecutive ids differ.
func (s *IDGeneratorTestSuite) TestGenerateIDUniqueness() {
	g := NewIDGenerator()
	seen := map[string]struct{}{}
	for range 100 {
		id, err := g.GenerateID()
		s.Require().NoError(err)
		_, dup := seen[id]
		s.Require().False(dup)
		seen[id] = struct{}{}
	}
}

// Entropy failures surface instead of producing a degenerate id.
func (s *IDGeneratorTestSuite) TestGenerateIDPropagatesReaderErrors() {
	g := NewIDGenerator(WithRandomReader(failingReader{}))
	_, err := g.GenerateID()
	s.Require().Error(err)
}

func TestIDGeneratorTestSuite(t *testing.T) {
	suite.Run(t, new(IDGeneratorTestSuite))
}
