package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type embedded struct {
	DocID string `fire:"docId"`
}

type model struct {
	embedded `fire:",squash"`
	Name     string     `fire:"name"`
	Hidden   string     `fire:"-"`
	Note     *string    `fire:"note,omitempty"`
	Tags     []string   `fire:"tags"`
	Opened   time.Time  `fire:"opened"`
	Profile  profile    `fire:"profile"`
	internal string
}

type profile struct {
	City string `fire:"city"`
}

type DocumentTestSuite struct {
	suite.Suite
}

// Struct fields map through the fire tag, embedded structs flatten,
// unexported and "-" fields are dropped and omitempty drops nil pointers.
func (s *DocumentTestSuite) TestNewDocumentFromStruct() {
	opened := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	doc, err := NewDocument(&model{
		embedded: embedded{DocID: "d1"},
		Name:     "ACME",
		Hidden:   "secret",
		Tags:     []string{"a", "b"},
		Opened:   opened,
		Profile:  profile{City: "Osaka"},
	})
	s.Require().NoError(err)
	s.Equal(M{
		"docId":   "d1",
		"name":    "ACME",
		"tags":    []any{"a", "b"},
		"opened":  opened,
		"profile": M{"city": "Osaka"},
	}, doc)
}

// A set omitempty pointer dereferences into the document.
func (s *DocumentTestSuite) TestNewDocumentKeepsSetPointers() {
	note := "hello"
	doc, err := NewDocument(&model{Name: "n", Note: &note})
	s.Require().NoError(err)
	s.Equal("hello", doc["note"])
}

// Maps pass through with their values parsed, and the result is detached
// from the input.
func (s *DocumentTestSuite) TestNewDocumentFromMap() {
	in := M{"a": 1, "nested": M{"b": 2}}
	doc, err := NewDocument(in)
	s.Require().NoError(err)
	s.Equal(in, doc)
	doc["nested"].(M)["b"] = 99
	s.Equal(2, in["nested"].(M)["b"])
}

// Nil inputs produce an empty document.
func (s *DocumentTestSuite) TestNewDocumentFromNil() {
	doc, err := NewDocument(nil)
	s.Require().NoError(err)
	s.Empty(doc)
}

// Scalars and other non-document values are rejected.
func (s *DocumentTestSuite) TestNewDocumentRejectsScalars() {
	_, err := NewDocument(42)
	s.Require().Error(err)
}

// Channel-valued fields are rejected.
func (s *DocumentTestSuite) TestNewDocumentRejectsChannels() {
	_, err := NewDocument(map[string]any{"ch": make(chan int)})
	s.Require().Error(err)
}

// Clone is deep for nested maps and slices.
func (s *DocumentTestSuite) TestCloneIsDeep() {
	src := M{"m": M{"k": "v"}, "s": []any{1, 2}}
	dst := Clone(src)
	dst["m"].(M)["k"] = "changed"
	dst["s"].([]any)[0] = 9
	s.Equal("v", src["m"].(M)["k"])
	s.Equal(1, src["s"].([]any)[0])
}

// GetPath resolves dotted addresses and distinguishes nil values from
// missing paths.
func (s *DocumentTestSuite) TestGetPath() {
	doc := M{"a": M{"b": M{"c": 3}}, "n": nil}

	v, ok := GetPath(doc, "a.b.c")
	s.True(ok)
	s.Equal(3, v)

	v, ok = GetPath(doc, "n")
	s.True(ok)
	s.Nil(v)

	_, ok = GetPath(doc, "a.b.missing")
	s.False(ok)
	_, ok = GetPath(doc, "a.b.c.d")
	s.False(ok)
}

// AsInt64 accepts every numeric type and rejects everything else.
func (s *DocumentTestSuite) TestAsInt64() {
	for _, v := range []any{int(3), int32(3), int64(3), uint8(3), float64(3)} {
		n, ok := AsInt64(v)
		s.True(ok)
		s.Equal(int64(3), n)
	}
	_, ok := AsInt64("3")
	s.False(ok)
	_, ok = AsInt64(nil)
	s.False(ok)
}

func TestDocumentTestSuite(t *testing.T) {
	suite.Run(t, new(DocumentTestSuite))
}
