package decoder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/firemodel-go/firemodel/adapter/data"
)

type base struct {
	DocID     string    `fire:"docId"`
	CreatedAt time.Time `fire:"createdAt"`
}

type customer struct {
	base `fire:",squash"`
	Name string `fire:"name"`
	Age  int    `fire:"age"`
}

type DecoderTestSuite struct {
	suite.Suite
	decoder *Decoder
}

func (s *DecoderTestSuite) SetupTest() {
	s.decoder = NewDecoder()
}

// Decode fills the target from the payload, squashing embedded fields.
func (s *DecoderTestSuite) TestDecode() {
	created := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	var c customer
	err := s.decoder.Decode(data.M{
		"docId":     "d1",
		"createdAt": created,
		"name":      "ACME",
		"age":       41,
	}, &c)
	s.Require().NoError(err)
	s.Equal("d1", c.DocID)
	s.Equal(created, c.CreatedAt)
	s.Equal("ACME", c.Name)
	s.Equal(41, c.Age)
}

// Decode clears fields the payload does not mention, so a reused instance
// carries nothing over.
func (s *DecoderTestSuite) TestDecodeResetsStaleFields() {
	c := customer{Name: "stale", Age: 99}
	err := s.decoder.Decode(data.M{"name": "fresh"}, &c)
	s.Require().NoError(err)
	s.Equal("fresh", c.Name)
	s.Zero(c.Age)
}

// A nil payload zeroes the target.
func (s *DecoderTestSuite) TestDecodeNilPayload() {
	c := customer{Name: "stale"}
	err := s.decoder.Decode(nil, &c)
	s.Require().NoError(err)
	s.Equal(customer{}, c)
}

// Reset rejects nil and non-pointer targets.
func (s *DecoderTestSuite) TestResetRejectsBadTargets() {
	s.Error(s.decoder.Reset(nil))
	s.Error(s.decoder.Reset(customer{}))
	var p *customer
	s.Error(s.decoder.Reset(p))
}

func TestDecoderTestSuite(t *testing.T) {
	suite.Run(t, new(DecoderTestSuite))
}
