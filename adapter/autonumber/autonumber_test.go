package autonumber

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/firemodel-go/firemodel/adapter/data"
	"github.com/firemodel-go/firemodel/domain"
	"github.com/firemodel-go/firemodel/pkg/errs"
)

type snapshotMock struct {
	mock.Mock
}

// ID implements domain.Snapshot.
func (m *snapshotMock) ID() string { return m.Called().String(0) }

// Path implements domain.Snapshot.
func (m *snapshotMock) Path() string { return m.Called().String(0) }

// Exists implements domain.Snapshot.
func (m *snapshotMock) Exists() bool { return m.Called().Bool(0) }

// Data implements domain.Snapshot.
func (m *snapshotMock) Data() map[string]any {
	res, _ := m.Called().Get(0).(map[string]any)
	return res
}

type transactionMock struct {
	mock.Mock
}

// Get implements domain.Transaction.
func (m *transactionMock) Get(ctx context.Context, path string) (domain.Snapshot, error) {
	args := m.Called(ctx, path)
	snap, _ := args.Get(0).(domain.Snapshot)
	return snap, args.Error(1)
}

// GetAll implements domain.Transaction.
func (m *transactionMock) GetAll(ctx context.Context, q domain.Query) ([]domain.Snapshot, error) {
	args := m.Called(ctx, q)
	snaps, _ := args.Get(0).([]domain.Snapshot)
	return snaps, args.Error(1)
}

// Set implements domain.Transaction.
func (m *transactionMock) Set(path string, doc map[string]any) error {
	return m.Called(path, doc).Error(0)
}

// Update implements domain.Transaction.
func (m *transactionMock) Update(path string, fields map[string]any) error {
	return m.Called(path, fields).Error(0)
}

// Delete implements domain.Transaction.
func (m *transactionMock) Delete(path string) error {
	return m.Called(path).Error(0)
}

type AutonumberTestSuite struct {
	suite.Suite
	assigner *Assigner
	ctx      context.Context
}

func (s *AutonumberTestSuite) SetupTest() {
	s.assigner = NewAssigner()
	s.ctx = context.Background()
}

// counterAt returns a mocked transaction whose autonumber document for
// Invoices carries the given payload.
func (s *AutonumberTestSuite) counterAt(payload map[string]any) *transactionMock {
	snap := new(snapshotMock)
	snap.On("Exists").Return(true)
	snap.On("Data").Return(payload)
	tx := new(transactionMock)
	tx.On("Get", s.ctx, "Autonumbers/Invoices").Return(snap, nil)
	return tx
}

// Resolve joins the prefix, the autonumber collection and the counted
// collection, normalizing a prefix without a trailing slash.
func (s *AutonumberTestSuite) TestResolve() {
	s.Equal("Autonumbers/Invoices", Resolve("", "Invoices"))
	s.Equal("v1/Autonumbers/Invoices", Resolve("v1", "Invoices"))
	s.Equal("v1/Autonumbers/Invoices", Resolve("v1/", "Invoices"))
}

// Planning without a transaction fails as a missing precondition.
func (s *AutonumberTestSuite) TestPlanRequiresTransaction() {
	_, err := s.assigner.Plan(s.ctx, nil, "", "Invoices", data.M{})
	s.Require().Error(err)
	s.True(errs.Is(err, errs.MissingPrecondition))
}

// An absent autonumber document is not found.
func (s *AutonumberTestSuite) TestPlanFailsWhenDocumentAbsent() {
	snap := new(snapshotMock)
	snap.On("Exists").Return(false)
	tx := new(transactionMock)
	tx.On("Get", s.ctx, "Autonumbers/Invoices").Return(snap, nil)

	_, err := s.assigner.Plan(s.ctx, tx, "", "Invoices", data.M{})
	s.Require().Error(err)
	s.True(errs.Is(err, errs.NotFound))
}

// A falsy status flag blocks assignment.
func (s *AutonumberTestSuite) TestPlanFailsWhenDisabled() {
	tx := s.counterAt(map[string]any{
		"status": false, "current": int64(0), "length": int64(3), "field": "code",
	})
	_, err := s.assigner.Plan(s.ctx, tx, "", "Invoices", data.M{})
	s.Require().Error(err)
	s.True(errs.Is(err, errs.PreconditionFailed))
}

// Missing length or field configuration blocks assignment.
func (s *AutonumberTestSuite) TestPlanFailsOnBadConfiguration() {
	for _, payload := range []map[string]any{
		{"status": true, "current": int64(0), "field": "code"},
		{"status": true, "current": int64(0), "length": int64(0), "field": "code"},
		{"status": true, "current": int64(0), "length": int64(3)},
	} {
		tx := s.counterAt(payload)
		_, err := s.assigner.Plan(s.ctx, tx, "", "Invoices", data.M{})
		s.Require().Error(err)
		s.True(errs.Is(err, errs.PreconditionFailed))
	}
}

// Successive assignments issue zero-padded sequential codes and persist
// the advanced counter through the plan.
func (s *AutonumberTestSuite) TestPlanIssuesSequentialCodes() {
	current := int64(0)
	for _, want := range []string{"001", "002", "003"} {
		tx := s.counterAt(map[string]any{
			"status": true, "current": current, "length": int64(3), "field": "code",
		})
		tx.On("Update", "Autonumbers/Invoices", map[string]any{
			"current": current + 1,
		}).Return(nil)

		doc := data.M{}
		plan, err := s.assigner.Plan(s.ctx, tx, "", "Invoices", doc)
		s.Require().NoError(err)
		s.Equal(want, doc["code"])
		s.Require().NoError(plan.Apply(tx))
		tx.AssertExpectations(s.T())
		current++
	}
}

// The numeric ceiling for the configured width is exhausting; the counter
// is not advanced.
func (s *AutonumberTestSuite) TestPlanFailsAtCeiling() {
	tx := s.counterAt(map[string]any{
		"status": true, "current": int64(999), "length": int64(3), "field": "code",
	})
	doc := data.M{}
	_, err := s.assigner.Plan(s.ctx, tx, "", "Invoices", doc)
	s.Require().Error(err)
	s.True(errs.Is(err, errs.ResourceExhausted))
	var exhausted domain.ErrAutonumberExhausted
	s.Require().True(errors.As(err, &exhausted))
	s.Equal(int64(1000), exhausted.Next)
	s.NotContains(doc, "code")
	tx.AssertNotCalled(s.T(), "Update", mock.Anything, mock.Anything)
}

// Read failures from the store propagate unchanged.
func (s *AutonumberTestSuite) TestPlanPropagatesReadErrors() {
	readErr := errors.New("read failed")
	tx := new(transactionMock)
	tx.On("Get", s.ctx, "Autonumbers/Invoices").Return(nil, readErr)

	_, err := s.assigner.Plan(s.ctx, tx, "", "Invoices", data.M{})
	s.Require().ErrorIs(err, readErr)
}

func TestAutonumberTestSuite(t *testing.T) {
	suite.Run(t, new(AutonumberTestSuite))
}
