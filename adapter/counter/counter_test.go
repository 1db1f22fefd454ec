package counter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

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

type CounterTestSuite struct {
	suite.Suite
	updater *Updater
	ctx     context.Context
}

func (s *CounterTestSuite) SetupTest() {
	s.updater = NewUpdater()
	s.ctx = context.Background()
}

// Resolve turns a root collection into the sibling metadata document and
// the collection name into the count field.
func (s *CounterTestSuite) TestResolveRootCollection() {
	path, field := Resolve("Customers")
	s.Equal("meta/docCounter", path)
	s.Equal("Customers", field)
}

// Resolve keeps the parent path of nested collections.
func (s *CounterTestSuite) TestResolveNestedCollection() {
	path, field := Resolve("Shops/s1/Items")
	s.Equal("Shops/s1/meta/docCounter", path)
	s.Equal("Items", field)
}

// Planning without a transaction fails as a missing precondition.
func (s *CounterTestSuite) TestPlanRequiresTransaction() {
	_, err := s.updater.Plan(s.ctx, nil, "Customers", 1)
	s.Require().Error(err)
	s.True(errs.Is(err, errs.MissingPrecondition))
}

// An increment against an absent counter document creates it with the
// field at 1.
func (s *CounterTestSuite) TestPlanCreatesCounterOnFirstIncrement() {
	snap := new(snapshotMock)
	snap.On("Exists").Return(false)
	tx := new(transactionMock)
	tx.On("Get", s.ctx, "meta/docCounter").Return(snap, nil)
	tx.On("Set", "meta/docCounter", map[string]any{"Customers": int64(1)}).Return(nil)

	plan, err := s.updater.Plan(s.ctx, tx, "Customers", 1)
	s.Require().NoError(err)
	s.Require().NoError(plan.Apply(tx))
	tx.AssertExpectations(s.T())
}

// A decrement against an absent counter document creates it at 0 so the
// count never goes negative.
func (s *CounterTestSuite) TestPlanDecrementOnAbsentCounterFloorsAtZero() {
	snap := new(snapshotMock)
	snap.On("Exists").Return(false)
	tx := new(transactionMock)
	tx.On("Get", s.ctx, "meta/docCounter").Return(snap, nil)
	tx.On("Set", "meta/docCounter", map[string]any{"Customers": int64(0)}).Return(nil)

	plan, err := s.updater.Plan(s.ctx, tx, "Customers", -1)
	s.Require().NoError(err)
	s.Require().NoError(plan.Apply(tx))
	tx.AssertExpectations(s.T())
}

// An existing counter document is adjusted with an atomic increment.
func (s *CounterTestSuite) TestPlanIncrementsExistingCounter() {
	snap := new(snapshotMock)
	snap.On("Exists").Return(true)
	tx := new(transactionMock)
	tx.On("Get", s.ctx, "Shops/s1/meta/docCounter").Return(snap, nil)
	tx.On("Update", "Shops/s1/meta/docCounter", map[string]any{
		"Items": domain.Increment{By: -1},
	}).Return(nil)

	plan, err := s.updater.Plan(s.ctx, tx, "Shops/s1/Items", -1)
	s.Require().NoError(err)
	s.Require().NoError(plan.Apply(tx))
	tx.AssertExpectations(s.T())
}

// The counter read happens during planning, not when the plan is applied.
func (s *CounterTestSuite) TestPlanReadsBeforeApply() {
	snap := new(snapshotMock)
	snap.On("Exists").Return(true)
	tx := new(transactionMock)
	tx.On("Get", s.ctx, "meta/docCounter").Return(snap, nil)

	_, err := s.updater.Plan(s.ctx, tx, "Customers", 1)
	s.Require().NoError(err)
	tx.AssertNumberOfCalls(s.T(), "Get", 1)
	tx.AssertNotCalled(s.T(), "Update", mock.Anything, mock.Anything)
}

func TestCounterTestSuite(t *testing.T) {
	suite.Run(t, new(CounterTestSuite))
}
