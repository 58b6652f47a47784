package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/energysplit/internal/domain/consumption"
	"github.com/eshaffer321/energysplit/internal/infrastructure/storage"
)

// expectingRepo records calls with testify/mock. Methods it does not
// override panic through the nil embedded Repository, so a test fails loudly
// if the service touches storage it should not.
type expectingRepo struct {
	mock.Mock
	storage.Repository
}

func (m *expectingRepo) GetGroup(ctx context.Context, id string) (*consumption.Group, error) {
	args := m.Called(ctx, id)
	g, _ := args.Get(0).(*consumption.Group)
	return g, args.Error(1)
}

func (m *expectingRepo) LoadWorkingSet(ctx context.Context) (*storage.WorkingSet, error) {
	args := m.Called(ctx)
	ws, _ := args.Get(0).(*storage.WorkingSet)
	return ws, args.Error(1)
}

func (m *expectingRepo) ListResults(ctx context.Context, limit int) ([]consumption.CalculationResult, error) {
	args := m.Called(ctx, limit)
	results, _ := args.Get(0).([]consumption.CalculationResult)
	return results, args.Error(1)
}

func (m *expectingRepo) SaveResult(ctx context.Context, result *consumption.CalculationResult) error {
	return m.Called(ctx, result).Error(0)
}

func newExpectingService(repo *expectingRepo) *BillingService {
	return NewBillingService(repo, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBillingService_RollupUnknownGroupSkipsWorkingSet(t *testing.T) {
	repo := &expectingRepo{}
	repo.On("GetGroup", mock.Anything, "ghost").Return(nil, storage.ErrNotFound)

	_, err := newExpectingService(repo).Rollup(context.Background(), consumption.CategoryOffice, "ghost")

	assert.ErrorIs(t, err, storage.ErrNotFound)
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "LoadWorkingSet", mock.Anything)
}

func TestBillingService_CalculateDoesNotSaveOnLoadFailure(t *testing.T) {
	repo := &expectingRepo{}
	repo.On("LoadWorkingSet", mock.Anything).Return(nil, errors.New("connection reset"))

	_, err := newExpectingService(repo).Calculate(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "load working set")
	repo.AssertNotCalled(t, "SaveResult", mock.Anything, mock.Anything)
}

func TestBillingService_CalculateSavesOnce(t *testing.T) {
	ws := storage.NewWorkingSet()
	ws.Readings[consumption.CategoryOffice] = []consumption.Reading{{ID: "r1", Kwh: 5}}
	ws.Bills[consumption.CategoryOffice] = consumption.Bill{TotalAmount: 12}

	repo := &expectingRepo{}
	repo.On("LoadWorkingSet", mock.Anything).Return(ws, nil)
	repo.On("SaveResult", mock.Anything, mock.MatchedBy(func(r *consumption.CalculationResult) bool {
		office := r.Category(consumption.CategoryOffice)
		return office != nil && office.AllocatedTotal == 12
	})).Return(nil).Once()

	result, err := newExpectingService(repo).Calculate(context.Background())

	require.NoError(t, err)
	assert.NotEmpty(t, result.ID)
	repo.AssertExpectations(t)
}

func TestBillingService_MonthlyAsksForEveryResult(t *testing.T) {
	repo := &expectingRepo{}
	repo.On("ListResults", mock.Anything, 0).Return([]consumption.CalculationResult{}, nil)

	months, err := newExpectingService(repo).Monthly(context.Background())

	require.NoError(t, err)
	assert.Empty(t, months)
	repo.AssertExpectations(t)
}
