package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/bookshop/backend/internal/domain/catalog"
	"github.com/bookshop/backend/internal/domain/shared"
	"github.com/bookshop/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockItemStore struct {
	mock.Mock
}

func (m *MockItemStore) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Item), args.Error(1)
}

func (m *MockItemStore) SaveWithLock(ctx context.Context, item *catalog.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

type MockMovementRepository struct {
	mock.Mock
}

func (m *MockMovementRepository) Create(ctx context.Context, movement *StockMovement) error {
	args := m.Called(ctx, movement)
	return args.Error(0)
}

func (m *MockMovementRepository) FindByItem(ctx context.Context, itemID uuid.UUID, limit int) ([]StockMovement, error) {
	args := m.Called(ctx, itemID, limit)
	return args.Get(0).([]StockMovement), args.Error(1)
}

func newItem(t *testing.T, stock int) *catalog.Item {
	t.Helper()
	item, err := catalog.NewItem("BK-1", "Clean Code", "Books", valueobject.NewMoneyFromFloat(100), stock)
	require.NoError(t, err)
	return item
}

func TestStockLedger_Reserve(t *testing.T) {
	ctx := context.Background()

	t.Run("decrements and journals", func(t *testing.T) {
		item := newItem(t, 10)
		store := new(MockItemStore)
		movements := new(MockMovementRepository)
		store.On("FindByID", ctx, item.ID).Return(item, nil)
		store.On("SaveWithLock", ctx, item).Return(nil)
		movements.On("Create", ctx, mock.MatchedBy(func(m *StockMovement) bool {
			return m.Quantity == -3 && m.BalanceAfter == 7 && m.Reason == MovementBillReserve && m.Reference == "BILL000001"
		})).Return(nil)

		ledger := NewStockLedger(store, movements)
		remaining, err := ledger.Reserve(ctx, item.ID, 3, "BILL000001")

		require.NoError(t, err)
		assert.Equal(t, 7, remaining)
		store.AssertExpectations(t)
		movements.AssertExpectations(t)
	})

	t.Run("insufficient stock does not save", func(t *testing.T) {
		item := newItem(t, 2)
		store := new(MockItemStore)
		store.On("FindByID", ctx, item.ID).Return(item, nil)

		ledger := NewStockLedger(store, nil)
		_, err := ledger.Reserve(ctx, item.ID, 5, "")

		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		assert.Equal(t, 2, item.StockQuantity)
		store.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("missing item is not found", func(t *testing.T) {
		id := uuid.New()
		store := new(MockItemStore)
		store.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound)

		_, err := NewStockLedger(store, nil).Reserve(ctx, id, 1, "")
		assert.Equal(t, shared.CategoryNotFound, shared.CategoryOf(err))
	})

	t.Run("conflict propagates", func(t *testing.T) {
		item := newItem(t, 10)
		store := new(MockItemStore)
		store.On("FindByID", ctx, item.ID).Return(item, nil)
		store.On("SaveWithLock", ctx, item).Return(shared.ErrConcurrencyConflict)

		_, err := NewStockLedger(store, nil).Reserve(ctx, item.ID, 1, "")
		assert.True(t, shared.IsConflict(err))
	})
}

func TestStockLedger_Release(t *testing.T) {
	ctx := context.Background()

	t.Run("increments without upper bound", func(t *testing.T) {
		item := newItem(t, 10)
		store := new(MockItemStore)
		store.On("FindByID", ctx, item.ID).Return(item, nil)
		store.On("SaveWithLock", ctx, item).Return(nil)

		remaining, err := NewStockLedger(store, nil).Release(ctx, item.ID, 25, "BILL000002")
		require.NoError(t, err)
		assert.Equal(t, 35, remaining)
	})

	t.Run("negative quantity is invalid argument", func(t *testing.T) {
		store := new(MockItemStore)
		_, err := NewStockLedger(store, nil).Release(ctx, uuid.New(), -1, "")

		assert.Equal(t, shared.CategoryInvalidArgument, shared.CategoryOf(err))
		store.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("zero quantity is a no-op", func(t *testing.T) {
		item := newItem(t, 4)
		store := new(MockItemStore)
		store.On("FindByID", ctx, item.ID).Return(item, nil)

		remaining, err := NewStockLedger(store, nil).Release(ctx, item.ID, 0, "")
		require.NoError(t, err)
		assert.Equal(t, 4, remaining)
		store.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})
}

func TestStockLedger_Restock(t *testing.T) {
	ctx := context.Background()
	item := newItem(t, 0)
	store := new(MockItemStore)
	movements := new(MockMovementRepository)
	store.On("FindByID", ctx, item.ID).Return(item, nil)
	store.On("SaveWithLock", ctx, item).Return(nil)
	movements.On("Create", ctx, mock.MatchedBy(func(m *StockMovement) bool {
		return m.Reason == MovementRestock && m.Quantity == 12
	})).Return(nil)

	ledger := NewStockLedger(store, movements)

	remaining, err := ledger.Restock(ctx, item.ID, 12, "delivery-7")
	require.NoError(t, err)
	assert.Equal(t, 12, remaining)

	_, err = ledger.Restock(ctx, item.ID, 0, "")
	assert.Equal(t, shared.CategoryInvalidArgument, shared.CategoryOf(err))
}

func TestStockLedger_CheckAvailability(t *testing.T) {
	ctx := context.Background()
	item := newItem(t, 3)
	store := new(MockItemStore)
	store.On("FindByID", ctx, item.ID).Return(item, nil)
	ledger := NewStockLedger(store, nil)

	ok, err := ledger.CheckAvailability(ctx, item.ID, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ledger.CheckAvailability(ctx, item.ID, 4)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = ledger.Verify(ctx, item.ID, 4)
	assert.EqualError(t, err, "Insufficient stock for item: Clean Code. Available: 3, Requested: 4")
}
