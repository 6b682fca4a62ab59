package catalog

import (
	"context"
	"testing"

	"github.com/bookshop/backend/internal/domain/catalog"
	"github.com/bookshop/backend/internal/domain/inventory"
	"github.com/bookshop/backend/internal/domain/shared"
	"github.com/bookshop/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockItemRepository is a mock implementation of ItemRepository
type MockItemRepository struct {
	mock.Mock
}

func (m *MockItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	item := *args.Get(0).(*catalog.Item)
	return &item, args.Error(1)
}

func (m *MockItemRepository) FindByCode(ctx context.Context, code string) (*catalog.Item, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Item), args.Error(1)
}

func (m *MockItemRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Item, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]catalog.Item), args.Error(1)
}

func (m *MockItemRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockItemRepository) FindLowStock(ctx context.Context) ([]catalog.Item, error) {
	args := m.Called(ctx)
	return args.Get(0).([]catalog.Item), args.Error(1)
}

func (m *MockItemRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockItemRepository) Save(ctx context.Context, item *catalog.Item) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockItemRepository) SaveWithLock(ctx context.Context, item *catalog.Item) error {
	return m.Called(ctx, item).Error(0)
}

// MockMovementRepository is a mock implementation of MovementRepository
type MockMovementRepository struct {
	mock.Mock
}

func (m *MockMovementRepository) Create(ctx context.Context, movement *inventory.StockMovement) error {
	return m.Called(ctx, movement).Error(0)
}

func (m *MockMovementRepository) FindByItem(ctx context.Context, itemID uuid.UUID, limit int) ([]inventory.StockMovement, error) {
	args := m.Called(ctx, itemID, limit)
	return args.Get(0).([]inventory.StockMovement), args.Error(1)
}

func newTestItem(t *testing.T, stock int) *catalog.Item {
	t.Helper()
	item, err := catalog.NewItem("BK-001", "The Go Programming Language", "programming", valueobject.NewMoneyFromFloat(45.5), stock)
	require.NoError(t, err)
	return item
}

func setupItemService() (*ItemService, *MockItemRepository, *MockMovementRepository) {
	items := new(MockItemRepository)
	movements := new(MockMovementRepository)
	return NewItemService(items, movements, nil), items, movements
}

func TestItemService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		svc, items, _ := setupItemService()
		items.On("ExistsByCode", ctx, "bk-002").Return(false, nil)
		items.On("Save", ctx, mock.AnythingOfType("*catalog.Item")).Return(nil)

		minimum := 3
		resp, err := svc.Create(ctx, CreateItemRequest{
			Code:              "bk-002",
			Name:              "Concurrency in Go",
			Category:          "programming",
			Price:             decimal.NewFromFloat(39.999),
			StockQuantity:     12,
			MinimumStockLevel: &minimum,
		})

		require.NoError(t, err)
		assert.Equal(t, "BK-002", resp.Code)
		assert.Equal(t, "Concurrency in Go (BK-002)", resp.DisplayName)
		assert.True(t, decimal.NewFromFloat(40).Equal(resp.Price))
		assert.Equal(t, 3, resp.MinimumStockLevel)
		assert.False(t, resp.LowStock)
		items.AssertExpectations(t)
	})

	t.Run("duplicate code", func(t *testing.T) {
		svc, items, _ := setupItemService()
		items.On("ExistsByCode", ctx, "BK-001").Return(true, nil)

		_, err := svc.Create(ctx, CreateItemRequest{Code: "BK-001", Name: "x", Price: decimal.NewFromInt(1)})

		assert.Equal(t, shared.CategoryInvalidArgument, shared.CategoryOf(err))
		items.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("invalid price", func(t *testing.T) {
		svc, items, _ := setupItemService()
		items.On("ExistsByCode", ctx, "BK-009").Return(false, nil)

		_, err := svc.Create(ctx, CreateItemRequest{Code: "BK-009", Name: "Free", Price: decimal.Zero})

		var de *shared.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "INVALID_PRICE", de.Code)
	})
}

func TestItemService_Get_NotFound(t *testing.T) {
	ctx := context.Background()
	svc, items, _ := setupItemService()
	id := uuid.New()
	items.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound)

	_, err := svc.Get(ctx, id)

	assert.Equal(t, shared.CategoryNotFound, shared.CategoryOf(err))
}

func TestItemService_List(t *testing.T) {
	ctx := context.Background()
	svc, items, _ := setupItemService()
	item := newTestItem(t, 5)
	active := true

	matchFilter := mock.MatchedBy(func(f shared.Filter) bool {
		return f.Page == 2 && f.PageSize == 10 && f.Filters["category"] == "programming" && f.Filters["active"] == true
	})
	items.On("FindAll", ctx, matchFilter).Return([]catalog.Item{*item}, nil)
	items.On("Count", ctx, matchFilter).Return(int64(11), nil)

	page, err := svc.List(ctx, ItemListFilter{Category: "programming", Active: &active, Page: 2, PageSize: 10})

	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, int64(11), page.Total)
	assert.Equal(t, 2, page.TotalPages)
}

func TestItemService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("partial update keeps other fields", func(t *testing.T) {
		svc, items, _ := setupItemService()
		item := newTestItem(t, 5)
		items.On("FindByID", ctx, item.ID).Return(item, nil)
		items.On("SaveWithLock", ctx, mock.AnythingOfType("*catalog.Item")).Return(nil)

		price := decimal.NewFromInt(50)
		resp, err := svc.Update(ctx, item.ID, UpdateItemRequest{Price: &price})

		require.NoError(t, err)
		assert.Equal(t, item.Name, resp.Name)
		assert.True(t, price.Equal(resp.Price))
		assert.Equal(t, item.Version+1, resp.Version)
	})

	t.Run("retries a lost optimistic lock", func(t *testing.T) {
		svc, items, _ := setupItemService()
		item := newTestItem(t, 5)
		items.On("FindByID", ctx, item.ID).Return(item, nil)
		items.On("SaveWithLock", ctx, mock.Anything).Return(shared.ErrConcurrencyConflict).Once()
		items.On("SaveWithLock", ctx, mock.Anything).Return(nil).Once()

		name := "Renamed"
		_, err := svc.Update(ctx, item.ID, UpdateItemRequest{Name: &name})

		require.NoError(t, err)
		items.AssertNumberOfCalls(t, "FindByID", 2)
	})

	t.Run("gives up with contention", func(t *testing.T) {
		svc, items, _ := setupItemService()
		item := newTestItem(t, 5)
		items.On("FindByID", ctx, item.ID).Return(item, nil)
		items.On("SaveWithLock", ctx, mock.Anything).Return(shared.ErrConcurrencyConflict)

		name := "Renamed"
		_, err := svc.Update(ctx, item.ID, UpdateItemRequest{Name: &name})

		assert.ErrorIs(t, err, shared.ErrContention)
		items.AssertNumberOfCalls(t, "SaveWithLock", maxSaveAttempts)
	})
}

func TestItemService_Restock(t *testing.T) {
	ctx := context.Background()

	t.Run("adds stock and journals the movement", func(t *testing.T) {
		svc, items, movements := setupItemService()
		item := newTestItem(t, 2)
		restocked := *item
		restocked.StockQuantity = 12

		items.On("FindByID", ctx, item.ID).Return(item, nil).Twice()
		items.On("SaveWithLock", ctx, mock.MatchedBy(func(i *catalog.Item) bool { return i.StockQuantity == 12 })).Return(nil)
		items.On("FindByID", ctx, item.ID).Return(&restocked, nil).Once()
		movements.On("Create", ctx, mock.MatchedBy(func(m *inventory.StockMovement) bool {
			return m.Quantity == 10 && m.BalanceAfter == 12 && m.Reason == inventory.MovementRestock && m.Reference == "PO-7"
		})).Return(nil)

		resp, err := svc.Restock(ctx, item.ID, RestockRequest{Quantity: 10, Reference: "PO-7"})

		require.NoError(t, err)
		assert.Equal(t, 12, resp.StockQuantity)
		movements.AssertExpectations(t)
	})

	t.Run("non-positive quantity", func(t *testing.T) {
		svc, items, _ := setupItemService()
		item := newTestItem(t, 2)
		items.On("FindByID", ctx, item.ID).Return(item, nil)

		_, err := svc.Restock(ctx, item.ID, RestockRequest{Quantity: 0})

		assert.Equal(t, shared.CategoryInvalidArgument, shared.CategoryOf(err))
		items.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("unit of work receives the call", func(t *testing.T) {
		items := new(MockItemRepository)
		movements := new(MockMovementRepository)
		calls := 0
		uow := func(ctx context.Context, fn func(catalog.ItemRepository, inventory.MovementRepository) error) error {
			calls++
			return fn(items, movements)
		}
		svc := NewItemService(items, movements, uow)

		item := newTestItem(t, 1)
		items.On("FindByID", ctx, item.ID).Return(item, nil)
		items.On("SaveWithLock", ctx, mock.Anything).Return(nil)
		movements.On("Create", ctx, mock.Anything).Return(nil)

		_, err := svc.Restock(ctx, item.ID, RestockRequest{Quantity: 1})

		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})
}

func TestItemService_Deactivate(t *testing.T) {
	ctx := context.Background()
	svc, items, _ := setupItemService()
	item := newTestItem(t, 2)
	items.On("FindByID", ctx, item.ID).Return(item, nil).Once()
	items.On("SaveWithLock", ctx, mock.MatchedBy(func(i *catalog.Item) bool { return !i.Active })).Return(nil)

	require.NoError(t, svc.Deactivate(ctx, item.ID))

	inactive := *item
	inactive.Active = false
	items.On("FindByID", ctx, item.ID).Return(&inactive, nil).Once()
	err := svc.Deactivate(ctx, item.ID)
	assert.Equal(t, shared.CategoryInvalidState, shared.CategoryOf(err))
}

func TestItemService_LowStock(t *testing.T) {
	ctx := context.Background()
	svc, items, _ := setupItemService()
	low := newTestItem(t, 1)
	items.On("FindLowStock", ctx).Return([]catalog.Item{*low}, nil)

	list, err := svc.ListLowStock(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].LowStock)

	n, err := svc.CountLowStock(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestItemService_ListMovements(t *testing.T) {
	ctx := context.Background()
	svc, items, movements := setupItemService()
	item := newTestItem(t, 4)
	items.On("FindByID", ctx, item.ID).Return(item, nil)
	movements.On("FindByItem", ctx, item.ID, 50).Return([]inventory.StockMovement{
		*inventory.NewStockMovement(item.ID, -3, 4, inventory.MovementBillReserve, "BILL000001"),
	}, nil)

	list, err := svc.ListMovements(ctx, item.ID, 0)

	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "BILL_RESERVE", list[0].Reason)
}

func TestItemService_CheckAvailability(t *testing.T) {
	ctx := context.Background()
	svc, items, _ := setupItemService()
	item := newTestItem(t, 4)
	items.On("FindByID", ctx, item.ID).Return(item, nil)

	resp, err := svc.CheckAvailability(ctx, item.ID, 4)
	require.NoError(t, err)
	assert.True(t, resp.Available)
	assert.Equal(t, 4, resp.InStock)

	resp, err = svc.CheckAvailability(ctx, item.ID, 5)
	require.NoError(t, err)
	assert.False(t, resp.Available)

	_, err = svc.CheckAvailability(ctx, item.ID, 0)
	assert.Equal(t, shared.CategoryInvalidArgument, shared.CategoryOf(err))
}
