package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bookshop/backend/internal/domain/catalog"
	"github.com/bookshop/backend/internal/domain/inventory"
	"github.com/bookshop/backend/internal/domain/shared"
	"github.com/bookshop/backend/internal/domain/shared/valueobject"
	"github.com/bookshop/backend/internal/infrastructure/logger"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxSaveAttempts bounds reload-and-save loops on optimistic lock conflicts
const maxSaveAttempts = 5

// StockUnitOfWork runs fn with an item repository and a stock journal bound
// to one transaction.
type StockUnitOfWork func(ctx context.Context, fn func(items catalog.ItemRepository, movements inventory.MovementRepository) error) error

// ItemService handles catalog operations
type ItemService struct {
	items     catalog.ItemRepository
	movements inventory.MovementRepository
	uow       StockUnitOfWork
}

// NewItemService creates a new ItemService. A nil uow runs restocks directly
// on items and movements without a surrounding transaction.
func NewItemService(items catalog.ItemRepository, movements inventory.MovementRepository, uow StockUnitOfWork) *ItemService {
	if uow == nil {
		uow = func(ctx context.Context, fn func(catalog.ItemRepository, inventory.MovementRepository) error) error {
			return fn(items, movements)
		}
	}
	return &ItemService{items: items, movements: movements, uow: uow}
}

// Create adds an item to the catalog
func (s *ItemService) Create(ctx context.Context, req CreateItemRequest) (*ItemResponse, error) {
	exists, err := s.items.ExistsByCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainErrorf("ALREADY_EXISTS", "Item with code %s already exists", strings.ToUpper(req.Code))
	}

	item, err := catalog.NewItem(req.Code, req.Name, req.Category, valueobject.NewMoney(req.Price), req.StockQuantity)
	if err != nil {
		return nil, err
	}
	if req.MinimumStockLevel != nil {
		if err := item.SetMinimumStockLevel(*req.MinimumStockLevel); err != nil {
			return nil, err
		}
	}

	if err := s.items.Save(ctx, item); err != nil {
		return nil, err
	}

	logger.L(ctx).Info("item created",
		zap.String("item_id", item.ID.String()),
		zap.String("code", item.Code),
		zap.Int("stock", item.StockQuantity),
	)
	response := ToItemResponse(item)
	return &response, nil
}

// Get retrieves an item by ID
func (s *ItemService) Get(ctx context.Context, id uuid.UUID) (*ItemResponse, error) {
	item, err := s.load(ctx, s.items, id)
	if err != nil {
		return nil, err
	}
	response := ToItemResponse(item)
	return &response, nil
}

// GetByCode retrieves an item by code
func (s *ItemService) GetByCode(ctx context.Context, code string) (*ItemResponse, error) {
	item, err := s.items.FindByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainErrorf("ITEM_NOT_FOUND", "Item not found: %s", code).WithDetail("code", code)
		}
		return nil, err
	}
	response := ToItemResponse(item)
	return &response, nil
}

// List returns a page of items
func (s *ItemService) List(ctx context.Context, f ItemListFilter) (shared.Paginated[ItemResponse], error) {
	filter := shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  f.OrderBy,
		OrderDir: f.OrderDir,
		Search:   strings.TrimSpace(f.Search),
	}.Normalize()
	if f.Category != "" {
		filter.Filters["category"] = f.Category
	}
	if f.Active != nil {
		filter.Filters["active"] = *f.Active
	}

	items, err := s.items.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[ItemResponse]{}, err
	}
	total, err := s.items.Count(ctx, filter)
	if err != nil {
		return shared.Paginated[ItemResponse]{}, err
	}
	return shared.NewPaginated(ToItemResponses(items), total, filter.Page, filter.PageSize), nil
}

// Update changes an item's name, category, price or low-stock threshold.
// Lines on existing bills keep the price they captured.
func (s *ItemService) Update(ctx context.Context, id uuid.UUID, req UpdateItemRequest) (*ItemResponse, error) {
	var item *catalog.Item
	err := retryOnConflict(ctx, "item.update", func() error {
		var err error
		item, err = s.load(ctx, s.items, id)
		if err != nil {
			return err
		}

		name, category, price := item.Name, item.Category, item.Price
		if req.Name != nil {
			name = *req.Name
		}
		if req.Category != nil {
			category = *req.Category
		}
		if req.Price != nil {
			price = valueobject.NewMoney(*req.Price)
		}
		if err := item.Update(name, category, price); err != nil {
			return err
		}
		if req.MinimumStockLevel != nil {
			if err := item.SetMinimumStockLevel(*req.MinimumStockLevel); err != nil {
				return err
			}
		}
		return s.items.SaveWithLock(ctx, item)
	})
	if err != nil {
		return nil, err
	}

	response := ToItemResponse(item)
	return &response, nil
}

// Restock adds quantity to an item's stock through the stock ledger
func (s *ItemService) Restock(ctx context.Context, id uuid.UUID, req RestockRequest) (*ItemResponse, error) {
	reference := strings.TrimSpace(req.Reference)
	if reference == "" {
		reference = "manual restock"
	}

	var item *catalog.Item
	err := retryOnConflict(ctx, "item.restock", func() error {
		return s.uow(ctx, func(items catalog.ItemRepository, movements inventory.MovementRepository) error {
			if _, err := s.load(ctx, items, id); err != nil {
				return err
			}
			if _, err := inventory.NewStockLedger(items, movements).Restock(ctx, id, req.Quantity, reference); err != nil {
				return err
			}
			var err error
			item, err = items.FindByID(ctx, id)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("item restocked",
		zap.String("item_id", id.String()),
		zap.Int("quantity", req.Quantity),
		zap.Int("stock", item.StockQuantity),
	)
	response := ToItemResponse(item)
	return &response, nil
}

// Deactivate soft-deletes an item so it can no longer be billed
func (s *ItemService) Deactivate(ctx context.Context, id uuid.UUID) error {
	return retryOnConflict(ctx, "item.deactivate", func() error {
		item, err := s.load(ctx, s.items, id)
		if err != nil {
			return err
		}
		if err := item.Deactivate(); err != nil {
			return err
		}
		return s.items.SaveWithLock(ctx, item)
	})
}

// Activate makes a deactivated item sellable again
func (s *ItemService) Activate(ctx context.Context, id uuid.UUID) error {
	return retryOnConflict(ctx, "item.activate", func() error {
		item, err := s.load(ctx, s.items, id)
		if err != nil {
			return err
		}
		if err := item.Activate(); err != nil {
			return err
		}
		return s.items.SaveWithLock(ctx, item)
	})
}

// CheckAvailability reports whether quantity units of the item can be billed
// right now. Nothing is reserved.
func (s *ItemService) CheckAvailability(ctx context.Context, id uuid.UUID, quantity int) (*AvailabilityResponse, error) {
	if quantity < 1 {
		return nil, shared.NewDomainErrorf("INVALID_QUANTITY", "Quantity must be at least 1, got %d", quantity)
	}
	item, err := s.load(ctx, s.items, id)
	if err != nil {
		return nil, err
	}
	available, err := inventory.NewStockLedger(s.items, s.movements).CheckAvailability(ctx, id, quantity)
	if err != nil {
		return nil, err
	}
	return &AvailabilityResponse{
		ItemID:    id,
		Requested: quantity,
		InStock:   item.StockQuantity,
		Available: available,
	}, nil
}

// ListLowStock lists active items at or below their minimum stock level
func (s *ItemService) ListLowStock(ctx context.Context) ([]ItemResponse, error) {
	items, err := s.items.FindLowStock(ctx)
	if err != nil {
		return nil, err
	}
	return ToItemResponses(items), nil
}

// CountLowStock reports the number of low-stock items. It backs the
// low-stock gauge.
func (s *ItemService) CountLowStock(ctx context.Context) (int64, error) {
	items, err := s.items.FindLowStock(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(items)), nil
}

// ListMovements returns the most recent stock movements of an item
func (s *ItemService) ListMovements(ctx context.Context, id uuid.UUID, limit int) ([]StockMovementResponse, error) {
	if _, err := s.load(ctx, s.items, id); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	movements, err := s.movements.FindByItem(ctx, id, limit)
	if err != nil {
		return nil, err
	}
	return ToStockMovementResponses(movements), nil
}

func (s *ItemService) load(ctx context.Context, items catalog.ItemRepository, id uuid.UUID) (*catalog.Item, error) {
	item, err := items.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainErrorf("ITEM_NOT_FOUND", "Item not found: %s", id).
				WithDetail("item_id", id.String())
		}
		return nil, err
	}
	return item, nil
}

func retryOnConflict(ctx context.Context, operation string, fn func() error) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 10 * time.Millisecond
	exp.MaxInterval = 200 * time.Millisecond
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, maxSaveAttempts-1), ctx)

	err := backoff.Retry(func() error {
		err := fn()
		if err == nil || shared.IsRetryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}, policy)
	if err != nil && shared.IsRetryable(err) {
		return fmt.Errorf("%w: %s gave up after %d attempts", shared.ErrContention, operation, maxSaveAttempts)
	}
	return err
}
