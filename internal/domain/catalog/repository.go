package catalog

import (
	"context"

	"github.com/bookshop/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ItemRepository defines the persistence port for items
type ItemRepository interface {
	// FindByID finds an item by ID, returning shared.ErrNotFound when missing
	FindByID(ctx context.Context, id uuid.UUID) (*Item, error)

	// FindByCode finds an item by its unique code
	FindByCode(ctx context.Context, code string) (*Item, error)

	// FindAll returns items matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Item, error)

	// Count counts items matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// FindLowStock returns active items at or below their minimum stock level
	FindLowStock(ctx context.Context) ([]Item, error)

	// ExistsByCode checks whether an item code is taken
	ExistsByCode(ctx context.Context, code string) (bool, error)

	// Save inserts or updates an item without a version check
	Save(ctx context.Context, item *Item) error

	// SaveWithLock updates an item only if its stored version is item.Version-1.
	// Returns shared.ErrConcurrencyConflict when another writer got there first.
	SaveWithLock(ctx context.Context, item *Item) error
}
