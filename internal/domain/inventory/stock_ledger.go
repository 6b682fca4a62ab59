// Package inventory owns stock quantity changes. Every reservation for a bill,
// every release on cancel or edit, and every manual restock goes through the
// StockLedger so the non-negative invariant lives in one place.
package inventory

import (
	"context"
	"errors"

	"github.com/bookshop/backend/internal/domain/catalog"
	"github.com/bookshop/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ItemStore is the subset of catalog.ItemRepository the ledger needs.
type ItemStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*catalog.Item, error)
	SaveWithLock(ctx context.Context, item *catalog.Item) error
}

// StockLedger mutates item stock. It must be built from repositories bound to
// the caller's transaction; it does not open transactions itself.
type StockLedger struct {
	items     ItemStore
	movements MovementRepository
}

// NewStockLedger creates a ledger. movements may be nil to skip journaling.
func NewStockLedger(items ItemStore, movements MovementRepository) *StockLedger {
	return &StockLedger{items: items, movements: movements}
}

// Reserve takes quantity out of the item's stock and returns the new quantity.
func (l *StockLedger) Reserve(ctx context.Context, itemID uuid.UUID, quantity int, reference string) (int, error) {
	item, err := l.load(ctx, itemID)
	if err != nil {
		return 0, err
	}
	if err := item.Reserve(quantity); err != nil {
		return 0, err
	}
	if err := l.items.SaveWithLock(ctx, item); err != nil {
		return 0, err
	}
	if err := l.journal(ctx, item, -quantity, MovementBillReserve, reference); err != nil {
		return 0, err
	}
	return item.StockQuantity, nil
}

// Release returns quantity to the item's stock and returns the new quantity.
func (l *StockLedger) Release(ctx context.Context, itemID uuid.UUID, quantity int, reference string) (int, error) {
	return l.release(ctx, itemID, quantity, MovementBillRelease, reference)
}

// Restock is a manual stock increase. It shares the release path.
func (l *StockLedger) Restock(ctx context.Context, itemID uuid.UUID, quantity int, reference string) (int, error) {
	if quantity <= 0 {
		return 0, shared.NewDomainError("INVALID_QUANTITY", "Restock quantity must be positive")
	}
	return l.release(ctx, itemID, quantity, MovementRestock, reference)
}

// CheckAvailability reports whether the item is active and holds quantity.
func (l *StockLedger) CheckAvailability(ctx context.Context, itemID uuid.UUID, quantity int) (bool, error) {
	item, err := l.load(ctx, itemID)
	if err != nil {
		return false, err
	}
	return item.HasAvailable(quantity), nil
}

// Verify loads the item and returns a detailed error when quantity cannot be
// reserved. Nothing is written.
func (l *StockLedger) Verify(ctx context.Context, itemID uuid.UUID, quantity int) (*catalog.Item, error) {
	item, err := l.load(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := item.EnsureAvailable(quantity); err != nil {
		return nil, err
	}
	return item, nil
}

func (l *StockLedger) release(ctx context.Context, itemID uuid.UUID, quantity int, reason MovementReason, reference string) (int, error) {
	if quantity < 0 {
		return 0, shared.NewDomainError("INVALID_QUANTITY", "Release quantity cannot be negative")
	}
	item, err := l.load(ctx, itemID)
	if err != nil {
		return 0, err
	}
	if quantity == 0 {
		return item.StockQuantity, nil
	}
	if err := item.Release(quantity); err != nil {
		return 0, err
	}
	if err := l.items.SaveWithLock(ctx, item); err != nil {
		return 0, err
	}
	if err := l.journal(ctx, item, quantity, reason, reference); err != nil {
		return 0, err
	}
	return item.StockQuantity, nil
}

func (l *StockLedger) load(ctx context.Context, itemID uuid.UUID) (*catalog.Item, error) {
	item, err := l.items.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainErrorf("ITEM_NOT_FOUND", "Item not found: %s", itemID).
				WithDetail("item_id", itemID.String())
		}
		return nil, err
	}
	return item, nil
}

func (l *StockLedger) journal(ctx context.Context, item *catalog.Item, delta int, reason MovementReason, reference string) error {
	if l.movements == nil {
		return nil
	}
	return l.movements.Create(ctx, NewStockMovement(item.ID, delta, item.StockQuantity, reason, reference))
}
