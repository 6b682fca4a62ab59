package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MovementReason says why stock moved
type MovementReason string

const (
	MovementBillReserve MovementReason = "BILL_RESERVE"
	MovementBillRelease MovementReason = "BILL_RELEASE"
	MovementRestock     MovementReason = "RESTOCK"
)

// StockMovement is one entry of the stock journal. Quantity is signed:
// negative for reservations, positive for releases.
type StockMovement struct {
	ID           uuid.UUID
	ItemID       uuid.UUID
	Quantity     int
	BalanceAfter int
	Reason       MovementReason
	Reference    string
	CreatedAt    time.Time
}

// NewStockMovement creates a journal entry
func NewStockMovement(itemID uuid.UUID, quantity, balanceAfter int, reason MovementReason, reference string) *StockMovement {
	return &StockMovement{
		ID:           uuid.New(),
		ItemID:       itemID,
		Quantity:     quantity,
		BalanceAfter: balanceAfter,
		Reason:       reason,
		Reference:    reference,
		CreatedAt:    time.Now(),
	}
}

// MovementRepository persists the stock journal
type MovementRepository interface {
	// Create appends a movement
	Create(ctx context.Context, movement *StockMovement) error

	// FindByItem lists movements for an item, newest first
	FindByItem(ctx context.Context, itemID uuid.UUID, limit int) ([]StockMovement, error)
}
