package models

import (
	"time"

	"github.com/bookshop/backend/internal/domain/inventory"
	"github.com/google/uuid"
)

// StockMovementModel is the persistence model for the stock journal.
type StockMovementModel struct {
	ID           uuid.UUID                `gorm:"type:uuid;primary_key"`
	ItemID       uuid.UUID                `gorm:"type:uuid;not null;index"`
	Quantity     int                      `gorm:"not null"`
	BalanceAfter int                      `gorm:"not null"`
	Reason       inventory.MovementReason `gorm:"type:varchar(20);not null"`
	Reference    string                   `gorm:"type:varchar(100);index"`
	CreatedAt    time.Time                `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (StockMovementModel) TableName() string {
	return "stock_movements"
}

// ToDomain converts the persistence model to a domain StockMovement
func (m *StockMovementModel) ToDomain() inventory.StockMovement {
	return inventory.StockMovement{
		ID:           m.ID,
		ItemID:       m.ItemID,
		Quantity:     m.Quantity,
		BalanceAfter: m.BalanceAfter,
		Reason:       m.Reason,
		Reference:    m.Reference,
		CreatedAt:    m.CreatedAt,
	}
}

// StockMovementModelFromDomain creates a persistence model from a domain StockMovement
func StockMovementModelFromDomain(s *inventory.StockMovement) *StockMovementModel {
	return &StockMovementModel{
		ID:           s.ID,
		ItemID:       s.ItemID,
		Quantity:     s.Quantity,
		BalanceAfter: s.BalanceAfter,
		Reason:       s.Reason,
		Reference:    s.Reference,
		CreatedAt:    s.CreatedAt,
	}
}

// AllModels lists every model for AutoMigrate in tests and local sqlite runs.
func AllModels() []any {
	return []any{
		&ItemModel{},
		&CustomerModel{},
		&BillModel{},
		&BillLineModel{},
		&BillSequenceModel{},
		&StockMovementModel{},
	}
}
