package persistence

import (
	"context"

	"github.com/bookshop/backend/internal/domain/inventory"
	"github.com/bookshop/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStockMovementRepository implements MovementRepository using GORM
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewGormStockMovementRepository creates a new GormStockMovementRepository
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

// Create appends a movement to the journal
func (r *GormStockMovementRepository) Create(ctx context.Context, movement *inventory.StockMovement) error {
	model := models.StockMovementModelFromDomain(movement)
	return translateError(r.db.WithContext(ctx).Create(model).Error)
}

// FindByItem lists an item's movements, newest first. limit <= 0 returns all.
func (r *GormStockMovementRepository) FindByItem(ctx context.Context, itemID uuid.UUID, limit int) ([]inventory.StockMovement, error) {
	query := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var movementModels []models.StockMovementModel
	if err := query.Find(&movementModels).Error; err != nil {
		return nil, translateError(err)
	}

	movements := make([]inventory.StockMovement, len(movementModels))
	for i := range movementModels {
		movements[i] = movementModels[i].ToDomain()
	}
	return movements, nil
}

// Ensure GormStockMovementRepository implements MovementRepository
var _ inventory.MovementRepository = (*GormStockMovementRepository)(nil)
