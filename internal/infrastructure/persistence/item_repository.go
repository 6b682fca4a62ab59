package persistence

import (
	"context"
	"strings"

	"github.com/bookshop/backend/internal/domain/catalog"
	"github.com/bookshop/backend/internal/domain/shared"
	"github.com/bookshop/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormItemRepository implements ItemRepository using GORM
type GormItemRepository struct {
	db *gorm.DB
}

// NewGormItemRepository creates a new GormItemRepository
func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

// FindByID finds an item by ID
func (r *GormItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Item, error) {
	var model models.ItemModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByCode finds an item by code
func (r *GormItemRepository) FindByCode(ctx context.Context, code string) (*catalog.Item, error) {
	var model models.ItemModel
	if err := r.db.WithContext(ctx).Where("code = ?", strings.ToUpper(code)).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll finds all items matching the filter
func (r *GormItemRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Item, error) {
	var itemModels []models.ItemModel
	query := r.applyPagination(r.applyFilter(r.db.WithContext(ctx).Model(&models.ItemModel{}), filter), filter)

	if err := query.Find(&itemModels).Error; err != nil {
		return nil, translateError(err)
	}
	return toDomainItems(itemModels), nil
}

// Count counts items matching the filter
func (r *GormItemRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ItemModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

// FindLowStock finds active items at or below their minimum stock level
func (r *GormItemRepository) FindLowStock(ctx context.Context) ([]catalog.Item, error) {
	var itemModels []models.ItemModel
	if err := r.db.WithContext(ctx).
		Where("active = ? AND stock_quantity <= minimum_stock_level", true).
		Order("stock_quantity ASC, name ASC").
		Find(&itemModels).Error; err != nil {
		return nil, translateError(err)
	}
	return toDomainItems(itemModels), nil
}

// ExistsByCode checks if an item with the given code exists
func (r *GormItemRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ItemModel{}).
		Where("code = ?", strings.ToUpper(code)).
		Count(&count).Error; err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

// Save creates or updates an item
func (r *GormItemRepository) Save(ctx context.Context, item *catalog.Item) error {
	model := models.ItemModelFromDomain(item)
	return translateError(r.db.WithContext(ctx).Save(model).Error)
}

// SaveWithLock updates only when the stored version is item.Version-1
func (r *GormItemRepository) SaveWithLock(ctx context.Context, item *catalog.Item) error {
	result := r.db.WithContext(ctx).
		Model(&models.ItemModel{}).
		Where("id = ? AND version = ?", item.ID, item.Version-1).
		Updates(map[string]interface{}{
			"name":                item.Name,
			"category":            item.Category,
			"price":               item.Price.Amount(),
			"stock_quantity":      item.StockQuantity,
			"minimum_stock_level": item.MinimumStockLevel,
			"active":              item.Active,
			"version":             item.Version,
			"updated_at":          item.UpdatedAt,
		})

	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// applyFilter applies search, category and active filters
func (r *GormItemRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", like, like)
	}
	if category, ok := filter.Filters["category"].(string); ok && category != "" {
		query = query.Where("category = ?", category)
	}
	if active, ok := filter.Filters["active"].(bool); ok {
		query = query.Where("active = ?", active)
	}
	return query
}

func (r *GormItemRepository) applyPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	orderBy := ValidateSortField(filter.OrderBy, ItemSortFields, "name")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(orderBy + " " + orderDir)
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}

func toDomainItems(itemModels []models.ItemModel) []catalog.Item {
	items := make([]catalog.Item, len(itemModels))
	for i := range itemModels {
		items[i] = *itemModels[i].ToDomain()
	}
	return items
}

// Ensure GormItemRepository implements ItemRepository
var _ catalog.ItemRepository = (*GormItemRepository)(nil)
