package catalog

import (
	"time"

	"github.com/bookshop/backend/internal/domain/catalog"
	"github.com/bookshop/backend/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateItemRequest represents a request to add an item to the catalog
type CreateItemRequest struct {
	Code              string          `json:"code" binding:"required,min=1,max=50"`
	Name              string          `json:"name" binding:"required,min=1,max=200"`
	Category          string          `json:"category" binding:"max=100"`
	Price             decimal.Decimal `json:"price" binding:"required"`
	StockQuantity     int             `json:"stock_quantity" binding:"min=0"`
	MinimumStockLevel *int            `json:"minimum_stock_level" binding:"omitempty,min=0"`
}

// UpdateItemRequest represents a request to update an item. Nil fields are left unchanged.
type UpdateItemRequest struct {
	Name              *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Category          *string          `json:"category" binding:"omitempty,max=100"`
	Price             *decimal.Decimal `json:"price"`
	MinimumStockLevel *int             `json:"minimum_stock_level" binding:"omitempty,min=0"`
}

// RestockRequest represents a manual stock increase
type RestockRequest struct {
	Quantity  int    `json:"quantity" binding:"required,min=1,max=100000"`
	Reference string `json:"reference" binding:"max=100"`
}

// ItemListFilter represents item list query parameters
type ItemListFilter struct {
	Search   string `form:"search"`
	Category string `form:"category"`
	Active   *bool  `form:"active"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ItemResponse represents an item in API responses
type ItemResponse struct {
	ID                uuid.UUID       `json:"id"`
	Code              string          `json:"code"`
	Name              string          `json:"name"`
	DisplayName       string          `json:"display_name"`
	Category          string          `json:"category"`
	Price             decimal.Decimal `json:"price"`
	StockQuantity     int             `json:"stock_quantity"`
	MinimumStockLevel int             `json:"minimum_stock_level"`
	LowStock          bool            `json:"low_stock"`
	Active            bool            `json:"active"`
	Version           int             `json:"version"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// AvailabilityResponse answers a stock availability check
type AvailabilityResponse struct {
	ItemID    uuid.UUID `json:"item_id"`
	Requested int       `json:"requested"`
	InStock   int       `json:"in_stock"`
	Available bool      `json:"available"`
}

// StockMovementResponse represents a stock journal entry
type StockMovementResponse struct {
	ID           uuid.UUID `json:"id"`
	Quantity     int       `json:"quantity"`
	BalanceAfter int       `json:"balance_after"`
	Reason       string    `json:"reason"`
	Reference    string    `json:"reference"`
	CreatedAt    time.Time `json:"created_at"`
}

// ToItemResponse converts a domain Item to ItemResponse
func ToItemResponse(i *catalog.Item) ItemResponse {
	return ItemResponse{
		ID:                i.ID,
		Code:              i.Code,
		Name:              i.Name,
		DisplayName:       i.DisplayName(),
		Category:          i.Category,
		Price:             i.Price.Amount(),
		StockQuantity:     i.StockQuantity,
		MinimumStockLevel: i.MinimumStockLevel,
		LowStock:          i.IsLowStock(),
		Active:            i.Active,
		Version:           i.Version,
		CreatedAt:         i.CreatedAt,
		UpdatedAt:         i.UpdatedAt,
	}
}

// ToItemResponses converts a slice of domain Items
func ToItemResponses(items []catalog.Item) []ItemResponse {
	responses := make([]ItemResponse, len(items))
	for i := range items {
		responses[i] = ToItemResponse(&items[i])
	}
	return responses
}

// ToStockMovementResponses converts journal entries
func ToStockMovementResponses(movements []inventory.StockMovement) []StockMovementResponse {
	responses := make([]StockMovementResponse, len(movements))
	for i, m := range movements {
		responses[i] = StockMovementResponse{
			ID:           m.ID,
			Quantity:     m.Quantity,
			BalanceAfter: m.BalanceAfter,
			Reason:       string(m.Reason),
			Reference:    m.Reference,
			CreatedAt:    m.CreatedAt,
		}
	}
	return responses
}
