package models

import (
	"github.com/bookshop/backend/internal/domain/catalog"
	"github.com/bookshop/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ItemModel is the persistence model for the Item aggregate root.
type ItemModel struct {
	AggregateModel
	Code              string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_items_code"`
	Name              string          `gorm:"type:varchar(200);not null;index"`
	Category          string          `gorm:"type:varchar(100);index"`
	Price             decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	StockQuantity     int             `gorm:"not null;default:0;check:chk_items_stock_non_negative,stock_quantity >= 0"`
	MinimumStockLevel int             `gorm:"not null;default:10"`
	Active            bool            `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (ItemModel) TableName() string {
	return "items"
}

// ToDomain converts the persistence model to a domain Item
func (m *ItemModel) ToDomain() *catalog.Item {
	return &catalog.Item{
		BaseAggregateRoot: m.root(),
		Code:              m.Code,
		Name:              m.Name,
		Category:          m.Category,
		Price:             valueobject.NewMoney(m.Price),
		StockQuantity:     m.StockQuantity,
		MinimumStockLevel: m.MinimumStockLevel,
		Active:            m.Active,
	}
}

// FromDomain populates the persistence model from a domain Item
func (m *ItemModel) FromDomain(i *catalog.Item) {
	m.setRoot(i.BaseAggregateRoot)
	m.Code = i.Code
	m.Name = i.Name
	m.Category = i.Category
	m.Price = i.Price.Amount()
	m.StockQuantity = i.StockQuantity
	m.MinimumStockLevel = i.MinimumStockLevel
	m.Active = i.Active
}

// ItemModelFromDomain creates a new persistence model from a domain Item
func ItemModelFromDomain(i *catalog.Item) *ItemModel {
	m := &ItemModel{}
	m.FromDomain(i)
	return m
}
