package catalog

import (
	"strings"

	"github.com/bookshop/backend/internal/domain/shared"
	"github.com/bookshop/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// DefaultMinimumStockLevel is the low-stock threshold assigned to new items.
const DefaultMinimumStockLevel = 10

// Item is a sellable catalog entry together with its on-hand stock.
// Stock is only changed through Reserve and Release.
type Item struct {
	shared.BaseAggregateRoot
	Code              string
	Name              string
	Category          string
	Price             valueobject.Money
	StockQuantity     int
	MinimumStockLevel int
	Active            bool
}

// NewItem creates a new active item
func NewItem(code, name, category string, price valueobject.Money, stock int) (*Item, error) {
	if err := validateItemCode(code); err != nil {
		return nil, err
	}
	if err := validateItemName(name); err != nil {
		return nil, err
	}
	if err := validatePrice(price); err != nil {
		return nil, err
	}
	if stock < 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Stock quantity cannot be negative")
	}

	return &Item{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(strings.TrimSpace(code)),
		Name:              strings.TrimSpace(name),
		Category:          strings.TrimSpace(category),
		Price:             price.Round2(),
		StockQuantity:     stock,
		MinimumStockLevel: DefaultMinimumStockLevel,
		Active:            true,
	}, nil
}

// Update changes the descriptive fields and the unit price.
// Prices already captured on bill lines are not affected.
func (i *Item) Update(name, category string, price valueobject.Money) error {
	if err := validateItemName(name); err != nil {
		return err
	}
	if err := validatePrice(price); err != nil {
		return err
	}

	i.Name = strings.TrimSpace(name)
	i.Category = strings.TrimSpace(category)
	i.Price = price.Round2()
	i.touch()
	return nil
}

// SetMinimumStockLevel sets the low-stock threshold
func (i *Item) SetMinimumStockLevel(level int) error {
	if level < 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Minimum stock level cannot be negative")
	}
	i.MinimumStockLevel = level
	i.touch()
	return nil
}

// EnsureAvailable returns nil when quantity can be taken from this item.
func (i *Item) EnsureAvailable(quantity int) error {
	if !i.Active {
		return shared.NewDomainErrorf("ITEM_INACTIVE", "Item is not available for sale: %s", i.Name).
			WithDetail("item_id", i.ID.String())
	}
	if quantity > i.StockQuantity {
		return shared.NewDomainErrorf("INSUFFICIENT_STOCK",
			"Insufficient stock for item: %s. Available: %d, Requested: %d",
			i.Name, i.StockQuantity, quantity).
			WithDetail("item_id", i.ID.String()).
			WithDetail("available", i.StockQuantity).
			WithDetail("requested", quantity)
	}
	return nil
}

// HasAvailable reports whether the item is active and holds at least quantity.
func (i *Item) HasAvailable(quantity int) bool {
	return i.EnsureAvailable(quantity) == nil
}

// Reserve takes quantity out of stock.
func (i *Item) Reserve(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Reserve quantity must be positive")
	}
	if err := i.EnsureAvailable(quantity); err != nil {
		return err
	}

	i.StockQuantity -= quantity
	i.touch()
	return nil
}

// Release puts quantity back into stock. There is no upper bound.
func (i *Item) Release(quantity int) error {
	if quantity < 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Release quantity cannot be negative")
	}
	if quantity == 0 {
		return nil
	}

	i.StockQuantity += quantity
	i.touch()
	return nil
}

// Deactivate soft-deletes the item. Deactivated items cannot be billed.
func (i *Item) Deactivate() error {
	if !i.Active {
		return shared.NewDomainError("INVALID_STATE", "Item is already inactive")
	}
	i.Active = false
	i.touch()
	return nil
}

// Activate makes a deactivated item sellable again
func (i *Item) Activate() error {
	if i.Active {
		return shared.NewDomainError("INVALID_STATE", "Item is already active")
	}
	i.Active = true
	i.touch()
	return nil
}

// IsLowStock returns true if the on-hand quantity is at or below the threshold
func (i *Item) IsLowStock() bool {
	return i.StockQuantity <= i.MinimumStockLevel
}

// DisplayName renders "name (code)"
func (i *Item) DisplayName() string {
	return i.Name + " (" + i.Code + ")"
}

func (i *Item) touch() {
	i.MarkModified()
}

func validateItemCode(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return shared.NewDomainError("INVALID_ARGUMENT", "Item code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_ARGUMENT", "Item code cannot exceed 50 characters")
	}
	return nil
}

func validateItemName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_ARGUMENT", "Item name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_ARGUMENT", "Item name cannot exceed 200 characters")
	}
	return nil
}

func validatePrice(price valueobject.Money) error {
	if !price.IsPositive() {
		return shared.NewDomainError("INVALID_PRICE", "Price must be greater than zero")
	}
	if price.Amount().GreaterThan(decimal.NewFromInt(99999999)) {
		return shared.NewDomainError("INVALID_PRICE", "Price is too large")
	}
	return nil
}
