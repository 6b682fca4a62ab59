package billing

import (
	"github.com/bookshop/backend/internal/domain/shared"
	"github.com/bookshop/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

const (
	// MinLineQuantity and MaxLineQuantity bound a single line
	MinLineQuantity = 1
	MaxLineQuantity = 9999
)

var (
	// DefaultTaxRate is the flat rate applied when none is configured
	DefaultTaxRate = decimal.RequireFromString("0.15")

	maxDiscountPercent = decimal.NewFromInt(100)
)

// PriceInput is one line as seen by the calculator
type PriceInput struct {
	UnitPrice          valueobject.Money
	Quantity           int
	DiscountPercentage decimal.Decimal
}

// PriceBreakdown is the calculator output. LineTotals is index-aligned with
// the input lines.
type PriceBreakdown struct {
	LineTotals     []valueobject.Money
	Subtotal       valueobject.Money
	TaxRate        decimal.Decimal
	TaxAmount      valueobject.Money
	DiscountAmount valueobject.Money
	TotalAmount    valueobject.Money
}

// LineTotal computes round2(unitPrice × quantity × (1 − discount/100)).
func LineTotal(in PriceInput) (valueobject.Money, error) {
	if err := validatePriceInput(in); err != nil {
		return valueobject.Money{}, err
	}
	return in.UnitPrice.
		MultiplyByInt(int64(in.Quantity)).
		ApplyDiscount(in.DiscountPercentage).
		Round2(), nil
}

// Calculate prices a whole bill. It has no side effects and the same inputs
// always produce the same breakdown.
//
// A bill-level discount larger than subtotal plus tax is rejected with
// INVALID_DISCOUNT rather than clamped.
func Calculate(lines []PriceInput, discountAmount valueobject.Money, taxRate decimal.Decimal) (PriceBreakdown, error) {
	if len(lines) == 0 {
		return PriceBreakdown{}, shared.NewDomainError("EMPTY_BILL", "Bill must contain at least one item")
	}
	if taxRate.IsNegative() || taxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return PriceBreakdown{}, shared.NewDomainErrorf("INVALID_TAX_RATE", "Tax rate must be in [0, 1), got %s", taxRate)
	}
	if discountAmount.IsNegative() {
		return PriceBreakdown{}, shared.NewDomainError("INVALID_DISCOUNT", "Discount amount cannot be negative")
	}

	lineTotals := make([]valueobject.Money, len(lines))
	subtotal := valueobject.Zero()
	for i, line := range lines {
		total, err := LineTotal(line)
		if err != nil {
			return PriceBreakdown{}, err
		}
		lineTotals[i] = total
		subtotal = subtotal.Add(total)
	}

	discount := discountAmount.Round2()
	tax := subtotal.Multiply(taxRate).Round2()
	total := subtotal.Add(tax).Subtract(discount)
	if total.IsNegative() {
		return PriceBreakdown{}, shared.NewDomainErrorf("INVALID_DISCOUNT",
			"Discount amount %s exceeds bill amount %s", discount, subtotal.Add(tax)).
			WithDetail("discount_amount", discount.String()).
			WithDetail("amount_before_discount", subtotal.Add(tax).String())
	}

	return PriceBreakdown{
		LineTotals:     lineTotals,
		Subtotal:       subtotal,
		TaxRate:        taxRate,
		TaxAmount:      tax,
		DiscountAmount: discount,
		TotalAmount:    total,
	}, nil
}

func validatePriceInput(in PriceInput) error {
	if in.Quantity < MinLineQuantity || in.Quantity > MaxLineQuantity {
		return shared.NewDomainErrorf("INVALID_QUANTITY",
			"Quantity must be between %d and %d, got %d", MinLineQuantity, MaxLineQuantity, in.Quantity)
	}
	if in.DiscountPercentage.IsNegative() || in.DiscountPercentage.GreaterThan(maxDiscountPercent) {
		return shared.NewDomainErrorf("INVALID_DISCOUNT",
			"Discount percentage must be between 0 and 100, got %s", in.DiscountPercentage)
	}
	if !in.UnitPrice.IsPositive() {
		return shared.NewDomainError("INVALID_PRICE", "Unit price must be greater than zero")
	}
	return nil
}
