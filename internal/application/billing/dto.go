package billing

import (
	"time"

	"github.com/bookshop/backend/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillLineInput is one requested line on a create or update
type BillLineInput struct {
	ItemID             uuid.UUID        `json:"item_id" binding:"required"`
	Quantity           int              `json:"quantity" binding:"required,min=1,max=9999"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage"`
}

// CreateBillRequest represents a request to create a bill
type CreateBillRequest struct {
	CustomerID     uuid.UUID        `json:"customer_id" binding:"required"`
	Lines          []BillLineInput  `json:"lines" binding:"required,min=1,dive"`
	DiscountAmount *decimal.Decimal `json:"discount_amount"`
	Notes          string           `json:"notes" binding:"max=1000"`
	// IdempotencyKey comes from the Idempotency-Key header, not the body
	IdempotencyKey string `json:"-"`
}

// UpdateBillRequest replaces the lines, discount and notes of a bill
type UpdateBillRequest struct {
	Lines          []BillLineInput  `json:"lines" binding:"required,min=1,dive"`
	DiscountAmount *decimal.Decimal `json:"discount_amount"`
	Notes          string           `json:"notes" binding:"max=1000"`
}

// BillSearchFilter represents filter options for the bill search
type BillSearchFilter struct {
	Search     string     `form:"search"`
	Status     string     `form:"status"`
	CustomerID *uuid.UUID `form:"-"`
	From       *time.Time `form:"from" time_format:"2006-01-02"`
	To         *time.Time `form:"to" time_format:"2006-01-02"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// BillLineResponse represents a bill line in API responses
type BillLineResponse struct {
	ID                 uuid.UUID       `json:"id"`
	LineNo             int             `json:"line_no"`
	ItemID             uuid.UUID       `json:"item_id"`
	ItemCode           string          `json:"item_code"`
	ItemName           string          `json:"item_name"`
	Quantity           int             `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	TotalPrice         decimal.Decimal `json:"total_price"`
}

// BillResponse represents a bill in API responses
type BillResponse struct {
	ID              uuid.UUID          `json:"id"`
	BillNumber      string             `json:"bill_number"`
	DisplayNumber   string             `json:"display_number"`
	CustomerID      uuid.UUID          `json:"customer_id"`
	BillDate        time.Time          `json:"bill_date"`
	Lines           []BillLineResponse `json:"lines"`
	ItemCount       int                `json:"item_count"`
	TotalQuantity   int                `json:"total_quantity"`
	Subtotal        decimal.Decimal    `json:"subtotal"`
	TaxRate         decimal.Decimal    `json:"tax_rate"`
	TaxAmount       decimal.Decimal    `json:"tax_amount"`
	DiscountAmount  decimal.Decimal    `json:"discount_amount"`
	TotalAmount     decimal.Decimal    `json:"total_amount"`
	Status          string             `json:"status"`
	IsFinal         bool               `json:"is_final"`
	IsModifiable    bool               `json:"is_modifiable"`
	RequiresPayment bool               `json:"requires_payment"`
	Notes           string             `json:"notes,omitempty"`
	PaidAt          *time.Time         `json:"paid_at,omitempty"`
	CancelledAt     *time.Time         `json:"cancelled_at,omitempty"`
	Version         int                `json:"version"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// SalesSummaryResponse aggregates settled revenue for a period
type SalesSummaryResponse struct {
	From          time.Time       `json:"from"`
	To            time.Time       `json:"to"`
	TotalSales    decimal.Decimal `json:"total_sales"`
	AverageAmount decimal.Decimal `json:"average_amount"`
	BillCount     int64           `json:"bill_count"`
}

// ToBillResponse converts a domain bill to a response
func ToBillResponse(b *billing.Bill) BillResponse {
	lines := make([]BillLineResponse, len(b.Lines))
	for i, l := range b.Lines {
		lines[i] = BillLineResponse{
			ID:                 l.ID,
			LineNo:             l.LineNo,
			ItemID:             l.ItemID,
			ItemCode:           l.ItemCode,
			ItemName:           l.ItemName,
			Quantity:           l.Quantity,
			UnitPrice:          l.UnitPrice.Amount(),
			DiscountPercentage: l.DiscountPercentage,
			TotalPrice:         l.TotalPrice.Amount(),
		}
	}

	return BillResponse{
		ID:              b.ID,
		BillNumber:      b.BillNumber,
		DisplayNumber:   b.DisplayNumber(),
		CustomerID:      b.CustomerID,
		BillDate:        b.BillDate,
		Lines:           lines,
		ItemCount:       b.ItemCount(),
		TotalQuantity:   b.TotalQuantity(),
		Subtotal:        b.Subtotal.Amount(),
		TaxRate:         b.TaxRate,
		TaxAmount:       b.TaxAmount.Amount(),
		DiscountAmount:  b.DiscountAmount.Amount(),
		TotalAmount:     b.TotalAmount.Amount(),
		Status:          b.Status.String(),
		IsFinal:         b.Status.IsFinal(),
		IsModifiable:    b.Status.IsModifiable(),
		RequiresPayment: b.Status.RequiresPayment(),
		Notes:           b.Notes,
		PaidAt:          b.PaidAt,
		CancelledAt:     b.CancelledAt,
		Version:         b.Version,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

// ToBillResponses converts a slice of domain bills
func ToBillResponses(bills []billing.Bill) []BillResponse {
	out := make([]BillResponse, len(bills))
	for i := range bills {
		out[i] = ToBillResponse(&bills[i])
	}
	return out
}
