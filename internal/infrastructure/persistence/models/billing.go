package models

import (
	"time"

	"github.com/bookshop/backend/internal/domain/billing"
	"github.com/bookshop/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillModel is the persistence model for the Bill aggregate root.
type BillModel struct {
	AggregateModel
	BillNumber     string             `gorm:"type:varchar(20);not null;uniqueIndex:idx_bills_bill_number"`
	CustomerID     uuid.UUID          `gorm:"type:uuid;not null;index"`
	BillDate       time.Time          `gorm:"not null;index"`
	Lines          []BillLineModel    `gorm:"foreignKey:BillID;references:ID"`
	Subtotal       decimal.Decimal    `gorm:"type:decimal(14,2);not null;default:0"`
	TaxRate        decimal.Decimal    `gorm:"type:decimal(6,4);not null"`
	TaxAmount      decimal.Decimal    `gorm:"type:decimal(14,2);not null;default:0"`
	DiscountAmount decimal.Decimal    `gorm:"type:decimal(14,2);not null;default:0"`
	TotalAmount    decimal.Decimal    `gorm:"type:decimal(14,2);not null;default:0"`
	Status         billing.BillStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	Notes          string             `gorm:"type:text"`
	PaidAt         *time.Time
	CancelledAt    *time.Time
}

// TableName returns the table name for GORM
func (BillModel) TableName() string {
	return "bills"
}

// ToDomain converts the persistence model to a domain Bill
func (m *BillModel) ToDomain() *billing.Bill {
	bill := &billing.Bill{
		BaseAggregateRoot: m.root(),
		BillNumber:        m.BillNumber,
		CustomerID:        m.CustomerID,
		BillDate:          m.BillDate,
		Subtotal:          valueobject.NewMoney(m.Subtotal),
		TaxRate:           m.TaxRate,
		TaxAmount:         valueobject.NewMoney(m.TaxAmount),
		DiscountAmount:    valueobject.NewMoney(m.DiscountAmount),
		TotalAmount:       valueobject.NewMoney(m.TotalAmount),
		Status:            m.Status,
		Notes:             m.Notes,
		PaidAt:            m.PaidAt,
		CancelledAt:       m.CancelledAt,
		Lines:             make([]billing.BillLine, len(m.Lines)),
	}
	for i := range m.Lines {
		bill.Lines[i] = m.Lines[i].ToDomain()
	}
	return bill
}

// FromDomain populates the persistence model from a domain Bill
func (m *BillModel) FromDomain(b *billing.Bill) {
	m.setRoot(b.BaseAggregateRoot)
	m.BillNumber = b.BillNumber
	m.CustomerID = b.CustomerID
	m.BillDate = b.BillDate
	m.Subtotal = b.Subtotal.Amount()
	m.TaxRate = b.TaxRate
	m.TaxAmount = b.TaxAmount.Amount()
	m.DiscountAmount = b.DiscountAmount.Amount()
	m.TotalAmount = b.TotalAmount.Amount()
	m.Status = b.Status
	m.Notes = b.Notes
	m.PaidAt = b.PaidAt
	m.CancelledAt = b.CancelledAt

	m.Lines = make([]BillLineModel, len(b.Lines))
	for i := range b.Lines {
		m.Lines[i].FromDomain(b.ID, &b.Lines[i])
	}
}

// BillModelFromDomain creates a new persistence model from a domain Bill
func BillModelFromDomain(b *billing.Bill) *BillModel {
	m := &BillModel{}
	m.FromDomain(b)
	return m
}

// BillLineModel is the persistence model for a bill line.
type BillLineModel struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primary_key"`
	BillID             uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo             int             `gorm:"not null"`
	ItemID             uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemCode           string          `gorm:"type:varchar(50);not null"`
	ItemName           string          `gorm:"type:varchar(200);not null"`
	Quantity           int             `gorm:"not null;check:chk_bill_lines_quantity,quantity BETWEEN 1 AND 9999"`
	UnitPrice          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DiscountPercentage decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	TotalPrice         decimal.Decimal `gorm:"type:decimal(14,2);not null"`
}

// TableName returns the table name for GORM
func (BillLineModel) TableName() string {
	return "bill_lines"
}

// ToDomain converts the persistence model to a domain BillLine
func (m *BillLineModel) ToDomain() billing.BillLine {
	return billing.BillLine{
		ID:                 m.ID,
		LineNo:             m.LineNo,
		ItemID:             m.ItemID,
		ItemCode:           m.ItemCode,
		ItemName:           m.ItemName,
		Quantity:           m.Quantity,
		UnitPrice:          valueobject.NewMoney(m.UnitPrice),
		DiscountPercentage: m.DiscountPercentage,
		TotalPrice:         valueobject.NewMoney(m.TotalPrice),
	}
}

// FromDomain populates the persistence model from a domain BillLine
func (m *BillLineModel) FromDomain(billID uuid.UUID, l *billing.BillLine) {
	m.ID = l.ID
	m.BillID = billID
	m.LineNo = l.LineNo
	m.ItemID = l.ItemID
	m.ItemCode = l.ItemCode
	m.ItemName = l.ItemName
	m.Quantity = l.Quantity
	m.UnitPrice = l.UnitPrice.Amount()
	m.DiscountPercentage = l.DiscountPercentage
	m.TotalPrice = l.TotalPrice.Amount()
}

// BillSequenceModel is the single-row counter backing bill numbers.
type BillSequenceModel struct {
	Name      string    `gorm:"type:varchar(50);primary_key"`
	Value     int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (BillSequenceModel) TableName() string {
	return "bill_sequences"
}
