package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/bookshop/backend/internal/domain/shared"
	"github.com/bookshop/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxNotesLength = 1000

// BillLine is one item entry on a bill. UnitPrice is captured when the line
// is created and does not follow later item price changes.
type BillLine struct {
	ID                 uuid.UUID
	LineNo             int
	ItemID             uuid.UUID
	ItemCode           string
	ItemName           string
	Quantity           int
	UnitPrice          valueobject.Money
	DiscountPercentage decimal.Decimal
	TotalPrice         valueobject.Money
}

// LineDraft is the input for building a bill line
type LineDraft struct {
	ItemID             uuid.UUID
	ItemCode           string
	ItemName           string
	Quantity           int
	UnitPrice          valueobject.Money
	DiscountPercentage decimal.Decimal
}

// Bill is the aggregate root for an invoice
type Bill struct {
	shared.BaseAggregateRoot
	BillNumber     string
	CustomerID     uuid.UUID
	BillDate       time.Time
	Lines          []BillLine
	Subtotal       valueobject.Money
	TaxRate        decimal.Decimal
	TaxAmount      valueobject.Money
	DiscountAmount valueobject.Money
	TotalAmount    valueobject.Money
	Status         BillStatus
	Notes          string
	PaidAt         *time.Time
	CancelledAt    *time.Time
}

// NewBill creates a PENDING bill with priced lines.
func NewBill(billNumber string, customerID uuid.UUID, taxRate decimal.Decimal, drafts []LineDraft, discount valueobject.Money, notes string) (*Bill, error) {
	if _, err := ParseBillNumber(billNumber); err != nil {
		return nil, shared.NewDomainError("INVALID_ARGUMENT", err.Error())
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ARGUMENT", "Customer ID cannot be empty")
	}
	if len(notes) > maxNotesLength {
		return nil, shared.NewDomainErrorf("INVALID_ARGUMENT", "Notes cannot exceed %d characters", maxNotesLength)
	}

	bill := &Bill{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BillNumber:        billNumber,
		CustomerID:        customerID,
		TaxRate:           taxRate,
		DiscountAmount:    discount,
		Status:            BillStatusPending,
		Notes:             strings.TrimSpace(notes),
	}
	bill.BillDate = bill.CreatedAt
	bill.Lines = buildLines(drafts)

	if err := bill.Recalculate(); err != nil {
		return nil, err
	}

	bill.Record(NewBillCreatedEvent(bill))
	return bill, nil
}

// ReplaceLines swaps the whole line set, discount and notes, then reprices.
// The caller releases stock for the old lines and reserves for the new ones.
func (b *Bill) ReplaceLines(drafts []LineDraft, discount valueobject.Money, notes string) error {
	if !b.Status.IsModifiable() {
		return shared.NewDomainErrorf("INVALID_STATE", "Cannot update bill in %s status", b.Status).
			WithDetail("status", b.Status.String())
	}
	if len(notes) > maxNotesLength {
		return shared.NewDomainErrorf("INVALID_ARGUMENT", "Notes cannot exceed %d characters", maxNotesLength)
	}

	previous := b.snapshot()
	b.Lines = buildLines(drafts)
	b.DiscountAmount = discount
	b.Notes = strings.TrimSpace(notes)
	if err := b.Recalculate(); err != nil {
		b.restore(previous)
		return err
	}

	b.touch()
	b.Record(NewBillUpdatedEvent(b))
	return nil
}

// Recalculate reprices every line and the bill totals from the current lines.
// It is deterministic, so calling it twice yields identical amounts.
func (b *Bill) Recalculate() error {
	inputs := make([]PriceInput, len(b.Lines))
	for i, line := range b.Lines {
		inputs[i] = PriceInput{
			UnitPrice:          line.UnitPrice,
			Quantity:           line.Quantity,
			DiscountPercentage: line.DiscountPercentage,
		}
	}

	breakdown, err := Calculate(inputs, b.DiscountAmount, b.TaxRate)
	if err != nil {
		return err
	}

	for i := range b.Lines {
		b.Lines[i].TotalPrice = breakdown.LineTotals[i]
	}
	b.Subtotal = breakdown.Subtotal
	b.TaxAmount = breakdown.TaxAmount
	b.DiscountAmount = breakdown.DiscountAmount
	b.TotalAmount = breakdown.TotalAmount
	return nil
}

// MarkPaid settles the bill
func (b *Bill) MarkPaid() error {
	if err := b.transition(BillStatusPaid, "mark as paid"); err != nil {
		return err
	}
	now := time.Now()
	b.PaidAt = &now
	b.Record(NewBillPaidEvent(b))
	return nil
}

// Cancel voids the bill. The caller releases the reserved stock.
func (b *Bill) Cancel() error {
	if err := b.transition(BillStatusCancelled, "cancel"); err != nil {
		return err
	}
	now := time.Now()
	b.CancelledAt = &now
	b.Record(NewBillCancelledEvent(b))
	return nil
}

// MarkOverdue flags an unpaid bill as overdue
func (b *Bill) MarkOverdue() error {
	return b.transition(BillStatusOverdue, "mark as overdue")
}

// MarkPartialPaid records that part of the amount was received
func (b *Bill) MarkPartialPaid() error {
	return b.transition(BillStatusPartialPaid, "mark as partially paid")
}

// Submit moves a draft bill to pending
func (b *Bill) Submit() error {
	return b.transition(BillStatusPending, "submit")
}

// QuantitiesByItem sums line quantities per item
func (b *Bill) QuantitiesByItem() map[uuid.UUID]int {
	out := make(map[uuid.UUID]int, len(b.Lines))
	for _, line := range b.Lines {
		out[line.ItemID] += line.Quantity
	}
	return out
}

// ContainsItem reports whether any line references itemID
func (b *Bill) ContainsItem(itemID uuid.UUID) bool {
	for _, line := range b.Lines {
		if line.ItemID == itemID {
			return true
		}
	}
	return false
}

// TotalQuantity sums all line quantities
func (b *Bill) TotalQuantity() int {
	total := 0
	for _, line := range b.Lines {
		total += line.Quantity
	}
	return total
}

// ItemCount returns the number of lines
func (b *Bill) ItemCount() int {
	return len(b.Lines)
}

// DisplayNumber renders the bill number for printing
func (b *Bill) DisplayNumber() string {
	return "#" + b.BillNumber
}

func (b *Bill) transition(target BillStatus, action string) error {
	if !b.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot %s bill %s in %s status", action, b.BillNumber, b.Status)).
			WithDetail("status", b.Status.String())
	}
	b.Status = target
	b.touch()
	return nil
}

func (b *Bill) touch() {
	b.MarkModified()
}

type billState struct {
	lines    []BillLine
	subtotal valueobject.Money
	tax      valueobject.Money
	discount valueobject.Money
	total    valueobject.Money
	notes    string
}

func (b *Bill) snapshot() billState {
	return billState{
		lines:    b.Lines,
		subtotal: b.Subtotal,
		tax:      b.TaxAmount,
		discount: b.DiscountAmount,
		total:    b.TotalAmount,
		notes:    b.Notes,
	}
}

func (b *Bill) restore(s billState) {
	b.Lines = s.lines
	b.Subtotal = s.subtotal
	b.TaxAmount = s.tax
	b.DiscountAmount = s.discount
	b.TotalAmount = s.total
	b.Notes = s.notes
}

func buildLines(drafts []LineDraft) []BillLine {
	lines := make([]BillLine, len(drafts))
	for i, d := range drafts {
		lines[i] = BillLine{
			ID:                 uuid.New(),
			LineNo:             i + 1,
			ItemID:             d.ItemID,
			ItemCode:           d.ItemCode,
			ItemName:           d.ItemName,
			Quantity:           d.Quantity,
			UnitPrice:          d.UnitPrice,
			DiscountPercentage: d.DiscountPercentage,
		}
	}
	return lines
}
