package billing

import (
	"errors"
	"testing"

	"github.com/bookshop/backend/internal/domain/shared"
	"github.com/bookshop/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draft(price string, qty int, discount int64) LineDraft {
	return LineDraft{
		ItemID:             uuid.New(),
		ItemCode:           "BK-1",
		ItemName:           "Book",
		Quantity:           qty,
		UnitPrice:          money(price),
		DiscountPercentage: decimal.NewFromInt(discount),
	}
}

func newPendingBill(t *testing.T, drafts ...LineDraft) *Bill {
	t.Helper()
	if len(drafts) == 0 {
		drafts = []LineDraft{draft("100.00", 3, 0)}
	}
	bill, err := NewBill("BILL000001", uuid.New(), DefaultTaxRate, drafts, valueobject.Zero(), "walk-in")
	require.NoError(t, err)
	return bill
}

func TestNewBill(t *testing.T) {
	t.Run("creates pending bill with totals", func(t *testing.T) {
		bill := newPendingBill(t)

		assert.Equal(t, BillStatusPending, bill.Status)
		assert.Equal(t, "300.00", bill.Subtotal.String())
		assert.Equal(t, "45.00", bill.TaxAmount.String())
		assert.Equal(t, "345.00", bill.TotalAmount.String())
		assert.Equal(t, "300.00", bill.Lines[0].TotalPrice.String())
		assert.Equal(t, 1, bill.Lines[0].LineNo)
		assert.Equal(t, bill.CreatedAt, bill.BillDate)

		events := bill.PendingEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeBillCreated, events[0].EventType())
	})

	t.Run("requires a line", func(t *testing.T) {
		_, err := NewBill("BILL000001", uuid.New(), DefaultTaxRate, nil, valueobject.Zero(), "")
		assert.Equal(t, shared.CategoryInvalidArgument, shared.CategoryOf(err))
	})

	t.Run("requires a well formed number", func(t *testing.T) {
		_, err := NewBill("X1", uuid.New(), DefaultTaxRate, []LineDraft{draft("1", 1, 0)}, valueobject.Zero(), "")
		assert.Error(t, err)
	})

	t.Run("requires a customer", func(t *testing.T) {
		_, err := NewBill("BILL000001", uuid.Nil, DefaultTaxRate, []LineDraft{draft("1", 1, 0)}, valueobject.Zero(), "")
		assert.Error(t, err)
	})
}

func TestBill_Recalculate(t *testing.T) {
	bill := newPendingBill(t, draft("50.00", 4, 10), draft("9.99", 1, 0))

	require.NoError(t, bill.Recalculate())
	subtotal, tax, total := bill.Subtotal, bill.TaxAmount, bill.TotalAmount

	require.NoError(t, bill.Recalculate())
	assert.True(t, subtotal.Equals(bill.Subtotal))
	assert.True(t, tax.Equals(bill.TaxAmount))
	assert.True(t, total.Equals(bill.TotalAmount))

	sum := valueobject.Zero()
	for _, l := range bill.Lines {
		sum = sum.Add(l.TotalPrice)
	}
	assert.True(t, sum.Equals(bill.Subtotal))
}

func TestBill_ReplaceLines(t *testing.T) {
	t.Run("reprices pending bill", func(t *testing.T) {
		bill := newPendingBill(t)
		version := bill.Version

		require.NoError(t, bill.ReplaceLines([]LineDraft{draft("50.00", 4, 10)}, money("10.00"), "edited"))

		assert.Equal(t, "180.00", bill.Subtotal.String())
		assert.Equal(t, "27.00", bill.TaxAmount.String())
		assert.Equal(t, "197.00", bill.TotalAmount.String())
		assert.Equal(t, "edited", bill.Notes)
		assert.Equal(t, version+1, bill.Version)
	})

	t.Run("rejects paid bill and leaves it unchanged", func(t *testing.T) {
		bill := newPendingBill(t)
		require.NoError(t, bill.MarkPaid())
		before := bill.TotalAmount

		err := bill.ReplaceLines([]LineDraft{draft("1.00", 1, 0)}, valueobject.Zero(), "")

		assert.True(t, errors.Is(err, shared.ErrInvalidState))
		assert.True(t, before.Equals(bill.TotalAmount))
		assert.Len(t, bill.Lines, 1)
	})

	t.Run("restores previous state when pricing fails", func(t *testing.T) {
		bill := newPendingBill(t)
		version := bill.Version

		err := bill.ReplaceLines([]LineDraft{draft("1.00", 1, 0)}, money("500.00"), "nope")

		assert.Error(t, err)
		assert.Equal(t, "345.00", bill.TotalAmount.String())
		assert.Equal(t, "walk-in", bill.Notes)
		assert.Equal(t, 3, bill.Lines[0].Quantity)
		assert.Equal(t, version, bill.Version)
	})
}

func TestBill_MarkPaid(t *testing.T) {
	bill := newPendingBill(t)
	require.NoError(t, bill.MarkPaid())
	assert.Equal(t, BillStatusPaid, bill.Status)
	assert.NotNil(t, bill.PaidAt)

	err := bill.MarkPaid()
	assert.True(t, errors.Is(err, shared.ErrInvalidState))

	err = bill.Cancel()
	assert.True(t, errors.Is(err, shared.ErrInvalidState))
}

func TestBill_Cancel(t *testing.T) {
	bill := newPendingBill(t)
	require.NoError(t, bill.Cancel())
	assert.Equal(t, BillStatusCancelled, bill.Status)
	assert.NotNil(t, bill.CancelledAt)

	assert.True(t, errors.Is(bill.Cancel(), shared.ErrInvalidState))
	assert.True(t, errors.Is(bill.MarkPaid(), shared.ErrInvalidState))
}

func TestBill_OverdueAndPartialPaid(t *testing.T) {
	bill := newPendingBill(t)
	require.NoError(t, bill.MarkOverdue())
	assert.False(t, bill.Status.IsModifiable())

	require.NoError(t, bill.MarkPartialPaid())
	require.NoError(t, bill.MarkPaid())
	assert.True(t, bill.Status.IsFinal())
}

func TestBill_Helpers(t *testing.T) {
	a := draft("10.00", 2, 0)
	b := draft("5.00", 3, 0)
	b.ItemID = a.ItemID
	c := draft("1.00", 1, 0)
	bill := newPendingBill(t, a, b, c)

	assert.Equal(t, 6, bill.TotalQuantity())
	assert.Equal(t, 3, bill.ItemCount())
	assert.Equal(t, "#BILL000001", bill.DisplayNumber())
	assert.True(t, bill.ContainsItem(c.ItemID))
	assert.False(t, bill.ContainsItem(uuid.New()))

	qty := bill.QuantitiesByItem()
	assert.Equal(t, 5, qty[a.ItemID])
	assert.Equal(t, 1, qty[c.ItemID])
}
