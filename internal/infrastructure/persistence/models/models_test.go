package models

import (
	"testing"

	"github.com/bookshop/backend/internal/domain/billing"
	"github.com/bookshop/backend/internal/domain/catalog"
	"github.com/bookshop/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBillModel_RoundTripKeepsLinesAndTotals(t *testing.T) {
	bill, err := billing.NewBill("BILL000007", uuid.New(), billing.DefaultTaxRate, []billing.LineDraft{
		{ItemID: uuid.New(), ItemCode: "A", ItemName: "Alpha", Quantity: 2, UnitPrice: valueobject.NewMoneyFromFloat(12.5), DiscountPercentage: decimal.Zero},
		{ItemID: uuid.New(), ItemCode: "B", ItemName: "Beta", Quantity: 1, UnitPrice: valueobject.NewMoneyFromFloat(40), DiscountPercentage: decimal.NewFromInt(25)},
	}, valueobject.NewMoneyFromFloat(1), "note")
	require.NoError(t, err)

	m := BillModelFromDomain(bill)
	require.Len(t, m.Lines, 2)
	assert.Equal(t, bill.ID, m.Lines[1].BillID)
	assert.Equal(t, 2, m.Lines[1].LineNo)

	back := m.ToDomain()
	assert.Equal(t, bill.BillNumber, back.BillNumber)
	assert.Equal(t, bill.Version, back.Version)
	assert.True(t, bill.TotalAmount.Equals(back.TotalAmount))
	assert.True(t, bill.Lines[1].TotalPrice.Equals(back.Lines[1].TotalPrice))
	assert.Equal(t, "Beta", back.Lines[1].ItemName)
}

func TestItemModel_FromDomain(t *testing.T) {
	item, err := catalog.NewItem("bk-9", "Name", "Cat", valueobject.NewMoneyFromFloat(9.99), 4)
	require.NoError(t, err)

	m := ItemModelFromDomain(item)
	assert.Equal(t, "BK-9", m.Code)
	assert.True(t, m.Price.Equal(decimal.RequireFromString("9.99")))

	back := m.ToDomain()
	assert.Equal(t, item.ID, back.ID)
	assert.Equal(t, 4, back.StockQuantity)
	assert.True(t, back.Active)
}
