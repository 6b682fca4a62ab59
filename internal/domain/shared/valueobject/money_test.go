package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoneyFromString(t *testing.T) {
	t.Run("valid string", func(t *testing.T) {
		m, err := NewMoneyFromString("123.45")
		require.NoError(t, err)
		assert.True(t, m.Amount().Equal(decimal.RequireFromString("123.45")))
	})

	t.Run("invalid string", func(t *testing.T) {
		_, err := NewMoneyFromString("not-a-number")
		assert.Error(t, err)
	})
}

func TestMoney_Arithmetic(t *testing.T) {
	a := NewMoneyFromFloat(100)
	b := NewMoneyFromFloat(45)

	assert.Equal(t, "145.00", a.Add(b).String())
	assert.Equal(t, "55.00", a.Subtract(b).String())
	assert.Equal(t, "300.00", a.MultiplyByInt(3).String())
	assert.Equal(t, "15.00", a.Multiply(decimal.RequireFromString("0.15")).String())
	assert.True(t, b.Subtract(a).IsNegative())
	assert.True(t, b.LessThan(a))
}

func TestMoney_ApplyDiscount(t *testing.T) {
	m := NewMoneyFromFloat(200).ApplyDiscount(decimal.NewFromInt(10))
	assert.True(t, m.Equals(NewMoneyFromFloat(180)))

	full := NewMoneyFromFloat(200).ApplyDiscount(decimal.NewFromInt(100))
	assert.True(t, full.IsZero())
}

func TestMoney_Round2(t *testing.T) {
	assert.Equal(t, "10.01", NewMoney(decimal.RequireFromString("10.005")).Round2().String())
	assert.Equal(t, "10.00", NewMoney(decimal.RequireFromString("10.004")).Round2().String())
	assert.Equal(t, "33.33", NewMoney(decimal.NewFromInt(100).Div(decimal.NewFromInt(3))).Round2().String())
}

func TestMoney_JSON(t *testing.T) {
	data, err := json.Marshal(NewMoneyFromFloat(7.5))
	require.NoError(t, err)
	assert.Equal(t, `"7.50"`, string(data))

	var fromNumber Money
	require.NoError(t, json.Unmarshal([]byte(`12.3`), &fromNumber))
	assert.True(t, fromNumber.Equals(NewMoneyFromFloat(12.3)))

	var fromString Money
	require.NoError(t, json.Unmarshal([]byte(`"99.99"`), &fromString))
	assert.Equal(t, "99.99", fromString.String())
}

func TestMoney_Scan(t *testing.T) {
	var m Money
	require.NoError(t, m.Scan("42.10"))
	assert.Equal(t, "42.10", m.String())

	require.NoError(t, m.Scan(nil))
	assert.True(t, m.IsZero())

	v, err := NewMoneyFromFloat(1.25).Value()
	require.NoError(t, err)
	assert.Equal(t, "1.25", v)
}
