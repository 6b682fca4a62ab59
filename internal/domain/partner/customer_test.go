package partner

import (
	"testing"

	"github.com/bookshop/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCustomer(t *testing.T) {
	t.Run("normalizes account number", func(t *testing.T) {
		c, err := NewCustomer(" acc-1001 ", "Nimal Perera")
		require.NoError(t, err)
		assert.Equal(t, "ACC-1001", c.AccountNumber)
		assert.Equal(t, "Nimal Perera", c.Name)
	})

	t.Run("requires name", func(t *testing.T) {
		_, err := NewCustomer("ACC-1", "")
		assert.Equal(t, shared.CategoryInvalidArgument, shared.CategoryOf(err))
	})

	t.Run("requires account number", func(t *testing.T) {
		_, err := NewCustomer("", "Someone")
		assert.Error(t, err)
	})
}

func TestCustomer_SetContact(t *testing.T) {
	c, err := NewCustomer("ACC-1", "Someone")
	require.NoError(t, err)

	require.NoError(t, c.SetContact("12 Lake Rd", "0771234567", "someone@example.com"))
	assert.Equal(t, "someone@example.com", c.Email)
	assert.Equal(t, 2, c.Version)

	err = c.SetContact("", "", "not-an-email")
	assert.Error(t, err)
	assert.Equal(t, "someone@example.com", c.Email)

	require.NoError(t, c.SetContact("", "", ""))
	assert.Empty(t, c.Email)
}
