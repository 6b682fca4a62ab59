package testutil

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMockDB(t *testing.T) {
	mockDB := NewMockDB(t)
	defer mockDB.Close()

	assert.NotNil(t, mockDB.DB)
	assert.NotNil(t, mockDB.Mock)
	mockDB.ExpectationsWereMet(t)
}

func TestNewSQLiteDB_IsolatedPerTest(t *testing.T) {
	first := NewSQLiteDB(t)
	item := SeedItem(t, first.DB, "BK-1", 12.5, 4)

	assert.Equal(t, 4, StockOf(t, first.DB, item.ID))

	t.Run("sibling database is empty", func(t *testing.T) {
		second := NewSQLiteDB(t)
		var count int64
		require.NoError(t, second.DB.Table("items").Count(&count).Error)
		assert.Zero(t, count)
	})
}

func TestSeedCustomer(t *testing.T) {
	db := NewSQLiteDB(t)
	customer := SeedCustomer(t, db.DB, "acc-9")

	assert.Equal(t, "ACC-9", customer.AccountNumber)
}

func TestNewTestContext(t *testing.T) {
	tc := NewTestContext(t)

	assert.NotNil(t, tc.Context)
	assert.Equal(t, http.MethodGet, tc.Context.Request.Method)

	tc.SetRequestID("req-123")
	val, exists := tc.Context.Get("X-Request-ID")
	assert.True(t, exists)
	assert.Equal(t, "req-123", val)
}

func TestNewTestUUID_Deterministic(t *testing.T) {
	assert.Equal(t, NewTestUUID("seed"), NewTestUUID("seed"))
	assert.NotEqual(t, NewTestUUID("seed"), NewTestUUID("other"))
}

func TestPerformJSON(t *testing.T) {
	engine := gin.New()
	engine.POST("/echo", func(c *gin.Context) {
		var body map[string]string
		require.NoError(t, c.ShouldBindJSON(&body))
		c.JSON(http.StatusOK, gin.H{"success": true, "data": body, "key": c.GetHeader("Idempotency-Key")})
	})

	w := PerformJSON(t, engine, http.MethodPost, "/echo", map[string]string{"a": "b"}, map[string]string{"Idempotency-Key": "k"})

	resp := DecodeJSON[map[string]interface{}](t, w)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "k", resp["key"])
}

func TestRecordingEventHandler(t *testing.T) {
	handler := NewRecordingEventHandler("A")
	require.NoError(t, handler.Handle(context.Background(), NewTestEvent("A")))

	assert.Equal(t, []string{"A"}, handler.EventTypes())
	assert.Equal(t, []string{"A"}, handler.Types())

	handler.SetError(assert.AnError)
	assert.ErrorIs(t, handler.Handle(context.Background(), NewTestEvent("A")), assert.AnError)
	assert.Len(t, handler.Handled(), 2)
}
