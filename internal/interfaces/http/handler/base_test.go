package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bookshop/backend/internal/domain/shared"
	"github.com/bookshop/backend/internal/interfaces/http/dto"
	"github.com/bookshop/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newContext(method, path string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, nil)
	return c, w
}

func TestGetRequestID(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/")
	assert.Empty(t, getRequestID(c))

	c.Request.Header.Set(middleware.RequestIDHeader, "from-header")
	assert.Equal(t, "from-header", getRequestID(c))

	c.Set(middleware.RequestIDKey, "from-context")
	assert.Equal(t, "from-context", getRequestID(c))
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		retryable  bool
	}{
		{"not found", shared.NewDomainError("BILL_NOT_FOUND", "Bill not found"), http.StatusNotFound, "BILL_NOT_FOUND", false},
		{"insufficient stock", shared.NewDomainError("INSUFFICIENT_STOCK", "short"), http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK", false},
		{"invalid state", shared.ErrInvalidState, http.StatusConflict, "INVALID_STATE", false},
		{"contention is retryable", fmt.Errorf("save: %w", shared.ErrContention), http.StatusConflict, "CONTENTION", true},
		{"already exists", shared.ErrAlreadyExists, http.StatusConflict, "ALREADY_EXISTS", false},
		{"plain error is unexpected", errors.New("pq: connection reset"), http.StatusInternalServerError, dto.ErrCodeUnexpected, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			c, w := newContext(http.MethodGet, "/bills/1")
			c.Set(middleware.RequestIDKey, "req-1")

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.True(t, c.IsAborted())
			assert.Equal(t, tt.wantCode, c.GetString(middleware.ErrorCodeKey))

			resp := decode(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, tt.retryable, resp.Error.Retryable)
			assert.Equal(t, "req-1", resp.Error.RequestID)
			assert.NotContains(t, w.Body.String(), "pq:")
		})
	}
}

func TestBaseHandler_HandleErrorNil(t *testing.T) {
	h := &BaseHandler{}
	c, w := newContext(http.MethodGet, "/")
	h.HandleError(c, nil)
	assert.False(t, c.IsAborted())
	assert.Equal(t, http.StatusOK, w.Code)
}

type bindTarget struct {
	Name     string `json:"name" binding:"required"`
	Quantity int    `json:"quantity" binding:"min=1,max=10"`
}

func TestBaseHandler_BindJSON(t *testing.T) {
	h := &BaseHandler{}

	t.Run("validation details", func(t *testing.T) {
		c, w := newContext(http.MethodPost, "/")
		c.Request = httptest.NewRequest(http.MethodPost, "/", stringsReader(`{"quantity": 20}`))
		c.Request.Header.Set("Content-Type", "application/json")

		var target bindTarget
		assert.False(t, h.bindJSON(c, &target))
		assert.Equal(t, http.StatusBadRequest, w.Code)

		resp := decode(t, w)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		require.Len(t, resp.Error.Fields, 2)
		assert.Equal(t, "Name", resp.Error.Fields[0].Field)
		assert.Equal(t, "required", resp.Error.Fields[0].Rule)
		assert.Equal(t, "Quantity must be at most 10", resp.Error.Fields[1].Message)
	})

	t.Run("malformed json", func(t *testing.T) {
		c, w := newContext(http.MethodPost, "/")
		c.Request = httptest.NewRequest(http.MethodPost, "/", stringsReader(`{"name":`))

		var target bindTarget
		assert.False(t, h.bindJSON(c, &target))
		assert.Equal(t, dto.ErrCodeBadRequest, decode(t, w).Error.Code)
	})
}

func TestBaseHandler_UUIDParam(t *testing.T) {
	h := &BaseHandler{}
	c, w := newContext(http.MethodGet, "/")
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	_, ok := h.uuidParam(c, "id")

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", decode(t, w).Error.Code)
}
