package handler

import (
	catalogapp "github.com/bookshop/backend/internal/application/catalog"
	"github.com/gin-gonic/gin"
)

// defaultMovementLimit caps the journal returned per item
const defaultMovementLimit = 50

// ItemHandler handles catalog and stock endpoints
type ItemHandler struct {
	BaseHandler
	items *catalogapp.ItemService
}

// NewItemHandler creates a new ItemHandler
func NewItemHandler(items *catalogapp.ItemService) *ItemHandler {
	return &ItemHandler{items: items}
}

// Create handles POST /items
func (h *ItemHandler) Create(c *gin.Context) {
	var req catalogapp.CreateItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := h.items.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// List handles GET /items
func (h *ItemHandler) List(c *gin.Context) {
	var filter catalogapp.ItemListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page, err := h.items.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Get handles GET /items/:id
func (h *ItemHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	item, err := h.items.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// GetByCode handles GET /items/code/:code
func (h *ItemHandler) GetByCode(c *gin.Context) {
	item, err := h.items.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Update handles PUT /items/:id
func (h *ItemHandler) Update(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req catalogapp.UpdateItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := h.items.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Restock handles POST /items/:id/restock
func (h *ItemHandler) Restock(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req catalogapp.RestockRequest
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := h.items.Restock(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Deactivate handles POST /items/:id/deactivate
func (h *ItemHandler) Deactivate(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.items.Deactivate(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Activate handles POST /items/:id/activate
func (h *ItemHandler) Activate(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.items.Activate(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Availability handles GET /items/:id/availability?quantity=N
func (h *ItemHandler) Availability(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	quantity, ok := h.intQuery(c, "quantity", 1)
	if !ok {
		return
	}
	result, err := h.items.CheckAvailability(c.Request.Context(), id, quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// LowStock handles GET /items/low-stock
func (h *ItemHandler) LowStock(c *gin.Context) {
	items, err := h.items.ListLowStock(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// Movements handles GET /items/:id/movements?limit=N
func (h *ItemHandler) Movements(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	limit, ok := h.intQuery(c, "limit", defaultMovementLimit)
	if !ok {
		return
	}
	movements, err := h.items.ListMovements(c.Request.Context(), id, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, movements)
}
