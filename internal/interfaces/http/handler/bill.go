package handler

import (
	"context"
	"net/http"
	"time"

	billingapp "github.com/bookshop/backend/internal/application/billing"
	"github.com/bookshop/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// BillDocuments renders and links bill PDFs
type BillDocuments interface {
	RenderPDF(ctx context.Context, billID uuid.UUID) ([]byte, *billingapp.BillResponse, error)
	ArchivedURL(ctx context.Context, billID uuid.UUID, expiresIn time.Duration) (string, time.Time, error)
}

// BillHandler handles bill endpoints
type BillHandler struct {
	BaseHandler
	billing   *billingapp.BillingService
	documents BillDocuments
	linkTTL   time.Duration
}

// NewBillHandler creates a new BillHandler. documents may be nil, which
// turns the PDF endpoints off.
func NewBillHandler(billing *billingapp.BillingService, documents BillDocuments, linkTTL time.Duration) *BillHandler {
	if linkTTL <= 0 {
		linkTTL = 15 * time.Minute
	}
	return &BillHandler{billing: billing, documents: documents, linkTTL: linkTTL}
}

// DocumentLinkResponse is a time-limited download link
type DocumentLinkResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Create handles POST /bills. The optional Idempotency-Key header makes
// retries return the first bill instead of billing twice.
func (h *BillHandler) Create(c *gin.Context) {
	var req billingapp.CreateBillRequest
	if !h.bindJSON(c, &req) {
		return
	}
	req.IdempotencyKey = c.GetHeader(middleware.IdempotencyKeyHeader)

	bill, err := h.billing.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, bill)
}

// Get handles GET /bills/:id
func (h *BillHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	bill, err := h.billing.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bill)
}

// GetByNumber handles GET /bills/number/:number
func (h *BillHandler) GetByNumber(c *gin.Context) {
	bill, err := h.billing.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bill)
}

// Update handles PUT /bills/:id
func (h *BillHandler) Update(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req billingapp.UpdateBillRequest
	if !h.bindJSON(c, &req) {
		return
	}

	bill, err := h.billing.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bill)
}

// Pay handles POST /bills/:id/pay
func (h *BillHandler) Pay(c *gin.Context) {
	h.transition(c, h.billing.MarkPaid)
}

// PartialPay handles POST /bills/:id/partial-pay
func (h *BillHandler) PartialPay(c *gin.Context) {
	h.transition(c, h.billing.MarkPartialPaid)
}

// MarkOverdue handles POST /bills/:id/overdue
func (h *BillHandler) MarkOverdue(c *gin.Context) {
	h.transition(c, h.billing.MarkOverdue)
}

// Cancel handles POST /bills/:id/cancel
func (h *BillHandler) Cancel(c *gin.Context) {
	h.transition(c, h.billing.Cancel)
}

func (h *BillHandler) transition(c *gin.Context, apply func(context.Context, uuid.UUID) (*billingapp.BillResponse, error)) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	bill, err := apply(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bill)
}

// Search handles GET /bills
func (h *BillHandler) Search(c *gin.Context) {
	var filter billingapp.BillSearchFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	if raw := c.Query("customer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid customer_id: "+raw)
			return
		}
		filter.CustomerID = &id
	}
	if filter.To != nil {
		end := endOfDay(*filter.To)
		filter.To = &end
	}

	page, err := h.billing.Search(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Today handles GET /bills/today
func (h *BillHandler) Today(c *gin.Context) {
	bills, err := h.billing.ListToday(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bills)
}

// Overdue handles GET /bills/overdue?days=N
func (h *BillHandler) Overdue(c *gin.Context) {
	days, ok := h.intQuery(c, "days", 0)
	if !ok {
		return
	}
	bills, err := h.billing.ListOverdue(c.Request.Context(), days)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bills)
}

// Summary handles GET /bills/summary?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *BillHandler) Summary(c *gin.Context) {
	from, to, ok := h.dateRange(c)
	if !ok {
		return
	}
	summary, err := h.billing.SalesSummary(c.Request.Context(), from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// StatusCounts handles GET /bills/status-counts
func (h *BillHandler) StatusCounts(c *gin.Context) {
	counts, err := h.billing.CountByStatus(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, counts)
}

// ListByCustomer handles GET /customers/:id/bills
func (h *BillHandler) ListByCustomer(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	bills, err := h.billing.ListByCustomer(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bills)
}

// ListContainingItem handles GET /items/:id/bills
func (h *BillHandler) ListContainingItem(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	bills, err := h.billing.ListContainingItem(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, bills)
}

// PDF handles GET /bills/:id/pdf
func (h *BillHandler) PDF(c *gin.Context) {
	if h.documents == nil {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	data, bill, err := h.documents.RenderPDF(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+bill.BillNumber+`.pdf"`)
	c.Data(http.StatusOK, billingapp.PDFContentType, data)
}

// DocumentLink handles GET /bills/:id/document
func (h *BillHandler) DocumentLink(c *gin.Context) {
	if h.documents == nil {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	url, expiresAt, err := h.documents.ArchivedURL(c.Request.Context(), id, h.linkTTL)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, DocumentLinkResponse{URL: url, ExpiresAt: expiresAt})
}

// dateRange reads from and to as dates. to covers its whole day.
func (h *BillHandler) dateRange(c *gin.Context) (time.Time, time.Time, bool) {
	from, err := time.ParseInLocation(dateLayout, c.Query("from"), time.Local)
	if err != nil {
		h.BadRequest(c, "from must be a date in YYYY-MM-DD format")
		return time.Time{}, time.Time{}, false
	}
	to, err := time.ParseInLocation(dateLayout, c.Query("to"), time.Local)
	if err != nil {
		h.BadRequest(c, "to must be a date in YYYY-MM-DD format")
		return time.Time{}, time.Time{}, false
	}
	return from, endOfDay(to), true
}

func endOfDay(t time.Time) time.Time {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start.Add(24*time.Hour - time.Nanosecond)
}
