package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	billingapp "github.com/bookshop/backend/internal/application/billing"
	catalogapp "github.com/bookshop/backend/internal/application/catalog"
	partnerapp "github.com/bookshop/backend/internal/application/partner"
	"github.com/bookshop/backend/internal/domain/catalog"
	"github.com/bookshop/backend/internal/domain/partner"
	"github.com/bookshop/backend/internal/infrastructure/cache"
	"github.com/bookshop/backend/internal/infrastructure/persistence"
	"github.com/bookshop/backend/internal/infrastructure/printing"
	"github.com/bookshop/backend/internal/infrastructure/storage"
	"github.com/bookshop/backend/internal/interfaces/http/handler"
	"github.com/bookshop/backend/internal/interfaces/http/middleware"
	"github.com/bookshop/backend/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// api is a bookshop API over a private sqlite database
type api struct {
	db        *gorm.DB
	engine    *gin.Engine
	billing   *billingapp.BillingService
	documents *billingapp.BillDocumentService
	store     *storage.InMemoryObjectStorage
	customer  *partner.Customer
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database := testutil.NewSQLiteDB(t)
	db := database.DB

	bills := persistence.NewGormBillRepository(db)
	customers := persistence.NewGormCustomerRepository(db)
	items := persistence.NewGormItemRepository(db)
	movements := persistence.NewGormStockMovementRepository(db)
	scope := persistence.NewGormTransactionScope(db, 0)

	cfg := billingapp.DefaultConfig()
	cfg.Retry.InitialBackoff = time.Millisecond
	billingService := billingapp.NewBillingService(bills, customers, scope, cfg)
	billingService.SetIdempotencyStore(cache.NewInMemoryIdempotencyStore())

	store := storage.NewInMemoryObjectStorage()
	documents := billingapp.NewBillDocumentService(bills, customers, printing.NewBillPDFRenderer("USD"), store, "Test Books")

	bh := handler.NewBillHandler(billingService, documents, time.Minute)
	ih := handler.NewItemHandler(catalogapp.NewItemService(items, movements, scope.ExecuteStock))
	ch := handler.NewCustomerHandler(partnerapp.NewCustomerService(customers))
	sh := handler.NewSystemHandler("bookshop", "test", database)

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.GET("/health", sh.Health)
	engine.GET("/ready", sh.Ready)

	v1 := engine.Group("/api/v1")
	v1.POST("/bills", bh.Create)
	v1.GET("/bills", bh.Search)
	v1.GET("/bills/today", bh.Today)
	v1.GET("/bills/overdue", bh.Overdue)
	v1.GET("/bills/summary", bh.Summary)
	v1.GET("/bills/status-counts", bh.StatusCounts)
	v1.GET("/bills/number/:number", bh.GetByNumber)
	v1.GET("/bills/:id", bh.Get)
	v1.PUT("/bills/:id", bh.Update)
	v1.POST("/bills/:id/pay", bh.Pay)
	v1.POST("/bills/:id/partial-pay", bh.PartialPay)
	v1.POST("/bills/:id/overdue", bh.MarkOverdue)
	v1.POST("/bills/:id/cancel", bh.Cancel)
	v1.GET("/bills/:id/pdf", bh.PDF)
	v1.GET("/bills/:id/document", bh.DocumentLink)

	v1.POST("/items", ih.Create)
	v1.GET("/items", ih.List)
	v1.GET("/items/low-stock", ih.LowStock)
	v1.GET("/items/code/:code", ih.GetByCode)
	v1.GET("/items/:id", ih.Get)
	v1.PUT("/items/:id", ih.Update)
	v1.POST("/items/:id/restock", ih.Restock)
	v1.POST("/items/:id/deactivate", ih.Deactivate)
	v1.POST("/items/:id/activate", ih.Activate)
	v1.GET("/items/:id/availability", ih.Availability)
	v1.GET("/items/:id/movements", ih.Movements)
	v1.GET("/items/:id/bills", bh.ListContainingItem)

	v1.POST("/customers", ch.Create)
	v1.GET("/customers", ch.List)
	v1.GET("/customers/account/:account", ch.GetByAccount)
	v1.GET("/customers/:id", ch.Get)
	v1.PUT("/customers/:id", ch.Update)
	v1.GET("/customers/:id/bills", bh.ListByCustomer)

	return &api{
		db:        db,
		engine:    engine,
		billing:   billingService,
		documents: documents,
		store:     store,
		customer:  testutil.SeedCustomer(t, db, "ACC-1"),
	}
}

func (a *api) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	return testutil.PerformJSON(t, a.engine, method, path, body, headers)
}

// dataOf returns the data member of a success envelope
func dataOf(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	resp := testutil.DecodeJSON[map[string]any](t, w)
	data, ok := resp["data"].(map[string]any)
	require.True(t, ok, "expected object data: %s", w.Body.String())
	return data
}

// listOf returns the data member of a success envelope holding a list
func listOf(t *testing.T, w *httptest.ResponseRecorder) []any {
	t.Helper()
	resp := testutil.DecodeJSON[map[string]any](t, w)
	data, ok := resp["data"].([]any)
	require.True(t, ok, "expected list data: %s", w.Body.String())
	return data
}

func (a *api) seedItem(t *testing.T, code string, price float64, stock int) *catalog.Item {
	t.Helper()
	return testutil.SeedItem(t, a.db, code, price, stock)
}

func (a *api) createBill(t *testing.T, itemID string, qty int) map[string]any {
	t.Helper()
	resp := a.do(t, http.MethodPost, "/api/v1/bills", map[string]any{
		"customer_id": a.customer.ID,
		"lines":       []map[string]any{{"item_id": itemID, "quantity": qty}},
	}, nil)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return dataOf(t, resp)
}
