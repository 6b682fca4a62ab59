package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	billingapp "github.com/bookshop/backend/internal/application/billing"
	catalogapp "github.com/bookshop/backend/internal/application/catalog"
	partnerapp "github.com/bookshop/backend/internal/application/partner"
	"github.com/bookshop/backend/internal/infrastructure/config"
	"github.com/bookshop/backend/internal/infrastructure/persistence"
	"github.com/bookshop/backend/internal/interfaces/http/handler"
	"github.com/bookshop/backend/internal/interfaces/http/middleware"
	"github.com/bookshop/backend/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestMount_VersionAndNesting(t *testing.T) {
	engine := gin.New()

	group := NewDomainGroup("test", "/test").
		GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") }).
		DELETE("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	group.Group("nested", "/nested").POST("/echo", func(c *gin.Context) { c.Status(http.StatusAccepted) })
	Mount(engine, "v2", group, nil)

	assert.Equal(t, "test", group.Name())
	assert.Equal(t, []string{"GET /test/ping", "DELETE /test/ping", "POST /test/nested/echo"}, group.Paths())

	for _, tc := range []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/api/v2/test/ping", http.StatusOK},
		{http.MethodDelete, "/api/v2/test/ping", http.StatusNoContent},
		{http.MethodPost, "/api/v2/test/nested/echo", http.StatusAccepted},
		{http.MethodGet, "/api/v1/test/ping", http.StatusNotFound},
	} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, tc.want, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestDomainGroup_Middleware(t *testing.T) {
	engine := gin.New()
	var calls int
	group := NewDomainGroup("guarded", "/guarded").
		Use(func(c *gin.Context) { calls++; c.Next() }).
		GET("", func(c *gin.Context) { c.Status(http.StatusOK) })
	Mount(engine, "", group)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/guarded", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, calls)
}

func newTestEngine(t *testing.T, httpCfg config.HTTPConfig) (*gin.Engine, *persistence.Database) {
	t.Helper()
	database := testutil.NewSQLiteDB(t)
	db := database.DB

	bills := persistence.NewGormBillRepository(db)
	customers := persistence.NewGormCustomerRepository(db)
	scope := persistence.NewGormTransactionScope(db, 0)
	cfg := billingapp.DefaultConfig()
	cfg.Retry.InitialBackoff = time.Millisecond

	billing := billingapp.NewBillingService(bills, customers, scope, cfg)
	items := catalogapp.NewItemService(persistence.NewGormItemRepository(db), persistence.NewGormStockMovementRepository(db), scope.ExecuteStock)

	engine := NewEngine(EngineConfig{HTTP: httpCfg, ServiceName: "bookshop-test"}, zap.NewNop(), Handlers{
		Bills:     handler.NewBillHandler(billing, nil, 0),
		Items:     handler.NewItemHandler(items),
		Customers: handler.NewCustomerHandler(partnerapp.NewCustomerService(customers)),
		System:    handler.NewSystemHandler("bookshop-test", "test", database),
	})
	return engine, database
}

func TestNewEngine_BillingFlow(t *testing.T) {
	engine, database := newTestEngine(t, config.HTTPConfig{MaxBodySize: 1 << 20})
	item := testutil.SeedItem(t, database.DB, "BK-1", 100, 10)
	customer := testutil.SeedCustomer(t, database.DB, "ACC-1")

	w := testutil.PerformJSON(t, engine, http.MethodPost, "/api/v1/bills", map[string]any{
		"customer_id": customer.ID,
		"lines":       []map[string]any{{"item_id": item.ID, "quantity": 3}},
	}, map[string]string{middleware.RequestIDHeader: "flow-1"})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "flow-1", w.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))

	resp := testutil.DecodeJSON[map[string]any](t, w)
	bill := resp["data"].(map[string]any)
	assert.Equal(t, "345", bill["total_amount"])
	assert.Equal(t, 7, testutil.StockOf(t, database.DB, item.ID))

	w = testutil.PerformJSON(t, engine, http.MethodGet, "/api/v1/items/"+item.ID.String()+"/bills", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = testutil.PerformJSON(t, engine, http.MethodGet, "/api/v1/customers/"+customer.ID.String()+"/bills", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestNewEngine_SystemRoutes(t *testing.T) {
	engine, _ := newTestEngine(t, config.HTTPConfig{})

	for _, path := range []string{"/health", "/ready", "/api/v1/system/info"} {
		w := testutil.PerformJSON(t, engine, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestNewEngine_DocumentsDisabled(t *testing.T) {
	engine, database := newTestEngine(t, config.HTTPConfig{})
	item := testutil.SeedItem(t, database.DB, "BK-1", 100, 10)
	customer := testutil.SeedCustomer(t, database.DB, "ACC-1")

	w := testutil.PerformJSON(t, engine, http.MethodPost, "/api/v1/bills", map[string]any{
		"customer_id": customer.ID,
		"lines":       []map[string]any{{"item_id": item.ID, "quantity": 1}},
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	id := testutil.DecodeJSON[map[string]any](t, w)["data"].(map[string]any)["id"].(string)

	w = testutil.PerformJSON(t, engine, http.MethodGet, "/api/v1/bills/"+id+"/pdf", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNewEngine_BodyLimitAndCORS(t *testing.T) {
	engine, _ := newTestEngine(t, config.HTTPConfig{
		MaxBodySize:      16,
		CORSAllowOrigins: []string{"https://till.example"},
	})

	w := testutil.PerformJSON(t, engine, http.MethodPost, "/api/v1/items", map[string]any{
		"code": "BK-LONG", "name": "A very long name for a body limit", "price": "1",
	}, nil)
	testutil.AssertErrorResponse(t, w, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE")

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/items", nil)
	req.Header.Set("Origin", "https://till.example")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://till.example", w.Header().Get("Access-Control-Allow-Origin"))
}
