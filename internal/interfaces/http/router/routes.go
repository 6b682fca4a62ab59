package router

import (
	"github.com/bookshop/backend/internal/infrastructure/config"
	"github.com/bookshop/backend/internal/infrastructure/logger"
	"github.com/bookshop/backend/internal/infrastructure/telemetry"
	"github.com/bookshop/backend/internal/interfaces/http/handler"
	"github.com/bookshop/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers are the API handlers mounted by NewEngine
type Handlers struct {
	Bills     *handler.BillHandler
	Items     *handler.ItemHandler
	Customers *handler.CustomerHandler
	System    *handler.SystemHandler
}

// EngineConfig controls the middleware chain built by NewEngine
type EngineConfig struct {
	HTTP           config.HTTPConfig
	ServiceName    string
	TracingEnabled bool
	MeterProvider  *telemetry.MeterProvider
}

// NewEngine builds the gin engine with the standard middleware chain and
// every API route registered.
func NewEngine(cfg EngineConfig, log *zap.Logger, h Handlers) *gin.Engine {
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Invalid trusted proxies, ignoring", zap.Error(err))
		}
	} else {
		_ = engine.SetTrustedProxies(nil)
	}

	cors := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.ServiceName,
			Enabled:     cfg.TracingEnabled,
		}),
		middleware.TracingAttributes(),
		middleware.SpanErrorMarker(),
		middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			MeterProvider: cfg.MeterProvider,
			Enabled:       cfg.MeterProvider != nil,
		}),
		logger.GinMiddleware(log),
		middleware.CORSWithConfig(cors),
		middleware.Secure(),
	)
	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	}

	if h.System != nil {
		engine.GET("/health", h.System.Health)
		engine.GET("/ready", h.System.Ready)
	}

	var groups []*DomainGroup
	if h.System != nil {
		groups = append(groups, NewDomainGroup("system", "/system").GET("/info", h.System.Info))
	}
	if h.Bills != nil {
		groups = append(groups, BillRoutes(h.Bills))
	}
	if h.Items != nil {
		groups = append(groups, ItemRoutes(h.Items, h.Bills))
	}
	if h.Customers != nil {
		groups = append(groups, CustomerRoutes(h.Customers, h.Bills))
	}
	Mount(engine, APIVersion, groups...)

	return engine
}

// BillRoutes registers the billing workflow and reporting endpoints
func BillRoutes(h *handler.BillHandler) *DomainGroup {
	return NewDomainGroup("billing", "/bills").
		POST("", h.Create).
		GET("", h.Search).
		GET("/today", h.Today).
		GET("/overdue", h.Overdue).
		GET("/summary", h.Summary).
		GET("/status-counts", h.StatusCounts).
		GET("/number/:number", h.GetByNumber).
		GET("/:id", h.Get).
		PUT("/:id", h.Update).
		POST("/:id/pay", h.Pay).
		POST("/:id/partial-pay", h.PartialPay).
		POST("/:id/overdue", h.MarkOverdue).
		POST("/:id/cancel", h.Cancel).
		GET("/:id/pdf", h.PDF).
		GET("/:id/document", h.DocumentLink)
}

// ItemRoutes registers catalog and stock endpoints. bills may be nil.
func ItemRoutes(h *handler.ItemHandler, bills *handler.BillHandler) *DomainGroup {
	g := NewDomainGroup("catalog", "/items").
		POST("", h.Create).
		GET("", h.List).
		GET("/low-stock", h.LowStock).
		GET("/code/:code", h.GetByCode).
		GET("/:id", h.Get).
		PUT("/:id", h.Update).
		POST("/:id/restock", h.Restock).
		POST("/:id/deactivate", h.Deactivate).
		POST("/:id/activate", h.Activate).
		GET("/:id/availability", h.Availability).
		GET("/:id/movements", h.Movements)
	if bills != nil {
		g.GET("/:id/bills", bills.ListContainingItem)
	}
	return g
}

// CustomerRoutes registers customer endpoints. bills may be nil.
func CustomerRoutes(h *handler.CustomerHandler, bills *handler.BillHandler) *DomainGroup {
	g := NewDomainGroup("partner", "/customers").
		POST("", h.Create).
		GET("", h.List).
		GET("/account/:account", h.GetByAccount).
		GET("/:id", h.Get).
		PUT("/:id", h.Update)
	if bills != nil {
		g.GET("/:id/bills", bills.ListByCustomer)
	}
	return g
}
