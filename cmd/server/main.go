package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	billingapp "github.com/bookshop/backend/internal/application/billing"
	catalogapp "github.com/bookshop/backend/internal/application/catalog"
	partnerapp "github.com/bookshop/backend/internal/application/partner"
	"github.com/bookshop/backend/internal/infrastructure/cache"
	"github.com/bookshop/backend/internal/infrastructure/config"
	"github.com/bookshop/backend/internal/infrastructure/event"
	"github.com/bookshop/backend/internal/infrastructure/logger"
	"github.com/bookshop/backend/internal/infrastructure/persistence"
	"github.com/bookshop/backend/internal/infrastructure/printing"
	"github.com/bookshop/backend/internal/infrastructure/scheduler"
	"github.com/bookshop/backend/internal/infrastructure/storage"
	"github.com/bookshop/backend/internal/infrastructure/telemetry"
	"github.com/bookshop/backend/internal/interfaces/http/handler"
	"github.com/bookshop/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
		zap.String("port", cfg.App.Port),
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, log); err != nil {
		log.Error("Server exited with error", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
	log.Info("Server exited")
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry first so the database callbacks can attach to it
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	defer shutdownTelemetry(tp, mp, lp, log)
	log = telemetry.BridgeLogger(log, lp, logger.ParseLevel(cfg.Log.Level))

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Profiling.Enabled,
		ServerAddress:     cfg.Profiling.ServerAddress,
		ApplicationName:   cfg.Profiling.ApplicationName,
		BasicAuthUser:     cfg.Profiling.BasicAuthUser,
		BasicAuthPassword: cfg.Profiling.BasicAuthPassword,
	}, log)
	if err != nil {
		return err
	}
	defer func() {
		if perr := profiler.Stop(); perr != nil {
			log.Warn("Failed to stop profiler", zap.Error(perr))
		}
	}()
	if cfg.Profiling.SpanProfiles && profiler.IsEnabled() {
		tp.EnableSpanProfiles()
	}

	// Database
	db, err := persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Warn("Failed to close database", zap.Error(cerr))
		}
	}()
	log.Info("Database connected", zap.String("driver", db.Driver))

	if db.IsPostgres() {
		log.Info("Schema is managed by cmd/migrate")
	} else if err := db.AutoMigrate(); err != nil {
		return err
	}

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        db.Driver,
	}, log); err != nil {
		return err
	}

	// Repositories
	billRepo := persistence.NewGormBillRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	itemRepo := persistence.NewGormItemRepository(db.DB)
	movementRepo := persistence.NewGormStockMovementRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB, cfg.Billing.LockTimeout)

	// Application services
	billingCfg := billingapp.DefaultConfig()
	billingCfg.TaxRate = decimal.NewFromFloat(cfg.Billing.TaxRate)
	if cfg.Billing.OverdueDays > 0 {
		billingCfg.OverdueDays = cfg.Billing.OverdueDays
	}
	if cfg.Billing.IdempotencyTTL > 0 {
		billingCfg.IdempotencyTTL = cfg.Billing.IdempotencyTTL
	}
	if cfg.Billing.MaxRetries > 0 {
		billingCfg.Retry.MaxAttempts = cfg.Billing.MaxRetries
	}
	if cfg.Billing.RetryBackoff > 0 {
		billingCfg.Retry.InitialBackoff = cfg.Billing.RetryBackoff
	}
	billingService := billingapp.NewBillingService(billRepo, customerRepo, txScope, billingCfg)
	itemService := catalogapp.NewItemService(itemRepo, movementRepo, txScope.ExecuteStock)
	customerService := partnerapp.NewCustomerService(customerRepo)

	// Idempotency keys live in redis when configured
	idempotency, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := idempotency.Close(); cerr != nil {
			log.Warn("Failed to close idempotency store", zap.Error(cerr))
		}
	}()
	billingService.SetIdempotencyStore(idempotency)

	// Event bus
	bus := event.NewInMemoryEventBus(log)
	billingService.SetEventPublisher(bus)

	billingMetrics, err := telemetry.NewBillingMetrics(telemetry.BillingMetricsConfig{
		Meter:    mp.Meter("bookshop/billing"),
		Logger:   log,
		LowStock: itemService,
	})
	if err != nil {
		return err
	}
	defer billingMetrics.Stop()
	billingService.SetBillingMetrics(billingMetrics)
	if mp.IsEnabled() {
		billingMetrics.StartLowStockCollection(ctx, cfg.Telemetry.MetricsInterval)
	}
	metricsHandler := event.NewBillMetricsHandler(billingMetrics)
	bus.Subscribe(metricsHandler, metricsHandler.EventTypes()...)

	// Bill documents
	var store billingapp.DocumentStore
	if cfg.Storage.Enabled {
		s3Store, serr := storage.NewS3ObjectStorage(ctx, &cfg.Storage,
			storage.WithLogger(log),
			storage.WithPresignExpiration(cfg.Storage.PresignExpiration),
		)
		if serr != nil {
			return serr
		}
		if serr := s3Store.EnsureBucket(ctx); serr != nil {
			return serr
		}
		store = s3Store
		log.Info("Bill documents archived to object storage", zap.String("bucket", cfg.Storage.Bucket))
	} else {
		store = storage.NewInMemoryObjectStorage()
	}
	documents := billingapp.NewBillDocumentService(billRepo, customerRepo,
		printing.NewBillPDFRenderer("USD"), store, cfg.Billing.ShopName)
	archiveHandler := event.NewBillArchiveHandler(documents)
	bus.Subscribe(archiveHandler, archiveHandler.EventTypes()...)

	if err := bus.Start(ctx); err != nil {
		return err
	}
	defer stopComponent("event bus", bus.Stop, log)

	// HTTP
	engine := router.NewEngine(router.EngineConfig{
		HTTP:           cfg.HTTP,
		ServiceName:    cfg.Telemetry.ServiceName,
		TracingEnabled: tp.IsEnabled(),
		MeterProvider:  meterProviderOrNil(mp),
	}, log, router.Handlers{
		Bills:     handler.NewBillHandler(billingService, documents, cfg.Storage.PresignExpiration),
		Items:     handler.NewItemHandler(itemService),
		Customers: handler.NewCustomerHandler(customerService),
		System:    handler.NewSystemHandler(cfg.App.Name, version, db),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Overdue sweep
	jobs := scheduler.NewScheduler(scheduler.DefaultConfig(), scheduler.NewBillingExecutor(billingService), log)
	if err := jobs.Start(ctx); err != nil {
		return err
	}
	defer stopComponent("maintenance scheduler", jobs.Stop, log)
	if cfg.Billing.OverdueSweepPeriod > 0 {
		sweep := scheduler.NewPeriodicTrigger(scheduler.JobTypeOverdueSweep, cfg.Billing.OverdueSweepPeriod, jobs, log)
		if err := sweep.Start(ctx); err != nil {
			return err
		}
		defer stopComponent("overdue sweep", sweep.Stop, log)
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// stopComponent stops a background component within a bounded time
func stopComponent(name string, stop func(context.Context) error, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := stop(ctx); err != nil {
		log.Warn("Failed to stop "+name, zap.Error(err))
	}
}

func meterProviderOrNil(mp *telemetry.MeterProvider) *telemetry.MeterProvider {
	if mp == nil || !mp.IsEnabled() {
		return nil
	}
	return mp
}

func shutdownTelemetry(tp *telemetry.TracerProvider, mp *telemetry.MeterProvider, lp *telemetry.LoggerProvider, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := lp.Shutdown(ctx); err != nil {
		log.Warn("Failed to shut down logger provider", zap.Error(err))
	}
	if err := mp.Shutdown(ctx); err != nil {
		log.Warn("Failed to shut down meter provider", zap.Error(err))
	}
	if err := tp.Shutdown(ctx); err != nil {
		log.Warn("Failed to shut down tracer provider", zap.Error(err))
	}
}
