package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when a metrics constructor receives a nil meter.
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// LowStockCounter reports how many active items sit at or below their
// minimum stock level.
type LowStockCounter interface {
	CountLowStock(ctx context.Context) (int64, error)
}

// BillingMetrics records bill lifecycle and stock ledger activity.
type BillingMetrics struct {
	logger *zap.Logger

	billsCreated   *Counter
	billsUpdated   *Counter
	billsPaid      *Counter
	billsCancelled *Counter
	billAmount     *Histogram
	unitsReserved  *Counter
	unitsReleased  *Counter
	retries        *Counter
	failures       *Counter
	opDuration     *Histogram
	lowStockItems  *Gauge

	lowStock    LowStockCounter
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once
}

// BillingMetricsConfig holds configuration for billing metrics.
type BillingMetricsConfig struct {
	Meter    metric.Meter
	Logger   *zap.Logger
	LowStock LowStockCounter
}

// NewBillingMetrics creates all billing instruments on the given meter.
func NewBillingMetrics(cfg BillingMetricsConfig) (*BillingMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BillingMetrics{
		logger:   logger,
		lowStock: cfg.LowStock,
		stopChan: make(chan struct{}),
	}

	var err error
	counters := []struct {
		target **Counter
		name   string
		desc   string
		unit   string
	}{
		{&bm.billsCreated, "bookshop.bills.created", "Bills created", "{bill}"},
		{&bm.billsUpdated, "bookshop.bills.updated", "Bills whose lines were replaced", "{bill}"},
		{&bm.billsPaid, "bookshop.bills.paid", "Bills marked paid", "{bill}"},
		{&bm.billsCancelled, "bookshop.bills.cancelled", "Bills cancelled", "{bill}"},
		{&bm.unitsReserved, "bookshop.stock.reserved", "Units reserved from stock", "{unit}"},
		{&bm.unitsReleased, "bookshop.stock.released", "Units returned to stock", "{unit}"},
		{&bm.retries, "bookshop.billing.retries", "Transaction retries after contention", "{retry}"},
		{&bm.failures, "bookshop.billing.failures", "Billing operations that returned an error", "{error}"},
	}
	for _, c := range counters {
		if *c.target, err = NewCounter(cfg.Meter, c.name, c.desc, c.unit); err != nil {
			return nil, err
		}
	}

	if bm.billAmount, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "bookshop.bills.amount",
		Description: "Total amount of created bills",
		Unit:        "{currency}",
		Boundaries:  AmountBuckets,
	}); err != nil {
		return nil, err
	}
	if bm.opDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "bookshop.billing.duration",
		Description: "Duration of billing operations",
		Unit:        "s",
		Boundaries:  DurationBuckets,
	}); err != nil {
		return nil, err
	}
	if bm.lowStockItems, err = NewGauge(cfg.Meter, "bookshop.stock.low_items", "Active items at or below minimum stock", "{item}"); err != nil {
		return nil, err
	}

	return bm, nil
}

// RecordBillCreated counts a new bill and records its total.
func (bm *BillingMetrics) RecordBillCreated(ctx context.Context, total decimal.Decimal) {
	bm.billsCreated.Inc(ctx)
	bm.billAmount.Record(ctx, total.InexactFloat64())
}

// RecordBillUpdated counts a bill whose lines were replaced.
func (bm *BillingMetrics) RecordBillUpdated(ctx context.Context) {
	bm.billsUpdated.Inc(ctx)
}

// RecordBillPaid counts a paid bill.
func (bm *BillingMetrics) RecordBillPaid(ctx context.Context) {
	bm.billsPaid.Inc(ctx)
}

// RecordBillCancelled counts a cancelled bill.
func (bm *BillingMetrics) RecordBillCancelled(ctx context.Context) {
	bm.billsCancelled.Inc(ctx)
}

// RecordStockMovement adds reserved and released units.
func (bm *BillingMetrics) RecordStockMovement(ctx context.Context, reserved, released int) {
	if reserved > 0 {
		bm.unitsReserved.Add(ctx, int64(reserved))
	}
	if released > 0 {
		bm.unitsReleased.Add(ctx, int64(released))
	}
}

// RecordRetry counts one contention retry of the named operation.
func (bm *BillingMetrics) RecordRetry(ctx context.Context, operation string) {
	bm.retries.Inc(ctx, AttrOperation.String(operation))
}

// RecordOperation records duration and, on failure, the error code.
func (bm *BillingMetrics) RecordOperation(ctx context.Context, operation string, d time.Duration, errorCode string) {
	outcome := "ok"
	if errorCode != "" {
		outcome = "error"
		bm.failures.Inc(ctx, AttrOperation.String(operation), AttrErrorCode.String(errorCode))
	}
	bm.opDuration.RecordDuration(ctx, d, AttrOperation.String(operation), AttrOutcome.String(outcome))
}

// StartLowStockCollection samples the low-stock gauge every interval until
// Stop is called or ctx ends. Only the first call starts a collector.
func (bm *BillingMetrics) StartLowStockCollection(ctx context.Context, interval time.Duration) {
	if bm.lowStock == nil {
		return
	}
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go bm.runCollection(ctx, interval)
	})
}

func (bm *BillingMetrics) runCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	bm.collectLowStock(ctx)
	for {
		select {
		case <-bm.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			bm.collectLowStock(ctx)
		}
	}
}

func (bm *BillingMetrics) collectLowStock(ctx context.Context) {
	count, err := bm.lowStock.CountLowStock(ctx)
	if err != nil {
		bm.logger.Warn("Failed to count low stock items", zap.Error(err))
		return
	}
	bm.lowStockItems.Record(ctx, count)
}

// Stop stops the periodic collection.
func (bm *BillingMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}
