package telemetry_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bookshop/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newManualMetrics(t *testing.T, lowStock telemetry.LowStockCounter) (*telemetry.BillingMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	bm, err := telemetry.NewBillingMetrics(telemetry.BillingMetricsConfig{
		Meter:    provider.Meter("test"),
		LowStock: lowStock,
	})
	require.NoError(t, err)
	return bm, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumOf(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum, got %T", data)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestNewBillingMetrics_NilMeter(t *testing.T) {
	bm, err := telemetry.NewBillingMetrics(telemetry.BillingMetricsConfig{})
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
	assert.Nil(t, bm)
}

func TestBillingMetrics_NoopMeter(t *testing.T) {
	bm, err := telemetry.NewBillingMetrics(telemetry.BillingMetricsConfig{Meter: noop.NewMeterProvider().Meter("test")})
	require.NoError(t, err)

	ctx := context.Background()
	assert.NotPanics(t, func() {
		bm.RecordBillCreated(ctx, decimal.NewFromInt(345))
		bm.RecordRetry(ctx, "create")
		bm.RecordOperation(ctx, "create", time.Millisecond, "")
	})
}

func TestBillingMetrics_RecordsLifecycle(t *testing.T) {
	bm, reader := newManualMetrics(t, nil)
	ctx := context.Background()

	bm.RecordBillCreated(ctx, decimal.NewFromInt(345))
	bm.RecordBillCreated(ctx, decimal.NewFromInt(180))
	bm.RecordBillUpdated(ctx)
	bm.RecordBillPaid(ctx)
	bm.RecordBillCancelled(ctx)
	bm.RecordStockMovement(ctx, 3, 0)
	bm.RecordStockMovement(ctx, 0, 3)
	bm.RecordRetry(ctx, "create")
	bm.RecordRetry(ctx, "create")
	bm.RecordOperation(ctx, "update", 5*time.Millisecond, "INVALID_STATE")

	data := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, data["bookshop.bills.created"]))
	assert.Equal(t, int64(1), sumOf(t, data["bookshop.bills.updated"]))
	assert.Equal(t, int64(1), sumOf(t, data["bookshop.bills.paid"]))
	assert.Equal(t, int64(1), sumOf(t, data["bookshop.bills.cancelled"]))
	assert.Equal(t, int64(3), sumOf(t, data["bookshop.stock.reserved"]))
	assert.Equal(t, int64(3), sumOf(t, data["bookshop.stock.released"]))
	assert.Equal(t, int64(2), sumOf(t, data["bookshop.billing.retries"]))
	assert.Equal(t, int64(1), sumOf(t, data["bookshop.billing.failures"]))

	amounts, ok := data["bookshop.bills.amount"].(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, amounts.DataPoints, 1)
	assert.Equal(t, uint64(2), amounts.DataPoints[0].Count)
	assert.Equal(t, 525.0, amounts.DataPoints[0].Sum)
}

type stubLowStock struct {
	calls atomic.Int32
	count int64
	err   error
}

func (s *stubLowStock) CountLowStock(context.Context) (int64, error) {
	s.calls.Add(1)
	return s.count, s.err
}

func TestBillingMetrics_LowStockCollection(t *testing.T) {
	stub := &stubLowStock{count: 4}
	bm, reader := newManualMetrics(t, stub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bm.StartLowStockCollection(ctx, time.Hour)
	bm.StartLowStockCollection(ctx, time.Hour)

	require.Eventually(t, func() bool { return stub.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	bm.Stop()
	bm.Stop()

	gauge, ok := collect(t, reader)["bookshop.stock.low_items"].(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(4), gauge.DataPoints[0].Value)
}

func TestBillingMetrics_LowStockCollectionError(t *testing.T) {
	stub := &stubLowStock{err: errors.New("db down")}
	bm, reader := newManualMetrics(t, stub)

	ctx, cancel := context.WithCancel(context.Background())
	bm.StartLowStockCollection(ctx, time.Hour)
	require.Eventually(t, func() bool { return stub.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	cancel()

	_, recorded := collect(t, reader)["bookshop.stock.low_items"]
	assert.False(t, recorded)
}
