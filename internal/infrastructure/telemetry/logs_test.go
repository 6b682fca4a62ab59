package telemetry

import (
	"context"
	"runtime/pprof"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// memoryExporter keeps exported records for inspection
type memoryExporter struct {
	mu      sync.Mutex
	records []sdklog.Record
}

func (e *memoryExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range records {
		e.records = append(e.records, r.Clone())
	}
	return nil
}

func (e *memoryExporter) Shutdown(context.Context) error   { return nil }
func (e *memoryExporter) ForceFlush(context.Context) error { return nil }

func (e *memoryExporter) bodies() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.records))
	for _, r := range e.records {
		out = append(out, r.Body().AsString())
	}
	return out
}

func TestBridgeLogger_TeesAboveLevel(t *testing.T) {
	exporter := &memoryExporter{}
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter)))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	lp := newLoggerProviderWith(provider, "bookshop-test")

	core, logs := observer.New(zapcore.DebugLevel)
	log := BridgeLogger(zap.New(core), lp, zapcore.InfoLevel)

	log.Debug("stock checked")
	log.Info("bill created", zap.String("bill_number", "BILL000001"))
	log.Warn("retrying checkout")

	// the original core still sees everything
	assert.Equal(t, 3, logs.Len())
	assert.Equal(t, []string{"bill created", "retrying checkout"}, exporter.bodies())
}

func TestBridgeLogger_DisabledReturnsOriginal(t *testing.T) {
	base := zap.NewNop()
	lp, err := NewLoggerProvider(context.Background(), LogsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, lp.IsEnabled())
	assert.Same(t, base, BridgeLogger(base, lp, zapcore.InfoLevel))
	assert.NoError(t, lp.ForceFlush(context.Background()))
	assert.NoError(t, lp.Shutdown(context.Background()))
}

func TestProfiler_DisabledIsNoop(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}

func TestProfiler_RequiresAddress(t *testing.T) {
	_, err := NewProfiler(ProfilerConfig{Enabled: true, ApplicationName: "bookshop"}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewProfiler(ProfilerConfig{Enabled: true, ServerAddress: "http://localhost:4040"}, zap.NewNop())
	assert.Error(t, err)
}

func TestWithProfilingLabels(t *testing.T) {
	var seen string
	WithProfilingLabels(context.Background(), map[string]string{"operation": "overdue_sweep", "empty": ""}, func(ctx context.Context) {
		seen, _ = pprof.Label(ctx, "operation")
		_, ok := pprof.Label(ctx, "empty")
		assert.False(t, ok)
	})
	assert.Equal(t, "overdue_sweep", seen)

	called := false
	WithProfilingLabels(context.Background(), nil, func(context.Context) { called = true })
	assert.True(t, called)
}

func TestEnableSpanProfiles_NoopWhenDisabled(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	tp.EnableSpanProfiles()
	assert.False(t, tp.SpanProfilesEnabled())
}
