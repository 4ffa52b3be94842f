package telemetry

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

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

func TestBridge_Disabled(t *testing.T) {
	lp, err := NewLoggerProvider(context.Background(), LogsConfig{}, nil)
	require.NoError(t, err)

	base := zap.NewNop()
	assert.Same(t, base, lp.Bridge(base, zapcore.InfoLevel))
	assert.NoError(t, lp.Shutdown(context.Background()))
}

func TestBridge_TeesToCollector(t *testing.T) {
	exporter := &memoryExporter{}
	sdk := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter)))
	lp := NewLoggerProviderFromSDK(sdk, "storefront-test")
	t.Cleanup(func() { _ = lp.Shutdown(context.Background()) })

	core, logs := observer.New(zapcore.DebugLevel)
	logger := lp.Bridge(zap.New(core), zapcore.InfoLevel)

	logger.Debug("cart loaded")
	logger.Info("order placed", zap.String("order_number", "ORD-20261019-ABC123"))

	assert.Equal(t, 2, logs.Len(), "base core keeps every entry")
	assert.Equal(t, []string{"order placed"}, exporter.bodies())
}
