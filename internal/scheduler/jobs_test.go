package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/tickguard/internal/indicators"
	"github.com/GriffinCanCode/tickguard/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/tickguard/internal/pipeline"
	"github.com/GriffinCanCode/tickguard/internal/shared/clock"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newEngines(t *testing.T, clk clock.Clock, n int) []*pipeline.Engine {
	t.Helper()
	registry := indicators.NewRegistry()
	engines := make([]*pipeline.Engine, n)
	for i := range engines {
		engines[i] = pipeline.NewEngine(pipeline.EngineConfig{ID: string(rune('a' + i))}, registry, pipeline.WithClock(clk))
	}
	return engines
}

func fill(e *pipeline.Engine, symbols ...string) {
	for _, s := range symbols {
		e.Compute(context.Background(),
			pipeline.Request{Symbol: s, Timeframe: "1m", Indicator: "last_price"},
			indicators.Series{Symbol: s, Prices: []float64{1}})
	}
}

func TestCleanupJob(t *testing.T) {
	clk := clock.NewManual(epoch)
	engines := newEngines(t, clk, 2)
	fill(engines[0], "BTCUSDT", "ETHUSDT")
	fill(engines[1], "SOLUSDT")

	job := NewCleanupJob(Workers(engines), zap.NewNop())
	assert.Equal(t, "cache_cleanup", job.Name())

	require.NoError(t, job.Run())
	assert.Equal(t, 2, engines[0].CacheStatistics().Size, "nothing expired yet")

	clk.Advance(2 * time.Minute)
	require.NoError(t, job.Run())
	assert.Equal(t, 0, engines[0].CacheStatistics().Size)
	assert.Equal(t, 0, engines[1].CacheStatistics().Size)
}

func TestSnapshotJob(t *testing.T) {
	clk := clock.NewManual(epoch)
	engines := newEngines(t, clk, 2)
	fill(engines[0], "BTCUSDT", "ETHUSDT")
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())

	job := NewSnapshotJob(Workers(engines), metrics, zap.NewNop())
	assert.Equal(t, "snapshot", job.Name())
	require.NoError(t, job.Run())

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.CacheEntries.WithLabelValues("a")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.CacheEntries.WithLabelValues("b")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.HealthStatus.WithLabelValues("a", "HEALTHY")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.HealthStatus.WithLabelValues("b", "UNKNOWN")))
	assert.InDelta(t, 0.65, testutil.ToFloat64(metrics.Volatility.WithLabelValues("a", "last_price")), 1e-9)
}
