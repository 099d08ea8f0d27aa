package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/tickguard/internal/cache"
	"github.com/GriffinCanCode/tickguard/internal/indicators"
	"github.com/GriffinCanCode/tickguard/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/tickguard/internal/shared/clock"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fakeRecorder struct {
	mu       sync.Mutex
	hits     int
	misses   int
	outcomes map[resilience.OutcomeKind]int
	ticks    int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{outcomes: make(map[resilience.OutcomeKind]int)}
}

func (r *fakeRecorder) RecordCacheLookup(_ string, hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hit {
		r.hits++
	} else {
		r.misses++
	}
}

func (r *fakeRecorder) RecordCalculation(_, _ string, out resilience.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[out.Kind]++
}

func (r *fakeRecorder) RecordTick(time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks++
}

func newTestEngine(t *testing.T, registry *indicators.Registry, opts ...EngineOption) (*Engine, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(epoch)
	opts = append([]EngineOption{WithClock(clk)}, opts...)
	return NewEngine(EngineConfig{ID: "worker-0"}, registry, opts...), clk
}

func series(prices ...float64) indicators.Series {
	return indicators.Series{Symbol: "BTCUSDT", Prices: prices}
}

var smaReq = Request{Symbol: "BTCUSDT", Timeframe: "1m", Indicator: "sma", Params: map[string]interface{}{"period": 2}}

func TestComputeMissThenHit(t *testing.T) {
	rec := newFakeRecorder()
	e, _ := newTestEngine(t, indicators.NewRegistry(), WithRecorder(rec))

	first := e.Compute(context.Background(), smaReq, series(1, 2, 3))
	require.True(t, first.OK())
	assert.Equal(t, SourceComputed, first.Source)
	assert.Equal(t, 2.5, first.Value)

	second := e.Compute(context.Background(), smaReq, series(1, 2, 3, 100))
	assert.Equal(t, SourceCache, second.Source)
	assert.Equal(t, 2.5, second.Value)

	v, ok := e.Lookup(smaReq)
	assert.True(t, ok)
	assert.Equal(t, 2.5, v)

	assert.Equal(t, 2, rec.hits)
	assert.Equal(t, 1, rec.misses)
	assert.Equal(t, 1, rec.outcomes[resilience.OutcomeOK])
}

func TestLookupCountsMatchCache(t *testing.T) {
	rec := newFakeRecorder()
	e, _ := newTestEngine(t, indicators.NewRegistry(), WithRecorder(rec))

	_, ok := e.Lookup(smaReq)
	assert.False(t, ok)

	e.Compute(context.Background(), smaReq, series(1, 2, 3))
	_, ok = e.Lookup(smaReq)
	assert.True(t, ok)

	stats := e.CacheStatistics()
	assert.Equal(t, uint64(rec.hits), stats.Hits)
	assert.Equal(t, uint64(rec.misses), stats.Misses)
	assert.Equal(t, 1, rec.hits)
	assert.Equal(t, 2, rec.misses)
}

func TestComputeRecomputesInNextBucket(t *testing.T) {
	e, clk := newTestEngine(t, indicators.NewRegistry())

	e.Compute(context.Background(), smaReq, series(1, 2, 3))
	clk.Advance(time.Minute)

	res := e.Compute(context.Background(), smaReq, series(1, 2, 3, 5))
	assert.Equal(t, SourceComputed, res.Source)
	assert.Equal(t, 4.0, res.Value)
}

func TestComputeUnavailableOnFailure(t *testing.T) {
	e, _ := newTestEngine(t, indicators.NewRegistry())

	res := e.Compute(context.Background(), smaReq, series(1))

	assert.False(t, res.OK())
	assert.Equal(t, resilience.OutcomeFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, indicators.ErrInsufficientData)

	report := e.HealthReport()
	assert.Equal(t, uint64(1), report.Performance.ErrorCounts["InsufficientDataError"])
	assert.Equal(t, 0, e.CacheStatistics().Size, "failures are not cached")
}

func TestComputeUnknownIndicator(t *testing.T) {
	e, _ := newTestEngine(t, indicators.NewRegistry())

	res := e.Compute(context.Background(), Request{Symbol: "BTCUSDT", Timeframe: "1m", Indicator: "macd"}, series(1))

	assert.False(t, res.OK())
	assert.ErrorIs(t, res.Err, indicators.ErrUnknownIndicator)
	assert.Equal(t, uint64(0), e.HealthReport().Performance.TotalCalculations)
}

func TestBrokenCalculatorOpensCircuit(t *testing.T) {
	calls := 0
	registry := indicators.NewRegistry()
	registry.Register("broken", func(ctx context.Context, s indicators.Series, _ map[string]interface{}) (float64, error) {
		calls++
		return 0, errors.New("upstream gone")
	})
	e, clk := newTestEngine(t, registry)
	req := Request{Symbol: "BTCUSDT", Timeframe: "1m", Indicator: "broken"}

	for i := 0; i < 10; i++ {
		e.Compute(context.Background(), req, series(1))
	}
	require.Equal(t, resilience.StateOpen, e.CircuitState().State)

	res := e.Compute(context.Background(), req, series(1))
	assert.Equal(t, resilience.OutcomeRejected, res.Outcome)
	assert.Equal(t, 10, calls)

	// the open circuit also shields healthy indicators on the same worker
	assert.Equal(t, resilience.OutcomeRejected, e.Compute(context.Background(), smaReq, series(1, 2)).Outcome)

	clk.Advance(time.Minute)
	assert.Equal(t, SourceComputed, e.Compute(context.Background(), smaReq, series(1, 2)).Source)
	assert.Equal(t, resilience.StateHalfOpen, e.CircuitState().State)

	e.ResetCircuit()
	assert.Equal(t, resilience.StateClosed, e.CircuitState().State)
}

func TestEngineCacheMaintenance(t *testing.T) {
	e, clk := newTestEngine(t, indicators.NewRegistry())
	last := Request{Symbol: "BTCUSDT", Timeframe: "1m", Indicator: "last_price"}
	other := Request{Symbol: "ETHUSDT", Timeframe: "1m", Indicator: "last_price"}

	e.Compute(context.Background(), smaReq, series(1, 2))
	e.Compute(context.Background(), last, series(1, 2))
	e.Compute(context.Background(), other, series(1, 2))
	require.Equal(t, 3, e.CacheStatistics().Size)

	assert.Equal(t, 1, e.InvalidateEvents("BTCUSDT"))
	assert.Equal(t, 1, e.InvalidateSymbol("BTCUSDT"))
	assert.Equal(t, 1, e.CacheStatistics().Size)

	clk.Advance(2 * time.Minute)
	assert.Equal(t, 1, e.Cleanup())

	e.Compute(context.Background(), other, series(1, 2))
	assert.Equal(t, 1, e.ClearCache())
}

func TestEngineSnapshot(t *testing.T) {
	e, _ := newTestEngine(t, indicators.NewRegistry())
	e.Compute(context.Background(), smaReq, series(1, 2))

	snap := e.Snapshot()
	assert.Equal(t, "worker-0", snap.ID)
	assert.Equal(t, 1, snap.Cache.Size)
	assert.Equal(t, uint64(1), snap.Health.Performance.TotalCalculations)
	assert.Equal(t, resilience.StatusHealthy, snap.Health.OverallStatus)
}

func TestEngineConcurrentCallers(t *testing.T) {
	e := NewEngine(EngineConfig{ID: "w", Cache: cache.Config{MaxSize: 50}}, indicators.NewRegistry(),
		WithClock(clock.NewManual(epoch)))

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				req := Request{Symbol: "BTCUSDT", Timeframe: "1m", Indicator: "sma",
					Params: map[string]interface{}{"period": 1 + (g+i)%5}}
				e.Compute(context.Background(), req, series(1, 2, 3, 4, 5))
				e.CacheStatistics()
			}
		}(g)
	}
	wg.Wait()

	stats := e.CacheStatistics()
	assert.Equal(t, uint64(400), stats.TotalAccesses)
	assert.LessOrEqual(t, stats.Size, 5)
}
