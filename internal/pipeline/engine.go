package pipeline

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/tickguard/internal/cache"
	"github.com/GriffinCanCode/tickguard/internal/indicators"
	"github.com/GriffinCanCode/tickguard/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/tickguard/internal/shared/clock"
)

// Recorder receives per-calculation metrics. monitoring.Metrics implements it.
type Recorder interface {
	RecordCacheLookup(worker string, hit bool)
	RecordCalculation(worker, indicator string, out resilience.Outcome)
}

type nopRecorder struct{}

func (nopRecorder) RecordCacheLookup(string, bool)                       {}
func (nopRecorder) RecordCalculation(string, string, resilience.Outcome) {}

// Source tells where a result value came from.
type Source string

const (
	SourceCache       Source = "cache"
	SourceComputed    Source = "computed"
	SourceUnavailable Source = "unavailable"
)

// Request identifies one indicator value.
type Request struct {
	Symbol    string
	Timeframe string
	Indicator string
	Params    map[string]interface{}
}

// Result is the outcome of Engine.Compute.
type Result struct {
	Symbol    string                 `json:"symbol"`
	Timeframe string                 `json:"timeframe"`
	Indicator string                 `json:"indicator"`
	Value     float64                `json:"value"`
	Source    Source                 `json:"source"`
	Outcome   resilience.OutcomeKind `json:"-"`
	Err       error                  `json:"-"`
}

// OK reports whether the result carries a value.
func (r Result) OK() bool {
	return r.Source != SourceUnavailable
}

// EngineConfig configures one worker.
type EngineConfig struct {
	ID      string
	Cache   cache.Config
	Breaker resilience.Settings
}

// EngineOption customizes an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	clock    clock.Clock
	logger   *zap.Logger
	recorder Recorder
}

// WithClock drives the engine's cache and monitor from c.
func WithClock(c clock.Clock) EngineOption {
	return func(o *engineOptions) { o.clock = c }
}

// WithLogger sets the engine logger; the cache and monitor get named children.
func WithLogger(l *zap.Logger) EngineOption {
	return func(o *engineOptions) { o.logger = l }
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) EngineOption {
	return func(o *engineOptions) { o.recorder = r }
}

// Engine is one worker: a private cache and health monitor behind a mutex.
type Engine struct {
	id       string
	registry *indicators.Registry
	logger   *zap.Logger
	recorder Recorder

	mu      sync.Mutex
	cache   *cache.Cache
	monitor *resilience.HealthMonitor
}

// NewEngine creates a worker with its own cache and monitor.
func NewEngine(cfg EngineConfig, registry *indicators.Registry, opts ...EngineOption) *Engine {
	o := engineOptions{
		clock:    clock.Real{},
		logger:   zap.NewNop(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.With(zap.String("worker", cfg.ID))

	return &Engine{
		id:       cfg.ID,
		registry: registry,
		logger:   logger,
		recorder: o.recorder,
		cache: cache.New(cfg.Cache,
			cache.WithClock(o.clock),
			cache.WithLogger(logger.Named("cache")),
		),
		monitor: resilience.NewHealthMonitor(cfg.ID, cfg.Breaker,
			resilience.WithClock(o.clock),
			resilience.WithLogger(logger.Named("breaker")),
		),
	}
}

// ID returns the worker id.
func (e *Engine) ID() string {
	return e.id
}

// Lookup returns a cached value without computing.
func (e *Engine) Lookup(req Request) (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := e.cache.Key(req.Indicator, req.Symbol, req.Timeframe, req.Params)
	v, ok := e.cache.Get(key)
	e.recorder.RecordCacheLookup(e.id, ok)
	return v, ok
}

// Compute serves req from the cache or, on a miss, runs its calculator under
// the health monitor and caches a successful value with an adaptive TTL.
// Failures are never returned as errors: the result is marked unavailable and
// Err says why, for logging.
func (e *Engine) Compute(ctx context.Context, req Request, series indicators.Series) Result {
	res := Result{
		Symbol:    req.Symbol,
		Timeframe: req.Timeframe,
		Indicator: req.Indicator,
		Source:    SourceUnavailable,
	}

	calc, err := e.registry.Get(req.Indicator)
	if err != nil {
		res.Outcome = resilience.OutcomeFailed
		res.Err = err
		return res
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	key := e.cache.Key(req.Indicator, req.Symbol, req.Timeframe, req.Params)
	if v, ok := e.cache.Get(key); ok {
		e.recorder.RecordCacheLookup(e.id, true)
		res.Value = v
		res.Source = SourceCache
		res.Outcome = resilience.OutcomeOK
		return res
	}
	e.recorder.RecordCacheLookup(e.id, false)

	params := req.Params
	out := e.monitor.Attempt(ctx, func(ctx context.Context) (float64, error) {
		return calc(ctx, series, params)
	}, map[string]string{
		"symbol":    req.Symbol,
		"indicator": req.Indicator,
		"timeframe": req.Timeframe,
	})
	e.recorder.RecordCalculation(e.id, req.Indicator, out)

	res.Outcome = out.Kind
	res.Err = out.Err
	if out.Kind != resilience.OutcomeOK {
		return res
	}

	e.cache.Set(key, out.Value, 0)
	res.Value = out.Value
	res.Source = SourceComputed
	return res
}

// CacheStatistics returns the cache statistics (refreshing volatility).
func (e *Engine) CacheStatistics() cache.Statistics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cache.Statistics()
}

// HealthReport returns the monitor's health report.
func (e *Engine) HealthReport() resilience.HealthReport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.monitor.HealthReport()
}

// CircuitState returns the breaker snapshot.
func (e *Engine) CircuitState() resilience.CircuitState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.monitor.CircuitState()
}

// ResetCircuit forces the worker's circuit closed.
func (e *Engine) ResetCircuit() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.monitor.ResetCircuit()
}

// Cleanup drops expired cache entries.
func (e *Engine) Cleanup() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cache.Cleanup()
}

// ClearCache drops every cache entry.
func (e *Engine) ClearCache() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cache.Clear()
}

// InvalidateSymbol drops every cached value of a symbol.
func (e *Engine) InvalidateSymbol(symbol string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cache.InvalidateSymbol(symbol)
}

// InvalidateEvents retires the symbol's event-driven values after a new tick.
func (e *Engine) InvalidateEvents(symbol string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cache.InvalidateEvents(symbol)
}

// Snapshot is a point-in-time view of one worker.
type Snapshot struct {
	ID     string                  `json:"id"`
	Cache  cache.Statistics        `json:"cache"`
	Health resilience.HealthReport `json:"health"`
}

// Snapshot captures cache statistics and health under one lock.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		ID:     e.id,
		Cache:  e.cache.Statistics(),
		Health: e.monitor.HealthReport(),
	}
}
