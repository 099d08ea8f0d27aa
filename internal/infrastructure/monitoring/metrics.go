package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/GriffinCanCode/tickguard/internal/cache"
	"github.com/GriffinCanCode/tickguard/internal/infrastructure/resilience"
)

const namespace = "tickguard"

var healthStatuses = []resilience.HealthStatus{
	resilience.StatusUnknown,
	resilience.StatusHealthy,
	resilience.StatusDegraded,
	resilience.StatusUnhealthy,
}

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Tick loop metrics
	Ticks               prometheus.Counter
	TickDuration        prometheus.Histogram
	CacheLookups        *prometheus.CounterVec
	CalculationOutcomes *prometheus.CounterVec
	CalculationDuration *prometheus.HistogramVec

	// Cache state, refreshed by snapshots
	CacheEntries     *prometheus.GaugeVec
	CacheUtilization *prometheus.GaugeVec
	CacheHitRate     *prometheus.GaugeVec
	CacheEvicted     *prometheus.GaugeVec
	CacheExpired     *prometheus.GaugeVec
	Volatility       *prometheus.GaugeVec

	// Breaker and health
	CircuitState       *prometheus.GaugeVec
	CircuitTransitions *prometheus.CounterVec
	CircuitRejections  *prometheus.GaugeVec
	HealthStatus       *prometheus.GaugeVec
	ErrorRate          *prometheus.GaugeVec

	// Maintenance jobs
	JobRuns     *prometheus.CounterVec
	JobDuration *prometheus.HistogramVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.GaugeFunc
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests     int64   `json:"total_requests"`
	TotalErrors       int64   `json:"total_errors"`
	TotalTicks        int64   `json:"total_ticks"`
	ActiveConnections int64   `json:"active_connections"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// NewMetrics creates a new metrics collector registered on reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{startTime: time.Now()}

	// HTTP metrics
	m.RequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	m.RequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)
	m.ResponseSize = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   []float64{100, 1000, 10000, 100000, 1000000},
		},
		[]string{"method", "path"},
	)

	// Tick loop metrics
	m.Ticks = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ticks_total",
		Help:      "Total number of completed ticks",
	})
	m.TickDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "tick_duration_seconds",
		Help:      "Wall time to process one tick across all workers",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	})
	m.CacheLookups = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Indicator cache lookups by result",
		},
		[]string{"worker", "result"},
	)
	m.CalculationOutcomes = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calculations_total",
			Help:      "Protected indicator calculations by outcome",
		},
		[]string{"worker", "indicator", "outcome"},
	)
	m.CalculationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "calculation_duration_seconds",
			Help:      "Duration of successful indicator calculations",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"indicator"},
	)

	// Cache state
	m.CacheEntries = factory.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: namespace, Name: "cache_entries", Help: "Entries held by the worker cache"},
		[]string{"worker"},
	)
	m.CacheUtilization = factory.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: namespace, Name: "cache_utilization_percent", Help: "Cache size as a percentage of its capacity"},
		[]string{"worker"},
	)
	m.CacheHitRate = factory.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: namespace, Name: "cache_hit_rate_percent", Help: "Lifetime cache hit rate"},
		[]string{"worker"},
	)
	m.CacheEvicted = factory.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: namespace, Name: "cache_evicted_entries", Help: "Entries evicted by the worker cache since start"},
		[]string{"worker"},
	)
	m.CacheExpired = factory.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: namespace, Name: "cache_expired_entries", Help: "Entries dropped for TTL expiry since start"},
		[]string{"worker"},
	)
	m.Volatility = factory.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: namespace, Name: "cache_volatility_score", Help: "Smoothed miss-rate volatility per indicator type"},
		[]string{"worker", "indicator_type"},
	)

	// Breaker and health
	m.CircuitState = factory.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: namespace, Name: "circuit_state", Help: "Circuit state (0 closed, 1 half-open, 2 open)"},
		[]string{"worker"},
	)
	m.CircuitTransitions = factory.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "circuit_transitions_total", Help: "Circuit state transitions"},
		[]string{"worker", "from", "to"},
	)
	m.CircuitRejections = factory.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: namespace, Name: "circuit_rejections", Help: "Calculations refused by an open circuit since start"},
		[]string{"worker"},
	)
	m.HealthStatus = factory.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: namespace, Name: "health_status", Help: "1 for the worker's current health status"},
		[]string{"worker", "status"},
	)
	m.ErrorRate = factory.NewGaugeVec(
		prometheus.GaugeOpts{Namespace: namespace, Name: "calculation_error_rate_percent", Help: "Lifetime calculation error rate"},
		[]string{"worker"},
	)

	// Maintenance jobs
	m.JobRuns = factory.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "job_runs_total", Help: "Maintenance job runs by status"},
		[]string{"job", "status"},
	)
	m.JobDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Maintenance job duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"job"},
	)

	// WebSocket metrics
	m.WSConnections = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
	m.WSMessages = factory.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "ws_messages_total", Help: "Total number of WebSocket messages"},
		[]string{"direction", "type"},
	)

	// System metrics
	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{Namespace: namespace, Name: "uptime_seconds", Help: "Process uptime in seconds"},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordTick records one completed tick.
func (m *Metrics) RecordTick(duration time.Duration) {
	m.Ticks.Inc()
	m.TickDuration.Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalTicks++
	m.mu.Unlock()
}

// RecordCacheLookup records a cache hit or miss.
func (m *Metrics) RecordCacheLookup(worker string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(worker, result).Inc()
}

// RecordCalculation records the outcome of a protected calculation.
func (m *Metrics) RecordCalculation(worker, indicator string, out resilience.Outcome) {
	m.CalculationOutcomes.WithLabelValues(worker, indicator, out.Kind.String()).Inc()
	if out.Kind == resilience.OutcomeOK {
		m.CalculationDuration.WithLabelValues(indicator).Observe(out.Duration.Seconds())
	}
}

// CircuitStateChanged is shaped as a resilience.Settings.OnStateChange hook.
func (m *Metrics) CircuitStateChanged(worker string, from, to resilience.State) {
	m.CircuitTransitions.WithLabelValues(worker, from.String(), to.String()).Inc()
	m.CircuitState.WithLabelValues(worker).Set(float64(to))
}

// ObserveCache publishes a cache statistics snapshot.
func (m *Metrics) ObserveCache(worker string, stats cache.Statistics) {
	m.CacheEntries.WithLabelValues(worker).Set(float64(stats.Size))
	m.CacheUtilization.WithLabelValues(worker).Set(stats.UtilizationPct)
	m.CacheHitRate.WithLabelValues(worker).Set(stats.HitRate)
	m.CacheEvicted.WithLabelValues(worker).Set(float64(stats.Evictions))
	m.CacheExpired.WithLabelValues(worker).Set(float64(stats.Expirations))
	for indicatorType, score := range stats.VolatilityScores {
		m.Volatility.WithLabelValues(worker, indicatorType).Set(score)
	}
}

// ObserveHealth publishes a health report.
func (m *Metrics) ObserveHealth(worker string, report resilience.HealthReport) {
	m.CircuitState.WithLabelValues(worker).Set(float64(report.CircuitBreaker.State))
	m.CircuitRejections.WithLabelValues(worker).Set(float64(report.Performance.Rejections))
	m.ErrorRate.WithLabelValues(worker).Set(report.Performance.ErrorRatePct)
	for _, s := range healthStatuses {
		v := 0.0
		if s == report.OverallStatus {
			v = 1
		}
		m.HealthStatus.WithLabelValues(worker, string(s)).Set(v)
	}
}

// RecordJob records a maintenance job run.
func (m *Metrics) RecordJob(job, status string, duration time.Duration) {
	m.JobRuns.WithLabelValues(job, status).Inc()
	m.JobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// Snapshot returns the current values for the JSON API.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	s := m.snapshot
	m.mu.RUnlock()
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
