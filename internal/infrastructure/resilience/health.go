package resilience

import (
	"sort"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// HealthStatus classifies a monitor.
type HealthStatus string

const (
	StatusUnknown   HealthStatus = "UNKNOWN"
	StatusHealthy   HealthStatus = "HEALTHY"
	StatusDegraded  HealthStatus = "DEGRADED"
	StatusUnhealthy HealthStatus = "UNHEALTHY"
)

const (
	unhealthyLatency   = time.Second
	degradedLatency    = 500 * time.Millisecond
	unhealthyErrorRate = 0.10
	degradedErrorRate  = 0.05
)

// Performance summarizes calculation latency and errors.
type Performance struct {
	AvgCalculationTimeMs float64           `json:"avg_calculation_time_ms"`
	P95CalculationTimeMs float64           `json:"p95_calculation_time_ms"`
	TotalCalculations    uint64            `json:"total_calculations"`
	TotalErrors          uint64            `json:"total_errors"`
	ErrorRatePct         float64           `json:"error_rate_pct"`
	ErrorCounts          map[string]uint64 `json:"error_counts"`
	Rejections           uint64            `json:"rejections"`
}

// HealthReport is the full health snapshot of a monitor.
type HealthReport struct {
	OverallStatus  HealthStatus `json:"overall_status"`
	CircuitBreaker CircuitState `json:"circuit_breaker"`
	Performance    Performance  `json:"performance"`
}

// Status returns the last classified status without refreshing it.
func (m *HealthMonitor) Status() HealthStatus {
	return m.status
}

// UpdateHealthStatus reclassifies the monitor. It runs at most once per
// HealthInterval and reports whether it ran.
func (m *HealthMonitor) UpdateHealthStatus() bool {
	now := m.clock.Now()
	if !m.lastHealthUpd.IsZero() && now.Sub(m.lastHealthUpd) < m.settings.HealthInterval {
		return false
	}
	m.lastHealthUpd = now

	prev := m.status
	m.status = m.classify()
	if prev != m.status {
		m.logger.Info("health status changed",
			zap.String("monitor", m.name),
			zap.String("from", string(prev)),
			zap.String("to", string(m.status)),
		)
	}
	return true
}

func (m *HealthMonitor) classify() HealthStatus {
	if m.durations.len() == 0 && m.totalCalculations == 0 && m.totalErrors == 0 {
		return StatusUnknown
	}

	avg := m.durations.mean()
	rate := m.errorRate()

	switch {
	case avg > unhealthyLatency || rate > unhealthyErrorRate:
		return StatusUnhealthy
	case avg > degradedLatency || rate > degradedErrorRate:
		return StatusDegraded
	default:
		return StatusHealthy
	}
}

func (m *HealthMonitor) errorRate() float64 {
	calcs := m.totalCalculations
	if calcs == 0 {
		calcs = 1
	}
	return float64(m.totalErrors) / float64(calcs)
}

// HealthReport refreshes the health status (subject to its rate limit) and returns a snapshot.
func (m *HealthMonitor) HealthReport() HealthReport {
	m.UpdateHealthStatus()

	counts := make(map[string]uint64, len(m.errorCounts))
	for k, v := range m.errorCounts {
		counts[k] = v
	}

	return HealthReport{
		OverallStatus:  m.status,
		CircuitBreaker: m.CircuitState(),
		Performance: Performance{
			AvgCalculationTimeMs: toMillis(m.durations.mean()),
			P95CalculationTimeMs: toMillis(m.durations.quantile(0.95)),
			TotalCalculations:    m.totalCalculations,
			TotalErrors:          m.totalErrors,
			ErrorRatePct:         m.errorRate() * 100,
			ErrorCounts:          counts,
			Rejections:           m.rejections,
		},
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// durationRing keeps the most recent calculation durations.
type durationRing struct {
	buf  []time.Duration
	next int
	full bool
}

func newDurationRing(size int) *durationRing {
	return &durationRing{buf: make([]time.Duration, size)}
}

func (r *durationRing) add(d time.Duration) {
	r.buf[r.next] = d
	r.next++
	if r.next == len(r.buf) {
		r.next = 0
		r.full = true
	}
}

func (r *durationRing) len() int {
	if r.full {
		return len(r.buf)
	}
	return r.next
}

func (r *durationRing) samples() []float64 {
	n := r.len()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = float64(r.buf[i])
	}
	return out
}

func (r *durationRing) mean() time.Duration {
	s := r.samples()
	if len(s) == 0 {
		return 0
	}
	return time.Duration(stat.Mean(s, nil))
}

func (r *durationRing) quantile(p float64) time.Duration {
	s := r.samples()
	if len(s) == 0 {
		return 0
	}
	sort.Float64s(s)
	return time.Duration(stat.Quantile(p, stat.Empirical, s, nil))
}
