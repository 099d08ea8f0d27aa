package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GriffinCanCode/tickguard/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/tickguard/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/tickguard/internal/pipeline"
)

// Prometheus serves the text exposition format for g.
func Prometheus(g prometheus.Gatherer) gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}

// MetricsSnapshot is the JSON view of the service and its workers
type MetricsSnapshot struct {
	Timestamp time.Time                   `json:"timestamp"`
	Service   *monitoring.MetricsSnapshot `json:"service,omitempty"`
	Workers   []pipeline.Snapshot         `json:"workers"`
	Summary   MetricsSummary              `json:"summary"`
}

// MetricsSummary rolls the worker snapshots up into service-wide numbers
type MetricsSummary struct {
	TotalCalculations uint64  `json:"total_calculations"`
	TotalErrors       uint64  `json:"total_errors"`
	ErrorRatePct      float64 `json:"error_rate_pct"`
	Rejections        uint64  `json:"rejections"`
	CacheEntries      int     `json:"cache_entries"`
	CacheHitRate      float64 `json:"cache_hit_rate"`
	OpenCircuits      int     `json:"open_circuits"`
	UnhealthyWorkers  int     `json:"unhealthy_workers"`
}

// MetricsJSON returns the aggregated metrics snapshot
func (h *Handlers) MetricsJSON(c *gin.Context) {
	engines := h.driver.Engines()
	snap := MetricsSnapshot{
		Timestamp: time.Now(),
		Workers:   make([]pipeline.Snapshot, 0, len(engines)),
	}
	for _, e := range engines {
		snap.Workers = append(snap.Workers, e.Snapshot())
	}
	snap.Summary = summarize(snap.Workers)

	if h.metrics != nil {
		service := h.metrics.Snapshot()
		snap.Service = &service
	}
	c.JSON(http.StatusOK, snap)
}

func summarize(workers []pipeline.Snapshot) MetricsSummary {
	var (
		s      MetricsSummary
		hits   uint64
		lookup uint64
	)
	for _, w := range workers {
		perf := w.Health.Performance
		s.TotalCalculations += perf.TotalCalculations
		s.TotalErrors += perf.TotalErrors
		s.Rejections += perf.Rejections
		s.CacheEntries += w.Cache.Size
		hits += w.Cache.Hits
		lookup += w.Cache.TotalAccesses

		if w.Health.CircuitBreaker.State == resilience.StateOpen {
			s.OpenCircuits++
		}
		if w.Health.OverallStatus == resilience.StatusUnhealthy {
			s.UnhealthyWorkers++
		}
	}
	if s.TotalCalculations > 0 {
		s.ErrorRatePct = float64(s.TotalErrors) / float64(s.TotalCalculations) * 100
	}
	if lookup > 0 {
		s.CacheHitRate = float64(hits) / float64(lookup) * 100
	}
	return s
}
