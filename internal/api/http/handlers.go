package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/tickguard/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/tickguard/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/tickguard/internal/pipeline"
	"github.com/GriffinCanCode/tickguard/internal/shared/utils"
)

// Version is reported by the root endpoint.
const Version = "0.3.0"

// Handlers contains all HTTP handlers
type Handlers struct {
	driver  *pipeline.Driver
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

// NewHandlers creates a new handler set. metrics and logger may be nil.
func NewHandlers(driver *pipeline.Driver, metrics *monitoring.Metrics, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		driver:  driver,
		metrics: metrics,
		logger:  logger,
	}
}

// Root handles the liveness probe
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "tickguard",
		"version": Version,
	})
}

// Health reports the run, the last tick and every worker's classification.
// The service is degraded while any worker is unhealthy or has an open circuit.
func (h *Handlers) Health(c *gin.Context) {
	status := "healthy"
	workers := make(map[string]gin.H, len(h.driver.Engines()))
	for _, e := range h.driver.Engines() {
		report := e.HealthReport()
		if report.OverallStatus == resilience.StatusUnhealthy ||
			report.CircuitBreaker.State == resilience.StateOpen {
			status = "degraded"
		}
		workers[e.ID()] = gin.H{
			"status":  report.OverallStatus,
			"circuit": report.CircuitBreaker.State,
		}
	}

	body := gin.H{
		"status":    status,
		"run_id":    h.driver.RunID(),
		"last_tick": h.driver.LastTick(),
		"workers":   workers,
	}
	if h.metrics != nil {
		body["metrics"] = h.metrics.Snapshot()
	}
	c.JSON(http.StatusOK, body)
}

// ListWorkers returns a snapshot of every worker
func (h *Handlers) ListWorkers(c *gin.Context) {
	engines := h.driver.Engines()
	snapshots := make([]pipeline.Snapshot, 0, len(engines))
	for _, e := range engines {
		snapshots = append(snapshots, e.Snapshot())
	}
	c.JSON(http.StatusOK, gin.H{
		"workers": snapshots,
		"count":   len(snapshots),
	})
}

// WorkerCache returns one worker's cache statistics
func (h *Handlers) WorkerCache(c *gin.Context) {
	e, ok := h.worker(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, e.CacheStatistics())
}

// WorkerHealth returns one worker's health report
func (h *Handlers) WorkerHealth(c *gin.Context) {
	e, ok := h.worker(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, e.HealthReport())
}

// ResetCircuit forces a worker's circuit closed
func (h *Handlers) ResetCircuit(c *gin.Context) {
	e, ok := h.worker(c)
	if !ok {
		return
	}
	e.ResetCircuit()
	h.logger.Info("circuit reset by operator", zap.String("worker", e.ID()))

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"worker":  e.ID(),
		"circuit": e.CircuitState(),
	})
}

// CleanupCache drops a worker's expired entries
func (h *Handlers) CleanupCache(c *gin.Context) {
	e, ok := h.worker(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"worker":  e.ID(),
		"removed": e.Cleanup(),
	})
}

// ClearCache drops every entry of a worker's cache
func (h *Handlers) ClearCache(c *gin.Context) {
	e, ok := h.worker(c)
	if !ok {
		return
	}
	cleared := e.ClearCache()
	h.logger.Info("cache cleared by operator",
		zap.String("worker", e.ID()),
		zap.Int("cleared", cleared),
	)
	c.JSON(http.StatusOK, gin.H{
		"worker":  e.ID(),
		"cleared": cleared,
	})
}

// InvalidateSymbol drops every cached value of one symbol on a worker
func (h *Handlers) InvalidateSymbol(c *gin.Context) {
	e, ok := h.worker(c)
	if !ok {
		return
	}

	symbol := strings.ToUpper(c.Param("symbol"))
	if err := utils.ValidateSymbol(symbol); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"worker":  e.ID(),
		"symbol":  symbol,
		"removed": e.InvalidateSymbol(symbol),
	})
}

// ListIndicators returns the latest value of every subscribed indicator.
// The optional symbol query narrows the list.
func (h *Handlers) ListIndicators(c *gin.Context) {
	results := h.driver.Latest()

	if symbol := c.Query("symbol"); symbol != "" {
		symbol = strings.ToUpper(symbol)
		if err := utils.ValidateSymbol(symbol); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		filtered := results[:0]
		for _, r := range results {
			if r.Symbol == symbol {
				filtered = append(filtered, r)
			}
		}
		results = filtered
	}

	c.JSON(http.StatusOK, gin.H{
		"indicators": results,
		"count":      len(results),
		"tick":       h.driver.LastTick(),
	})
}

func (h *Handlers) worker(c *gin.Context) (*pipeline.Engine, bool) {
	id := c.Param("id")
	e, ok := h.driver.Engine(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown worker: " + id})
		return nil, false
	}
	return e, true
}
