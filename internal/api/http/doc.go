// Package http provides the HTTP handlers of the tickguard stats API.
//
// Handlers read from and operate on the tick driver's workers. Every worker
// owns one cache and one health monitor, addressed by its id.
//
// Endpoints:
//   - Health: / and /health
//   - Workers: /workers, /workers/:id/cache, /workers/:id/health
//   - Operator actions: POST /workers/:id/circuit/reset,
//     POST /workers/:id/cache/cleanup, DELETE /workers/:id/cache,
//     DELETE /workers/:id/cache/symbols/:symbol
//   - Values: /indicators?symbol=BTCUSDT
//   - Metrics: /metrics (Prometheus text), /metrics/json
//
// Example Usage:
//
//	handlers := http.NewHandlers(driver, metrics, logger)
//	router.GET("/health", handlers.Health)
//	router.POST("/workers/:id/circuit/reset", handlers.ResetCircuit)
package http
