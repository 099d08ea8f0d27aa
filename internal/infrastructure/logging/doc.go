// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output with durations in milliseconds
//   - Development: Colored console output for human readability
//
// Components receive a named child logger so every line carries its origin:
//
//	logger := logging.NewDefault()
//	c := cache.New(cfg, cache.WithLogger(logger.Component("cache", zap.String("worker", id))))
//	logger.Info("Server starting", zap.String("port", "8000"))
package logging
