// Package main is the entry point for the tickguard service.
//
// tickguard computes a watchlist of market indicators on every tick. Each
// worker serves values from an adaptive TTL cache and runs calculations
// behind a circuit breaker with health monitoring.
//
// The server provides:
//   - REST API for worker stats and operator actions
//   - WebSocket streaming of live snapshots
//   - Prometheus metrics
//   - Rate limiting
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	./server -port 8000 -workers 4 -watchlist watchlist.yaml
//
//	# Development mode (colored logs, debug level)
//	./server -dev -log-level debug
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
