// Package server wires the tickguard components into a running service.
//
// This package orchestrates all components:
//   - Logger and Prometheus registry
//   - Indicator registry and watchlist
//   - One engine per worker, each with its own cache and health monitor
//   - Tick driver fed by the synthetic market feed
//   - Cron maintenance jobs (cache cleanup, metrics snapshot)
//   - HTTP routing with Gin and the WebSocket stream
//
// Server Lifecycle:
//  1. Load configuration from environment/flags
//  2. Initialize logger (production or development)
//  3. Load and validate the watchlist
//  4. Build the worker engines and the tick driver
//  5. Register maintenance jobs
//  6. Setup HTTP routes and middleware
//  7. Run HTTP, ticks and jobs until the context ends
//  8. Graceful shutdown
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.NewServer(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = srv.Run(ctx)
package server
