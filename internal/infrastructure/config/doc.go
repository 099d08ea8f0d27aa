// Package config provides 12-factor configuration management for the tick pipeline.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting for the admin API
//   - Cache: Per-worker indicator cache size and TTLs
//   - Breaker: Per-worker circuit breaker thresholds
//   - Pipeline: Tick interval, worker count, watchlist file
//   - Maintenance: Cron schedules for cleanup and metric snapshots
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST, LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - CACHE_MAX_SIZE, CACHE_BASE_TTL, CACHE_BUCKET_SIZE
//   - BREAKER_FAILURE_THRESHOLD, BREAKER_SUCCESS_THRESHOLD, BREAKER_TIMEOUT, BREAKER_RECOVERY_TIMEOUT
//   - TICK_INTERVAL, WORKERS, WATCHLIST_PATH, HISTORY_LENGTH
//   - CLEANUP_SCHEDULE, SNAPSHOT_SCHEDULE
package config
