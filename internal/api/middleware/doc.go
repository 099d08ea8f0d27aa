// Package middleware provides the HTTP middleware stack for the stats API.
//
// Middleware stack includes:
//   - CORS: Cross-origin resource sharing with configurable origins
//   - RateLimit: Per-IP token bucket rate limiting
//   - Logger: One structured zap line per request
//
// Rate Limiting:
//   - Per-IP token buckets held in a bounded LRU
//   - Configurable RPS and burst capacity
//   - Global rate limiting option
//   - Rejections answer 429 with a Retry-After header
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
