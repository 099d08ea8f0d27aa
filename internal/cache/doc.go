/*
Package cache provides the adaptive TTL cache that sits in front of per-tick
indicator calculations.

# Overview

Values are keyed by a fingerprint of (symbol, indicator type, timeframe,
parameters). Periodic and windowed indicator types add a wall-clock time
bucket to the key so a value is reused only inside its bucket; event-driven
types are keyed without a bucket.

# Features

- Lazy TTL expiry on read, plus an explicit Cleanup sweep
- Adaptive TTL per indicator type driven by a smoothed miss-rate volatility score
- LRU eviction once size reaches the high watermark (80% of MaxSize)
- Rolling access history for hit-rate and volatility statistics

# Concurrency

A Cache is not safe for concurrent use. Give each worker its own instance or
serialize access at the call site.

# Usage

	c := cache.New(cache.DefaultConfig(), cache.WithLogger(logger))

	key := c.Key("ema", "BTCUSDT", "1m", map[string]interface{}{"period": 20})
	if v, ok := c.Get(key); ok {
		return v
	}
	v := compute()
	c.Set(key, v, 0) // 0 selects the adaptive TTL
*/
package cache
