package cache

import (
	"math"
	"time"
)

// Config defines cache sizing and timing behaviour.
type Config struct {
	// MaxSize is the nominal capacity; eviction starts at HighWatermark of it
	MaxSize int
	// BaseTTL is the TTL before volatility scaling
	BaseTTL time.Duration
	// BucketSize is the width of the time bucket for time-bucketed indicator types
	BucketSize time.Duration
	// HighWatermark is the fraction of MaxSize that triggers eviction
	HighWatermark float64
	// VolatilityWindow is the minimum interval between volatility updates
	VolatilityWindow time.Duration
	// RecentWindow bounds the rolling hit rate reported by Statistics
	RecentWindow time.Duration
	// HistorySize is the number of access records retained
	HistorySize int
	// TimeBucketedTypes lists the periodic/windowed indicator types
	TimeBucketedTypes []string
}

// DefaultTimeBucketedTypes are the periodic and windowed indicator families.
// Everything else (last price, spread) is treated as event-driven.
var DefaultTimeBucketedTypes = []string{
	"ema",
	"sma",
	"rsi",
	"bollinger_upper",
	"bollinger_lower",
	"vwap",
	"twap",
}

// DefaultConfig returns the production cache configuration.
func DefaultConfig() Config {
	return Config{
		MaxSize:           10000,
		BaseTTL:           60 * time.Second,
		BucketSize:        60 * time.Second,
		HighWatermark:     0.8,
		VolatilityWindow:  10 * time.Minute,
		RecentWindow:      5 * time.Minute,
		HistorySize:       1000,
		TimeBucketedTypes: DefaultTimeBucketedTypes,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MaxSize <= 0 {
		c.MaxSize = def.MaxSize
	}
	if c.BaseTTL <= 0 {
		c.BaseTTL = def.BaseTTL
	}
	if c.BucketSize <= 0 {
		c.BucketSize = def.BucketSize
	} else if c.BucketSize < time.Second {
		// Buckets are whole Unix seconds.
		c.BucketSize = time.Second
	}
	if c.HighWatermark <= 0 || c.HighWatermark > 1 {
		c.HighWatermark = def.HighWatermark
	}
	if c.VolatilityWindow <= 0 {
		c.VolatilityWindow = def.VolatilityWindow
	}
	if c.RecentWindow <= 0 {
		c.RecentWindow = def.RecentWindow
	}
	if c.HistorySize <= 0 {
		c.HistorySize = def.HistorySize
	}
	if c.TimeBucketedTypes == nil {
		c.TimeBucketedTypes = def.TimeBucketedTypes
	}
	return c
}

// highWatermark returns the entry count at which eviction kicks in.
func (c Config) highWatermark() int {
	hw := int(math.Floor(float64(c.MaxSize)*c.HighWatermark + 1e-9))
	if hw < 1 {
		hw = 1
	}
	return hw
}

// evictionBatch is the number of entries removed per EnforceLimits pass.
func (c Config) evictionBatch() int {
	n := c.MaxSize / 5
	if n < 1 {
		n = 1
	}
	return n
}
