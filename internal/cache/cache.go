package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/tickguard/internal/shared/clock"
)

// entry is a single cached indicator value.
type entry struct {
	value        float64
	storedAt     time.Time
	ttl          time.Duration
	hitCount     int
	lastAccessAt time.Time
}

func (e *entry) expired(now time.Time) bool {
	return now.Sub(e.storedAt) > e.ttl
}

// Cache is an adaptive TTL cache with LRU eviction under a capacity watermark.
type Cache struct {
	cfg    Config
	clock  clock.Clock
	logger *zap.Logger

	// entries is ordered least to most recently accessed
	entries  *simplelru.LRU[string, *entry]
	bucketed map[string]struct{}

	history    *accessHistory
	volatility map[string]float64
	lastVolUpd time.Time

	hits        uint64
	misses      uint64
	evictions   uint64
	expirations uint64
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock sets the time source.
func WithClock(clk clock.Clock) Option {
	return func(c *Cache) {
		c.clock = clk
	}
}

// WithLogger sets the logger for eviction and volatility events.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a cache. Zero fields of cfg take their DefaultConfig values.
func New(cfg Config, opts ...Option) *Cache {
	cfg = cfg.withDefaults()

	// The LRU never reaches its own capacity: EnforceLimits trims at the watermark first.
	entries, err := simplelru.NewLRU[string, *entry](cfg.MaxSize, nil)
	if err != nil {
		panic(err) // only returned for non-positive size, which withDefaults rules out
	}

	c := &Cache{
		cfg:        cfg,
		clock:      clock.Real{},
		logger:     zap.NewNop(),
		entries:    entries,
		bucketed:   make(map[string]struct{}, len(cfg.TimeBucketedTypes)),
		history:    newAccessHistory(cfg.HistorySize),
		volatility: make(map[string]float64),
	}
	for _, t := range cfg.TimeBucketedTypes {
		c.bucketed[t] = struct{}{}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached value for key. Expired entries are purged and
// reported as a miss. Get never blocks and never fails.
func (c *Cache) Get(key string) (float64, bool) {
	now := c.clock.Now()

	e, ok := c.entries.Peek(key)
	if !ok {
		c.recordAccess(now, key, false)
		return 0, false
	}

	if e.expired(now) {
		c.entries.Remove(key)
		c.expirations++
		c.recordAccess(now, key, false)
		return 0, false
	}

	c.entries.Get(key) // refresh LRU position
	e.hitCount++
	e.lastAccessAt = now
	c.recordAccess(now, key, true)
	return e.value, true
}

// Set stores value under key. A non-positive ttl selects CalculateTTL(key).
// Reaching the high watermark triggers EnforceLimits before Set returns.
func (c *Cache) Set(key string, value float64, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.CalculateTTL(key)
	}

	now := c.clock.Now()
	c.entries.Add(key, &entry{
		value:        value,
		storedAt:     now,
		ttl:          ttl,
		lastAccessAt: now,
	})

	if c.entries.Len() >= c.cfg.highWatermark() {
		c.EnforceLimits()
	}
}

// Delete removes key and reports whether it was present.
func (c *Cache) Delete(key string) bool {
	return c.entries.Remove(key)
}

// InvalidateSymbol removes every entry belonging to symbol.
func (c *Cache) InvalidateSymbol(symbol string) int {
	removed := 0
	for _, key := range c.entries.Keys() {
		if symbolOf(key) == symbol && c.entries.Remove(key) {
			removed++
		}
	}
	if removed > 0 {
		c.logger.Debug("cache symbol invalidated",
			zap.String("symbol", symbol),
			zap.Int("removed", removed),
		)
	}
	return removed
}

// InvalidateEvents removes the entries of symbol whose indicator type is event
// driven. Those keys carry no time bucket, so a new tick has to retire them.
func (c *Cache) InvalidateEvents(symbol string) int {
	removed := 0
	for _, key := range c.entries.Keys() {
		if symbolOf(key) != symbol || c.isTimeBucketed(IndicatorTypeOf(key)) {
			continue
		}
		if c.entries.Remove(key) {
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, including not yet purged expired ones.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// EnforceLimits evicts max(1, MaxSize/5) entries once size reaches the high
// watermark and is a no-op below it. It returns the number evicted.
func (c *Cache) EnforceLimits() int {
	if c.entries.Len() < c.cfg.highWatermark() {
		return 0
	}
	return c.Evict(c.cfg.evictionBatch())
}

// Evict removes the n least recently accessed entries regardless of TTL.
func (c *Cache) Evict(n int) int {
	evicted := 0
	for evicted < n {
		if _, _, ok := c.entries.RemoveOldest(); !ok {
			break
		}
		evicted++
	}

	if evicted > 0 {
		c.evictions += uint64(evicted)
		c.logger.Info("cache eviction",
			zap.Int("evicted", evicted),
			zap.Int("remaining", c.entries.Len()),
			zap.Int("max_size", c.cfg.MaxSize),
		)
	}
	return evicted
}

// Cleanup removes every TTL-expired entry regardless of size and returns the count.
func (c *Cache) Cleanup() int {
	now := c.clock.Now()
	removed := 0
	for _, key := range c.entries.Keys() {
		e, ok := c.entries.Peek(key)
		if ok && e.expired(now) {
			c.entries.Remove(key)
			removed++
		}
	}

	if removed > 0 {
		c.expirations += uint64(removed)
		c.logger.Debug("cache cleanup",
			zap.Int("removed", removed),
			zap.Int("remaining", c.entries.Len()),
		)
	}
	return removed
}

// Clear drops all entries and returns how many there were.
// Lifetime hit and miss counters are kept.
func (c *Cache) Clear() int {
	n := c.entries.Len()
	c.entries.Purge()
	c.logger.Info("cache cleared", zap.Int("cleared", n))
	return n
}

func (c *Cache) recordAccess(now time.Time, key string, hit bool) {
	if hit {
		c.hits++
	} else {
		c.misses++
	}
	c.history.add(AccessRecord{At: now, Key: key, Hit: hit})
}
