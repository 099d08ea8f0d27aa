package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/tickguard/internal/shared/clock"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestCache(t *testing.T, cfg Config) (*Cache, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(epoch)
	return New(cfg, WithClock(clk)), clk
}

func TestSetThenGet(t *testing.T) {
	c, _ := newTestCache(t, DefaultConfig())

	c.Set("BTCUSDT:ema:1m:abcd1234", 42.5, time.Minute)

	v, ok := c.Get("BTCUSDT:ema:1m:abcd1234")
	require.True(t, ok)
	assert.Equal(t, 42.5, v)
}

func TestGetMissOnAbsentKey(t *testing.T) {
	c, _ := newTestCache(t, DefaultConfig())

	v, ok := c.Get("missing")
	assert.False(t, ok)
	assert.Zero(t, v)

	stats := c.Statistics()
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, uint64(0), stats.Hits)
}

func TestGetExpiresLazily(t *testing.T) {
	c, clk := newTestCache(t, DefaultConfig())

	c.Set("k", 1, 10*time.Second)

	clk.Advance(10 * time.Second)
	_, ok := c.Get("k")
	assert.True(t, ok, "an entry exactly ttl old is still fresh")

	clk.Advance(time.Nanosecond)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "expired entry is purged on read")
	assert.Equal(t, uint64(1), c.Statistics().Expirations)
}

func TestSetReplacesEntry(t *testing.T) {
	c, _ := newTestCache(t, DefaultConfig())

	c.Set("k", 1, time.Minute)
	c.Set("k", 2, time.Minute)

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 2.0, v)
	assert.Equal(t, 1, c.Len())
}

func TestSetWithoutTTLUsesAdaptiveTTL(t *testing.T) {
	c, clk := newTestCache(t, DefaultConfig())
	c.SetVolatility("rsi", 2.5)

	c.Set("ETHUSDT:rsi:1m:abcd1234", 55, 0)

	clk.Advance(30 * time.Second)
	_, ok := c.Get("ETHUSDT:rsi:1m:abcd1234")
	assert.True(t, ok)

	clk.Advance(time.Second)
	_, ok = c.Get("ETHUSDT:rsi:1m:abcd1234")
	assert.False(t, ok, "volatile indicator expires after half the base TTL")
}

func TestWatermarkTriggersEviction(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSize = 10
	c, clk := newTestCache(t, cfg)

	for i := 0; i < 7; i++ {
		c.Set(fmt.Sprintf("key%d", i), float64(i), time.Hour)
		clk.Advance(time.Second)
	}
	require.Equal(t, 7, c.Len())

	// key0 becomes the most recently used, so key1 and key2 are now the oldest
	_, ok := c.Get("key0")
	require.True(t, ok)
	clk.Advance(time.Second)

	c.Set("key7", 7, time.Hour)

	assert.Equal(t, 6, c.Len(), "8th key reaches the watermark of 8 and evicts 2")
	for _, gone := range []string{"key1", "key2"} {
		_, ok := c.Get(gone)
		assert.False(t, ok, gone)
	}
	for _, kept := range []string{"key0", "key3", "key4", "key5", "key6", "key7"} {
		_, ok := c.Get(kept)
		assert.True(t, ok, kept)
	}
	assert.Equal(t, uint64(2), c.Statistics().Evictions)
}

func TestSizeNeverStaysAboveWatermark(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSize = 20
	c, _ := newTestCache(t, cfg)

	for i := 0; i < 200; i++ {
		c.Set(fmt.Sprintf("key%d", i), float64(i), time.Hour)
		assert.Less(t, c.Len(), 16)
	}
}

func TestEnforceLimitsBelowWatermarkIsNoop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSize = 10
	c, _ := newTestCache(t, cfg)

	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("key%d", i), float64(i), time.Hour)
	}

	assert.Equal(t, 0, c.EnforceLimits())
	assert.Equal(t, 5, c.Len())
}

func TestEvictRemovesLeastRecentlyAccessed(t *testing.T) {
	c, clk := newTestCache(t, DefaultConfig())

	for _, k := range []string{"a", "b", "c", "d"} {
		c.Set(k, 1, time.Hour)
		clk.Advance(time.Second)
	}
	c.Get("a")
	clk.Advance(time.Second)
	c.Get("b")

	assert.Equal(t, 2, c.Evict(2))

	_, ok := c.Get("c")
	assert.False(t, ok)
	_, ok = c.Get("d")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)
}

func TestEvictMoreThanSize(t *testing.T) {
	c, _ := newTestCache(t, DefaultConfig())
	c.Set("a", 1, time.Hour)

	assert.Equal(t, 1, c.Evict(5))
	assert.Equal(t, 0, c.Len())
}

func TestCleanupRemovesOnlyExpired(t *testing.T) {
	c, clk := newTestCache(t, DefaultConfig())

	c.Set("short", 1, 5*time.Second)
	c.Set("long", 2, time.Hour)
	clk.Advance(6 * time.Second)

	assert.Equal(t, 1, c.Cleanup())
	assert.Equal(t, 1, c.Len())

	_, ok := c.Get("long")
	assert.True(t, ok)
}

func TestClearKeepsLifetimeCounters(t *testing.T) {
	c, _ := newTestCache(t, DefaultConfig())

	c.Set("a", 1, time.Hour)
	c.Set("b", 2, time.Hour)
	c.Get("a")
	c.Get("zzz")

	assert.Equal(t, 2, c.Clear())
	assert.Equal(t, 0, c.Len())

	stats := c.Statistics()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestDeleteAndInvalidateSymbol(t *testing.T) {
	c, _ := newTestCache(t, DefaultConfig())

	c.Set("BTCUSDT:ema:1m:aaaaaaaa", 1, time.Hour)
	c.Set("BTCUSDT:rsi:1m:bbbbbbbb", 2, time.Hour)
	c.Set("ETHUSDT:ema:1m:aaaaaaaa", 3, time.Hour)

	assert.True(t, c.Delete("ETHUSDT:ema:1m:aaaaaaaa"))
	assert.False(t, c.Delete("ETHUSDT:ema:1m:aaaaaaaa"))

	assert.Equal(t, 2, c.InvalidateSymbol("BTCUSDT"))
	assert.Equal(t, 0, c.Len())
}

func TestInvalidateEventsKeepsBucketedEntries(t *testing.T) {
	c, _ := newTestCache(t, DefaultConfig())

	c.Set("BTCUSDT:last_price:1m:aaaaaaaa", 1, time.Hour)
	c.Set("BTCUSDT:spread_bps:1m:aaaaaaaa", 2, time.Hour)
	c.Set("BTCUSDT:ema:1m:aaaaaaaa:bucket_60", 3, time.Hour)
	c.Set("ETHUSDT:last_price:1m:aaaaaaaa", 4, time.Hour)

	assert.Equal(t, 2, c.InvalidateEvents("BTCUSDT"))

	_, ok := c.Get("BTCUSDT:ema:1m:aaaaaaaa:bucket_60")
	assert.True(t, ok)
	_, ok = c.Get("ETHUSDT:last_price:1m:aaaaaaaa")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestStatisticsHitRates(t *testing.T) {
	c, clk := newTestCache(t, DefaultConfig())

	c.Set("a", 1, time.Hour)
	c.Get("a")
	c.Get("missing")
	c.Get("missing")

	clk.Advance(6 * time.Minute)
	c.Get("a")

	stats := c.Statistics()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, 10000, stats.MaxSize)
	assert.InDelta(t, 0.01, stats.UtilizationPct, 1e-9)
	assert.Equal(t, uint64(2), stats.Hits)
	assert.Equal(t, uint64(2), stats.Misses)
	assert.Equal(t, uint64(4), stats.TotalAccesses)
	assert.InDelta(t, 50.0, stats.HitRate, 1e-9)
	assert.InDelta(t, 100.0, stats.RecentHitRate5m, 1e-9, "only the last access is inside 5 minutes")
}

func TestStatisticsReturnsVolatilityCopy(t *testing.T) {
	c, _ := newTestCache(t, DefaultConfig())
	c.SetVolatility("ema", 1.2)

	stats := c.Statistics()
	stats.VolatilityScores["ema"] = 9

	assert.Equal(t, 1.2, c.Statistics().VolatilityScores["ema"])
}

func TestAccessHistoryIsBounded(t *testing.T) {
	h := newAccessHistory(3)
	for i := 0; i < 5; i++ {
		h.add(AccessRecord{Key: fmt.Sprintf("k%d", i)})
	}

	var keys []string
	h.each(func(r AccessRecord) { keys = append(keys, r.Key) })

	assert.Equal(t, 3, h.len())
	assert.Equal(t, []string{"k2", "k3", "k4"}, keys)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{MaxSize: 10}.withDefaults()

	assert.Equal(t, 10, cfg.MaxSize)
	assert.Equal(t, 60*time.Second, cfg.BaseTTL)
	assert.Equal(t, 8, cfg.highWatermark())
	assert.Equal(t, 2, cfg.evictionBatch())

	small := Config{MaxSize: 3}.withDefaults()
	assert.Equal(t, 2, small.highWatermark())
	assert.Equal(t, 1, small.evictionBatch())
}

func TestConfigRoundsSubSecondBucketUp(t *testing.T) {
	cfg := Config{MaxSize: 10, BucketSize: 500 * time.Millisecond}.withDefaults()
	assert.Equal(t, time.Second, cfg.BucketSize)

	c, clk := newTestCache(t, Config{MaxSize: 10, BucketSize: 500 * time.Millisecond})
	first := c.Key("sma", "BTCUSDT", "1m", nil)
	clk.Advance(time.Second)
	assert.NotEqual(t, first, c.Key("sma", "BTCUSDT", "1m", nil))
}
