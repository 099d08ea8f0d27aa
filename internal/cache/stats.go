package cache

// Statistics is a point-in-time view of the cache.
type Statistics struct {
	Size           int     `json:"size"`
	MaxSize        int     `json:"max_size"`
	UtilizationPct float64 `json:"utilization_pct"`
	// HitRate is the lifetime hit rate in percent
	HitRate          float64            `json:"hit_rate"`
	Hits             uint64             `json:"hits"`
	Misses           uint64             `json:"misses"`
	TotalAccesses    uint64             `json:"total_accesses"`
	Evictions        uint64             `json:"evictions"`
	Expirations      uint64             `json:"expirations"`
	VolatilityScores map[string]float64 `json:"volatility_scores"`
	// RecentHitRate5m is the hit rate in percent over the access history inside RecentWindow
	RecentHitRate5m float64 `json:"recent_hit_rate_5m"`
}

// Statistics returns a snapshot of the cache. As a side effect it runs
// UpdateVolatility so the exported scores stay fresh.
func (c *Cache) Statistics() Statistics {
	c.UpdateVolatility()

	now := c.clock.Now()
	total := c.hits + c.misses

	var recentHits, recentTotal int
	c.history.each(func(r AccessRecord) {
		if now.Sub(r.At) <= c.cfg.RecentWindow {
			recentTotal++
			if r.Hit {
				recentHits++
			}
		}
	})

	scores := make(map[string]float64, len(c.volatility))
	for k, v := range c.volatility {
		scores[k] = v
	}

	size := c.entries.Len()
	return Statistics{
		Size:             size,
		MaxSize:          c.cfg.MaxSize,
		UtilizationPct:   percent(uint64(size), uint64(c.cfg.MaxSize)),
		HitRate:          percent(c.hits, total),
		Hits:             c.hits,
		Misses:           c.misses,
		TotalAccesses:    total,
		Evictions:        c.evictions,
		Expirations:      c.expirations,
		VolatilityScores: scores,
		RecentHitRate5m:  percent(uint64(recentHits), uint64(recentTotal)),
	}
}

func percent(part, whole uint64) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
