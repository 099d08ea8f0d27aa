package cache

import (
	"time"

	"go.uber.org/zap"
)

const (
	// initialVolatility seeds a type's score on its first update
	initialVolatility = 0.5
	// unseenVolatility is assumed by CalculateTTL for types with no score yet
	unseenVolatility = 1.0
	// volatilitySmoothing is the weight kept from the previous score
	volatilitySmoothing = 0.7
)

// CalculateTTL scales BaseTTL by the volatility of the key's indicator type:
// above 2.0 halves it, above 1.5 takes 75%, below 0.5 doubles it.
func (c *Cache) CalculateTTL(key string) time.Duration {
	vol, ok := c.volatility[IndicatorTypeOf(key)]
	if !ok {
		vol = unseenVolatility
	}
	return scaleTTL(c.cfg.BaseTTL, vol)
}

func scaleTTL(base time.Duration, volatility float64) time.Duration {
	switch {
	case volatility > 2.0:
		return time.Duration(float64(base) * 0.5)
	case volatility > 1.5:
		return time.Duration(float64(base) * 0.75)
	case volatility < 0.5:
		return base * 2
	default:
		return base
	}
}

// UpdateVolatility folds the miss rate of each indicator type in the access
// history into its score: new = old*0.7 + miss_rate*0.3. It runs at most once
// per VolatilityWindow and reports whether it ran.
func (c *Cache) UpdateVolatility() bool {
	now := c.clock.Now()
	if !c.lastVolUpd.IsZero() && now.Sub(c.lastVolUpd) < c.cfg.VolatilityWindow {
		return false
	}
	c.lastVolUpd = now

	type tally struct{ hits, misses int }
	byType := make(map[string]*tally)
	c.history.each(func(r AccessRecord) {
		t := IndicatorTypeOf(r.Key)
		tl, ok := byType[t]
		if !ok {
			tl = &tally{}
			byType[t] = tl
		}
		if r.Hit {
			tl.hits++
		} else {
			tl.misses++
		}
	})

	for indicatorType, tl := range byType {
		total := tl.hits + tl.misses
		if total == 0 {
			continue
		}
		missRate := float64(tl.misses) / float64(total)

		old, ok := c.volatility[indicatorType]
		if !ok {
			old = initialVolatility
		}
		c.volatility[indicatorType] = old*volatilitySmoothing + missRate*(1-volatilitySmoothing)
	}

	c.logger.Debug("volatility updated",
		zap.Int("indicator_types", len(byType)),
		zap.Int("samples", c.history.len()),
	)
	return true
}

// SetVolatility overrides the score of an indicator type.
func (c *Cache) SetVolatility(indicatorType string, score float64) {
	c.volatility[indicatorType] = score
}
