package pipeline

import (
	"math/rand"
	"time"

	"github.com/GriffinCanCode/tickguard/internal/indicators"
)

// Feed produces the next tick of every symbol it tracks.
type Feed interface {
	Next(now time.Time) []indicators.Tick
}

// RandomWalkFeed generates synthetic ticks: each price moves by up to ±1% per
// tick, with a random volume and a 1 to 5 basis point spread around it.
type RandomWalkFeed struct {
	symbols []string
	prices  map[string]float64
	rng     *rand.Rand
}

// NewRandomWalkFeed creates a feed for symbols. The same seed yields the same ticks.
func NewRandomWalkFeed(symbols []string, seed int64) *RandomWalkFeed {
	rng := rand.New(rand.NewSource(seed))
	prices := make(map[string]float64, len(symbols))
	for _, s := range symbols {
		prices[s] = startingPrice(s, rng)
	}
	return &RandomWalkFeed{
		symbols: append([]string(nil), symbols...),
		prices:  prices,
		rng:     rng,
	}
}

func startingPrice(symbol string, rng *rand.Rand) float64 {
	switch symbol {
	case "BTCUSDT":
		return 50000 + rng.Float64()*1000
	case "ETHUSDT":
		return 3000 + rng.Float64()*100
	default:
		return 1 + rng.Float64()*10
	}
}

// Next advances every symbol by one step.
func (f *RandomWalkFeed) Next(now time.Time) []indicators.Tick {
	ticks := make([]indicators.Tick, 0, len(f.symbols))
	for _, s := range f.symbols {
		price := f.prices[s]
		price += (f.rng.Float64() - 0.5) * 0.02 * price
		if price <= 0 {
			price = f.rng.Float64() * 10
		}
		f.prices[s] = price

		halfSpread := price * (1 + f.rng.Float64()*4) / 10000 / 2
		ticks = append(ticks, indicators.Tick{
			Symbol: s,
			Price:  price,
			Volume: 1 + f.rng.Float64()*99,
			Bid:    price - halfSpread,
			Ask:    price + halfSpread,
			At:     now,
		})
	}
	return ticks
}
