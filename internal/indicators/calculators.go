package indicators

import (
	"context"
	"math"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"
)

const (
	defaultMAPeriod    = 20
	defaultRSIPeriod   = 14
	defaultBandPeriod  = 20
	defaultBandStdDev  = 2.0
	basisPointsPerUnit = 10000
)

// Calculator computes one indicator value from a series snapshot.
type Calculator func(ctx context.Context, s Series, params map[string]interface{}) (float64, error)

func lastOf(values []float64) float64 {
	return values[len(values)-1]
}

// EMA is the exponential moving average of the last "period" prices.
func EMA(ctx context.Context, s Series, params map[string]interface{}) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	period, err := intParam(params, "period", defaultMAPeriod)
	if err != nil {
		return 0, err
	}
	if err := need("ema", s, period); err != nil {
		return 0, err
	}
	return lastOf(talib.Ema(s.Prices, period)), nil
}

// SMA is the simple moving average of the last "period" prices.
func SMA(ctx context.Context, s Series, params map[string]interface{}) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	period, err := intParam(params, "period", defaultMAPeriod)
	if err != nil {
		return 0, err
	}
	if err := need("sma", s, period); err != nil {
		return 0, err
	}
	return lastOf(talib.Sma(s.Prices, period)), nil
}

// RSI is Wilder's relative strength index. It needs period+1 prices.
func RSI(ctx context.Context, s Series, params map[string]interface{}) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	period, err := intParam(params, "period", defaultRSIPeriod)
	if err != nil {
		return 0, err
	}
	if period < 2 {
		return 0, &InsufficientDataError{Indicator: "rsi", Need: 2, Have: period}
	}
	if err := need("rsi", s, period+1); err != nil {
		return 0, err
	}
	return lastOf(talib.Rsi(s.Prices, period)), nil
}

func bollinger(name string, upper bool) Calculator {
	return func(ctx context.Context, s Series, params map[string]interface{}) (float64, error) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		period, err := intParam(params, "period", defaultBandPeriod)
		if err != nil {
			return 0, err
		}
		k, err := floatParam(params, "stddev", defaultBandStdDev)
		if err != nil {
			return 0, err
		}
		if err := need(name, s, period); err != nil {
			return 0, err
		}

		hi, _, lo := talib.BBands(s.Prices, period, k, k, talib.SMA)
		if upper {
			return lastOf(hi), nil
		}
		return lastOf(lo), nil
	}
}

// VWAP is the volume-weighted average price over the last "period" ticks
// (the whole series when unset).
func VWAP(ctx context.Context, s Series, params map[string]interface{}) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	period, err := intParam(params, "period", s.Len())
	if err != nil {
		return 0, err
	}
	if err := need("vwap", s, 1); err != nil {
		return 0, err
	}

	w := s.Tail(period)
	if len(w.Volumes) != len(w.Prices) || floats(w.Volumes).sum() <= 0 {
		return 0, ErrNoVolume
	}
	return stat.Mean(w.Prices, w.Volumes), nil
}

// TWAP weights each price by how long it stood before the next tick.
// The latest price has no duration yet and is excluded unless it is the only one.
func TWAP(ctx context.Context, s Series, params map[string]interface{}) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	period, err := intParam(params, "period", s.Len())
	if err != nil {
		return 0, err
	}
	if err := need("twap", s, 1); err != nil {
		return 0, err
	}

	w := s.Tail(period)
	if w.Len() == 1 || len(w.Times) != w.Len() {
		return stat.Mean(w.Prices, nil), nil
	}

	weights := make([]float64, w.Len()-1)
	for i := range weights {
		weights[i] = w.Times[i+1].Sub(w.Times[i]).Seconds()
	}
	if floats(weights).sum() <= 0 {
		return stat.Mean(w.Prices, nil), nil
	}
	return stat.Mean(w.Prices[:len(weights)], weights), nil
}

// LastPrice is the most recent trade price.
func LastPrice(ctx context.Context, s Series, _ map[string]interface{}) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p, ok := s.Last()
	if !ok {
		return 0, &InsufficientDataError{Indicator: "last_price", Need: 1}
	}
	return p, nil
}

// SpreadBps is the quoted bid/ask spread in basis points of the mid price.
func SpreadBps(ctx context.Context, s Series, _ map[string]interface{}) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s.Bid <= 0 || s.Ask <= 0 || s.Ask < s.Bid {
		return 0, &InsufficientDataError{Indicator: "spread_bps", Need: 1}
	}
	mid := (s.Bid + s.Ask) / 2
	return (s.Ask - s.Bid) / mid * basisPointsPerUnit, nil
}

type floats []float64

func (f floats) sum() float64 {
	total := 0.0
	for _, v := range f {
		if math.IsNaN(v) {
			continue
		}
		total += v
	}
	return total
}
