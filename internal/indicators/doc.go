// Package indicators computes market indicators over a snapshot of recent ticks.
//
// Moving averages, RSI and Bollinger bands are delegated to go-talib; VWAP and
// TWAP are weighted means from gonum/stat. Every Calculator honors context
// cancellation on entry and reports short history as an InsufficientDataError,
// which the health monitor tallies under its own kind.
//
//	registry := indicators.NewRegistry()
//	calc, err := registry.Get("rsi")
//	value, err := calc(ctx, series, map[string]interface{}{"period": 14})
package indicators
