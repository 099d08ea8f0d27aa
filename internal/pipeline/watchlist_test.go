package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/tickguard/internal/indicators"
)

const yamlWatchlist = `
subscriptions:
  - symbol: BTCUSDT
    timeframe: 1m
    indicators:
      - type: sma
        params:
          period: 2
      - type: last_price
  - symbol: ETHUSDT
    timeframe: 5m
    indicators:
      - type: rsi
`

const tomlWatchlist = `
[[subscriptions]]
symbol = "BTCUSDT"
timeframe = "1m"

[[subscriptions.indicators]]
type = "sma"
params = { period = 2 }

[[subscriptions.indicators]]
type = "last_price"

[[subscriptions]]
symbol = "ETHUSDT"
timeframe = "5m"

[[subscriptions.indicators]]
type = "rsi"
`

const jsonWatchlist = `{
  "subscriptions": [
    {"symbol": "BTCUSDT", "timeframe": "1m", "indicators": [
      {"type": "sma", "params": {"period": 2}},
      {"type": "last_price"}
    ]},
    {"symbol": "ETHUSDT", "timeframe": "5m", "indicators": [{"type": "rsi"}]}
  ]
}`

func TestParseWatchlistFormats(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{"yaml", yamlWatchlist, FormatYAML},
		{"toml", tomlWatchlist, FormatTOML},
		{"json", jsonWatchlist, FormatJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := ParseWatchlist([]byte(tt.data), tt.format)
			require.NoError(t, err)
			require.NoError(t, w.Validate(indicators.NewRegistry()))

			require.Len(t, w.Subscriptions, 2)
			btc := w.Subscriptions[0]
			assert.Equal(t, "BTCUSDT", btc.Symbol)
			assert.Equal(t, "1m", btc.Timeframe)
			require.Len(t, btc.Indicators, 2)
			assert.Equal(t, "sma", btc.Indicators[0].Type)
			assert.EqualValues(t, 2, btc.Indicators[0].Params["period"])
			assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, w.Symbols())

			// every decoder's number type is accepted by the calculators
			v, err := indicators.SMA(context.Background(), indicators.Series{Prices: []float64{1, 2, 3}}, btc.Indicators[0].Params)
			require.NoError(t, err)
			assert.Equal(t, 2.5, v)
		})
	}
}

func TestParseWatchlistErrors(t *testing.T) {
	_, err := ParseWatchlist([]byte("subscriptions: []"), FormatYAML)
	assert.Error(t, err)

	_, err = ParseWatchlist([]byte("{not json"), FormatJSON)
	assert.Error(t, err)

	_, err = ParseWatchlist([]byte("x"), Format("ini"))
	assert.Error(t, err)
}

func TestWatchlistValidate(t *testing.T) {
	registry := indicators.NewRegistry()
	tests := []struct {
		name string
		sub  Subscription
	}{
		{"bad symbol", Subscription{Symbol: "BTC USDT", Timeframe: "1m", Indicators: []IndicatorSpec{{Type: "ema"}}}},
		{"bad timeframe", Subscription{Symbol: "BTCUSDT", Timeframe: "minute", Indicators: []IndicatorSpec{{Type: "ema"}}}},
		{"no indicators", Subscription{Symbol: "BTCUSDT", Timeframe: "1m"}},
		{"unknown indicator", Subscription{Symbol: "BTCUSDT", Timeframe: "1m", Indicators: []IndicatorSpec{{Type: "macd"}}}},
		{"empty param name", Subscription{Symbol: "BTCUSDT", Timeframe: "1m", Indicators: []IndicatorSpec{
			{Type: "ema", Params: map[string]interface{}{"": 1}},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &Watchlist{Subscriptions: []Subscription{tt.sub}}
			assert.Error(t, w.Validate(registry))
		})
	}
}

func TestDefaultWatchlistIsValid(t *testing.T) {
	w := DefaultWatchlist()

	assert.NoError(t, w.Validate(indicators.NewRegistry()))
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"}, w.Symbols())
}

func TestLoadWatchlist(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watchlist.yml")
	require.NoError(t, os.WriteFile(path, []byte(yamlWatchlist), 0o600))

	w, err := LoadWatchlist(path)
	require.NoError(t, err)
	assert.Len(t, w.Subscriptions, 2)

	_, err = LoadWatchlist(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadWatchlist(filepath.Join(dir, "watchlist.ini"))
	assert.Error(t, err)
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"a.yaml": FormatYAML,
		"a.YML":  FormatYAML,
		"a.toml": FormatTOML,
		"a.json": FormatJSON,
	}
	for path, want := range tests {
		got, err := FormatFromPath(path)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := FormatFromPath("a.txt")
	assert.Error(t, err)
}
