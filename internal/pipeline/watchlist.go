package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"

	"github.com/GriffinCanCode/tickguard/internal/indicators"
	"github.com/GriffinCanCode/tickguard/internal/shared/utils"
)

// Watchlist is the set of indicators computed every tick.
type Watchlist struct {
	Subscriptions []Subscription `yaml:"subscriptions" toml:"subscriptions" json:"subscriptions"`
}

// Subscription lists the indicators of one symbol and timeframe.
type Subscription struct {
	Symbol     string          `yaml:"symbol" toml:"symbol" json:"symbol"`
	Timeframe  string          `yaml:"timeframe" toml:"timeframe" json:"timeframe"`
	Indicators []IndicatorSpec `yaml:"indicators" toml:"indicators" json:"indicators"`
}

// IndicatorSpec names an indicator and its parameters.
type IndicatorSpec struct {
	Type   string                 `yaml:"type" toml:"type" json:"type"`
	Params map[string]interface{} `yaml:"params,omitempty" toml:"params,omitempty" json:"params,omitempty"`
}

// Format identifies a watchlist encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported watchlist extension %q", filepath.Ext(path))
	}
}

// LoadWatchlist reads and parses a watchlist file.
func LoadWatchlist(path string) (*Watchlist, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read watchlist: %w", err)
	}
	return ParseWatchlist(data, format)
}

// ParseWatchlist decodes a watchlist. Structural checks run here; indicator
// names are checked against a registry by Validate.
func ParseWatchlist(data []byte, format Format) (*Watchlist, error) {
	var w Watchlist
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &w)
	case FormatTOML:
		err = toml.Unmarshal(data, &w)
	case FormatJSON:
		err = sonic.Unmarshal(data, &w)
	default:
		return nil, fmt.Errorf("unsupported watchlist format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s watchlist: %w", format, err)
	}

	if len(w.Subscriptions) == 0 {
		return nil, fmt.Errorf("watchlist has no subscriptions")
	}
	return &w, nil
}

// Validate checks every subscription against naming rules and the registry.
func (w *Watchlist) Validate(registry *indicators.Registry) error {
	for i, sub := range w.Subscriptions {
		if err := utils.ValidateSymbol(sub.Symbol); err != nil {
			return fmt.Errorf("subscriptions[%d]: %w", i, err)
		}
		if err := utils.ValidateTimeframe(sub.Timeframe); err != nil {
			return fmt.Errorf("subscriptions[%d] %s: %w", i, sub.Symbol, err)
		}
		if len(sub.Indicators) == 0 {
			return fmt.Errorf("subscriptions[%d] %s: no indicators", i, sub.Symbol)
		}
		for _, spec := range sub.Indicators {
			if err := registry.Validate(spec.Type); err != nil {
				return fmt.Errorf("subscriptions[%d] %s: %w", i, sub.Symbol, err)
			}
			if err := utils.ValidateParams(spec.Params); err != nil {
				return fmt.Errorf("subscriptions[%d] %s %s: %w", i, sub.Symbol, spec.Type, err)
			}
		}
	}
	return nil
}

// Symbols returns the distinct symbols in watchlist order.
func (w *Watchlist) Symbols() []string {
	seen := make(map[string]struct{}, len(w.Subscriptions))
	var out []string
	for _, sub := range w.Subscriptions {
		if _, ok := seen[sub.Symbol]; ok {
			continue
		}
		seen[sub.Symbol] = struct{}{}
		out = append(out, sub.Symbol)
	}
	return out
}

// DefaultWatchlist covers every built-in indicator on three symbols.
func DefaultWatchlist() *Watchlist {
	specs := []IndicatorSpec{
		{Type: "last_price"},
		{Type: "spread_bps"},
		{Type: "ema", Params: map[string]interface{}{"period": 20}},
		{Type: "sma", Params: map[string]interface{}{"period": 50}},
		{Type: "rsi", Params: map[string]interface{}{"period": 14}},
		{Type: "bollinger_upper", Params: map[string]interface{}{"period": 20, "stddev": 2.0}},
		{Type: "bollinger_lower", Params: map[string]interface{}{"period": 20, "stddev": 2.0}},
		{Type: "vwap", Params: map[string]interface{}{"period": 60}},
		{Type: "twap", Params: map[string]interface{}{"period": 60}},
	}

	w := &Watchlist{}
	for _, symbol := range []string{"BTCUSDT", "ETHUSDT", "SOLUSDT"} {
		w.Subscriptions = append(w.Subscriptions, Subscription{
			Symbol:     symbol,
			Timeframe:  "1m",
			Indicators: specs,
		})
	}
	return w
}
