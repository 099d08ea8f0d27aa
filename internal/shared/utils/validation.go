package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// String length limits
const (
	MaxSymbolLength    = 32
	MaxIndicatorLength = 64
	MaxTimeframeLength = 8
	MaxParamCount      = 16
)

// Regular expressions for validation.
// None of the patterns admit ':' because it separates cache key segments.
var (
	// SymbolPattern allows alphanumeric, dots, slashes, hyphens, underscores (BTCUSDT, BTC/USD, ES-H5)
	SymbolPattern = regexp.MustCompile(`^[A-Za-z0-9._/-]+$`)
	// IndicatorPattern allows lowercase alphanumeric and underscores (ema, bollinger_upper)
	IndicatorPattern = regexp.MustCompile(`^[a-z0-9_]+$`)
	// TimeframePattern allows a count followed by a unit (1s, 5m, 4h, 1d, 1w)
	TimeframePattern = regexp.MustCompile(`^[0-9]+[smhdw]$`)
)

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if value == "" && !required {
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidateSymbol validates a trading symbol
func ValidateSymbol(symbol string) error {
	if err := ValidateString(symbol, "symbol", 1, MaxSymbolLength, true); err != nil {
		return err
	}
	if !SymbolPattern.MatchString(symbol) {
		return fmt.Errorf("symbol %q contains invalid characters", symbol)
	}
	return nil
}

// ValidateIndicatorType validates an indicator type name
func ValidateIndicatorType(indicatorType string) error {
	if err := ValidateString(indicatorType, "indicator type", 1, MaxIndicatorLength, true); err != nil {
		return err
	}
	if !IndicatorPattern.MatchString(indicatorType) {
		return fmt.Errorf("indicator type %q must be lowercase alphanumeric or underscore", indicatorType)
	}
	return nil
}

// ValidateTimeframe validates a candle timeframe such as "1m"
func ValidateTimeframe(timeframe string) error {
	if err := ValidateString(timeframe, "timeframe", 2, MaxTimeframeLength, true); err != nil {
		return err
	}
	if !TimeframePattern.MatchString(timeframe) {
		return fmt.Errorf("timeframe %q must look like 1m, 5m, 1h or 1d", timeframe)
	}
	return nil
}

// ValidateParams bounds the number of indicator parameters
func ValidateParams(params map[string]interface{}) error {
	if len(params) > MaxParamCount {
		return fmt.Errorf("too many indicator parameters (%d > %d)", len(params), MaxParamCount)
	}
	for key := range params {
		if key == "" {
			return fmt.Errorf("indicator parameter name must not be empty")
		}
	}
	return nil
}
