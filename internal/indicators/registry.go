package indicators

import (
	"fmt"
	"sort"

	"github.com/GriffinCanCode/tickguard/internal/shared/utils"
)

// Registry maps indicator types to calculators.
// It is built once at startup and read-only afterwards.
type Registry struct {
	calcs map[string]Calculator
}

// NewRegistry returns a registry with every built-in indicator.
func NewRegistry() *Registry {
	r := &Registry{calcs: make(map[string]Calculator)}
	r.Register("ema", EMA)
	r.Register("sma", SMA)
	r.Register("rsi", RSI)
	r.Register("bollinger_upper", bollinger("bollinger_upper", true))
	r.Register("bollinger_lower", bollinger("bollinger_lower", false))
	r.Register("vwap", VWAP)
	r.Register("twap", TWAP)
	r.Register("last_price", LastPrice)
	r.Register("spread_bps", SpreadBps)
	return r
}

// Register adds or replaces a calculator.
func (r *Registry) Register(indicatorType string, calc Calculator) {
	r.calcs[indicatorType] = calc
}

// Get returns the calculator for an indicator type.
func (r *Registry) Get(indicatorType string) (Calculator, error) {
	calc, ok := r.calcs[indicatorType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIndicator, indicatorType)
	}
	return calc, nil
}

// Validate checks an indicator type name and that it is registered.
func (r *Registry) Validate(indicatorType string) error {
	if err := utils.ValidateIndicatorType(indicatorType); err != nil {
		return err
	}
	_, err := r.Get(indicatorType)
	return err
}

// Types lists the registered indicator types in sorted order.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.calcs))
	for t := range r.calcs {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
