package indicators

import (
	"fmt"
	"math"
)

// intParam reads a positive integer parameter. Watchlists decode numbers as
// int64 (TOML), uint64 (YAML) or float64 (JSON), so all of them are accepted.
func intParam(params map[string]interface{}, name string, def int) (int, error) {
	raw, ok := params[name]
	if !ok {
		return def, nil
	}

	var v int
	switch n := raw.(type) {
	case int:
		v = n
	case int32:
		v = int(n)
	case int64:
		v = int(n)
	case uint64:
		v = int(n)
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%w: %s must be an integer, got %v", ErrInvalidParam, name, n)
		}
		v = int(n)
	default:
		return 0, fmt.Errorf("%w: %s has type %T", ErrInvalidParam, name, raw)
	}

	if v <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidParam, name, v)
	}
	return v, nil
}

func floatParam(params map[string]interface{}, name string, def float64) (float64, error) {
	raw, ok := params[name]
	if !ok {
		return def, nil
	}

	switch n := raw.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%w: %s has type %T", ErrInvalidParam, name, raw)
	}
}
