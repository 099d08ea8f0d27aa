package indicators

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrUnknownIndicator = errors.New("unknown indicator")
	ErrInvalidParam     = errors.New("invalid indicator parameter")
	ErrNoVolume         = errors.New("no traded volume in window")
)

// InsufficientDataError reports that a series is too short for an indicator.
type InsufficientDataError struct {
	Indicator string
	Need      int
	Have      int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: need %d ticks, have %d", e.Indicator, e.Need, e.Have)
}

// Kind names the failure for the health monitor's error tallies.
func (e *InsufficientDataError) Kind() string { return "InsufficientDataError" }

func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

func need(indicator string, s Series, n int) error {
	if s.Len() < n {
		return &InsufficientDataError{Indicator: indicator, Need: n, Have: s.Len()}
	}
	return nil
}
