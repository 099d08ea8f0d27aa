package resilience

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"
)

var (
	// ErrCircuitOpen is reported for work rejected without an attempt.
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrCalculationTimeout matches every TimeoutError.
	ErrCalculationTimeout = errors.New("calculation timed out")
)

const (
	KindTimeout  = "TimeoutError"
	KindPanic    = "PanicError"
	KindCanceled = "CanceledError"
	KindUnknown  = "UnknownError"
)

// Kinded errors name their own failure kind for error tallies.
type Kinded interface {
	Kind() string
}

// TimeoutError is synthesized when work outlives the monitor's deadline.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("calculation timed out after %s", e.Timeout)
}

func (e *TimeoutError) Kind() string { return KindTimeout }

func (e *TimeoutError) Is(target error) bool {
	return target == ErrCalculationTimeout
}

// PanicError carries the value recovered from panicking work.
type PanicError struct {
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("calculation panicked: %v", e.Value)
}

func (e *PanicError) Kind() string { return KindPanic }

// ErrorKind classifies err for the error_counts tally. Kinded errors anywhere
// in the chain win; otherwise the concrete type name of err is used.
func ErrorKind(err error) string {
	if err == nil {
		return KindUnknown
	}

	var kinded Kinded
	if errors.As(err, &kinded) {
		return kinded.Kind()
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	}

	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Name() == "" {
		return KindUnknown
	}
	return t.Name()
}
