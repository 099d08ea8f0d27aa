package resilience

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/tickguard/internal/shared/clock"
)

// Work is a unit of calculation run under protection.
// It should return promptly once ctx is done; work that ignores ctx keeps
// running in the background after the monitor has given up on it.
type Work func(ctx context.Context) (float64, error)

// Settings configures the health monitor behavior
type Settings struct {
	// FailureThreshold is the failure count that opens a closed circuit
	FailureThreshold int
	// SuccessThreshold is the number of half-open successes that close the circuit
	SuccessThreshold int
	// Timeout bounds a single calculation
	Timeout time.Duration
	// RecoveryTimeout is how long the circuit stays open before a probe is allowed
	RecoveryTimeout time.Duration
	// HealthInterval rate-limits UpdateHealthStatus
	HealthInterval time.Duration
	// DurationWindow is the number of calculation durations kept for health stats
	DurationWindow int
	// OnStateChange is called whenever the state changes
	OnStateChange func(name string, from State, to State)
}

// DefaultSettings returns the production thresholds.
func DefaultSettings() Settings {
	return Settings{
		FailureThreshold: 10,
		SuccessThreshold: 3,
		Timeout:          5 * time.Second,
		RecoveryTimeout:  60 * time.Second,
		HealthInterval:   60 * time.Second,
		DurationWindow:   1000,
	}
}

func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.FailureThreshold <= 0 {
		s.FailureThreshold = d.FailureThreshold
	}
	if s.SuccessThreshold <= 0 {
		s.SuccessThreshold = d.SuccessThreshold
	}
	if s.Timeout <= 0 {
		s.Timeout = d.Timeout
	}
	if s.RecoveryTimeout <= 0 {
		s.RecoveryTimeout = d.RecoveryTimeout
	}
	if s.HealthInterval <= 0 {
		s.HealthInterval = d.HealthInterval
	}
	if s.DurationWindow <= 0 {
		s.DurationWindow = d.DurationWindow
	}
	return s
}

// Option customizes a HealthMonitor.
type Option func(*HealthMonitor)

// WithClock replaces the wall clock used for recovery deadlines and durations.
func WithClock(c clock.Clock) Option {
	return func(m *HealthMonitor) { m.clock = c }
}

// WithLogger attaches a logger for state transitions and failures.
func WithLogger(l *zap.Logger) Option {
	return func(m *HealthMonitor) {
		if l != nil {
			m.logger = l
		}
	}
}

// HealthMonitor guards calculations with a timeout and a circuit breaker and
// keeps the statistics behind its health classification.
// It does no locking; callers serialize access.
type HealthMonitor struct {
	name     string
	settings Settings
	clock    clock.Clock
	logger   *zap.Logger

	state        State
	failureCount int
	successCount int
	lastFailure  time.Time
	nextAttempt  time.Time

	durations         *durationRing
	totalCalculations uint64
	totalErrors       uint64
	rejections        uint64
	errorCounts       map[string]uint64

	status        HealthStatus
	lastHealthUpd time.Time
}

// NewHealthMonitor creates a closed monitor. Zero-valued settings take their defaults.
func NewHealthMonitor(name string, settings Settings, opts ...Option) *HealthMonitor {
	settings = settings.withDefaults()
	m := &HealthMonitor{
		name:        name,
		settings:    settings,
		clock:       clock.Real{},
		logger:      zap.NewNop(),
		state:       StateClosed,
		durations:   newDurationRing(settings.DurationWindow),
		errorCounts: make(map[string]uint64),
		status:      StatusUnknown,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the name of the monitor
func (m *HealthMonitor) Name() string {
	return m.name
}

// Settings returns the effective settings.
func (m *HealthMonitor) Settings() Settings {
	return m.settings
}

// Rejections returns how many calls were refused by an open circuit.
func (m *HealthMonitor) Rejections() uint64 {
	return m.rejections
}

// OutcomeKind discriminates the result of a protected attempt.
type OutcomeKind int

const (
	OutcomeOK OutcomeKind = iota
	OutcomeTimedOut
	OutcomeFailed
	OutcomeRejected
	// OutcomeCanceled means the caller gave up; nothing is recorded
	OutcomeCanceled
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "ok"
	case OutcomeTimedOut:
		return "timeout"
	case OutcomeFailed:
		return "error"
	case OutcomeRejected:
		return "rejected"
	case OutcomeCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Outcome is the typed result of Attempt.
type Outcome struct {
	Kind     OutcomeKind
	Value    float64
	Err      error
	ErrKind  string
	Duration time.Duration
}

// ExecuteWithProtection runs work under the monitor and returns its value, or
// false when the circuit rejected it, it timed out, failed or panicked.
// Failures are recorded, never returned.
func (m *HealthMonitor) ExecuteWithProtection(ctx context.Context, work Work, labels map[string]string) (float64, bool) {
	out := m.Attempt(ctx, work, labels)
	return out.Value, out.Kind == OutcomeOK
}

// Attempt is ExecuteWithProtection with the typed outcome exposed.
func (m *HealthMonitor) Attempt(ctx context.Context, work Work, labels map[string]string) Outcome {
	if m.IsCircuitOpen() {
		m.rejections++
		return Outcome{Kind: OutcomeRejected, Err: ErrCircuitOpen, ErrKind: "CircuitOpen"}
	}

	out := m.run(ctx, work)
	if out.Kind == OutcomeCanceled {
		m.logger.Debug("calculation canceled",
			append(labelFields(labels), zap.String("monitor", m.name))...,
		)
		return out
	}

	m.totalCalculations++
	switch out.Kind {
	case OutcomeOK:
		m.durations.add(out.Duration)
		m.RecordSuccess()
	case OutcomeTimedOut:
		m.RecordFailure(out.Err)
		m.logger.Warn("calculation timed out",
			append(labelFields(labels),
				zap.String("monitor", m.name),
				zap.Duration("timeout", m.settings.Timeout))...,
		)
	case OutcomeFailed:
		m.RecordFailure(out.Err)
		m.logger.Warn("calculation failed",
			append(labelFields(labels),
				zap.String("monitor", m.name),
				zap.String("kind", out.ErrKind),
				zap.Error(out.Err))...,
		)
	}
	return out
}

type workResult struct {
	value float64
	err   error
}

func (m *HealthMonitor) run(parent context.Context, work Work) Outcome {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, m.settings.Timeout)
	defer cancel()

	start := m.clock.Now()
	done := make(chan workResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- workResult{err: &PanicError{Value: r}}
			}
		}()
		v, err := work(ctx)
		done <- workResult{value: v, err: err}
	}()

	select {
	case res := <-done:
		elapsed := m.clock.Now().Sub(start)
		if res.err == nil {
			return Outcome{Kind: OutcomeOK, Value: res.value, Duration: elapsed}
		}
		if parent.Err() != nil {
			return canceled(parent.Err(), elapsed)
		}
		if errors.Is(res.err, context.DeadlineExceeded) && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return m.timedOut(elapsed)
		}
		return Outcome{Kind: OutcomeFailed, Err: res.err, ErrKind: ErrorKind(res.err), Duration: elapsed}
	case <-ctx.Done():
		elapsed := m.clock.Now().Sub(start)
		if parent.Err() != nil {
			return canceled(parent.Err(), elapsed)
		}
		return m.timedOut(elapsed)
	}
}

func canceled(err error, elapsed time.Duration) Outcome {
	return Outcome{Kind: OutcomeCanceled, Err: err, ErrKind: ErrorKind(err), Duration: elapsed}
}

func (m *HealthMonitor) timedOut(elapsed time.Duration) Outcome {
	err := &TimeoutError{Timeout: m.settings.Timeout}
	return Outcome{Kind: OutcomeTimedOut, Err: err, ErrKind: KindTimeout, Duration: elapsed}
}

func labelFields(labels map[string]string) []zap.Field {
	fields := make([]zap.Field, 0, len(labels)+3)
	for k, v := range labels {
		fields = append(fields, zap.String(k, v))
	}
	return fields
}
