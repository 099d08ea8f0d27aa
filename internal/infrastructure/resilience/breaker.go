package resilience

import (
	"time"

	"go.uber.org/zap"
)

// State represents the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateHalfOpen:
		return "HALF_OPEN"
	case StateOpen:
		return "OPEN"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the state by name in JSON reports.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CircuitState is a snapshot of the breaker.
type CircuitState struct {
	State           State      `json:"state"`
	FailureCount    int        `json:"failure_count"`
	SuccessCount    int        `json:"success_count"`
	NextAttemptTime *time.Time `json:"next_attempt_time,omitempty"`
}

// IsCircuitOpen reports whether work must be rejected.
//
// It is not a pure query: the first call at or after the recovery deadline
// moves an OPEN circuit to HALF_OPEN and reports false, letting the caller
// probe. Nothing else ever leaves OPEN apart from ResetCircuit.
func (m *HealthMonitor) IsCircuitOpen() bool {
	if m.state != StateOpen {
		return false
	}

	now := m.clock.Now()
	if now.Before(m.nextAttempt) {
		return true
	}

	m.successCount = 0
	m.setState(StateHalfOpen)
	return false
}

// RecordSuccess counts a successful calculation.
// While CLOSED a success only decays the failure count by one.
func (m *HealthMonitor) RecordSuccess() {
	switch m.state {
	case StateHalfOpen:
		m.successCount++
		if m.successCount >= m.settings.SuccessThreshold {
			m.failureCount = 0
			m.successCount = 0
			m.setState(StateClosed)
		}
	case StateClosed:
		if m.failureCount > 0 {
			m.failureCount--
		}
	}
}

// RecordFailure counts a failed calculation and tallies it by ErrorKind.
func (m *HealthMonitor) RecordFailure(err error) {
	now := m.clock.Now()

	m.failureCount++
	m.lastFailure = now
	m.totalErrors++
	m.errorCounts[ErrorKind(err)]++

	switch m.state {
	case StateHalfOpen:
		m.trip(now)
	case StateClosed:
		if m.failureCount >= m.settings.FailureThreshold {
			m.trip(now)
		}
	}
}

// CircuitState returns a snapshot of the breaker.
func (m *HealthMonitor) CircuitState() CircuitState {
	cs := CircuitState{
		State:        m.state,
		FailureCount: m.failureCount,
		SuccessCount: m.successCount,
	}
	if m.state == StateOpen {
		next := m.nextAttempt
		cs.NextAttemptTime = &next
	}
	return cs
}

// ResetCircuit forces the breaker CLOSED with zeroed counters, skipping the recovery timer.
func (m *HealthMonitor) ResetCircuit() {
	m.failureCount = 0
	m.successCount = 0
	m.nextAttempt = time.Time{}
	m.setState(StateClosed)
	m.logger.Info("circuit reset", zap.String("monitor", m.name))
}

func (m *HealthMonitor) trip(now time.Time) {
	m.nextAttempt = now.Add(m.settings.RecoveryTimeout)
	m.setState(StateOpen)
}

// setState changes the state of the circuit breaker
func (m *HealthMonitor) setState(state State) {
	if m.state == state {
		return
	}

	prev := m.state
	m.state = state

	m.logger.Info("circuit state change",
		zap.String("monitor", m.name),
		zap.Stringer("from", prev),
		zap.Stringer("to", state),
		zap.Int("failure_count", m.failureCount),
	)

	if m.settings.OnStateChange != nil {
		m.settings.OnStateChange(m.name, prev, state)
	}
}
