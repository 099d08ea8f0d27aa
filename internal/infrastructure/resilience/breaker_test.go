package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/tickguard/internal/shared/clock"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestMonitor(t *testing.T, settings Settings) (*HealthMonitor, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(epoch)
	return NewHealthMonitor("test", settings, WithClock(clk)), clk
}

func failN(m *HealthMonitor, n int) {
	for i := 0; i < n; i++ {
		m.RecordFailure(errors.New("failed"))
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "CLOSED", StateClosed.String())
	assert.Equal(t, "HALF_OPEN", StateHalfOpen.String())
	assert.Equal(t, "OPEN", StateOpen.String())
	assert.Equal(t, "UNKNOWN", State(42).String())
}

func TestDefaultSettingsApplied(t *testing.T) {
	m := NewHealthMonitor("test", Settings{})

	s := m.Settings()
	assert.Equal(t, 10, s.FailureThreshold)
	assert.Equal(t, 3, s.SuccessThreshold)
	assert.Equal(t, 5*time.Second, s.Timeout)
	assert.Equal(t, 60*time.Second, s.RecoveryTimeout)
	assert.Equal(t, 60*time.Second, s.HealthInterval)
	assert.Equal(t, 1000, s.DurationWindow)
	assert.Equal(t, StateClosed, m.CircuitState().State)
}

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name          string
		failures      int
		successes     int
		expectedState State
		expectedFails int
	}{
		{"stays closed below threshold", 9, 0, StateClosed, 9},
		{"opens on the threshold failure", 10, 0, StateOpen, 10},
		{"success decays failures by one", 5, 1, StateClosed, 4},
		{"decay floors at zero", 2, 5, StateClosed, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestMonitor(t, Settings{})

			failN(m, tt.failures)
			for i := 0; i < tt.successes; i++ {
				m.RecordSuccess()
			}

			cs := m.CircuitState()
			assert.Equal(t, tt.expectedState, cs.State)
			assert.Equal(t, tt.expectedFails, cs.FailureCount)
		})
	}
}

func TestIsCircuitOpenTransitionsToHalfOpenOnce(t *testing.T) {
	m, clk := newTestMonitor(t, Settings{})
	failN(m, 10)

	require.True(t, m.IsCircuitOpen())
	cs := m.CircuitState()
	require.NotNil(t, cs.NextAttemptTime)
	assert.Equal(t, epoch.Add(60*time.Second), *cs.NextAttemptTime)

	clk.Advance(59 * time.Second)
	assert.True(t, m.IsCircuitOpen())
	assert.Equal(t, StateOpen, m.CircuitState().State)

	clk.Advance(time.Second)
	assert.False(t, m.IsCircuitOpen(), "the transitioning call reports not open")
	assert.Equal(t, StateHalfOpen, m.CircuitState().State)
	assert.Nil(t, m.CircuitState().NextAttemptTime)

	assert.False(t, m.IsCircuitOpen())
	assert.Equal(t, StateHalfOpen, m.CircuitState().State)
}

func TestHalfOpenFailureReopens(t *testing.T) {
	m, clk := newTestMonitor(t, Settings{})
	failN(m, 10)
	clk.Advance(time.Minute)
	require.False(t, m.IsCircuitOpen())

	m.RecordSuccess()
	m.RecordSuccess()
	assert.Equal(t, 2, m.CircuitState().SuccessCount)

	clk.Advance(5 * time.Second)
	m.RecordFailure(errors.New("still broken"))

	cs := m.CircuitState()
	assert.Equal(t, StateOpen, cs.State)
	require.NotNil(t, cs.NextAttemptTime)
	assert.Equal(t, epoch.Add(time.Minute+5*time.Second+time.Minute), *cs.NextAttemptTime)
	assert.True(t, m.IsCircuitOpen())
}

func TestHalfOpenSuccessesClose(t *testing.T) {
	m, clk := newTestMonitor(t, Settings{})
	failN(m, 10)
	clk.Advance(time.Minute)
	require.False(t, m.IsCircuitOpen())

	m.RecordSuccess()
	m.RecordSuccess()
	assert.Equal(t, StateHalfOpen, m.CircuitState().State)

	m.RecordSuccess()
	cs := m.CircuitState()
	assert.Equal(t, StateClosed, cs.State)
	assert.Equal(t, 0, cs.FailureCount)
	assert.Equal(t, 0, cs.SuccessCount)
}

func TestResetCircuit(t *testing.T) {
	m, _ := newTestMonitor(t, Settings{})
	failN(m, 10)
	require.Equal(t, StateOpen, m.CircuitState().State)

	m.ResetCircuit()

	cs := m.CircuitState()
	assert.Equal(t, StateClosed, cs.State)
	assert.Equal(t, 0, cs.FailureCount)
	assert.Equal(t, 0, cs.SuccessCount)
	assert.False(t, m.IsCircuitOpen())
}

func TestStateChangeCallback(t *testing.T) {
	type transition struct{ from, to State }
	var seen []transition

	clk := clock.NewManual(epoch)
	m := NewHealthMonitor("cb", Settings{
		FailureThreshold: 2,
		SuccessThreshold: 1,
		OnStateChange: func(name string, from, to State) {
			assert.Equal(t, "cb", name)
			seen = append(seen, transition{from, to})
		},
	}, WithClock(clk))

	failN(m, 2)
	clk.Advance(time.Minute)
	m.IsCircuitOpen()
	m.RecordSuccess()

	assert.Equal(t, []transition{
		{StateClosed, StateOpen},
		{StateOpen, StateHalfOpen},
		{StateHalfOpen, StateClosed},
	}, seen)
}

func TestRecordFailureWhileOpenOnlyCounts(t *testing.T) {
	m, clk := newTestMonitor(t, Settings{})
	failN(m, 10)
	next := *m.CircuitState().NextAttemptTime

	clk.Advance(30 * time.Second)
	m.RecordFailure(errors.New("late"))

	cs := m.CircuitState()
	assert.Equal(t, StateOpen, cs.State)
	assert.Equal(t, 11, cs.FailureCount)
	assert.Equal(t, next, *cs.NextAttemptTime)
}
