/*
Package resilience protects indicator calculations with a timeout and a
circuit breaker, and classifies the health of the calculations it guards.

# Overview

A HealthMonitor wraps every calculation of one worker. A calculation that
errors, panics or outlives Settings.Timeout is recorded as a failure and
degrades to "no value"; nothing is ever returned as an error or re-panicked,
so one broken calculation cannot stall the tick loop.

# Features

- Three-state circuit breaker (Closed, Open, Half-Open)
- Per-call deadline through context.WithTimeout
- Panic recovery for calculation goroutines
- Failure tallies by error kind (Kinded errors, else the concrete type name)
- Health classification from mean latency and error rate, with p95 latency
- State change callbacks for monitoring

# Concurrency

A HealthMonitor does no locking. Each worker owns one monitor and serializes
calls into it. Work itself runs on its own goroutine; on timeout the monitor
stops waiting but cannot stop work that ignores its context.

# Usage

	monitor := resilience.NewHealthMonitor("worker-0", resilience.Settings{
		FailureThreshold: 10,
		Timeout:          5 * time.Second,
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Info("circuit", zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})

	value, ok := monitor.ExecuteWithProtection(ctx, func(ctx context.Context) (float64, error) {
		return indicators.EMA(series, 20)
	}, map[string]string{"symbol": "BTCUSDT"})

# States

- Closed: normal operation; each failure adds one, each success removes one
- Open: every call is rejected until the recovery deadline
- Half-Open: probing; any failure reopens, SuccessThreshold successes close

IsCircuitOpen performs the Open to Half-Open transition itself: the first call
after the recovery deadline flips the state and reports "not open".

# Pattern

	Closed --[failures]-> Open --[recovery timeout + IsCircuitOpen]-> Half-Open --[successes]-> Closed
	                                                                    |
	                                                             [failure]
	                                                                    |
	                                                                    v
	                                                                  Open
*/
package resilience
