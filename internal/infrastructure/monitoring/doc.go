/*
Package monitoring provides Prometheus metrics for the tick pipeline.

# Overview

Metrics are registered on an injected prometheus.Registerer so tests can use a
private registry. Counters are fed inline by the tick driver; cache and health
gauges are refreshed from snapshots taken by the maintenance scheduler.

# Features

- HTTP request metrics (latency, throughput, size)
- Tick count and duration
- Cache lookups, size, utilization, hit rate and volatility per indicator type
- Calculation outcomes and latency per indicator
- Circuit state, transitions and rejections per worker
- Maintenance job runs
- WebSocket connection metrics

# Usage

	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)
	router.Use(monitoring.Middleware(metrics))

	settings.OnStateChange = metrics.CircuitStateChanged

	timer := monitoring.NewTimer(metrics, "cleanup")
	// ... run job ...
	timer.Stop("success")

# Metrics Endpoint

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
