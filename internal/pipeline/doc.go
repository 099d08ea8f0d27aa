/*
Package pipeline drives indicator calculations tick by tick.

# Overview

An Engine is one worker's private composition of an indicator cache and a
health monitor. Neither component locks, so the Engine serializes every call
into them under its own mutex; no other code touches them directly.

The Driver owns the feed, the tick history and the watchlist. On every tick
it appends the new ticks, snapshots each symbol's history and fans the
watchlist out to the engines, sharding symbols so that a symbol is always
handled by the same worker:

	Feed -> History -> Driver --shard(symbol)--> Engine: cache.Get
	                                               miss -> monitor.Attempt(calc) -> cache.Set

# Usage

	engines := []*pipeline.Engine{
		pipeline.NewEngine(pipeline.EngineConfig{ID: "worker-0"}, registry),
	}
	driver := pipeline.NewDriver(pipeline.DriverConfig{Interval: time.Second}, engines, feed, watchlist)
	go driver.Run(ctx)
*/
package pipeline
