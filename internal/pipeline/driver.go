package pipeline

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GriffinCanCode/tickguard/internal/indicators"
	"github.com/GriffinCanCode/tickguard/internal/shared/clock"
)

// TickRecorder receives per-tick metrics. monitoring.Metrics implements it.
type TickRecorder interface {
	RecordTick(duration time.Duration)
}

// DriverConfig configures the tick loop.
type DriverConfig struct {
	Interval      time.Duration
	HistoryLength int
}

// DriverOption customizes a Driver.
type DriverOption func(*Driver)

// WithDriverClock sets the clock stamped on ticks.
func WithDriverClock(c clock.Clock) DriverOption {
	return func(d *Driver) { d.clock = c }
}

// WithDriverLogger sets the driver logger.
func WithDriverLogger(l *zap.Logger) DriverOption {
	return func(d *Driver) { d.logger = l }
}

// WithTickRecorder attaches a per-tick metrics recorder.
func WithTickRecorder(r TickRecorder) DriverOption {
	return func(d *Driver) { d.recorder = r }
}

// TickReport summarizes one tick.
type TickReport struct {
	RunID       string        `json:"run_id"`
	Seq         uint64        `json:"seq"`
	At          time.Time     `json:"at"`
	Cached      int           `json:"cached"`
	Computed    int           `json:"computed"`
	Unavailable int           `json:"unavailable"`
	Duration    time.Duration `json:"duration"`
}

// Driver runs the tick loop across the worker engines.
type Driver struct {
	cfg       DriverConfig
	engines   []*Engine
	byID      map[string]*Engine
	feed      Feed
	watchlist *Watchlist
	history   *History
	clock     clock.Clock
	logger    *zap.Logger
	recorder  TickRecorder
	runID     string

	mu     sync.RWMutex
	seq    uint64
	last   TickReport
	latest map[string]Result
}

// NewDriver creates a driver. Engines must be non-empty.
func NewDriver(cfg DriverConfig, engines []*Engine, feed Feed, watchlist *Watchlist, opts ...DriverOption) *Driver {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	d := &Driver{
		cfg:       cfg,
		engines:   engines,
		byID:      make(map[string]*Engine, len(engines)),
		feed:      feed,
		watchlist: watchlist,
		history:   NewHistory(cfg.HistoryLength),
		clock:     clock.Real{},
		logger:    zap.NewNop(),
		runID:     uuid.NewString(),
		latest:    make(map[string]Result),
	}
	for _, e := range engines {
		d.byID[e.ID()] = e
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// RunID identifies this driver instance in logs and reports.
func (d *Driver) RunID() string {
	return d.runID
}

// Engines returns the workers in shard order.
func (d *Driver) Engines() []*Engine {
	return d.engines
}

// Engine looks up a worker by id.
func (d *Driver) Engine(id string) (*Engine, bool) {
	e, ok := d.byID[id]
	return e, ok
}

// EngineFor returns the worker that owns symbol.
func (d *Driver) EngineFor(symbol string) *Engine {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	return d.engines[int(h.Sum32()%uint32(len(d.engines)))]
}

// Run ticks every Interval until ctx is canceled.
func (d *Driver) Run(ctx context.Context) error {
	d.logger.Info("tick driver started",
		zap.String("run_id", d.runID),
		zap.Int("workers", len(d.engines)),
		zap.Int("subscriptions", len(d.watchlist.Subscriptions)),
		zap.Duration("interval", d.cfg.Interval),
	)

	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("tick driver stopped", zap.String("run_id", d.runID))
			return nil
		case <-ticker.C:
			if _, err := d.Tick(ctx); err != nil {
				d.logger.Error("tick failed", zap.Error(err))
			}
		}
	}
}

type job struct {
	req    Request
	series indicators.Series
}

// Tick ingests one round of feed data and computes the watchlist.
// Workers run in parallel; each processes its own symbols sequentially.
func (d *Driver) Tick(ctx context.Context) (TickReport, error) {
	start := time.Now()
	now := d.clock.Now()

	for _, t := range d.feed.Next(now) {
		d.history.Append(t)
		d.EngineFor(t.Symbol).InvalidateEvents(t.Symbol)
	}

	work := make(map[*Engine][]job, len(d.engines))
	snapshots := make(map[string]indicators.Series)
	for _, sub := range d.watchlist.Subscriptions {
		series, ok := snapshots[sub.Symbol]
		if !ok {
			series = d.history.Snapshot(sub.Symbol)
			snapshots[sub.Symbol] = series
		}
		e := d.EngineFor(sub.Symbol)
		for _, spec := range sub.Indicators {
			work[e] = append(work[e], job{
				req: Request{
					Symbol:    sub.Symbol,
					Timeframe: sub.Timeframe,
					Indicator: spec.Type,
					Params:    spec.Params,
				},
				series: series,
			})
		}
	}

	results := make([][]Result, len(d.engines))
	g, gctx := errgroup.WithContext(ctx)
	for i, e := range d.engines {
		i, e, jobs := i, e, work[e]
		g.Go(func() error {
			out := make([]Result, 0, len(jobs))
			for _, j := range jobs {
				if err := gctx.Err(); err != nil {
					return fmt.Errorf("worker %s: %w", e.ID(), err)
				}
				out = append(out, e.Compute(gctx, j.req, j.series))
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return TickReport{}, err
	}

	d.mu.Lock()
	d.seq++
	report := TickReport{RunID: d.runID, Seq: d.seq, At: now}
	for _, batch := range results {
		for _, r := range batch {
			switch r.Source {
			case SourceCache:
				report.Cached++
			case SourceComputed:
				report.Computed++
			default:
				report.Unavailable++
				d.logger.Debug("indicator unavailable",
					zap.String("symbol", r.Symbol),
					zap.String("indicator", r.Indicator),
					zap.Stringer("outcome", r.Outcome),
					zap.Error(r.Err),
				)
			}
			if r.OK() {
				d.latest[resultKey(r)] = r
			}
		}
	}
	report.Duration = time.Since(start)
	d.last = report
	d.mu.Unlock()

	if d.recorder != nil {
		d.recorder.RecordTick(report.Duration)
	}
	return report, nil
}

func resultKey(r Result) string {
	return r.Symbol + ":" + r.Timeframe + ":" + r.Indicator
}

// LastTick returns the report of the most recent tick.
func (d *Driver) LastTick() TickReport {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.last
}

// Latest returns the last available value of every indicator, sorted by symbol then indicator.
func (d *Driver) Latest() []Result {
	d.mu.RLock()
	out := make([]Result, 0, len(d.latest))
	for _, r := range d.latest {
		out = append(out, r)
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Symbol != out[j].Symbol {
			return out[i].Symbol < out[j].Symbol
		}
		if out[i].Timeframe != out[j].Timeframe {
			return out[i].Timeframe < out[j].Timeframe
		}
		return out[i].Indicator < out[j].Indicator
	})
	return out
}
