package scheduler

import (
	"go.uber.org/zap"

	"github.com/GriffinCanCode/tickguard/internal/cache"
	"github.com/GriffinCanCode/tickguard/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/tickguard/internal/pipeline"
)

// Worker is the part of a pipeline.Engine the maintenance jobs use.
type Worker interface {
	ID() string
	Cleanup() int
	Snapshot() pipeline.Snapshot
}

// Observer receives worker snapshots. monitoring.Metrics implements it.
type Observer interface {
	ObserveCache(worker string, stats cache.Statistics)
	ObserveHealth(worker string, report resilience.HealthReport)
}

// CleanupJob purges expired cache entries on every worker, so entries that
// are never read again do not hold capacity until eviction.
type CleanupJob struct {
	workers []Worker
	log     *zap.Logger
}

// NewCleanupJob creates the cleanup job.
func NewCleanupJob(workers []Worker, log *zap.Logger) *CleanupJob {
	return &CleanupJob{workers: workers, log: log.With(zap.String("job", "cache_cleanup"))}
}

// Name returns the job name
func (j *CleanupJob) Name() string {
	return "cache_cleanup"
}

// Run executes the cleanup
func (j *CleanupJob) Run() error {
	total := 0
	for _, w := range j.workers {
		total += w.Cleanup()
	}
	if total > 0 {
		j.log.Info("Expired cache entries removed", zap.Int("removed", total))
	}
	return nil
}

// SnapshotJob publishes cache statistics and health reports of every worker.
// Taking the snapshot also refreshes volatility scores and health status.
type SnapshotJob struct {
	workers  []Worker
	observer Observer
	log      *zap.Logger
}

// NewSnapshotJob creates the snapshot job.
func NewSnapshotJob(workers []Worker, observer Observer, log *zap.Logger) *SnapshotJob {
	return &SnapshotJob{workers: workers, observer: observer, log: log.With(zap.String("job", "snapshot"))}
}

// Name returns the job name
func (j *SnapshotJob) Name() string {
	return "snapshot"
}

// Run executes the snapshot
func (j *SnapshotJob) Run() error {
	for _, w := range j.workers {
		snap := w.Snapshot()
		j.observer.ObserveCache(snap.ID, snap.Cache)
		j.observer.ObserveHealth(snap.ID, snap.Health)

		j.log.Debug("Worker snapshot",
			zap.String("worker", snap.ID),
			zap.Int("cache_size", snap.Cache.Size),
			zap.Float64("hit_rate", snap.Cache.HitRate),
			zap.String("health", string(snap.Health.OverallStatus)),
			zap.Stringer("circuit", snap.Health.CircuitBreaker.State),
		)
	}
	return nil
}

// Workers adapts engines to the Worker interface.
func Workers(engines []*pipeline.Engine) []Worker {
	out := make([]Worker, len(engines))
	for i, e := range engines {
		out[i] = e
	}
	return out
}
