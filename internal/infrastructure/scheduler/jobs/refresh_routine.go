// Package jobs contains implementations of scheduled jobs for the Class
// Routine Hub. The refresh job is the only way new schedule data enters
// the system after startup.
package jobs

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/campus-hub/class-routine-hub/internal/application/engine"
	"github.com/campus-hub/class-routine-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REFRESH ROUTINE JOB
// ══════════════════════════════════════════════════════════════════════════════

// RefreshRoutineJob polls the campus feed through the engine and swaps in a
// new snapshot when the feed publishes a new version. The engine decides
// whether anything actually changes; the job only supplies the cadence and
// the timeout.
type RefreshRoutineJob struct {
	engine *engine.Engine
	logger *slog.Logger
	config RefreshRoutineConfig

	lastStats atomic.Value // *RefreshStats
}

// RefreshRoutineConfig contains configuration for the refresh job.
type RefreshRoutineConfig struct {
	// Timeout is the maximum duration for one refresh attempt, including
	// the feed client's internal retries.
	Timeout time.Duration
}

// DefaultRefreshRoutineConfig returns sensible defaults.
func DefaultRefreshRoutineConfig() RefreshRoutineConfig {
	return RefreshRoutineConfig{
		Timeout: 2 * time.Minute,
	}
}

// RefreshStats contains statistics from a refresh run.
type RefreshStats struct {
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
	Success     bool
	FeedError   bool
	Version     string
	Sessions    int
}

// NewRefreshRoutineJob creates a new refresh job.
func NewRefreshRoutineJob(eng *engine.Engine, logger *slog.Logger, config RefreshRoutineConfig) *RefreshRoutineJob {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultRefreshRoutineConfig().Timeout
	}

	return &RefreshRoutineJob{
		engine: eng,
		logger: logger,
		config: config,
	}
}

// Name returns the job name.
func (j *RefreshRoutineJob) Name() string {
	return "refresh_routine"
}

// Description returns a human-readable description.
func (j *RefreshRoutineJob) Description() string {
	return "Polls the campus feed and refreshes the routine snapshot"
}

// Run executes one refresh attempt. A feed failure is logged and reported,
// but the engine keeps serving the previous snapshot, so the scheduler just
// tries again on the next tick.
func (j *RefreshRoutineJob) Run(ctx context.Context) error {
	runCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	startedAt := time.Now()
	err := j.engine.Refresh(runCtx)
	completedAt := time.Now()

	stats := &RefreshStats{
		StartedAt:   startedAt,
		CompletedAt: completedAt,
		Duration:    completedAt.Sub(startedAt),
		Success:     err == nil,
		FeedError:   shared.IsExternalService(err),
	}
	if info, ok := j.engine.Snapshot(); ok {
		stats.Version = info.Version
		stats.Sessions = info.SessionCount
	}
	j.lastStats.Store(stats)

	if err != nil {
		j.logger.Warn("routine refresh failed",
			"duration", stats.Duration.String(),
			"serving_version", stats.Version,
			"error", err,
		)
		return err
	}

	j.logger.Info("routine refresh completed",
		"duration", stats.Duration.String(),
		"version", stats.Version,
		"sessions", stats.Sessions,
	)
	return nil
}

// LastStats returns statistics from the most recent run, or nil if the job
// has not run yet.
func (j *RefreshRoutineJob) LastStats() *RefreshStats {
	stats, _ := j.lastStats.Load().(*RefreshStats)
	return stats
}
