// Package scheduler runs periodic jobs such as broker syncs on a cron schedule.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/username/tradejournal/backend/src/logger"
)

// Runner wraps a seconds-aware cron instance. Jobs receive the base context.
type Runner struct {
	cron    *cron.Cron
	baseCtx context.Context
}

func New(baseCtx context.Context) *Runner {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &Runner{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		baseCtx: baseCtx,
	}
}

// Add registers job under spec ("0 */15 * * * *" or "@every 15m").
func (r *Runner) Add(spec string, job func(context.Context)) (cron.EntryID, error) {
	return r.cron.AddFunc(spec, func() {
		job(r.baseCtx)
	})
}

func (r *Runner) Start() {
	logger.L.Info("Scheduler started", "jobs", len(r.cron.Entries()))
	r.cron.Start()
}

// Stop waits for running jobs to finish.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	logger.L.Info("Scheduler stopped")
}

// Syncer is the part of the sync service a scheduled job needs.
type Syncer interface {
	SyncAll(ctx context.Context) (int, error)
}

// SyncJob returns a job that syncs every active broker connection, bounded by timeout.
func SyncJob(syncer Syncer, timeout time.Duration) func(context.Context) {
	return func(ctx context.Context) {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		log := logger.L.With(slog.String("job", "broker_sync"))
		ctx = logger.ToContext(ctx, log)

		start := time.Now()
		synced, err := syncer.SyncAll(ctx)
		if err != nil {
			log.Warn("Scheduled sync finished with failures", "synced", synced, "error", err, "duration", time.Since(start))
			return
		}
		log.Info("Scheduled sync finished", "synced", synced, "duration", time.Since(start))
	}
}
