package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cortexrt/agent-runtime/internal/store"
)

// RecoveryConfig tunes the cron-scheduled sweep that resets abandoned
// RUNNING runs back to PENDING.
type RecoveryConfig struct {
	Interval      time.Duration // how often the sweep runs
	WorkerTimeout time.Duration // how stale a RUNNING run must be to qualify
}

// DefaultRecoveryConfig mirrors the spec's documented defaults.
func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{Interval: time.Minute, WorkerTimeout: 5 * time.Minute}
}

// Recovery runs a cron job that resets RUNNING runs whose last update
// predates WorkerTimeout, so a crashed worker's claimed-but-abandoned
// run becomes eligible for re-claim.
type Recovery struct {
	store     store.Store
	config    RecoveryConfig
	scheduler *cron.Cron
}

// NewRecovery builds a Recovery sweep backed by s.
func NewRecovery(s store.Store, cfg RecoveryConfig) *Recovery {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultRecoveryConfig().Interval
	}
	if cfg.WorkerTimeout <= 0 {
		cfg.WorkerTimeout = DefaultRecoveryConfig().WorkerTimeout
	}
	return &Recovery{store: s, config: cfg, scheduler: cron.New()}
}

// Start schedules the sweep and begins running it in the background.
// It stops when ctx is cancelled.
func (r *Recovery) Start(ctx context.Context) error {
	spec := "@every " + r.config.Interval.String()
	_, err := r.scheduler.AddFunc(spec, func() { r.sweep(ctx) })
	if err != nil {
		return err
	}
	r.scheduler.Start()
	go func() {
		<-ctx.Done()
		r.scheduler.Stop()
	}()
	return nil
}

func (r *Recovery) sweep(ctx context.Context) {
	reset, err := r.store.RecoverStaleRuns(ctx, int(r.config.WorkerTimeout.Seconds()))
	if err != nil {
		log.Printf("recovery sweep failed: %v", err)
		return
	}
	if reset > 0 {
		log.Printf("recovery sweep reset %d stale run(s) to PENDING", reset)
	}
}
