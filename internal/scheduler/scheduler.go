// Package scheduler implements the claim-and-dispatch loop: a bounded
// worker pool that polls the StateStore for pending runs and hands each
// claimed run to a RunExecutor, with signal-driven graceful shutdown.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/cortexrt/agent-runtime/internal/logging"
	"github.com/cortexrt/agent-runtime/internal/models"
	"github.com/cortexrt/agent-runtime/internal/runexec"
	"github.com/cortexrt/agent-runtime/internal/store"
)

var log = logging.New("scheduler")

// Config tunes the Scheduler's worker pool and batch-claim size.
type Config struct {
	MaxWorkers int
	FetchLimit int
	// IsMockStore selects the poll-empty sleep interval: 1s when
	// backed by a MemoryStore, 2s against Postgres, mirroring the
	// reference loop's two distinct idle intervals.
	IsMockStore bool
}

// DefaultConfig returns the spec's documented defaults.
func DefaultConfig() Config {
	return Config{MaxWorkers: 10, FetchLimit: 10}
}

// Scheduler polls Store for PENDING runs and executes each on a bounded
// worker pool until its context is cancelled, then drains in-flight work.
type Scheduler struct {
	store    store.Store
	executor *runexec.Executor
	config   Config
}

// New builds a Scheduler backed by store and dispatching to executor.
func New(s store.Store, executor *runexec.Executor, cfg Config) *Scheduler {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = DefaultConfig().MaxWorkers
	}
	if cfg.FetchLimit <= 0 {
		cfg.FetchLimit = DefaultConfig().FetchLimit
	}
	return &Scheduler{store: s, executor: executor, config: cfg}
}

// Run blocks, polling and dispatching runs, until ctx is cancelled. On
// cancellation it stops claiming new work and waits for in-flight runs
// to finish before returning.
func (s *Scheduler) Run(ctx context.Context) {
	log.Println("scheduler started")

	slots := make(chan struct{}, s.config.MaxWorkers)
	var wg sync.WaitGroup

	emptySleep := 2 * time.Second
	if s.config.IsMockStore {
		emptySleep = 1 * time.Second
	}

	for {
		select {
		case <-ctx.Done():
			log.Println("scheduler stopping; draining in-flight runs")
			wg.Wait()
			log.Println("scheduler stopped")
			return
		default:
		}

		available := s.config.MaxWorkers - len(slots)
		if available <= 0 {
			time.Sleep(50 * time.Millisecond)
			continue
		}
		limit := s.config.FetchLimit
		if available < limit {
			limit = available
		}

		handles, err := s.store.ClaimPendingRuns(ctx, limit)
		if err != nil {
			log.Printf("claim failed: %v", err)
			time.Sleep(emptySleep)
			continue
		}

		if len(handles) == 0 {
			select {
			case <-ctx.Done():
				wg.Wait()
				return
			case <-time.After(emptySleep):
			}
			continue
		}

		for _, h := range handles {
			h := h
			slots <- struct{}{}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer func() { <-slots }()
				s.dispatch(ctx, h)
			}()
		}
	}
}

// dispatch executes one claimed run, recovering from a panic so a
// single bad run can't take down the scheduler loop.
func (s *Scheduler) dispatch(ctx context.Context, handle models.RunHandle) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("run %s: worker panic: %v", handle.RunID, r)
		}
	}()

	if err := s.executor.Execute(ctx, handle); err != nil {
		log.Printf("run %s: execution error: %v", handle.RunID, err)
	}
}
