// Package store implements the durable StateStore contract: fetching
// the active definition for an agent, claiming pending runs for
// execution, logging completed steps, updating run status, and
// persisting per-run memory entries. Two implementations exist —
// PostgresStore for production and MemoryStore for tests and the
// no-database fallback — so callers depend only on the Store interface.
package store

import (
	"context"

	"github.com/cortexrt/agent-runtime/internal/models"
)

// Store is the durable state contract shared by the Scheduler and
// RunExecutor.
type Store interface {
	// FetchDefinition returns the active AgentDefinition for agentName,
	// or (nil, false) if none exists or the stored YAML fails to parse.
	FetchDefinition(ctx context.Context, agentName string) (*models.AgentDefinition, bool)

	// ClaimPendingRuns atomically transitions up to limit PENDING runs
	// to RUNNING, ordered oldest-first, and returns handles for them.
	ClaimPendingRuns(ctx context.Context, limit int) ([]models.RunHandle, error)

	// LogStep records the outcome of one step attempt.
	LogStep(ctx context.Context, step models.Step) error

	// UpdateRunStatus transitions a run to a terminal or intermediate status.
	UpdateRunStatus(ctx context.Context, runID string, status models.RunStatus) error

	// SaveMemory persists a key/value entry scoped to a run.
	SaveMemory(ctx context.Context, runID, key string, value any) error

	// GetRunSummary aggregates a run's logged steps for observability.
	GetRunSummary(ctx context.Context, runID string) (models.RunSummary, error)

	// RecoverStaleRuns resets RUNNING runs whose last update is older
	// than olderThanSeconds back to PENDING, so an abandoned claim
	// becomes eligible for re-claim. Returns the number of runs reset.
	RecoverStaleRuns(ctx context.Context, olderThanSeconds int) (int, error)
}
