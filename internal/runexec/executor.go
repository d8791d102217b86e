// Package runexec drives a single claimed run to a terminal state:
// load its definition, resume from its last successful step, execute
// the remaining steps in order, and record the outcome.
package runexec

import (
	"context"
	"fmt"

	"github.com/cortexrt/agent-runtime/internal/errs"
	"github.com/cortexrt/agent-runtime/internal/eventhub"
	"github.com/cortexrt/agent-runtime/internal/logging"
	"github.com/cortexrt/agent-runtime/internal/models"
	"github.com/cortexrt/agent-runtime/internal/runctx"
	"github.com/cortexrt/agent-runtime/internal/stepexec"
	"github.com/cortexrt/agent-runtime/internal/store"
)

var log = logging.New("runexec")

// Executor drives claimed runs to completion.
type Executor struct {
	Store  store.Store
	Steps  *stepexec.Executor
	Events *eventhub.Hub // optional; nil disables broadcast
}

// New builds an Executor. events may be nil.
func New(s store.Store, steps *stepexec.Executor, events *eventhub.Hub) *Executor {
	return &Executor{Store: s, Steps: steps, Events: events}
}

// Execute runs handle's remaining steps to completion. It first marks
// the run RUNNING, which is a no-op in effect when ClaimPendingRuns
// already did so.
func (e *Executor) Execute(ctx context.Context, handle models.RunHandle) error {
	if err := e.Store.UpdateRunStatus(ctx, handle.RunID, models.RunRunning); err != nil {
		return &errs.StateStoreError{Op: "UpdateRunStatus", Cause: err}
	}
	e.broadcast(handle.RunID, "run.started", nil)

	def, ok := e.Store.FetchDefinition(ctx, handle.AgentName)
	if !ok {
		if handle.InjectedDefinition != nil {
			def = handle.InjectedDefinition
		} else {
			err := &errs.DefinitionMissing{AgentName: handle.AgentName}
			log.Printf("run %s: %v", handle.RunID, err)
			if failErr := e.Store.UpdateRunStatus(ctx, handle.RunID, models.RunFailed); failErr != nil {
				log.Printf("run %s: failed to mark FAILED after missing definition: %v", handle.RunID, failErr)
			}
			e.broadcast(handle.RunID, "run.failed", map[string]any{"reason": err.Error()})
			return err
		}
	}

	rc := runctx.Build(handle.Input)
	startIndex := handle.CompletedSteps
	if startIndex > len(def.Steps) {
		startIndex = len(def.Steps)
	}

	for i := startIndex; i < len(def.Steps); i++ {
		step := def.Steps[i]

		result, err := e.Steps.Execute(ctx, step, def.Model, rc)
		if err != nil {
			log.Printf("run %s: step %d (%s) errored: %v", handle.RunID, i, step.Name, err)
			if logErr := e.logStep(ctx, handle.RunID, i, step.Name, def.Model, models.StepFailed, err.Error(), 0, 0); logErr != nil {
				log.Printf("run %s: failed to log step %d: %v", handle.RunID, i, logErr)
			}
			return e.fail(ctx, handle.RunID, fmt.Errorf("step %q failed: %w", step.Name, err))
		}

		if result == nil {
			err := fmt.Errorf("step %q has unknown type %q", step.Name, step.Type)
			if logErr := e.logStep(ctx, handle.RunID, i, step.Name, def.Model, models.StepFailed, err.Error(), 0, 0); logErr != nil {
				log.Printf("run %s: failed to log step %d: %v", handle.RunID, i, logErr)
			}
			return e.fail(ctx, handle.RunID, err)
		}

		if logErr := e.logStep(ctx, handle.RunID, i, step.Name, def.Model, models.StepSuccess, result.OutputText, result.TokensUsed, result.LatencyMS); logErr != nil {
			log.Printf("run %s: failed to log step %d: %v", handle.RunID, i, logErr)
		}
		e.broadcast(handle.RunID, "step.completed", map[string]any{"step_index": i, "step_name": step.Name, "status": models.StepSuccess})

		rc.SetStepOutput(step.Name, result.OutputText)
	}

	if err := e.Store.UpdateRunStatus(ctx, handle.RunID, models.RunCompleted); err != nil {
		return &errs.StateStoreError{Op: "UpdateRunStatus", Cause: err}
	}
	e.broadcast(handle.RunID, "run.completed", nil)
	return nil
}

func (e *Executor) logStep(ctx context.Context, runID string, index int, name, model string, status models.StepStatus, output string, tokens int, latency float64) error {
	return e.Store.LogStep(ctx, models.Step{
		RunID:      runID,
		StepIndex:  index,
		StepName:   name,
		Status:     status,
		Output:     output,
		Model:      model,
		TokensUsed: tokens,
		LatencyMS:  latency,
	})
}

func (e *Executor) fail(ctx context.Context, runID string, cause error) error {
	if err := e.Store.UpdateRunStatus(ctx, runID, models.RunFailed); err != nil {
		log.Printf("run %s: failed to mark FAILED: %v", runID, err)
	}
	e.broadcast(runID, "run.failed", map[string]any{"reason": cause.Error()})
	return cause
}

func (e *Executor) broadcast(runID, event string, payload map[string]any) {
	if e.Events == nil {
		return
	}
	e.Events.Broadcast(runID, event, payload)
}

// ResumeRun resets a FAILED run back to PENDING so the Scheduler can
// re-claim and resume it from its last successful step.
func (e *Executor) ResumeRun(ctx context.Context, runID string) error {
	log.Printf("resuming run %s", runID)
	return e.Store.UpdateRunStatus(ctx, runID, models.RunPending)
}

// GetRunSummary returns observability totals for a run.
func (e *Executor) GetRunSummary(ctx context.Context, runID string) (models.RunSummary, error) {
	return e.Store.GetRunSummary(ctx, runID)
}
