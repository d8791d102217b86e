package runexec

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexrt/agent-runtime/internal/models"
	"github.com/cortexrt/agent-runtime/internal/provider"
	"github.com/cortexrt/agent-runtime/internal/stepexec"
	"github.com/cortexrt/agent-runtime/internal/store"
	"github.com/cortexrt/agent-runtime/internal/tools"
)

func newTestExecutor() (*Executor, *store.MemoryStore) {
	s := store.NewMemoryStore()
	reg := tools.NewRegistry()
	tools.RegisterBuiltins(reg)
	steps := stepexec.New(provider.MockProvider{}, reg)
	return New(s, steps, nil), s
}

func TestExecutor_ExecuteRunsAllStepsToCompletion(t *testing.T) {
	e, s := newTestExecutor()
	s.PutDefinition(models.AgentDefinition{
		AgentName: "invoice-agent",
		Model:     "gpt-4o-mini",
		Steps: []models.StepConfig{
			{Name: "summarize", Type: models.StepInstruction, Instruction: "Summarize: {{.input}}"},
			{Name: "total", Type: models.StepToolUse, ToolName: "calculator", Inputs: map[string]any{"a": 1, "b": 2}},
		},
	})
	runID := s.CreateRun("invoice-agent", map[string]any{"x": 1})
	claimed, err := s.ClaimPendingRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	err = e.Execute(context.Background(), claimed[0])
	require.NoError(t, err)

	run, ok := s.GetRun(runID)
	require.True(t, ok)
	assert.Equal(t, models.RunCompleted, run.Status)

	summary, err := s.GetRunSummary(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.StepCount)
}

func TestExecutor_ExecuteResumesFromCompletedSteps(t *testing.T) {
	e, s := newTestExecutor()
	s.PutDefinition(models.AgentDefinition{
		AgentName: "two-step-agent",
		Model:     "m",
		Steps: []models.StepConfig{
			{Name: "s1", Type: models.StepInstruction, Instruction: "a"},
			{Name: "s2", Type: models.StepInstruction, Instruction: "b"},
		},
	})
	runID := s.CreateRun("two-step-agent", nil)
	require.NoError(t, s.LogStep(context.Background(), models.Step{RunID: runID, StepIndex: 0, StepName: "s1", Status: models.StepSuccess}))

	handle := models.RunHandle{RunID: runID, AgentName: "two-step-agent", CompletedSteps: 1, Status: models.RunRunning}
	err := e.Execute(context.Background(), handle)
	require.NoError(t, err)

	summary, err := s.GetRunSummary(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.StepCount)
}

func TestExecutor_ExecuteFailsRunWhenDefinitionMissing(t *testing.T) {
	e, s := newTestExecutor()
	runID := s.CreateRun("no-such-agent", nil)
	handle := models.RunHandle{RunID: runID, AgentName: "no-such-agent", Status: models.RunRunning}

	err := e.Execute(context.Background(), handle)
	require.Error(t, err)

	run, ok := s.GetRun(runID)
	require.True(t, ok)
	assert.Equal(t, models.RunFailed, run.Status)
}

func TestExecutor_ExecuteUsesInjectedDefinitionWhenStoreHasNone(t *testing.T) {
	e, s := newTestExecutor()
	runID := s.CreateRun("injected-agent", map[string]any{"a": 10, "b": 20})
	handle := models.RunHandle{
		RunID:     runID,
		AgentName: "injected-agent",
		Input:     map[string]any{"a": 10, "b": 20},
		Status:    models.RunRunning,
		InjectedDefinition: &models.AgentDefinition{
			AgentName: "injected-agent",
			Model:     "m",
			Steps: []models.StepConfig{
				{Name: "calc", Type: models.StepToolUse, ToolName: "calculator"},
			},
		},
	}

	err := e.Execute(context.Background(), handle)
	require.NoError(t, err)

	run, ok := s.GetRun(runID)
	require.True(t, ok)
	assert.Equal(t, models.RunCompleted, run.Status)
}

// A tool invocation error is recorded as a SUCCESS step carrying the
// error text as output (§4.5's log_step call has no failure branch);
// it never aborts the run or produces a FAILED step row, so the
// COMPLETED-run invariant (every step row is SUCCESS) always holds.
func TestExecutor_ToolFailureIsLoggedAsSuccessfulStepAndRunCompletes(t *testing.T) {
	e, s := newTestExecutor()
	s.PutDefinition(models.AgentDefinition{
		AgentName: "tool-fail-agent",
		Model:     "m",
		Steps: []models.StepConfig{
			{Name: "calc", Type: models.StepToolUse, ToolName: "missing_tool"},
		},
	})
	runID := s.CreateRun("tool-fail-agent", nil)
	claimed, err := s.ClaimPendingRuns(context.Background(), 10)
	require.NoError(t, err)

	err = e.Execute(context.Background(), claimed[0])
	require.NoError(t, err)

	run, ok := s.GetRun(runID)
	require.True(t, ok)
	assert.Equal(t, models.RunCompleted, run.Status)

	steps := s.GetSteps(runID)
	require.Len(t, steps, 1)
	assert.Equal(t, models.StepSuccess, steps[0].Status)
	assert.Contains(t, fmt.Sprintf("%v", steps[0].Output), "Error executing tool missing_tool")
}
