package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexrt/agent-runtime/internal/models"
)

func TestMemoryStore_FetchDefinition(t *testing.T) {
	s := NewMemoryStore()
	_, ok := s.FetchDefinition(context.Background(), "missing")
	assert.False(t, ok)

	s.PutDefinition(models.AgentDefinition{
		AgentName: "invoice-agent",
		Model:     "gpt-4o-mini",
		Steps:     []models.StepConfig{{Name: "s1", Type: models.StepInstruction, Instruction: "hi"}},
	})
	def, ok := s.FetchDefinition(context.Background(), "invoice-agent")
	require.True(t, ok)
	assert.Equal(t, "invoice-agent", def.AgentName)
}

func TestMemoryStore_ClaimPendingRunsOrdersOldestFirst(t *testing.T) {
	s := NewMemoryStore()
	first := s.CreateRun("a", map[string]any{"x": 1})
	second := s.CreateRun("a", map[string]any{"x": 2})

	claimed, err := s.ClaimPendingRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, claimed, 2)
	assert.Equal(t, first, claimed[0].RunID)
	assert.Equal(t, second, claimed[1].RunID)
	for _, h := range claimed {
		assert.Equal(t, models.RunRunning, h.Status)
	}

	// Already-claimed runs aren't reclaimed.
	claimed, err = s.ClaimPendingRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, claimed)
}

func TestMemoryStore_ClaimPendingRunsRespectsLimit(t *testing.T) {
	s := NewMemoryStore()
	for i := 0; i < 5; i++ {
		s.CreateRun("a", nil)
	}
	claimed, err := s.ClaimPendingRuns(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, claimed, 2)
}

func TestMemoryStore_ClaimPendingRunsReflectsCompletedSteps(t *testing.T) {
	s := NewMemoryStore()
	runID := s.CreateRun("a", nil)
	require.NoError(t, s.LogStep(context.Background(), models.Step{RunID: runID, StepIndex: 0, Status: models.StepSuccess}))

	claimed, err := s.ClaimPendingRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, 1, claimed[0].CompletedSteps)
}

func TestMemoryStore_LogStepUpsertsByStepIndex(t *testing.T) {
	s := NewMemoryStore()
	runID := s.CreateRun("a", nil)
	require.NoError(t, s.LogStep(context.Background(), models.Step{RunID: runID, StepIndex: 0, Status: models.StepFailed, Output: "first try"}))
	require.NoError(t, s.LogStep(context.Background(), models.Step{RunID: runID, StepIndex: 0, Status: models.StepSuccess, Output: "retry"}))

	summary, err := s.GetRunSummary(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.StepCount)
}

func TestMemoryStore_GetRunSummaryAggregates(t *testing.T) {
	s := NewMemoryStore()
	runID := s.CreateRun("a", nil)
	require.NoError(t, s.LogStep(context.Background(), models.Step{RunID: runID, StepIndex: 0, Status: models.StepSuccess, TokensUsed: 10, LatencyMS: 5}))
	require.NoError(t, s.LogStep(context.Background(), models.Step{RunID: runID, StepIndex: 1, Status: models.StepSuccess, TokensUsed: 20, LatencyMS: 15}))

	summary, err := s.GetRunSummary(context.Background(), runID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.StepCount)
	assert.Equal(t, 30, summary.TotalTokensUsed)
	assert.Equal(t, float64(20), summary.TotalLatencyMS)
}

func TestMemoryStore_RecoverStaleRuns(t *testing.T) {
	s := NewMemoryStore()
	runID := s.CreateRun("a", nil)
	_, err := s.ClaimPendingRuns(context.Background(), 10)
	require.NoError(t, err)

	run, _ := s.GetRun(runID)
	run.UpdatedAt = time.Now().Add(-10 * time.Minute)
	s.runs[runID] = &run

	reset, err := s.RecoverStaleRuns(context.Background(), 300)
	require.NoError(t, err)
	assert.Equal(t, 1, reset)

	run, _ = s.GetRun(runID)
	assert.Equal(t, models.RunPending, run.Status)
}

func TestMemoryStore_SaveMemory(t *testing.T) {
	s := NewMemoryStore()
	runID := s.CreateRun("a", nil)
	require.NoError(t, s.SaveMemory(context.Background(), runID, "k", "v"))
	assert.Equal(t, "v", s.memory[runID]["k"])
}
