package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cortexrt/agent-runtime/internal/models"
)

// MemoryStore is an in-process Store used by tests and by `serve` when
// no DATABASE_URL is configured. It preserves ClaimPendingRuns' ordering
// and idempotence guarantees without a real transaction.
type MemoryStore struct {
	mu sync.Mutex

	definitions map[string]models.AgentDefinition
	runs        map[string]*models.Run
	runOrder    []string
	steps       map[string][]models.Step
	memory      map[string]map[string]any
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		definitions: make(map[string]models.AgentDefinition),
		runs:        make(map[string]*models.Run),
		steps:       make(map[string][]models.Step),
		memory:      make(map[string]map[string]any),
	}
}

// PutDefinition registers agentName's active definition, replacing any
// previous one. Production code goes through the YAML loader; tests
// call this directly.
func (m *MemoryStore) PutDefinition(def models.AgentDefinition) {
	m.mu.Lock()
	defer m.mu.Unlock()
	def.Status = "active"
	if def.CreatedAt.IsZero() {
		def.CreatedAt = time.Now()
	}
	m.definitions[def.AgentName] = def
}

// CreateRun seeds a new PENDING run and returns its ID. Test/HTTP-layer
// helper; not part of the Store interface.
func (m *MemoryStore) CreateRun(agentName string, input any) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	runID := uuid.New().String()
	now := time.Now()
	m.runs[runID] = &models.Run{
		RunID:     runID,
		AgentName: agentName,
		Input:     input,
		Status:    models.RunPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.runOrder = append(m.runOrder, runID)
	return runID
}

// CreateRunCtx adapts CreateRun to the httpapi.RunCreator interface,
// which PostgresStore satisfies directly with a context and error return.
func (m *MemoryStore) CreateRunCtx(ctx context.Context, agentName string, input any) (string, error) {
	return m.CreateRun(agentName, input), nil
}

func (m *MemoryStore) FetchDefinition(ctx context.Context, agentName string) (*models.AgentDefinition, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	def, ok := m.definitions[agentName]
	if !ok {
		return nil, false
	}
	return &def, true
}

func (m *MemoryStore) ClaimPendingRuns(ctx context.Context, limit int) ([]models.RunHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var claimed []models.RunHandle
	for _, runID := range m.runOrder {
		if len(claimed) >= limit {
			break
		}
		run, ok := m.runs[runID]
		if !ok || run.Status != models.RunPending {
			continue
		}
		run.Status = models.RunRunning
		run.UpdatedAt = time.Now()
		claimed = append(claimed, models.RunHandle{
			RunID:          run.RunID,
			AgentName:      run.AgentName,
			Input:          run.Input,
			Status:         run.Status,
			CompletedSteps: m.completedStepCountLocked(run.RunID),
		})
	}
	return claimed, nil
}

func (m *MemoryStore) completedStepCountLocked(runID string) int {
	count := 0
	for _, s := range m.steps[runID] {
		if s.Status == models.StepSuccess {
			count++
		}
	}
	return count
}

func (m *MemoryStore) LogStep(ctx context.Context, step models.Step) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if step.CreatedAt.IsZero() {
		step.CreatedAt = time.Now()
	}
	existing := m.steps[step.RunID]
	for i, s := range existing {
		if s.StepIndex == step.StepIndex {
			existing[i] = step
			m.steps[step.RunID] = existing
			return nil
		}
	}
	m.steps[step.RunID] = append(existing, step)
	return nil
}

func (m *MemoryStore) UpdateRunStatus(ctx context.Context, runID string, status models.RunStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return nil
	}
	run.Status = status
	run.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) SaveMemory(ctx context.Context, runID, key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket, ok := m.memory[runID]
	if !ok {
		bucket = make(map[string]any)
		m.memory[runID] = bucket
	}
	bucket[key] = value
	return nil
}

func (m *MemoryStore) GetRunSummary(ctx context.Context, runID string) (models.RunSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return models.RunSummary{}, &runNotFoundError{runID: runID}
	}
	steps := append([]models.Step(nil), m.steps[runID]...)
	sort.Slice(steps, func(i, j int) bool { return steps[i].StepIndex < steps[j].StepIndex })

	summary := models.RunSummary{RunID: runID, Status: run.Status}
	for _, s := range steps {
		summary.StepCount++
		summary.TotalTokensUsed += s.TokensUsed
		summary.TotalLatencyMS += s.LatencyMS
	}
	return summary, nil
}

func (m *MemoryStore) RecoverStaleRuns(ctx context.Context, olderThanSeconds int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-time.Duration(olderThanSeconds) * time.Second)
	reset := 0
	for _, run := range m.runs {
		if run.Status == models.RunRunning && run.UpdatedAt.Before(cutoff) {
			run.Status = models.RunPending
			run.UpdatedAt = time.Now()
			reset++
		}
	}
	return reset, nil
}

// GetRun exposes a run for tests and HTTP handlers that need its
// current state without going through GetRunSummary.
func (m *MemoryStore) GetRun(runID string) (models.Run, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return models.Run{}, false
	}
	return *run, true
}

// GetSteps exposes a run's logged steps, ordered by StepIndex, for
// tests and HTTP handlers that need per-step detail beyond GetRunSummary's
// aggregate totals.
func (m *MemoryStore) GetSteps(runID string) []models.Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	steps := append([]models.Step(nil), m.steps[runID]...)
	sort.Slice(steps, func(i, j int) bool { return steps[i].StepIndex < steps[j].StepIndex })
	return steps
}

// SetRunForTest overwrites a run's stored state directly. Exported only
// for tests that need to simulate an abandoned claim (e.g. backdating
// UpdatedAt) without a real clock to wait on.
func (m *MemoryStore) SetRunForTest(runID string, run models.Run) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[runID] = &run
}

type runNotFoundError struct{ runID string }

func (e *runNotFoundError) Error() string { return "run not found: " + e.runID }
