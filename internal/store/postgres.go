package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/cortexrt/agent-runtime/internal/errs"
	"github.com/cortexrt/agent-runtime/internal/models"
)

// PostgresStore is the production Store backend.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an already-connected, migrated database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FetchDefinition(ctx context.Context, agentName string) (*models.AgentDefinition, bool) {
	var rawYAML string
	var status string
	row := s.db.QueryRowContext(ctx, `
		SELECT definition_yaml, status FROM agent_definitions
		WHERE agent_name = $1 AND status = 'active'
		ORDER BY created_at DESC
		LIMIT 1`, agentName)

	if err := row.Scan(&rawYAML, &status); err != nil {
		return nil, false
	}

	def, err := models.ParseDefinitionYAML([]byte(rawYAML))
	if err != nil {
		return nil, false
	}
	def.Status = status
	return &def, true
}

// RegisterDefinition upserts a new active definition for agentName,
// deactivating any previously active row. `cortexrtd register` is the
// only caller.
func (s *PostgresStore) RegisterDefinition(ctx context.Context, agentName string, rawYAML []byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &errs.StateStoreError{Op: "RegisterDefinition", Cause: err}
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE agent_definitions SET status = 'inactive'
		WHERE agent_name = $1 AND status = 'active'`, agentName); err != nil {
		return &errs.StateStoreError{Op: "RegisterDefinition", Cause: err}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO agent_definitions (id, agent_name, definition_yaml, status, created_at)
		VALUES ($1, $2, $3, 'active', now())`, uuid.New().String(), agentName, string(rawYAML)); err != nil {
		return &errs.StateStoreError{Op: "RegisterDefinition", Cause: err}
	}

	if err := tx.Commit(); err != nil {
		return &errs.StateStoreError{Op: "RegisterDefinition", Cause: err}
	}
	return nil
}

// CreateRun inserts a new PENDING run, returning its ID.
func (s *PostgresStore) CreateRun(ctx context.Context, agentName string, input any) (string, error) {
	runID := uuid.New().String()
	inputJSON, err := json.Marshal(input)
	if err != nil {
		return "", &errs.StateStoreError{Op: "CreateRun", Cause: err}
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO agent_runs (run_id, agent_name, input, status, created_at, updated_at)
		VALUES ($1, $2, $3, 'PENDING', now(), now())`, runID, agentName, inputJSON); err != nil {
		return "", &errs.StateStoreError{Op: "CreateRun", Cause: err}
	}
	return runID, nil
}

// CreateRunCtx satisfies httpapi.RunCreator; PostgresStore.CreateRun
// already takes a context and returns an error.
func (s *PostgresStore) CreateRunCtx(ctx context.Context, agentName string, input any) (string, error) {
	return s.CreateRun(ctx, agentName, input)
}

// ClaimPendingRuns performs the two-statement claim: an UPDATE guarded
// by FOR UPDATE SKIP LOCKED on the candidate subquery, narrowing but not
// eliminating the race against a SELECT of recently-claimed RUNNING
// rows (see SPEC_FULL.md §5/§9.4).
func (s *PostgresStore) ClaimPendingRuns(ctx context.Context, limit int) ([]models.RunHandle, error) {
	_, err := s.db.ExecContext(ctx, `
		UPDATE agent_runs SET status = 'RUNNING', updated_at = now()
		WHERE run_id IN (
			SELECT run_id FROM agent_runs
			WHERE status = 'PENDING'
			ORDER BY created_at ASC
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)`, limit)
	if err != nil {
		return nil, &errs.StateStoreError{Op: "ClaimPendingRuns", Cause: err}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.run_id, r.agent_name, r.input,
		       COALESCE(s.completed_steps, 0) AS completed_steps
		FROM agent_runs r
		LEFT JOIN (
			SELECT run_id, count(*) AS completed_steps
			FROM agent_steps
			WHERE status = 'SUCCESS'
			GROUP BY run_id
		) s ON s.run_id = r.run_id
		WHERE r.status = 'RUNNING' AND r.updated_at >= now() - interval '5 seconds'
		ORDER BY r.created_at ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, &errs.StateStoreError{Op: "ClaimPendingRuns", Cause: err}
	}
	defer rows.Close()

	var claimed []models.RunHandle
	for rows.Next() {
		var h models.RunHandle
		var inputJSON []byte
		if err := rows.Scan(&h.RunID, &h.AgentName, &inputJSON, &h.CompletedSteps); err != nil {
			return nil, &errs.StateStoreError{Op: "ClaimPendingRuns", Cause: err}
		}
		if len(inputJSON) > 0 {
			var input any
			if err := json.Unmarshal(inputJSON, &input); err == nil {
				h.Input = input
			}
		}
		h.Status = models.RunRunning
		claimed = append(claimed, h)
	}
	return claimed, rows.Err()
}

func (s *PostgresStore) LogStep(ctx context.Context, step models.Step) error {
	outputJSON, err := json.Marshal(step.Output)
	if err != nil {
		return &errs.StateStoreError{Op: "LogStep", Cause: err}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO agent_steps (run_id, step_index, step_name, status, output, model, tokens_used, latency_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (run_id, step_index) DO UPDATE SET
			step_name = EXCLUDED.step_name,
			status = EXCLUDED.status,
			output = EXCLUDED.output,
			model = EXCLUDED.model,
			tokens_used = EXCLUDED.tokens_used,
			latency_ms = EXCLUDED.latency_ms`,
		step.RunID, step.StepIndex, step.StepName, step.Status, outputJSON, step.Model, step.TokensUsed, step.LatencyMS)
	if err != nil {
		return &errs.StateStoreError{Op: "LogStep", Cause: err}
	}
	return nil
}

func (s *PostgresStore) UpdateRunStatus(ctx context.Context, runID string, status models.RunStatus) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE agent_runs SET status = $1, updated_at = now() WHERE run_id = $2`, status, runID)
	if err != nil {
		return &errs.StateStoreError{Op: "UpdateRunStatus", Cause: err}
	}
	return nil
}

func (s *PostgresStore) SaveMemory(ctx context.Context, runID, key string, value any) error {
	valueJSON, err := json.Marshal(value)
	if err != nil {
		return &errs.StateStoreError{Op: "SaveMemory", Cause: err}
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO agent_memory (run_id, key, value, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (run_id, key) DO UPDATE SET value = EXCLUDED.value`,
		runID, key, valueJSON)
	if err != nil {
		return &errs.StateStoreError{Op: "SaveMemory", Cause: err}
	}
	return nil
}

func (s *PostgresStore) GetRunSummary(ctx context.Context, runID string) (models.RunSummary, error) {
	var status models.RunStatus
	if err := s.db.QueryRowContext(ctx, `SELECT status FROM agent_runs WHERE run_id = $1`, runID).Scan(&status); err != nil {
		if err == sql.ErrNoRows {
			return models.RunSummary{}, fmt.Errorf("run not found: %s", runID)
		}
		return models.RunSummary{}, &errs.StateStoreError{Op: "GetRunSummary", Cause: err}
	}

	summary := models.RunSummary{RunID: runID, Status: status}
	row := s.db.QueryRowContext(ctx, `
		SELECT count(*), COALESCE(sum(tokens_used), 0), COALESCE(sum(latency_ms), 0)
		FROM agent_steps WHERE run_id = $1`, runID)
	if err := row.Scan(&summary.StepCount, &summary.TotalTokensUsed, &summary.TotalLatencyMS); err != nil {
		return models.RunSummary{}, &errs.StateStoreError{Op: "GetRunSummary", Cause: err}
	}
	return summary, nil
}

func (s *PostgresStore) RecoverStaleRuns(ctx context.Context, olderThanSeconds int) (int, error) {
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE agent_runs SET status = 'PENDING', updated_at = now()
		WHERE status = 'RUNNING' AND updated_at < now() - interval '%d seconds'`, olderThanSeconds))
	if err != nil {
		return 0, &errs.StateStoreError{Op: "RecoverStaleRuns", Cause: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, &errs.StateStoreError{Op: "RecoverStaleRuns", Cause: err}
	}
	return int(affected), nil
}
