package models

import "time"

// RunStatus is the lifecycle state of a Run.
type RunStatus string

const (
	RunPending   RunStatus = "PENDING"
	RunRunning   RunStatus = "RUNNING"
	RunCompleted RunStatus = "COMPLETED"
	RunFailed    RunStatus = "FAILED"
)

// Run is one attempt to execute an agent definition against an input payload.
type Run struct {
	RunID     string    `json:"run_id"`
	AgentName string    `json:"agent_name"`
	Input     any       `json:"input"`
	Status    RunStatus `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RunHandle is what a claim hands to a RunExecutor: the run's identity
// plus how many of its steps are already SUCCESS, which determines the
// resume position.
type RunHandle struct {
	RunID          string
	AgentName      string
	Input          any
	Status         RunStatus
	CompletedSteps int

	// InjectedDefinition is a test-only escape hatch: when the store
	// has no active definition on file, the executor falls back to
	// this value if set, rather than failing the run.
	InjectedDefinition *AgentDefinition
}
