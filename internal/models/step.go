package models

import "time"

// StepStatus is the outcome of one attempted step execution.
type StepStatus string

const (
	StepSuccess StepStatus = "SUCCESS"
	StepFailed  StepStatus = "FAILED"
)

// Step is one row per attempted step per run. (run_id, step_index) is unique.
type Step struct {
	RunID      string     `json:"run_id"`
	StepIndex  int        `json:"step_index"`
	StepName   string     `json:"step_name"`
	Status     StepStatus `json:"status"`
	Output     any        `json:"output"`
	Model      string     `json:"model"`
	TokensUsed int        `json:"tokens_used"`
	LatencyMS  float64    `json:"latency_ms"`
	CreatedAt  time.Time  `json:"created_at"`
}

// RunSummary aggregates a run's steps for observability.
type RunSummary struct {
	RunID           string    `json:"run_id"`
	Status          RunStatus `json:"status"`
	StepCount       int       `json:"step_count"`
	TotalTokensUsed int       `json:"total_tokens_used"`
	TotalLatencyMS  float64   `json:"total_latency_ms"`
}
