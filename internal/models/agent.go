// Package models holds the control-plane data structures: agent
// definitions and their steps, runs, and step records.
package models

import (
	"time"

	"github.com/cortexrt/agent-runtime/internal/errs"
)

// StepType distinguishes a model-instruction step from a tool-invocation step.
type StepType string

const (
	StepInstruction StepType = "INSTRUCTION"
	StepToolUse     StepType = "TOOL_USE"
)

// RetryPolicy is parsed and stored alongside a definition but is not
// yet consulted by the executor (see SPEC_FULL.md §9.4).
type RetryPolicy struct {
	MaxRetries    int      `yaml:"max_retries" json:"max_retries"`
	RetryOnStatus []string `yaml:"retry_on_status" json:"retry_on_status"`
}

// DefaultRetryPolicy mirrors the YAML schema's documented defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, RetryOnStatus: []string{"FAILED"}}
}

// StepConfig describes one step of an agent definition.
type StepConfig struct {
	Name        string         `yaml:"name" json:"name"`
	Type        StepType       `yaml:"type" json:"type"`
	Instruction string         `yaml:"instruction,omitempty" json:"instruction,omitempty"`
	ToolName    string         `yaml:"tool_name,omitempty" json:"tool_name,omitempty"`
	Inputs      map[string]any `yaml:"inputs,omitempty" json:"inputs,omitempty"`
}

// Validate checks the type-dependent required fields, per the data
// model's registration-time invariant.
func (s StepConfig) Validate() error {
	if s.Name == "" {
		return errs.NewConfigurationError("step is missing a name")
	}
	switch s.Type {
	case StepInstruction:
		if s.Instruction == "" {
			return errs.NewConfigurationError("step %q of type INSTRUCTION requires an instruction", s.Name)
		}
	case StepToolUse:
		if s.ToolName == "" {
			return errs.NewConfigurationError("step %q of type TOOL_USE requires a tool_name", s.Name)
		}
	default:
		return errs.NewConfigurationError("step %q has unknown type %q", s.Name, s.Type)
	}
	return nil
}

// AgentDefinition is the most recent active configuration for an agent name.
type AgentDefinition struct {
	AgentName   string       `yaml:"name" json:"agent_name"`
	Model       string       `yaml:"model" json:"model"`
	Steps       []StepConfig `yaml:"steps" json:"steps"`
	Tools       []string     `yaml:"tools,omitempty" json:"tools,omitempty"`
	RetryPolicy RetryPolicy  `yaml:"retry_policy,omitempty" json:"retry_policy,omitempty"`
	Status      string       `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Validate enforces the registration-time invariants: a non-empty
// agent name, at least one step, unique step names, and type-valid
// step configuration.
func (d AgentDefinition) Validate() error {
	if d.AgentName == "" {
		return errs.NewConfigurationError("agent definition is missing a name")
	}
	if len(d.Steps) == 0 {
		return errs.NewConfigurationError("agent %q has no steps", d.AgentName)
	}
	seen := make(map[string]struct{}, len(d.Steps))
	for _, s := range d.Steps {
		if err := s.Validate(); err != nil {
			return err
		}
		if _, dup := seen[s.Name]; dup {
			return errs.NewConfigurationError("agent %q has duplicate step name %q", d.AgentName, s.Name)
		}
		seen[s.Name] = struct{}{}
	}
	return nil
}
