// Package stepexec executes a single agent step against the provider
// or tool registry, translating the step's configured type into the
// right call and shaping its result into step output text.
package stepexec

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/cortexrt/agent-runtime/internal/models"
	"github.com/cortexrt/agent-runtime/internal/provider"
	"github.com/cortexrt/agent-runtime/internal/runctx"
	"github.com/cortexrt/agent-runtime/internal/tools"
)

// Result is one step's outcome: its rendered output text plus the
// observability metrics RunExecutor logs alongside it.
type Result struct {
	OutputText string
	TokensUsed int
	LatencyMS  float64
}

// Executor dispatches a StepConfig to the Provider or ToolRegistry.
type Executor struct {
	Provider provider.Provider
	Tools    *tools.Registry
}

// New builds an Executor backed by the given provider and tool registry.
func New(p provider.Provider, t *tools.Registry) *Executor {
	return &Executor{Provider: p, Tools: t}
}

// Execute runs one step. An unknown step type returns (nil, nil),
// which RunExecutor treats as a failed step rather than propagating an
// error of its own.
func (e *Executor) Execute(ctx context.Context, step models.StepConfig, model string, rc runctx.Context) (*Result, error) {
	switch step.Type {
	case models.StepInstruction:
		return e.executeInstruction(ctx, step, model, rc)
	case models.StepToolUse:
		return e.executeToolUse(step, rc)
	default:
		return nil, nil
	}
}

func (e *Executor) executeInstruction(ctx context.Context, step models.StepConfig, model string, rc runctx.Context) (*Result, error) {
	prompt, err := renderInstruction(step.Instruction, rc)
	if err != nil {
		return nil, fmt.Errorf("rendering instruction for step %q: %w", step.Name, err)
	}

	result, err := e.Provider.Generate(ctx, prompt, model, nil)
	if err != nil {
		return nil, err
	}
	return &Result{
		OutputText: result.Text,
		TokensUsed: result.TokensUsed,
		LatencyMS:  result.LatencyMS,
	}, nil
}

// executeToolUse calls the registered tool and, on failure, encodes the
// cause as the step's output text rather than returning an error — the
// step still logs SUCCESS (per §4.5's log_step call) carrying the error
// text as its output.
func (e *Executor) executeToolUse(step models.StepConfig, rc runctx.Context) (*Result, error) {
	input := make(map[string]runctx.Value, len(rc)+len(step.Inputs))
	for k, v := range rc {
		input[k] = v
	}
	for k, v := range step.Inputs {
		input[k] = runctx.FromAny(v)
	}

	out, err := e.Tools.Execute(step.ToolName, input)
	if err != nil {
		return &Result{OutputText: fmt.Sprintf("Error executing tool %s: %v", step.ToolName, err)}, nil
	}
	return &Result{OutputText: fmt.Sprintf("%v", out)}, nil
}

// renderInstruction interpolates a step's instruction template against
// the run context, making each context key available as {{.key}}.
func renderInstruction(instruction string, rc runctx.Context) (string, error) {
	tmpl, err := template.New("instruction").Parse(instruction)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, rc.ToMap()); err != nil {
		return "", err
	}
	return buf.String(), nil
}
