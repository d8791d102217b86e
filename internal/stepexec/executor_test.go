package stepexec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexrt/agent-runtime/internal/models"
	"github.com/cortexrt/agent-runtime/internal/provider"
	"github.com/cortexrt/agent-runtime/internal/runctx"
	"github.com/cortexrt/agent-runtime/internal/tools"
)

func TestExecutor_ExecuteInstruction(t *testing.T) {
	e := New(provider.MockProvider{}, tools.NewRegistry())
	rc := runctx.Build(map[string]any{"topic": "invoices"})

	result, err := e.Execute(context.Background(), models.StepConfig{
		Name:        "summarize",
		Type:        models.StepInstruction,
		Instruction: "Summarize: {{.input}}",
	}, "gpt-4o-mini", rc)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "Explicit Mock Output", result.OutputText)
}

func TestExecutor_ExecuteToolUseSuccess(t *testing.T) {
	reg := tools.NewRegistry()
	tools.RegisterBuiltins(reg)
	e := New(provider.MockProvider{}, reg)

	rc := runctx.Context{
		"a": runctx.FromAny(10),
		"b": runctx.FromAny(20),
	}

	result, err := e.Execute(context.Background(), models.StepConfig{
		Name:     "calc",
		Type:     models.StepToolUse,
		ToolName: "calculator",
	}, "n/a", rc)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "30", result.OutputText)
}

// A missing tool is encoded as the step's output text, not a
// propagated error: the step still logs SUCCESS (§4.5), carrying the
// failure description as its output rather than aborting the run.
func TestExecutor_ExecuteToolUseMissingToolEncodesFailureAsOutput(t *testing.T) {
	e := New(provider.MockProvider{}, tools.NewRegistry())
	rc := runctx.Context{}

	result, err := e.Execute(context.Background(), models.StepConfig{
		Name:     "calc",
		Type:     models.StepToolUse,
		ToolName: "does_not_exist",
	}, "n/a", rc)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Contains(t, result.OutputText, "Error executing tool does_not_exist")
}

func TestExecutor_ExecuteUnknownStepTypeReturnsNil(t *testing.T) {
	e := New(provider.MockProvider{}, tools.NewRegistry())
	result, err := e.Execute(context.Background(), models.StepConfig{
		Name: "mystery",
		Type: "SOMETHING_ELSE",
	}, "n/a", runctx.Context{})

	require.NoError(t, err)
	assert.Nil(t, result)
}
