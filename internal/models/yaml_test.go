package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefinitionYAML_Direct(t *testing.T) {
	raw := []byte(`
name: invoice-agent
model: gpt-4o-mini
tools: [calculator]
steps:
  - name: summarize
    type: INSTRUCTION
    instruction: "Summarize: {{.input}}"
  - name: total
    type: TOOL_USE
    tool_name: calculator
`)
	def, err := ParseDefinitionYAML(raw)
	require.NoError(t, err)
	assert.Equal(t, "invoice-agent", def.AgentName)
	assert.Equal(t, "gpt-4o-mini", def.Model)
	require.Len(t, def.Steps, 2)
	assert.Equal(t, StepInstruction, def.Steps[0].Type)
	assert.Equal(t, StepToolUse, def.Steps[1].Type)
	assert.Equal(t, []string{"calculator"}, def.Tools)
}

func TestParseDefinitionYAML_Wrapped(t *testing.T) {
	raw := []byte(`
agent:
  name: wrapped-agent
  model: gpt-4o
  steps:
    - name: s1
      type: INSTRUCTION
      instruction: "hello"
`)
	def, err := ParseDefinitionYAML(raw)
	require.NoError(t, err)
	assert.Equal(t, "wrapped-agent", def.AgentName)
	require.Len(t, def.Steps, 1)
}

func TestParseDefinitionYAML_DefaultsStepTypeToInstruction(t *testing.T) {
	raw := []byte(`
name: terse-agent
model: m
steps:
  - name: s1
    instruction: "hello"
`)
	def, err := ParseDefinitionYAML(raw)
	require.NoError(t, err)
	require.Len(t, def.Steps, 1)
	assert.Equal(t, StepInstruction, def.Steps[0].Type)
}

func TestParseDefinitionYAML_MissingRequiredField(t *testing.T) {
	raw := []byte(`
name: bad-agent
model: m
steps:
  - name: s1
    type: TOOL_USE
`)
	_, err := ParseDefinitionYAML(raw)
	require.Error(t, err)
}

func TestParseDefinitionYAML_DuplicateStepNames(t *testing.T) {
	raw := []byte(`
name: dup-agent
model: m
steps:
  - name: s1
    type: INSTRUCTION
    instruction: a
  - name: s1
    type: INSTRUCTION
    instruction: b
`)
	_, err := ParseDefinitionYAML(raw)
	require.Error(t, err)
}

func TestParseDefinitionYAML_RetryPolicyDefaults(t *testing.T) {
	raw := []byte(`
name: a
model: m
steps:
  - name: s1
    type: INSTRUCTION
    instruction: a
`)
	def, err := ParseDefinitionYAML(raw)
	require.NoError(t, err)
	assert.Equal(t, DefaultRetryPolicy(), def.RetryPolicy)
}
