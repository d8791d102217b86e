package models

import (
	"gopkg.in/yaml.v3"

	"github.com/cortexrt/agent-runtime/internal/errs"
)

// wrappedDocument matches callers that nest the definition under a
// top-level "agent:" key.
type wrappedDocument struct {
	Agent *yamlDefinition `yaml:"agent"`
}

// yamlDefinition mirrors AgentDefinition's YAML tags for direct unmarshal.
type yamlDefinition struct {
	Name        string       `yaml:"name"`
	Model       string       `yaml:"model"`
	Steps       []StepConfig `yaml:"steps"`
	Tools       []string     `yaml:"tools"`
	RetryPolicy *RetryPolicy `yaml:"retry_policy"`
}

// ParseDefinitionYAML parses an agent definition document, accepting
// either the direct form (name/model/steps at the document root) or
// the wrapped form (nested under a top-level "agent:" key).
func ParseDefinitionYAML(raw []byte) (AgentDefinition, error) {
	var direct yamlDefinition
	if err := yaml.Unmarshal(raw, &direct); err != nil {
		return AgentDefinition{}, errs.NewConfigurationError("invalid agent definition yaml: %v", err)
	}

	def := direct
	if def.Name == "" || len(def.Steps) == 0 {
		// Direct-form unmarshal found nothing usable; try the wrapped form.
		var wrapped wrappedDocument
		if err := yaml.Unmarshal(raw, &wrapped); err == nil && wrapped.Agent != nil {
			def = *wrapped.Agent
		}
	}

	steps := def.Steps
	for i := range steps {
		if steps[i].Type == "" {
			steps[i].Type = StepInstruction
		}
	}

	result := AgentDefinition{
		AgentName: def.Name,
		Model:     def.Model,
		Steps:     steps,
		Tools:     def.Tools,
	}
	if def.RetryPolicy != nil {
		result.RetryPolicy = *def.RetryPolicy
	} else {
		result.RetryPolicy = DefaultRetryPolicy()
	}

	if err := result.Validate(); err != nil {
		return AgentDefinition{}, err
	}
	return result, nil
}
