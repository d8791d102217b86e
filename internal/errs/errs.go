// Package errs defines the sentinel error taxonomy shared across the
// runtime: configuration problems, missing definitions, provider and
// tool failures, and durable-write failures.
package errs

import "fmt"

// ConfigurationError signals an unknown provider kind, a malformed
// definition, or a missing required field caught at registration time.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// NewConfigurationError builds a ConfigurationError with a formatted reason.
func NewConfigurationError(format string, args ...any) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// DefinitionMissing signals that no active AgentDefinition exists for
// an agent name and no definition was injected for testing.
type DefinitionMissing struct {
	AgentName string
}

func (e *DefinitionMissing) Error() string {
	return fmt.Sprintf("no active definition for agent %q", e.AgentName)
}

// ProviderError wraps a failure from a language-model backend call.
type ProviderError struct {
	Model string
	Cause error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error (model %s): %v", e.Model, e.Cause)
}

func (e *ProviderError) Unwrap() error { return e.Cause }

// ToolNotFound signals that no callable is registered under a name.
type ToolNotFound struct {
	Name string
}

func (e *ToolNotFound) Error() string {
	return fmt.Sprintf("tool %q not found in registry", e.Name)
}

// ToolInvocationError wraps a failure raised while binding arguments to
// or invoking a registered tool.
type ToolInvocationError struct {
	Name  string
	Cause error
}

func (e *ToolInvocationError) Error() string {
	return fmt.Sprintf("error executing tool %s: %v", e.Name, e.Cause)
}

func (e *ToolInvocationError) Unwrap() error { return e.Cause }

// StateStoreError wraps a failure performing a durable read or write.
// The run is left in its current state (typically RUNNING) and will
// not advance until resumed or recovered.
type StateStoreError struct {
	Op    string
	Cause error
}

func (e *StateStoreError) Error() string {
	return fmt.Sprintf("state store error during %s: %v", e.Op, e.Cause)
}

func (e *StateStoreError) Unwrap() error { return e.Cause }
