// Package provider abstracts the language-model backend used by
// INSTRUCTION steps.
package provider

import "context"

// LLMResult bundles a completion's text with its observability metrics.
type LLMResult struct {
	Text       string
	TokensUsed int
	LatencyMS  float64
	Raw        any
}

// Provider produces a completion for a prompt against a named model.
type Provider interface {
	Generate(ctx context.Context, prompt, model string, config map[string]any) (LLMResult, error)
}
