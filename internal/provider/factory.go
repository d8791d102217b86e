package provider

import (
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/cortexrt/agent-runtime/internal/errs"
)

// GetProvider selects a Provider implementation by name. kind is matched
// case-insensitively against "cortex" and "mock". client is only used by
// the cortex provider and may be nil, in which case CortexProvider runs
// in its deterministic mock-fallback mode.
func GetProvider(kind string, client *openai.Client) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "cortex":
		return NewCortexProvider(client), nil
	case "mock":
		return MockProvider{}, nil
	default:
		return nil, errs.NewConfigurationError("unknown provider kind %q", kind)
	}
}
