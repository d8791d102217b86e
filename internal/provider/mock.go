package provider

import "context"

// MockProvider unconditionally returns a fixed result. Used in tests.
type MockProvider struct{}

func (MockProvider) Generate(ctx context.Context, prompt, model string, config map[string]any) (LLMResult, error) {
	return LLMResult{
		Text:       "Explicit Mock Output",
		TokensUsed: 0,
		LatencyMS:  0,
		Raw:        map[string]any{},
	}, nil
}
