package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// CortexProvider is the production Provider. It wraps an optional
// chat-completion client (the "session"); when none is configured it
// falls back to a deterministic mock so the engine remains testable
// end-to-end without a live backend.
type CortexProvider struct {
	client *openai.Client
}

// NewCortexProvider wraps the given client. A nil client puts the
// provider in mock-fallback mode.
func NewCortexProvider(client *openai.Client) *CortexProvider {
	return &CortexProvider{client: client}
}

func (p *CortexProvider) Generate(ctx context.Context, prompt, model string, config map[string]any) (LLMResult, error) {
	start := time.Now()

	if p.client != nil {
		resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		})
		latency := float64(time.Since(start).Milliseconds())
		if err != nil {
			return LLMResult{}, fmt.Errorf("cortex provider: completion call failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return LLMResult{}, fmt.Errorf("cortex provider: no completion choices returned")
		}
		return LLMResult{
			Text:       resp.Choices[0].Message.Content,
			TokensUsed: resp.Usage.TotalTokens,
			LatencyMS:  latency,
			Raw:        resp,
		}, nil
	}

	// Fallback / mock behavior when no client is configured.
	latency := float64(time.Since(start).Milliseconds())
	preview := prompt
	if len(preview) > 50 {
		preview = preview[:50]
	}
	return LLMResult{
		Text:       fmt.Sprintf("Mock response from %s for prompt: %s...", model, preview),
		TokensUsed: len(strings.Fields(prompt)) + 10,
		LatencyMS:  latency,
		Raw:        map[string]any{"mock": true},
	}, nil
}
