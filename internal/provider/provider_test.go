package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockProvider_Generate(t *testing.T) {
	p := MockProvider{}
	result, err := p.Generate(context.Background(), "any prompt", "any-model", nil)
	require.NoError(t, err)
	assert.Equal(t, "Explicit Mock Output", result.Text)
	assert.Equal(t, 0, result.TokensUsed)
	assert.Equal(t, float64(0), result.LatencyMS)
}

func TestCortexProvider_FallbackWithoutClient(t *testing.T) {
	p := NewCortexProvider(nil)
	result, err := p.Generate(context.Background(), "summarize this invoice for the customer", "gpt-4o-mini", nil)
	require.NoError(t, err)
	assert.Contains(t, result.Text, "Mock response from gpt-4o-mini for prompt:")
	assert.Contains(t, result.Text, "summarize this invoice for the customer")
	assert.Equal(t, len([]string{"summarize", "this", "invoice", "for", "the", "customer"})+10, result.TokensUsed)
}

func TestCortexProvider_FallbackTruncatesLongPrompts(t *testing.T) {
	p := NewCortexProvider(nil)
	longPrompt := ""
	for i := 0; i < 20; i++ {
		longPrompt += "word "
	}
	result, err := p.Generate(context.Background(), longPrompt, "gpt-4o", nil)
	require.NoError(t, err)
	assert.Contains(t, result.Text, longPrompt[:50])
}

func TestGetProvider(t *testing.T) {
	p, err := GetProvider("MOCK", nil)
	require.NoError(t, err)
	assert.IsType(t, MockProvider{}, p)

	p, err = GetProvider("cortex", nil)
	require.NoError(t, err)
	assert.IsType(t, &CortexProvider{}, p)

	_, err = GetProvider("unknown-kind", nil)
	require.Error(t, err)
}
