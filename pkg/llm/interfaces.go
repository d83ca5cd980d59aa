// Package llm provides the text-generation provider boundary: Gemini,
// OpenAI-compatible and Anthropic clients behind one capability interface.
package llm

import (
	"context"
)

// TextGenerator turns a prompt into text using the named model.
// Business logic depends only on this capability so it can be tested
// with a fake provider.
type TextGenerator interface {
	GenerateText(ctx context.Context, model string, prompt string) (string, error)
}

// ModelLister enumerates the models a credential can use for generation.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// Client is a provider connection authenticated with one credential.
type Client interface {
	TextGenerator
	ModelLister

	// Provider returns the provider kind this client talks to.
	Provider() Kind
}

// Ensure implementations satisfy Client at compile time.
var (
	_ Client = (*GeminiClient)(nil)
	_ Client = (*OpenAIClient)(nil)
	_ Client = (*AnthropicClient)(nil)
	_ Client = (*MockClient)(nil)
)
