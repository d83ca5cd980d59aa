package llm

import (
	"context"
)

// MockClient is a configurable fake provider for tests.
// Set the function fields to control behavior.
type MockClient struct {
	// GenerateTextFunc is called when GenerateText is invoked.
	// If nil, returns "mock response".
	GenerateTextFunc func(ctx context.Context, model string, prompt string) (string, error)

	// ListModelsFunc is called when ListModels is invoked.
	// If nil, returns Models.
	ListModelsFunc func(ctx context.Context) ([]string, error)

	// Models is returned by ListModels when ListModelsFunc is nil.
	Models []string

	// Kind is returned by Provider. Defaults to KindGemini.
	Kind Kind

	// Call tracking for verification
	GenerateTextCalls int
	ListModelsCalls   int
	LastPrompt        string
	LastModel         string
}

// NewMockClient creates a new mock with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{
		Models: []string{"models/gemini-1.5-flash"},
		Kind:   KindGemini,
	}
}

// Provider implements Client.
func (m *MockClient) Provider() Kind {
	return m.Kind
}

// GenerateText implements TextGenerator.
func (m *MockClient) GenerateText(ctx context.Context, model string, prompt string) (string, error) {
	m.GenerateTextCalls++
	m.LastModel = model
	m.LastPrompt = prompt
	if m.GenerateTextFunc != nil {
		return m.GenerateTextFunc(ctx, model, prompt)
	}
	return "mock response", nil
}

// ListModels implements ModelLister.
func (m *MockClient) ListModels(ctx context.Context) ([]string, error) {
	m.ListModelsCalls++
	if m.ListModelsFunc != nil {
		return m.ListModelsFunc(ctx)
	}
	return append([]string(nil), m.Models...), nil
}

// MockClientFactory returns a fixed client (or error) for every Create call.
type MockClientFactory struct {
	Client Client
	Err    error

	CreateCalls int
	LastKind    Kind
	LastAPIKey  string
}

// Create implements ClientFactory.
func (f *MockClientFactory) Create(ctx context.Context, kind Kind, apiKey string) (Client, error) {
	f.CreateCalls++
	f.LastKind = kind
	f.LastAPIKey = apiKey
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Client, nil
}

var _ ClientFactory = (*MockClientFactory)(nil)
