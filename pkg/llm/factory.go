package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Kind identifies a text-generation provider.
type Kind string

const (
	KindGemini    Kind = "gemini"
	KindOpenAI    Kind = "openai"
	KindAnthropic Kind = "anthropic"
)

// ParseKind parses a provider name, defaulting to Gemini when empty.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case "", KindGemini:
		return KindGemini, nil
	case KindOpenAI:
		return KindOpenAI, nil
	case KindAnthropic:
		return KindAnthropic, nil
	}
	return "", fmt.Errorf("unknown provider %q", s)
}

// FactoryConfig holds server-level provider settings. Credentials are not
// part of it: each session supplies its own key.
type FactoryConfig struct {
	GeminiBaseURL    string
	OpenAIBaseURL    string
	AnthropicBaseURL string
	AnthropicModels  []string
	Timeout          time.Duration
	MaxTokens        int
}

// ClientFactory is the interface for creating provider clients.
// Use this interface for dependency injection and testing.
type ClientFactory interface {
	Create(ctx context.Context, kind Kind, apiKey string) (Client, error)
}

// DefaultClientFactory creates real SDK-backed clients.
type DefaultClientFactory struct {
	cfg    FactoryConfig
	logger *zap.Logger
}

// NewClientFactory creates a new factory.
func NewClientFactory(cfg FactoryConfig, logger *zap.Logger) *DefaultClientFactory {
	return &DefaultClientFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// Create builds a client for kind authenticated with apiKey.
func (f *DefaultClientFactory) Create(ctx context.Context, kind Kind, apiKey string) (Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}

	clientCfg := &Config{
		APIKey:    apiKey,
		Timeout:   f.cfg.Timeout,
		MaxTokens: f.cfg.MaxTokens,
	}

	switch kind {
	case KindGemini, "":
		clientCfg.Endpoint = f.cfg.GeminiBaseURL
		client, err := NewGeminiClient(ctx, clientCfg, f.logger)
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		return client, nil
	case KindOpenAI:
		clientCfg.Endpoint = f.cfg.OpenAIBaseURL
		client, err := NewOpenAIClient(clientCfg, f.logger)
		if err != nil {
			return nil, fmt.Errorf("create openai client: %w", err)
		}
		return client, nil
	case KindAnthropic:
		clientCfg.Endpoint = f.cfg.AnthropicBaseURL
		clientCfg.Models = f.cfg.AnthropicModels
		client, err := NewAnthropicClient(clientCfg, f.logger)
		if err != nil {
			return nil, fmt.Errorf("create anthropic client: %w", err)
		}
		return client, nil
	}
	return nil, fmt.Errorf("unknown provider %q", kind)
}

// Ensure DefaultClientFactory implements ClientFactory at compile time.
var _ ClientFactory = (*DefaultClientFactory)(nil)
