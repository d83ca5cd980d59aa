package llm

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// generateContentAction marks models usable for text generation.
const generateContentAction = "generateContent"

// GeminiClient talks to the Gemini API through the Google GenAI SDK.
type GeminiClient struct {
	client *genai.Client
	logger *zap.Logger
}

// NewGeminiClient creates a Gemini client authenticated with cfg.APIKey.
func NewGeminiClient(ctx context.Context, cfg *Config, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: newHTTPClient(cfg),
	}
	if cfg.Endpoint != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiClient{
		client: client,
		logger: logger.Named("llm.gemini"),
	}, nil
}

// Provider implements Client.
func (c *GeminiClient) Provider() Kind {
	return KindGemini
}

// GenerateText generates content for a single text prompt.
func (c *GeminiClient) GenerateText(ctx context.Context, model string, prompt string) (string, error) {
	c.logger.Debug("LLM request",
		zap.String("model", model),
		zap.Int("prompt_len", len(prompt)))

	start := time.Now()

	resp, err := c.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		c.logger.Warn("LLM request failed",
			zap.String("model", model),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", classifyForModel(err, model)
	}

	text := resp.Text()
	if text == "" {
		return "", NewError(ErrorTypeUnknown, "empty response (possibly blocked by safety filters)", false, nil)
	}

	fields := []zap.Field{
		zap.String("model", model),
		zap.Duration("elapsed", time.Since(start)),
	}
	if resp.UsageMetadata != nil {
		fields = append(fields,
			zap.Int32("prompt_tokens", resp.UsageMetadata.PromptTokenCount),
			zap.Int32("completion_tokens", resp.UsageMetadata.CandidatesTokenCount))
	}
	c.logger.Info("LLM request completed", fields...)

	return text, nil
}

// ListModels returns models that support generateContent, in API order.
func (c *GeminiClient) ListModels(ctx context.Context) ([]string, error) {
	var names []string
	for m, err := range c.client.Models.All(ctx) {
		if err != nil {
			return nil, ClassifyError(err)
		}
		if slices.Contains(m.SupportedActions, generateContentAction) {
			names = append(names, m.Name)
		}
	}
	return names, nil
}
