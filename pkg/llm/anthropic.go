package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"
)

const defaultAnthropicMaxTokens = 2000

// AnthropicClient talks to the Anthropic Messages API. The API key cannot
// enumerate models, so ListModels returns the configured catalogue.
type AnthropicClient struct {
	client    *anthropic.Client
	models    []string
	maxTokens int
	logger    *zap.Logger
}

// NewAnthropicClient creates an Anthropic client.
func NewAnthropicClient(cfg *Config, logger *zap.Logger) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	opts := []anthropic.ClientOption{
		anthropic.WithHTTPClient(newHTTPClient(cfg)),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, anthropic.WithBaseURL(strings.TrimSuffix(cfg.Endpoint, "/")))
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	return &AnthropicClient{
		client:    anthropic.NewClient(cfg.APIKey, opts...),
		models:    append([]string(nil), cfg.Models...),
		maxTokens: maxTokens,
		logger:    logger.Named("llm.anthropic"),
	}, nil
}

// Provider implements Client.
func (c *AnthropicClient) Provider() Kind {
	return KindAnthropic
}

// GenerateText sends prompt as a single user message.
func (c *AnthropicClient) GenerateText(ctx context.Context, model string, prompt string) (string, error) {
	c.logger.Debug("LLM request",
		zap.String("model", model),
		zap.Int("prompt_len", len(prompt)))

	start := time.Now()

	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.Message{
			{Role: anthropic.RoleUser, Content: []anthropic.MessageContent{
				{Type: "text", Text: &prompt},
			}},
		},
	})
	if err != nil {
		c.logger.Warn("LLM request failed",
			zap.String("model", model),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return "", classifyForModel(err, model)
	}

	text := extractText(resp)
	if text == "" {
		return "", NewError(ErrorTypeUnknown, "no text content in response", false, nil)
	}

	c.logger.Info("LLM request completed",
		zap.String("model", model),
		zap.Int("prompt_tokens", resp.Usage.InputTokens),
		zap.Int("completion_tokens", resp.Usage.OutputTokens),
		zap.Duration("elapsed", time.Since(start)))

	return text, nil
}

// ListModels returns the configured model catalogue.
func (c *AnthropicClient) ListModels(ctx context.Context) ([]string, error) {
	return append([]string(nil), c.models...), nil
}

func extractText(resp anthropic.MessagesResponse) string {
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != nil {
			return *block.Text
		}
	}
	return ""
}
