package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/ilyakaznacheev/cleanenv"

	"github.com/fosterfinance/deal-assistant/pkg/llm"
	"github.com/fosterfinance/deal-assistant/pkg/retry"
)

// DefaultConfigPath is read when present; every field can also come from
// the environment, which always wins.
const DefaultConfigPath = "config.yaml"

// Config holds all configuration for the deal assistant.
// Secrets (session secret) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8501"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config

	// TLS configuration (optional - if both provided, server uses HTTPS)
	TLSCertPath string `yaml:"tls_cert_path" env:"TLS_CERT_PATH" env-default:""`
	TLSKeyPath  string `yaml:"tls_key_path" env:"TLS_KEY_PATH" env-default:""`

	Session  SessionConfig  `yaml:"session"`
	Uploads  UploadConfig   `yaml:"uploads"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Provider ProviderConfig `yaml:"provider"`
	Retry    RetryConfig    `yaml:"retry"`
}

// SessionConfig controls the analyst session cookie and in-memory lifetime.
type SessionConfig struct {
	// Secret signs the session cookie. Generated per process if unset,
	// which logs everyone out on restart.
	Secret        string `yaml:"-" env:"SESSION_SECRET"`
	MaxAgeMinutes int    `yaml:"max_age_minutes" env:"SESSION_MAX_AGE_MINUTES" env-default:"60"`

	// SecretGenerated is true when Secret was not configured.
	SecretGenerated bool `yaml:"-"`
}

// MaxAge returns the idle lifetime of a session.
func (c *SessionConfig) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeMinutes) * time.Minute
}

// UploadConfig bounds uploaded deal databases.
type UploadConfig struct {
	MaxBytes int64 `yaml:"max_bytes" env:"UPLOAD_MAX_BYTES" env-default:"10485760"`
	MaxRows  int   `yaml:"max_rows" env:"UPLOAD_MAX_ROWS" env-default:"50000"`
}

// ScoringConfig controls reference-row selection.
type ScoringConfig struct {
	ContextSize int `yaml:"context_size" env:"SCORING_CONTEXT_SIZE" env-default:"3"`
}

// ProviderConfig holds server-level text-generation provider settings.
// API keys are never configured here: analysts supply them per session.
type ProviderConfig struct {
	Default            string        `yaml:"default" env:"PROVIDER" env-default:"gemini"`
	DefaultModel       string        `yaml:"default_model" env:"PROVIDER_DEFAULT_MODEL" env-default:"models/gemini-1.5-flash"`
	ModelPriorities    []string      `yaml:"model_priorities" env:"PROVIDER_MODEL_PRIORITIES" env-separator:"," env-default:"gemini-3.0-flash,gemini-3-flash,gemini-1.5-flash"`
	OpenAIDefaultModel string        `yaml:"openai_default_model" env:"OPENAI_DEFAULT_MODEL" env-default:"gpt-4o-mini"`
	GeminiBaseURL      string        `yaml:"gemini_base_url" env:"GEMINI_BASE_URL" env-default:""`
	OpenAIBaseURL      string        `yaml:"openai_base_url" env:"OPENAI_BASE_URL" env-default:""`
	AnthropicBaseURL   string        `yaml:"anthropic_base_url" env:"ANTHROPIC_BASE_URL" env-default:""`
	AnthropicModels    []string      `yaml:"anthropic_models" env:"ANTHROPIC_MODELS" env-separator:"," env-default:"claude-sonnet-4-5,claude-haiku-4-5"`
	RequestTimeout     time.Duration `yaml:"request_timeout" env:"PROVIDER_REQUEST_TIMEOUT" env-default:"120s"`
	MaxTokens          int           `yaml:"max_tokens" env:"PROVIDER_MAX_TOKENS" env-default:"2000"`
}

// RetryConfig is the policy for transient generation failures.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" env:"RETRY_MAX_ATTEMPTS" env-default:"3"`
	MinDelay    time.Duration `yaml:"min_delay" env:"RETRY_MIN_DELAY" env-default:"2s"`
	MaxDelay    time.Duration `yaml:"max_delay" env:"RETRY_MAX_DELAY" env-default:"10s"`
	Multiplier  float64       `yaml:"multiplier" env:"RETRY_MULTIPLIER" env-default:"1"`
}

// Load reads configuration from config.yaml (if present) with environment
// variable overrides. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	return LoadFile(DefaultConfigPath, version)
}

// LoadFile is Load with an explicit YAML path. A missing file is not an
// error: defaults and environment variables apply.
func LoadFile(path string, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := cfg.validateTLS(); err != nil {
		return nil, fmt.Errorf("invalid TLS configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.Session.Secret == "" {
		cfg.Session.Secret = uuid.NewString() + uuid.NewString()
		cfg.Session.SecretGenerated = true
	}

	cfg.Provider.OpenAIBaseURL = ResolveURLForDocker(cfg.Provider.OpenAIBaseURL)

	// Auto-derive BaseURL from Port if not explicitly set
	if cfg.BaseURL == "" {
		scheme := "http"
		if cfg.TLSCertPath != "" {
			scheme = "https"
		}
		cfg.BaseURL = (&url.URL{
			Scheme: scheme,
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}

// validateTLS ensures TLS configuration is valid if provided.
func (c *Config) validateTLS() error {
	certSet := c.TLSCertPath != ""
	keySet := c.TLSKeyPath != ""

	if certSet != keySet {
		return fmt.Errorf("both tls_cert_path and tls_key_path must be provided together")
	}

	if certSet {
		if _, err := os.Stat(c.TLSCertPath); err != nil {
			return fmt.Errorf("TLS cert file does not exist: %w", err)
		}
		if _, err := os.Stat(c.TLSKeyPath); err != nil {
			return fmt.Errorf("TLS key file does not exist: %w", err)
		}
	}

	return nil
}

func (c *Config) validate() error {
	if _, err := llm.ParseKind(c.Provider.Default); err != nil {
		return err
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1")
	}
	if c.Retry.MaxDelay < c.Retry.MinDelay {
		return fmt.Errorf("retry.max_delay must not be below retry.min_delay")
	}
	if c.Scoring.ContextSize < 1 {
		return fmt.Errorf("scoring.context_size must be at least 1")
	}
	return nil
}

// IsTLS returns true when the server should listen with HTTPS.
func (c *Config) IsTLS() bool {
	return c.TLSCertPath != "" && c.TLSKeyPath != ""
}

// RetryPolicy builds the retry configuration for generation calls.
func (c *Config) RetryPolicy() *retry.Config {
	return &retry.Config{
		MaxAttempts: c.Retry.MaxAttempts,
		MinDelay:    c.Retry.MinDelay,
		MaxDelay:    c.Retry.MaxDelay,
		Multiplier:  c.Retry.Multiplier,
		Unit:        time.Second,
	}
}

// FallbackModels returns the model each provider falls back to when the
// key cannot enumerate models.
func (c *Config) FallbackModels() map[llm.Kind]string {
	fallback := map[llm.Kind]string{
		llm.KindGemini: c.Provider.DefaultModel,
		llm.KindOpenAI: c.Provider.OpenAIDefaultModel,
	}
	if len(c.Provider.AnthropicModels) > 0 {
		fallback[llm.KindAnthropic] = c.Provider.AnthropicModels[0]
	}
	return fallback
}

// FactoryConfig builds the provider client factory settings.
func (c *Config) FactoryConfig() llm.FactoryConfig {
	return llm.FactoryConfig{
		GeminiBaseURL:    c.Provider.GeminiBaseURL,
		OpenAIBaseURL:    c.Provider.OpenAIBaseURL,
		AnthropicBaseURL: c.Provider.AnthropicBaseURL,
		AnthropicModels:  c.Provider.AnthropicModels,
		Timeout:          c.Provider.RequestTimeout,
		MaxTokens:        c.Provider.MaxTokens,
	}
}
