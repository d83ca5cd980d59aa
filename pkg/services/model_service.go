package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/fosterfinance/deal-assistant/pkg/apperrors"
	"github.com/fosterfinance/deal-assistant/pkg/llm"
	"github.com/fosterfinance/deal-assistant/pkg/logging"
	"github.com/fosterfinance/deal-assistant/pkg/models"
)

// ConnectResult reports the outcome of connecting a provider credential.
type ConnectResult struct {
	Connected     bool     `json:"connected"`
	Provider      string   `json:"provider"`
	Models        []string `json:"models"`
	SelectedModel string   `json:"selected_model"`
	AutoSelected  bool     `json:"auto_selected"`
	Message       string   `json:"message"`
}

// ModelService connects provider credentials and manages model choice.
type ModelService interface {
	// Connect stores the credential on the session, enumerates the models it
	// can use and picks one by priority. A listing failure is not an error:
	// the session falls back to the provider's default model.
	Connect(ctx context.Context, sess *models.Session, provider, apiKey string) (*ConnectResult, error)

	// Choose overrides the selected model.
	Choose(sess *models.Session, model string) error
}

// ModelServiceConfig holds model selection settings.
type ModelServiceConfig struct {
	Priorities     []string
	FallbackModels map[llm.Kind]string
}

type modelService struct {
	factory llm.ClientFactory
	cfg     ModelServiceConfig
	logger  *zap.Logger
}

var _ ModelService = (*modelService)(nil)

// NewModelService creates a new model service with dependencies.
func NewModelService(factory llm.ClientFactory, cfg ModelServiceConfig, logger *zap.Logger) ModelService {
	if len(cfg.Priorities) == 0 {
		cfg.Priorities = llm.DefaultModelPriorities
	}
	return &modelService{
		factory: factory,
		cfg:     cfg,
		logger:  logger.Named("model-service"),
	}
}

func (s *modelService) Connect(ctx context.Context, sess *models.Session, provider, apiKey string) (*ConnectResult, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, apperrors.NewValidationError("api_key", apperrors.ErrMissingCredential)
	}
	kind, err := llm.ParseKind(provider)
	if err != nil {
		return nil, apperrors.NewValidationError("provider", err)
	}

	available, err := s.listModels(ctx, kind, apiKey)
	if err != nil || len(available) == 0 {
		fallback := s.cfg.FallbackModels[kind]
		sess.SetConnection(string(kind), apiKey, nil, fallback)

		msg := fmt.Sprintf("No models are available for this key. Using default model %s.", fallback)
		if err != nil {
			s.logger.Warn("Model listing failed, using fallback model",
				zap.String("provider", string(kind)),
				zap.String("fallback_model", fallback),
				zap.String("error", logging.SanitizeError(err)))
			msg = fmt.Sprintf("%s Using default model %s.", UserMessage(err), fallback)
		}
		return &ConnectResult{
			Connected:     false,
			Provider:      string(kind),
			SelectedModel: fallback,
			Message:       msg,
		}, nil
	}

	selected, auto := llm.SelectModel(available, s.cfg.Priorities)
	if !auto {
		selected = available[0]
	}
	sess.SetConnection(string(kind), apiKey, available, selected)

	s.logger.Info("Provider connected",
		zap.String("provider", string(kind)),
		zap.String("api_key", models.MaskedAPIKey(apiKey)),
		zap.Int("models", len(available)),
		zap.String("selected_model", selected),
		zap.Bool("auto_selected", auto))

	return &ConnectResult{
		Connected:     true,
		Provider:      string(kind),
		Models:        available,
		SelectedModel: selected,
		AutoSelected:  auto,
		Message:       fmt.Sprintf("Connected! Found %d models.", len(available)),
	}, nil
}

func (s *modelService) listModels(ctx context.Context, kind llm.Kind, apiKey string) ([]string, error) {
	client, err := s.factory.Create(ctx, kind, apiKey)
	if err != nil {
		return nil, err
	}
	available, err := client.ListModels(ctx)
	if err != nil {
		return nil, llm.ClassifyError(err)
	}
	return available, nil
}

func (s *modelService) Choose(sess *models.Session, model string) error {
	model = strings.TrimSpace(model)
	if model == "" {
		return apperrors.NewValidationError("model", apperrors.ErrNoModel)
	}
	if !sess.HasCredential() {
		return apperrors.NewValidationError("api_key", apperrors.ErrMissingCredential)
	}
	if len(sess.AvailableModels) > 0 && !slices.Contains(sess.AvailableModels, model) {
		return apperrors.NewValidationError("model", apperrors.ErrUnknownModel)
	}
	sess.Model = model
	return nil
}
