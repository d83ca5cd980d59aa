package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fosterfinance/deal-assistant/pkg/apperrors"
	"github.com/fosterfinance/deal-assistant/pkg/llm"
	"github.com/fosterfinance/deal-assistant/pkg/logging"
	"github.com/fosterfinance/deal-assistant/pkg/metrics"
	"github.com/fosterfinance/deal-assistant/pkg/models"
	"github.com/fosterfinance/deal-assistant/pkg/prompts"
	"github.com/fosterfinance/deal-assistant/pkg/retry"
	"github.com/fosterfinance/deal-assistant/pkg/scoring"
)

// ErrEmptyProposal is returned when the provider answers with no text.
var ErrEmptyProposal = errors.New("provider returned an empty proposal")

// ProposalService ranks historic deals against a scenario and drafts
// credit proposals from them.
type ProposalService interface {
	// Match selects the reference rows for query without calling a provider.
	Match(sess *models.Session, query string) (*models.ContextSet, error)

	// Generate runs the full workflow: validation, scoring, prompt assembly
	// and the provider call under the retry policy. Provider failures are
	// returned as *GenerationError.
	Generate(ctx context.Context, sess *models.Session, query string) (*models.Proposal, error)
}

// ProposalServiceConfig holds generation settings.
type ProposalServiceConfig struct {
	ContextSize int
	Retry       *retry.Config
}

type proposalService struct {
	factory llm.ClientFactory
	cfg     ProposalServiceConfig
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

var _ ProposalService = (*proposalService)(nil)

// NewProposalService creates a new proposal service with dependencies.
// m may be nil.
func NewProposalService(factory llm.ClientFactory, cfg ProposalServiceConfig, m *metrics.Metrics, logger *zap.Logger) ProposalService {
	if cfg.ContextSize <= 0 {
		cfg.ContextSize = scoring.DefaultContextSize
	}
	if cfg.Retry == nil {
		cfg.Retry = retry.DefaultConfig()
	}
	return &proposalService{
		factory: factory,
		cfg:     cfg,
		metrics: m,
		logger:  logger.Named("proposal-service"),
		now:     time.Now,
	}
}

func (s *proposalService) Match(sess *models.Session, query string) (*models.ContextSet, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.NewValidationError("query", apperrors.ErrEmptyQuery)
	}
	if !sess.HasTable() {
		return nil, apperrors.NewValidationError("file", apperrors.ErrNoTable)
	}

	set := scoring.SelectContext(query, sess.Table, s.cfg.ContextSize)
	s.metrics.ObserveContextSelection(string(set.Mode))
	return set, nil
}

// validate checks generation preconditions in the order the analyst
// would fix them.
func validate(sess *models.Session, query string) error {
	switch {
	case query == "":
		return apperrors.NewValidationError("query", apperrors.ErrEmptyQuery)
	case !sess.HasTable():
		return apperrors.NewValidationError("file", apperrors.ErrNoTable)
	case !sess.HasCredential():
		return apperrors.NewValidationError("api_key", apperrors.ErrMissingCredential)
	case sess.Model == "":
		return apperrors.NewValidationError("model", apperrors.ErrNoModel)
	}
	return nil
}

func (s *proposalService) Generate(ctx context.Context, sess *models.Session, query string) (*models.Proposal, error) {
	query = strings.TrimSpace(query)
	if err := validate(sess, query); err != nil {
		return nil, err
	}

	trace := []models.GenerationState{models.StateIdle, models.StateScoring}
	set := scoring.SelectContext(query, sess.Table, s.cfg.ContextSize)
	s.metrics.ObserveContextSelection(string(set.Mode))

	prompt := prompts.BuildProposalPrompt(query, set)
	trace = append(trace, models.StatePromptBuilt)

	model := sess.Model
	start := s.now()
	attempts := 0

	s.logger.Debug("Generating proposal",
		zap.String("provider", sess.Provider),
		zap.String("model", model),
		zap.String("query", logging.SanitizeQuery(query)),
		zap.String("context_mode", string(set.Mode)),
		zap.Int("context_rows", set.Len()),
		zap.Int("prompt_length", len(prompt)))

	fail := func(err error) (*models.Proposal, error) {
		trace = append(trace, models.StateFatalFailure)
		genErr := newGenerationError(err, model, attempts, trace)
		s.metrics.ObserveGeneration(sess.Provider, string(genErr.Kind), attempts, s.now().Sub(start))
		s.logger.Error("Proposal generation failed",
			zap.String("model", model),
			zap.String("kind", string(genErr.Kind)),
			zap.Int("attempts", attempts),
			zap.String("error", logging.SanitizeError(err)))
		return nil, genErr
	}

	kind, err := llm.ParseKind(sess.Provider)
	if err != nil {
		return fail(err)
	}
	client, err := s.factory.Create(ctx, kind, sess.APIKey)
	if err != nil {
		return fail(err)
	}

	policy := *s.cfg.Retry
	policy.OnRetry = func(attempt int, err error, wait time.Duration) {
		trace = append(trace, models.StateRetryableFailure)
		s.logger.Warn("Retryable provider failure",
			zap.String("model", model),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.String("error", logging.SanitizeError(err)))
	}

	text, err := retry.DoIfRetryableWithResult(ctx, &policy, func() (string, error) {
		attempts++
		trace = append(trace, models.StateRequesting)

		text, err := client.GenerateText(ctx, model, prompt)
		if err != nil {
			return "", llm.ClassifyError(err)
		}
		if strings.TrimSpace(text) == "" {
			return "", llm.NewError(llm.ErrorTypeUnknown, "empty response", false, ErrEmptyProposal)
		}
		return text, nil
	})
	if err != nil {
		return fail(err)
	}

	trace = append(trace, models.StateSucceeded)
	elapsed := s.now().Sub(start)
	s.metrics.ObserveGeneration(sess.Provider, string(models.StateSucceeded), attempts, elapsed)
	s.logger.Info("Proposal generated",
		zap.String("model", model),
		zap.Int("attempts", attempts),
		zap.Duration("elapsed", elapsed),
		zap.Int("length", len(text)))

	return &models.Proposal{
		Text:        text,
		Provider:    sess.Provider,
		Model:       model,
		Attempts:    attempts,
		Context:     set,
		Trace:       trace,
		GeneratedAt: s.now(),
	}, nil
}
