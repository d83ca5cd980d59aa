package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fosterfinance/deal-assistant/pkg/apperrors"
	"github.com/fosterfinance/deal-assistant/pkg/config"
	"github.com/fosterfinance/deal-assistant/pkg/llm"
	"github.com/fosterfinance/deal-assistant/pkg/logging"
	"github.com/fosterfinance/deal-assistant/pkg/models"
	"github.com/fosterfinance/deal-assistant/pkg/services"
)

// workflow holds the services a command needs, built from config.yaml and
// the environment the same way the server builds them.
type workflow struct {
	cfg       *config.Config
	logger    *zap.Logger
	models    services.ModelService
	proposals services.ProposalService
}

func newWorkflow(opts *options) (*workflow, error) {
	cfg, err := config.Load("cli")
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	logger, err := logging.NewLogger(cfg.Env, level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	factory := opts.factory
	if factory == nil {
		factory = llm.NewClientFactory(cfg.FactoryConfig(), logger)
	}
	contextSize := cfg.Scoring.ContextSize
	if opts.contextSize > 0 {
		contextSize = opts.contextSize
	}

	return &workflow{
		cfg:    cfg,
		logger: logger,
		models: services.NewModelService(factory, services.ModelServiceConfig{
			Priorities:     cfg.Provider.ModelPriorities,
			FallbackModels: cfg.FallbackModels(),
		}, logger),
		proposals: services.NewProposalService(factory, services.ProposalServiceConfig{
			ContextSize: contextSize,
			Retry:       cfg.RetryPolicy(),
		}, nil, logger),
	}, nil
}

// connect returns a session holding the credential and selected model.
func (w *workflow) connect(ctx context.Context, opts *options) (*models.Session, *services.ConnectResult, error) {
	key := opts.key()
	if key == "" {
		return nil, nil, fmt.Errorf("%s (use --api-key or %s)", services.UserMessage(apperrors.ErrMissingCredential), apiKeyEnv)
	}

	sess := models.NewSession(time.Now())
	result, err := w.models.Connect(ctx, sess, opts.provider, key)
	if err != nil {
		return nil, nil, errors.New(services.UserMessage(err))
	}
	if opts.model != "" {
		if err := w.models.Choose(sess, opts.model); err != nil {
			return nil, nil, errors.New(services.UserMessage(err))
		}
	}
	return sess, result, nil
}

func newModelsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models available to an API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := newWorkflow(opts)
			if err != nil {
				return err
			}
			defer func() { _ = w.logger.Sync() }()

			sess, result, err := w.connect(cmd.Context(), opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, result.Message)
			for _, m := range result.Models {
				marker := " "
				if m == sess.Model {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s\n", marker, m)
			}
			return nil
		},
	}
}

func newGenerateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "generate <scenario>",
		Short: "Draft a credit proposal for a client scenario",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			w, err := newWorkflow(opts)
			if err != nil {
				return err
			}
			defer func() { _ = w.logger.Sync() }()

			table, err := loadTable(opts.database)
			if err != nil {
				return errors.New(services.UserMessage(err))
			}

			sess, _, err := w.connect(cmd.Context(), opts)
			if err != nil {
				return err
			}
			sess.ReplaceTable(table)

			proposal, err := w.proposals.Generate(cmd.Context(), sess, query)
			if err != nil {
				return errors.New(services.UserMessage(err))
			}

			errOut := cmd.ErrOrStderr()
			fmt.Fprintf(errOut, "%s / %s, %d attempt(s), reference: %s\n",
				proposal.Provider, proposal.Model, proposal.Attempts, proposal.Context.Label())

			text := proposal.Text
			if !opts.raw {
				text = render(text)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), text)
			return err
		},
	}
}

// render formats markdown for the terminal, falling back to the raw text.
func render(markdown string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return markdown
	}
	out, err := r.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}
