package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fosterfinance/deal-assistant/pkg/config"
	"github.com/fosterfinance/deal-assistant/pkg/handlers"
	"github.com/fosterfinance/deal-assistant/pkg/llm"
	"github.com/fosterfinance/deal-assistant/pkg/logging"
	"github.com/fosterfinance/deal-assistant/pkg/metrics"
	"github.com/fosterfinance/deal-assistant/pkg/middleware"
	"github.com/fosterfinance/deal-assistant/pkg/services"
	"github.com/fosterfinance/deal-assistant/pkg/session"
	"github.com/fosterfinance/deal-assistant/ui"
)

// Version is set at build time via ldflags
var Version = "dev"

const (
	sweepInterval   = time.Minute
	shutdownTimeout = 15 * time.Second
)

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.String("provider", cfg.Provider.Default),
		zap.Int("retry_max_attempts", cfg.Retry.MaxAttempts),
		zap.Duration("retry_min_delay", cfg.Retry.MinDelay),
		zap.Duration("retry_max_delay", cfg.Retry.MaxDelay),
		zap.Int("context_size", cfg.Scoring.ContextSize))
	if cfg.Session.SecretGenerated {
		logger.Warn("SESSION_SECRET not set, using a per-process secret; sessions will not survive a restart")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	store := session.NewStore(cfg.Session.MaxAge(), session.WithCountObserver(m.SetActiveSessions))
	store.StartSweeper(ctx, sweepInterval)
	sessions := session.NewManager(cfg.Session.Secret, cfg.Session.MaxAge(), cfg.IsTLS(), store, logger)

	factory := llm.NewClientFactory(cfg.FactoryConfig(), logger)
	modelService := services.NewModelService(factory, services.ModelServiceConfig{
		Priorities:     cfg.Provider.ModelPriorities,
		FallbackModels: cfg.FallbackModels(),
	}, logger)
	proposalService := services.NewProposalService(factory, services.ProposalServiceConfig{
		ContextSize: cfg.Scoring.ContextSize,
		Retry:       cfg.RetryPolicy(),
	}, m, logger)

	mux := http.NewServeMux()

	// Register handlers
	handlers.NewHealthHandler(cfg, store, logger).RegisterRoutes(mux)
	handlers.NewSessionHandler(modelService, sessions, logger).RegisterRoutes(mux)
	handlers.NewDealsHandler(proposalService, sessions, cfg.Uploads, m, logger).RegisterRoutes(mux)
	handlers.NewProposalsHandler(proposalService, sessions, logger).RegisterRoutes(mux)
	mux.Handle("GET /metrics", m.Handler())

	// Serve the embedded UI
	mux.Handle("/", http.FileServerFS(ui.DistFS()))

	// Metrics must wrap the mux directly so it sees the matched route pattern.
	handler := middleware.Chain(mux,
		middleware.RequestID,
		middleware.RequestLogger(logger),
		middleware.Metrics(m),
	)

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		// Generation with retries can take several provider timeouts.
		WriteTimeout: cfg.Provider.RequestTimeout*time.Duration(cfg.Retry.MaxAttempts) + cfg.Retry.MaxDelay*time.Duration(cfg.Retry.MaxAttempts),
		IdleTimeout:  2 * time.Minute,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting deal-assistant",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version),
			zap.Bool("tls", cfg.IsTLS()))
		if cfg.IsTLS() {
			serverErr <- server.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
			return
		}
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown failed", zap.Error(err))
		}
	}
}
