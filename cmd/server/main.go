package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/medipulse/medipulse/internal/accident"
	"github.com/medipulse/medipulse/internal/api"
	"github.com/medipulse/medipulse/internal/auth"
	"github.com/medipulse/medipulse/internal/cloudsql"
	"github.com/medipulse/medipulse/internal/completion"
	"github.com/medipulse/medipulse/internal/config"
	"github.com/medipulse/medipulse/internal/database"
	"github.com/medipulse/medipulse/internal/lifesupport"
	"github.com/medipulse/medipulse/internal/logging"
	"github.com/medipulse/medipulse/internal/metrics"
	"github.com/medipulse/medipulse/internal/orchestrator"
	"github.com/medipulse/medipulse/internal/route"
	"github.com/medipulse/medipulse/internal/scheduler"
	"github.com/medipulse/medipulse/internal/server"
)

func main() {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("Failed to init logger", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("MediPulse exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Shutdown complete")
}

func run(cfg config.Config, logger *slog.Logger) error {
	logger.Info("Starting MediPulse")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector, err := metrics.NewCollector()
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	generator, err := newGenerator(cfg.Completion, logger)
	if err != nil {
		return err
	}
	advisor := completion.NewAdvisor(generator, cfg.Completion.Timeout, logging.Component(logger, "completion"), collector)

	responder := accident.NewResponder(accident.Options{
		DetectionBuffer: cfg.Dispatch.DetectionBuffer,
		Advisor:         advisor,
		Logger:          logging.Component(logger, accident.AgentName),
	})
	life := lifesupport.NewCoordinator(lifesupport.Options{
		Advisor: advisor,
		Logger:  logging.Component(logger, lifesupport.AgentName),
	})
	routes := route.NewAdvisor(route.Options{
		MonitorInterval: cfg.Dispatch.MonitorInterval,
		Advisor:         advisor,
		Logger:          logging.Component(logger, route.AgentName),
	})

	db, err := openDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}

	orchCfg := orchestrator.Config{
		Accident:    responder,
		LifeSupport: life,
		Routes:      routes,
		Advisor:     advisor,
		Recorder:    collector,
		Logger:      logging.Component(logger, "orchestrator"),
	}
	deps := api.Dependencies{
		Accident:    responder,
		LifeSupport: life,
		Routes:      routes,
		Metrics:     collector,
		Logger:      logging.Component(logger, "api"),
	}
	var retention *scheduler.RetentionScheduler
	if db != nil {
		defer db.Close()
		repo := database.NewAuditLogRepository(db)
		orchCfg.Sink = repo
		deps.History = repo
		deps.HealthCheck = func(ctx context.Context) error { return database.HealthCheck(ctx, db) }
		if cfg.Database.Retention > 0 {
			retention = scheduler.NewRetentionScheduler(repo, cfg.Database.Retention, scheduler.DefaultCheckInterval, logging.Component(logger, "retention"))
		}
	}

	orch, err := orchestrator.New(orchCfg)
	if err != nil {
		return fmt.Errorf("init orchestrator: %w", err)
	}
	deps.Orchestrator = orch

	authenticator, err := auth.NewAuthenticator(cfg.Auth)
	if err != nil {
		return fmt.Errorf("init auth: %w", err)
	}
	if !authenticator.Enabled() {
		logger.Warn("Admin credentials not set, admin endpoints are disabled")
	}
	deps.Auth = authenticator

	srv := server.New(cfg.Server, logger, api.NewRouter(deps))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return orch.Run(gctx) })
	g.Go(func() error { return srv.Run(gctx) })
	if retention != nil {
		g.Go(func() error { return retention.Start(gctx) })
	}

	logger.Info("MediPulse started", "url", fmt.Sprintf("http://localhost:%s", cfg.Server.Port))
	return g.Wait()
}

// newGenerator selects the configured completion provider. A nil generator
// makes every advisory call fall back to its default text.
func newGenerator(cfg config.CompletionConfig, logger *slog.Logger) (completion.Generator, error) {
	if cfg.Provider == "anthropic" {
		if cfg.AnthropicKey == "" {
			logger.Info("ANTHROPIC_API_KEY not set, advisory text disabled")
			return nil, nil
		}
		anthropicCfg := completion.DefaultAnthropicConfig()
		anthropicCfg.APIKey = cfg.AnthropicKey
		anthropicCfg.Temperature = float64(cfg.Temperature)
		if cfg.AnthropicModel != "" {
			anthropicCfg.Model = cfg.AnthropicModel
		}

		gen, err := completion.NewAnthropicGenerator(anthropicCfg, logging.Component(logger, "anthropic"))
		if err != nil {
			return nil, fmt.Errorf("init anthropic generator: %w", err)
		}
		return gen, nil
	}

	if cfg.APIKey == "" {
		logger.Info("OPENAI_API_KEY not set, advisory text disabled")
		return nil, nil
	}

	openaiCfg := completion.DefaultOpenAIConfig()
	openaiCfg.APIKey = cfg.APIKey
	openaiCfg.BaseURL = cfg.BaseURL
	openaiCfg.Temperature = cfg.Temperature
	if cfg.Model != "" {
		openaiCfg.Model = cfg.Model
	}

	gen, err := completion.NewOpenAIGenerator(openaiCfg, logging.Component(logger, "openai"))
	if err != nil {
		return nil, fmt.Errorf("init openai generator: %w", err)
	}
	return gen, nil
}

// openDatabase connects the optional audit mirror. It returns a nil pool when
// no database is configured. Migration failures are logged and tolerated.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	dbURL, err := cloudsql.BuildDatabaseURL(cfg)
	if errors.Is(err, cloudsql.ErrNotConfigured) {
		logger.Info("No database configured, audit log kept in memory only")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("build database url: %w", err)
	}

	logger.Info("Connecting to database", "config", cloudsql.Describe(cfg))
	db, err := database.ConnectWithRetry(ctx, database.DefaultConfig(dbURL), database.DefaultRetryPolicy(), logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Database connected")

	if err := database.RunMigrations(ctx, db, database.Migrations, logger); err != nil {
		logger.Warn("Failed to run migrations, continuing anyway", "error", err)
	}
	return db, nil
}
