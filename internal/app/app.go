// Package app provides the application initialization and lifecycle management
package app

import (
	"database/sql"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/skillforge/skillforge/internal/bootstrap"
	"github.com/skillforge/skillforge/internal/config"
	"github.com/skillforge/skillforge/internal/database"
	"github.com/skillforge/skillforge/internal/eval"
	"github.com/skillforge/skillforge/internal/extractor"
	"github.com/skillforge/skillforge/internal/llm"
	"github.com/skillforge/skillforge/internal/loggy"
	"github.com/skillforge/skillforge/internal/match"
	"github.com/skillforge/skillforge/internal/scoring"
)

// App represents the application instance with its dependencies
type App struct {
	Config  *config.Config
	Factory *llm.Factory

	Extractor    *extractor.Extractor
	Matcher      *match.Matcher
	Scorer       *scoring.Scorer
	Runner       *eval.Runner
	Bootstrapper *bootstrap.Bootstrapper

	Runs  eval.Repository
	Demos bootstrap.Repository
}

// New initializes a new application instance with all its dependencies
func New() (*App, error) {
	cfg, err := initConfig()
	if err != nil {
		return nil, err
	}

	if err := initLogger(cfg); err != nil {
		return nil, err
	}

	loggy.Info("application initializing", "log_level", cfg.Logging.Level, "provider", cfg.DefaultProvider)

	if err := database.InitDB(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := database.RunMigrations(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	db, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	application, err := initServices(cfg, db)
	if err != nil {
		return nil, err
	}

	loggy.Info("application initialized successfully")
	return application, nil
}

// initConfig loads and sets up the application configuration
func initConfig() (*config.Config, error) {
	cfg, err := config.LoadFromEnv("")
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	config.Set(cfg)
	return cfg, nil
}

// initLogger initializes the logging system
func initLogger(cfg *config.Config) error {
	err := loggy.Init(loggy.Config{
		Level:      config.ParseLogLevel(cfg.Logging.Level),
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// initServices initializes all application services
func initServices(cfg *config.Config, db *sql.DB) (*App, error) {
	logger := loggy.GetGlobalLogger()

	factory := llm.NewFactory(cfg, logger)

	ext := extractor.New(logger)
	matcher := match.New(match.Config{
		Threshold:      cfg.Eval.MatchThreshold,
		TextWeight:     match.DefaultConfig().TextWeight,
		LocationWeight: match.DefaultConfig().LocationWeight,
	})

	scorer, err := scoring.New(scoring.Weights{
		Precision:        cfg.Eval.PrecisionWeight,
		Recall:           cfg.Eval.RecallWeight,
		CriticalRecall:   cfg.Eval.CriticalRecallWeight,
		SeverityAccuracy: cfg.Eval.SeverityAccuracyWeight,
		FixQuality:       cfg.Eval.FixQualityWeight,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing scorer: %w", err)
	}

	runner, err := eval.NewRunner(eval.RunnerConfig{
		Concurrency: cfg.Eval.Concurrency,
		Timeout:     cfg.Eval.RunTimeout,
	}, ext, matcher, scorer, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing runner: %w", err)
	}

	bootstrapper, err := bootstrap.New(bootstrap.Config{
		Threshold:       cfg.Eval.BootstrapThreshold,
		MaxBootstrapped: cfg.Eval.MaxBootstrappedDemos,
		MaxLabeled:      cfg.Eval.MaxLabeledDemos,
		Concurrency:     cfg.Eval.Concurrency,
		Timeout:         cfg.Eval.RunTimeout,
	}, ext, matcher, scorer, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing bootstrapper: %w", err)
	}

	return &App{
		Config:       cfg,
		Factory:      factory,
		Extractor:    ext,
		Matcher:      matcher,
		Scorer:       scorer,
		Runner:       runner,
		Bootstrapper: bootstrapper,
		Runs:         eval.NewSQLRepository(db, logger),
		Demos:        bootstrap.NewSQLRepository(db, logger),
	}, nil
}

// Shutdown gracefully shuts down the application
func (app *App) Shutdown() error {
	loggy.Info("shutting down application")

	if err := database.CloseDB(); err != nil {
		loggy.Error("error closing database connection", "error", err)
	}
	return nil
}

// FromContext retrieves the App instance from the CLI context
func FromContext(c *cli.Context) (*App, error) {
	if c.App.Metadata == nil {
		return nil, fmt.Errorf("app metadata not found in context")
	}

	application, ok := c.App.Metadata["app"].(*App)
	if !ok {
		return nil, fmt.Errorf("app instance not found in context")
	}
	return application, nil
}
