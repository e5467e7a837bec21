// Package config holds the complete application configuration. Everything
// numeric that shapes evaluation behavior lives here rather than in code.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// ErrInvalidConfig marks configuration errors. They are fatal at run
// start and never silently clamped.
var ErrInvalidConfig = errors.New("invalid configuration")

var (
	globalConfig *Config
	configMutex  sync.RWMutex
)

// Get returns the global configuration instance
func Get() (*Config, error) {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if globalConfig == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}
	return globalConfig, nil
}

// Set sets the global configuration instance
func Set(cfg *Config) {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = cfg
}

// Config represents the complete application configuration
type Config struct {
	DefaultProvider string // Which provider to use by default (ollama or azure)
	Ollama          OllamaConfig
	Azure           AzureConfig
	Eval            EvalConfig
	Database        DatabaseConfig
	Logging         LoggingConfig
}

// OllamaConfig holds configuration for the Ollama client
type OllamaConfig struct {
	Endpoint            string        // Ollama API endpoint URL
	Model               string        // Default model to use
	Timeout             time.Duration // Per-request timeout
	MaxRetries          int           // Maximum number of retries on failure
	MaxTokens           int           // Max tokens to generate
	Temperature         float64       // Generation temperature
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
	RequestsPerMinute   int // Rate limiting
	BurstLimit          int
}

// AzureConfig holds configuration for the Azure OpenAI-compatible client
type AzureConfig struct {
	Endpoint          string        // Resource endpoint URL
	APIKey            string        // API key
	Deployment        string        // Deployment (model) name
	APIVersion        string        // API version query parameter
	Timeout           time.Duration // Per-request timeout
	MaxRetries        int           // Maximum number of retries on failure
	MaxTokens         int
	Temperature       float64
	RequestsPerMinute int
	BurstLimit        int
}

// EvalConfig holds the numeric parameters of the evaluation and
// bootstrapping engine.
type EvalConfig struct {
	// MatchThreshold is the minimum similarity for pairing a predicted
	// with an expected issue
	MatchThreshold float64
	// BootstrapThreshold is the minimum overall score for a model output
	// to become a demonstration candidate
	BootstrapThreshold float64
	// MaxBootstrappedDemos caps model-generated demonstrations
	MaxBootstrappedDemos int
	// MaxLabeledDemos caps ground-truth demonstrations used as backfill
	MaxLabeledDemos int
	// Concurrency bounds parallel model invocations
	Concurrency int
	// RunTimeout aborts in-flight invocations at run level
	RunTimeout time.Duration
	// NoiseThreshold is the minimum overall-mean delta reported as a real
	// improvement
	NoiseThreshold float64

	// Overall-score weights
	PrecisionWeight        float64
	RecallWeight           float64
	CriticalRecallWeight   float64
	SeverityAccuracyWeight float64
	FixQualityWeight       float64
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Path            string        // Path to the SQLite database file
	JournalMode     string        // Journal mode (WAL recommended)
	SynchronousMode string        // Synchronous mode
	BusyTimeout     int           // Busy timeout in milliseconds
	ForeignKeys     bool          // Whether to enforce foreign key constraints
	ConnMaxLife     time.Duration // Maximum connection lifetime
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string // debug, info, warn, error
	Format     string // text or json
	Output     string // stdout, stderr, or file path
	AddSource  bool
	TimeFormat string
}

// New returns an empty configuration
func New() *Config {
	return &Config{}
}

// Validate checks every numeric parameter. The first violation is returned
// wrapped in ErrInvalidConfig; callers treat it as fatal.
func (c *Config) Validate() error {
	e := c.Eval

	for name, v := range map[string]float64{
		"match threshold":     e.MatchThreshold,
		"bootstrap threshold": e.BootstrapThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s %v outside [0,1]", ErrInvalidConfig, name, v)
		}
	}

	if e.MaxBootstrappedDemos < 0 {
		return fmt.Errorf("%w: max bootstrapped demos is negative: %d", ErrInvalidConfig, e.MaxBootstrappedDemos)
	}
	if e.MaxLabeledDemos < 0 {
		return fmt.Errorf("%w: max labeled demos is negative: %d", ErrInvalidConfig, e.MaxLabeledDemos)
	}
	if e.Concurrency < 1 {
		return fmt.Errorf("%w: concurrency must be at least 1, got %d", ErrInvalidConfig, e.Concurrency)
	}
	if e.RunTimeout <= 0 {
		return fmt.Errorf("%w: run timeout must be positive, got %s", ErrInvalidConfig, e.RunTimeout)
	}
	if e.NoiseThreshold < 0 {
		return fmt.Errorf("%w: noise threshold is negative: %v", ErrInvalidConfig, e.NoiseThreshold)
	}

	weights := map[string]float64{
		"precision weight":         e.PrecisionWeight,
		"recall weight":            e.RecallWeight,
		"critical recall weight":   e.CriticalRecallWeight,
		"severity accuracy weight": e.SeverityAccuracyWeight,
		"fix quality weight":       e.FixQualityWeight,
	}
	sum := 0.0
	for name, v := range weights {
		if v < 0 {
			return fmt.Errorf("%w: %s is negative: %v", ErrInvalidConfig, name, v)
		}
		sum += v
	}
	if sum <= 0 {
		return fmt.Errorf("%w: overall-score weights sum to zero", ErrInvalidConfig)
	}

	for provider, retries := range map[string]int{
		"ollama": c.Ollama.MaxRetries,
		"azure":  c.Azure.MaxRetries,
	} {
		if retries < 0 {
			return fmt.Errorf("%w: %s max retries is negative: %d", ErrInvalidConfig, provider, retries)
		}
	}

	switch strings.ToLower(c.DefaultProvider) {
	case "ollama", "azure":
	default:
		return fmt.Errorf("%w: unknown default provider %q", ErrInvalidConfig, c.DefaultProvider)
	}

	return nil
}

// ParseLogLevel converts a string log level to slog.Level
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
