package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadFromEnv loads configuration from environment variables, optionally
// seeded from a .env file in the config directory or the working
// directory.
func LoadFromEnv(configDir string) (*Config, error) {
	cfg := New()

	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".skillforge")
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	// Try the config directory first, then the current directory.
	if err := godotenv.Load(filepath.Join(configDir, ".env")); err != nil {
		_ = godotenv.Load()
	}

	cfg.DefaultProvider = getEnvString("SKILLFORGE_PROVIDER", "ollama")

	cfg.Ollama = OllamaConfig{
		Endpoint:            getEnvString("SKILLFORGE_OLLAMA_ENDPOINT", "http://localhost:11434"),
		Model:               getEnvString("SKILLFORGE_OLLAMA_MODEL", "qwen2.5-coder"),
		Timeout:             getEnvDuration("SKILLFORGE_OLLAMA_TIMEOUT", 300*time.Second),
		MaxRetries:          getEnvInt("SKILLFORGE_OLLAMA_MAX_RETRIES", 3),
		MaxTokens:           getEnvInt("SKILLFORGE_OLLAMA_MAX_TOKENS", 2048),
		Temperature:         getEnvFloat("SKILLFORGE_OLLAMA_TEMPERATURE", 0.1),
		MaxIdleConns:        getEnvInt("SKILLFORGE_OLLAMA_MAX_IDLE_CONNS", 100),
		MaxIdleConnsPerHost: getEnvInt("SKILLFORGE_OLLAMA_MAX_IDLE_CONNS_PER_HOST", 100),
		IdleConnTimeout:     getEnvDuration("SKILLFORGE_OLLAMA_IDLE_CONN_TIMEOUT", 120*time.Second),
		RequestsPerMinute:   getEnvInt("SKILLFORGE_OLLAMA_RPM", 0),
		BurstLimit:          getEnvInt("SKILLFORGE_OLLAMA_BURST", 1),
	}

	cfg.Azure = AzureConfig{
		Endpoint:          getEnvString("SKILLFORGE_AZURE_ENDPOINT", ""),
		APIKey:            getEnvString("SKILLFORGE_AZURE_API_KEY", ""),
		Deployment:        getEnvString("SKILLFORGE_AZURE_DEPLOYMENT", "gpt-4o"),
		APIVersion:        getEnvString("SKILLFORGE_AZURE_API_VERSION", "2024-08-01-preview"),
		Timeout:           getEnvDuration("SKILLFORGE_AZURE_TIMEOUT", 120*time.Second),
		MaxRetries:        getEnvInt("SKILLFORGE_AZURE_MAX_RETRIES", 3),
		MaxTokens:         getEnvInt("SKILLFORGE_AZURE_MAX_TOKENS", 2048),
		Temperature:       getEnvFloat("SKILLFORGE_AZURE_TEMPERATURE", 0.1),
		RequestsPerMinute: getEnvInt("SKILLFORGE_AZURE_RPM", 60),
		BurstLimit:        getEnvInt("SKILLFORGE_AZURE_BURST", 5),
	}

	cfg.Eval = EvalConfig{
		MatchThreshold:         getEnvFloat("SKILLFORGE_MATCH_THRESHOLD", 0.3),
		BootstrapThreshold:     getEnvFloat("SKILLFORGE_BOOTSTRAP_THRESHOLD", 0.5),
		MaxBootstrappedDemos:   getEnvInt("SKILLFORGE_MAX_BOOTSTRAPPED_DEMOS", 4),
		MaxLabeledDemos:        getEnvInt("SKILLFORGE_MAX_LABELED_DEMOS", 8),
		Concurrency:            getEnvInt("SKILLFORGE_CONCURRENCY", 4),
		RunTimeout:             getEnvDuration("SKILLFORGE_RUN_TIMEOUT", 30*time.Minute),
		NoiseThreshold:         getEnvFloat("SKILLFORGE_NOISE_THRESHOLD", 0.01),
		PrecisionWeight:        getEnvFloat("SKILLFORGE_WEIGHT_PRECISION", 0.15),
		RecallWeight:           getEnvFloat("SKILLFORGE_WEIGHT_RECALL", 0.25),
		CriticalRecallWeight:   getEnvFloat("SKILLFORGE_WEIGHT_CRITICAL_RECALL", 0.30),
		SeverityAccuracyWeight: getEnvFloat("SKILLFORGE_WEIGHT_SEVERITY", 0.15),
		FixQualityWeight:       getEnvFloat("SKILLFORGE_WEIGHT_FIX_QUALITY", 0.15),
	}

	cfg.Database = DatabaseConfig{
		Path:            getEnvString("SKILLFORGE_DB_PATH", filepath.Join(configDir, "skillforge.db")),
		JournalMode:     getEnvString("SKILLFORGE_DB_JOURNAL_MODE", "WAL"),
		SynchronousMode: getEnvString("SKILLFORGE_DB_SYNCHRONOUS", "NORMAL"),
		BusyTimeout:     getEnvInt("SKILLFORGE_DB_BUSY_TIMEOUT", 5000),
		ForeignKeys:     getEnvBool("SKILLFORGE_DB_FOREIGN_KEYS", true),
		ConnMaxLife:     getEnvDuration("SKILLFORGE_DB_CONN_MAX_LIFE", time.Hour),
	}

	cfg.Logging = LoggingConfig{
		Level:      getEnvString("SKILLFORGE_LOG_LEVEL", "info"),
		Format:     getEnvString("SKILLFORGE_LOG_FORMAT", "text"),
		Output:     getEnvString("SKILLFORGE_LOG_OUTPUT", filepath.Join(configDir, "skillforge.log")),
		AddSource:  getEnvBool("SKILLFORGE_LOG_ADD_SOURCE", false),
		TimeFormat: getEnvString("SKILLFORGE_LOG_TIME_FORMAT", time.RFC3339),
	}

	return cfg, nil
}

func getEnvString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
