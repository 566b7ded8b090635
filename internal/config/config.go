package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth; empty disables it.
	APIKey string

	// Uploads
	UploadDir      string
	MaxUploadBytes int64
	MaxConnections int

	// Analysis
	ExtractionTimeout time.Duration
	ResultTTL         time.Duration
	SessionTTL        time.Duration

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Remote result store; empty keeps results in memory.
	PathstoreURL    string
	PathstoreAPIKey string

	// Alt text suggestions; empty key disables them.
	AnthropicAPIKey      string
	AnthropicModel       string
	AnthropicBaseURL     string
	MaxConcurrentSuggest int
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("PDFACCESS_API_KEY"),

		UploadDir:      envOr("UPLOAD_DIR", filepath.Join(os.TempDir(), "pdfaccess")),
		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 104857600), // 100MB
		MaxConnections: envInt("MAX_CONNECTIONS", 256),

		ExtractionTimeout: envDuration("EXTRACTION_TIMEOUT", 10*time.Second),
		ResultTTL:         envDuration("RESULT_TTL", time.Hour),
		SessionTTL:        envDuration("SESSION_TTL", time.Hour),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		PathstoreURL:    os.Getenv("PATHSTORE_URL"),
		PathstoreAPIKey: os.Getenv("PATHSTORE_API_KEY"),

		AnthropicAPIKey:      os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:       envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
		AnthropicBaseURL:     os.Getenv("ANTHROPIC_BASE_URL"),
		MaxConcurrentSuggest: envInt("MAX_CONCURRENT_SUGGEST", 2),
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 104857600
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = 256
	}
	if cfg.ExtractionTimeout <= 0 {
		cfg.ExtractionTimeout = 10 * time.Second
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = time.Hour
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = time.Hour
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxConcurrentSuggest <= 0 {
		cfg.MaxConcurrentSuggest = 2
	}

	return cfg
}

func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric: %q", c.Port)
	}
	if c.UploadDir == "" {
		return fmt.Errorf("UPLOAD_DIR is required")
	}
	if c.PathstoreURL != "" && c.PathstoreAPIKey == "" {
		return fmt.Errorf("PATHSTORE_API_KEY is required when PATHSTORE_URL is set")
	}
	return nil
}

// SuggestionsEnabled reports whether an Anthropic key is configured.
func (c Config) SuggestionsEnabled() bool {
	return c.AnthropicAPIKey != ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
