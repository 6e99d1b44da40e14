package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultPort           = "8080"
	DefaultFrontendOrigin = "https://sentiment-analysis-210161969755.asia-south1.run.app"
	DefaultRegion         = "asia-south1"
	DefaultGeminiModel    = "gemini-2.5-flash"
)

// Config holds everything the process reads from its environment.
type Config struct {
	Port           string
	FrontendOrigin string
	Region         string
	GeminiAPIKey   string
	GeminiModel    string
	// ModelTimeout bounds the outbound model call. Zero leaves it unbounded.
	ModelTimeout time.Duration
	EnableMCP    bool
	LogLevel     slog.Level
}

// LoadEnv reads a .env file into the process environment if one exists.
func LoadEnv(filenames ...string) {
	if err := godotenv.Load(filenames...); err != nil {
		slog.Warn("[Config] .env file not found or could not be loaded, using OS environment")
	}
}

// Load builds a Config from the current environment.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", DefaultPort),
		FrontendOrigin: getEnv("FRONTEND_ORIGIN", DefaultFrontendOrigin),
		Region:         getEnv("REGION", DefaultRegion),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    getEnv("GEMINI_MODEL", DefaultGeminiModel),
		EnableMCP:      true,
		LogLevel:       slog.LevelInfo,
	}

	if cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey = os.Getenv("GOOGLE_API_KEY")
	}

	port, err := strconv.Atoi(cfg.Port)
	if err != nil || port < 1 || port > 65535 {
		return nil, fmt.Errorf("invalid PORT %q", cfg.Port)
	}

	if raw := os.Getenv("MODEL_TIMEOUT"); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid MODEL_TIMEOUT %q: %w", raw, err)
		}
		if timeout < 0 {
			return nil, fmt.Errorf("invalid MODEL_TIMEOUT %q: must not be negative", raw)
		}
		cfg.ModelTimeout = timeout
	}

	if raw := os.Getenv("ENABLE_MCP"); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid ENABLE_MCP %q: %w", raw, err)
		}
		cfg.EnableMCP = enabled
	}

	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(strings.ToLower(raw))); err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", raw, err)
		}
	}

	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
