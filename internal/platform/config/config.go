// Package config loads application configuration from environment variables.
// All variables use the LEARN_ prefix.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Cache          CacheConfig
	Options        OptionsConfig
	Realtime       RealtimeConfig
	Wizard         WizardConfig
	CORS           CORSConfig
	Log            LogConfig
	CurriculumPath string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
	Host string
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL keeps practice
// sessions in memory.
type DatabaseConfig struct {
	URL         string
	MaxConns    int
	MinConns    int
	AutoMigrate bool // create the practice tables at startup
}

// CacheConfig holds Dragonfly/Redis connection settings. An empty URL disables the
// options cache.
type CacheConfig struct {
	URL string
}

// OptionsConfig locates the options catalogue.
type OptionsConfig struct {
	URL      string
	File     string // read from disk instead of URL when set
	Timeout  time.Duration
	CacheTTL time.Duration
}

// RealtimeConfig holds the realtime voice session provider settings.
type RealtimeConfig struct {
	APIKey             string
	BaseURL            string
	Model              string
	TranscriptionModel string
}

// WizardConfig holds selection wizard settings.
type WizardConfig struct {
	SampleSize int
	IdleTTL    time.Duration
}

// CORSConfig lists origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowedOrigins []string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with LEARN_ prefix.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("LEARN_SERVER_PORT", 8080),
			Host: envStr("LEARN_SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			URL:         envStr("LEARN_DATABASE_URL", ""),
			MaxConns:    envInt("LEARN_DATABASE_MAX_CONNS", 25),
			MinConns:    envInt("LEARN_DATABASE_MIN_CONNS", 5),
			AutoMigrate: envBool("LEARN_DATABASE_AUTO_MIGRATE", true),
		},
		Cache: CacheConfig{
			URL: envStr("LEARN_CACHE_URL", ""),
		},
		Options: OptionsConfig{
			URL:      envStr("LEARN_OPTIONS_URL", ""),
			File:     envStr("LEARN_OPTIONS_FILE", ""),
			Timeout:  envDuration("LEARN_OPTIONS_TIMEOUT", 10*time.Second),
			CacheTTL: envDuration("LEARN_OPTIONS_CACHE_TTL", 5*time.Minute),
		},
		Realtime: RealtimeConfig{
			APIKey:             envStr("LEARN_AI_OPENAI_API_KEY", ""),
			BaseURL:            envStr("LEARN_AI_OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:              envStr("LEARN_REALTIME_MODEL", "gpt-4o-realtime-preview"),
			TranscriptionModel: envStr("LEARN_REALTIME_TRANSCRIPTION_MODEL", "gpt-4o-transcribe"),
		},
		Wizard: WizardConfig{
			SampleSize: envInt("LEARN_WIZARD_SAMPLE_SIZE", 6),
			IdleTTL:    envDuration("LEARN_WIZARD_IDLE_TTL", 30*time.Minute),
		},
		CORS: CORSConfig{
			AllowedOrigins: envList("LEARN_CORS_ALLOWED_ORIGINS"),
		},
		Log: LogConfig{
			Level:  envStr("LEARN_LOG_LEVEL", "info"),
			Format: envStr("LEARN_LOG_FORMAT", "json"),
		},
		CurriculumPath: envStr("LEARN_CURRICULUM_PATH", "./curriculum"),
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Options.URL == "" && c.Options.File == "" {
		return fmt.Errorf("LEARN_OPTIONS_URL or LEARN_OPTIONS_FILE is required")
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("LEARN_LOG_FORMAT must be 'json' or 'text', got %q", c.Log.Format)
	}

	if c.Wizard.SampleSize <= 0 {
		return fmt.Errorf("LEARN_WIZARD_SAMPLE_SIZE must be positive, got %d", c.Wizard.SampleSize)
	}

	if c.Options.Timeout <= 0 {
		return fmt.Errorf("LEARN_OPTIONS_TIMEOUT must be positive, got %s", c.Options.Timeout)
	}

	return nil
}

// HasRealtimeProvider returns true if realtime sessions can be issued.
func (c *Config) HasRealtimeProvider() bool {
	return c.Realtime.APIKey != ""
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
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

func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
