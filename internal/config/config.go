package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config represents runtime configuration derived from environment variables.
type Config struct {
	Server     ServerConfig
	Logging    LoggingConfig
	Completion CompletionConfig
	Dispatch   DispatchConfig
	Database   DatabaseConfig
	Auth       AuthConfig
}

// ServerConfig holds HTTP server runtime parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// LoggingConfig represents structured logging configuration.
type LoggingConfig struct {
	Level  slog.Level
	Format string
}

// CompletionConfig configures the advisory text-completion client. Provider
// is "openai" or "anthropic"; an empty key for the chosen provider disables
// advisory text.
type CompletionConfig struct {
	Provider       string
	APIKey         string
	BaseURL        string
	Model          string
	Temperature    float32
	Timeout        time.Duration
	AnthropicKey   string
	AnthropicModel string
}

// DispatchConfig tunes collision detection and route monitoring.
type DispatchConfig struct {
	DetectionBuffer int
	MonitorInterval time.Duration
}

// DatabaseConfig enables the Postgres audit mirror when URL is set, or when
// a Cloud SQL instance is named.
type DatabaseConfig struct {
	URL          string
	InstanceName string
	User         string
	Password     string
	Name         string
	// Retention is how long mirrored audit rows are kept. Zero keeps them forever.
	Retention time.Duration
}

// AuthConfig holds admin credentials for destructive endpoints.
type AuthConfig struct {
	JWTSecret     string
	AdminPassword string
}

const (
	defaultPort            = "8080"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultShutdownTimeout = 5 * time.Second

	defaultLogFormat = "json"

	defaultCompletionTimeout  = 20 * time.Second
	defaultCompletionProvider = "openai"
	defaultTemperature        = 0.3

	defaultDetectionBuffer = 16
	defaultMonitorInterval = 3 * time.Second

	defaultAuditRetention = 30 * 24 * time.Hour
)

// Load reads configuration from environment variables, applying defaults when
// values are not provided or invalid.
func Load() (Config, error) {
	// Hosted platforms set PORT, but allow SERVER_PORT override for local dev
	port := getEnv("PORT", "")
	if port == "" {
		port = getEnv("SERVER_PORT", defaultPort)
	}

	cfg := Config{
		Server: ServerConfig{
			Port:            port,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level:  slog.LevelInfo,
			Format: defaultLogFormat,
		},
		Completion: CompletionConfig{
			Provider:       defaultCompletionProvider,
			APIKey:         os.Getenv("OPENAI_API_KEY"),
			BaseURL:        os.Getenv("OPENAI_BASE_URL"),
			Model:          os.Getenv("OPENAI_MODEL"),
			Temperature:    defaultTemperature,
			Timeout:        defaultCompletionTimeout,
			AnthropicKey:   os.Getenv("ANTHROPIC_API_KEY"),
			AnthropicModel: os.Getenv("ANTHROPIC_MODEL"),
		},
		Dispatch: DispatchConfig{
			DetectionBuffer: defaultDetectionBuffer,
			MonitorInterval: defaultMonitorInterval,
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			InstanceName: os.Getenv("INSTANCE_CONNECTION_NAME"),
			User:         os.Getenv("DB_USER"),
			Password:     os.Getenv("DB_PASSWORD"),
			Name:         os.Getenv("DB_NAME"),
			Retention:    defaultAuditRetention,
		},
		Auth: AuthConfig{
			JWTSecret:     os.Getenv("ADMIN_JWT_SECRET"),
			AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		},
	}

	durations := []struct {
		key      string
		dest     *time.Duration
		positive bool
	}{
		{"SERVER_READ_TIMEOUT_SECONDS", &cfg.Server.ReadTimeout, false},
		{"SERVER_WRITE_TIMEOUT_SECONDS", &cfg.Server.WriteTimeout, false},
		{"SERVER_SHUTDOWN_TIMEOUT_SECONDS", &cfg.Server.ShutdownTimeout, false},
		{"COMPLETION_TIMEOUT_SECONDS", &cfg.Completion.Timeout, true},
		{"ROUTE_MONITOR_INTERVAL_SECONDS", &cfg.Dispatch.MonitorInterval, true},
	}
	for _, d := range durations {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := parseSeconds(v)
		if err == nil && d.positive && parsed == 0 {
			err = fmt.Errorf("must be greater than zero")
		}
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dest = parsed
	}

	if v := os.Getenv("AUDIT_RETENTION_HOURS"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil || hours < 0 {
			return Config{}, fmt.Errorf("invalid AUDIT_RETENTION_HOURS: must be a non-negative integer")
		}
		cfg.Database.Retention = time.Duration(hours) * time.Hour
	}

	if v := os.Getenv("OPENAI_TEMPERATURE"); v != "" {
		temp, err := strconv.ParseFloat(v, 32)
		if err != nil || temp < 0 || temp > 2 {
			return Config{}, fmt.Errorf("invalid OPENAI_TEMPERATURE: must be a number between 0 and 2")
		}
		cfg.Completion.Temperature = float32(temp)
	}

	if v := os.Getenv("COMPLETION_PROVIDER"); v != "" {
		switch v {
		case "openai", "anthropic":
			cfg.Completion.Provider = v
		default:
			return Config{}, fmt.Errorf("invalid COMPLETION_PROVIDER: must be 'openai' or 'anthropic'")
		}
	}

	if v := os.Getenv("DETECTION_BUFFER"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid DETECTION_BUFFER: must be a positive integer")
		}
		cfg.Dispatch.DetectionBuffer = n
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg.Logging.Level = level
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		switch v {
		case "json", "text":
			cfg.Logging.Format = v
		default:
			return Config{}, fmt.Errorf("invalid LOG_FORMAT: must be 'json' or 'text'")
		}
	}

	return cfg, nil
}

// AuthEnabled reports whether admin endpoints can issue and verify tokens.
func (c AuthConfig) AuthEnabled() bool {
	return c.JWTSecret != "" && c.AdminPassword != ""
}

func parseSeconds(raw string) (time.Duration, error) {
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("must be a non-negative integer")
	}
	return time.Duration(seconds) * time.Second, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch raw {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("must be one of debug, info, warn, error")
	}
}
