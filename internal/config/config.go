// Package config provides application configuration.
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

// Config holds all application configuration.
type Config struct {
	GeminiAPIKey     string
	DatabaseURL      string
	HTTPPort         string
	LogLevel         string
	JWTSecret        string
	TokenTTL         time.Duration
	Users            map[string]string // username -> bcrypt hash
	TranscriptsPath  string
	HealthPlanLog    string
	SummaryMaxLength int
	AllowedOrigins   []string
}

// Load reads a .env file if present and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, relying on environment variables")
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (*Config, error) {
	users, err := parseUsers(getEnv("USERS", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg := &Config{
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		DatabaseURL:      getEnv("DATABASE_URL", "course_assistant.db"),
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		LogLevel:         strings.ToUpper(getEnv("LOG_LEVEL", "INFO")),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		TokenTTL:         time.Duration(getEnvAsInt("TOKEN_TTL_MINUTES", 60)) * time.Minute,
		Users:            users,
		TranscriptsPath:  getEnv("TRANSCRIPTS_PATH", "transcricoes.txt"),
		HealthPlanLog:    getEnv("HEALTHPLAN_LOG", "healthplan_perguntas.json"),
		SummaryMaxLength: getEnvAsInt("SUMMARY_MAX_LENGTH", 500),
		AllowedOrigins:   splitList(getEnv("ALLOWED_ORIGINS", "*")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable is required")
	}
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL cannot be empty")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL_MINUTES must be > 0")
	}
	if c.SummaryMaxLength < 4 {
		return fmt.Errorf("SUMMARY_MAX_LENGTH must be >= 4")
	}
	return nil
}

// SlogLevel maps LogLevel onto a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// parseUsers reads "name:hash,name:hash". Bcrypt hashes contain '$' but no
// ':' or ',', so the first ':' splits each entry.
func parseUsers(raw string) (map[string]string, error) {
	users := make(map[string]string)
	for _, entry := range splitList(raw) {
		name, hash, ok := strings.Cut(entry, ":")
		if !ok || name == "" || hash == "" {
			return nil, fmt.Errorf("USERS entry %q must be name:bcrypt-hash", entry)
		}
		users[name] = hash
	}
	return users, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(strings.TrimSpace(valueStr)); err == nil {
		return value
	}
	return defaultValue
}
