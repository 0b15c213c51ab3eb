package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/AdamBeresnev/bracket-challenge/internal/bracket"
	"github.com/joho/godotenv"
)

type OAuthProvider struct {
	Key         string
	Secret      string
	CallbackURL string
}

type Config struct {
	Addr               string
	DatabasePath       string
	LogLevel           slog.Level
	AdminEmail         string
	AllowedEmailDomain string // empty allows any email
	DefaultLockAt      time.Time
	Scoring            bracket.ScoringRules
	CORSOrigins        []string
	SessionLifetime    time.Duration

	Discord OAuthProvider
	Google  OAuthProvider
}

// Load reads a .env file when present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}
	return FromEnv(os.Getenv)
}

func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := &Config{
		Addr:               get("ADDR", ":8080"),
		DatabasePath:       get("DATABASE_PATH", "bracket.db"),
		LogLevel:           ParseLevel(get("LOG_LEVEL", "info")),
		AdminEmail:         strings.ToLower(get("ADMIN_EMAIL", "")),
		AllowedEmailDomain: strings.ToLower(strings.TrimPrefix(get("ALLOWED_EMAIL_DOMAIN", ""), "@")),
		Scoring:            bracket.DefaultScoringRules,
		CORSOrigins:        splitList(get("CORS_ORIGINS", "http://localhost:3000")),
		Discord: OAuthProvider{
			Key:         getenv("DISCORD_KEY"),
			Secret:      getenv("DISCORD_SECRET"),
			CallbackURL: getenv("DISCORD_CALLBACK_URL"),
		},
		Google: OAuthProvider{
			Key:         getenv("GOOGLE_KEY"),
			Secret:      getenv("GOOGLE_SECRET"),
			CallbackURL: getenv("GOOGLE_CALLBACK_URL"),
		},
	}

	if v := get("LOCK_AT", ""); v != "" {
		lockAt, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, fmt.Errorf("LOCK_AT: %w", err)
		}
		cfg.DefaultLockAt = lockAt.UTC()
	}

	if v := get("ROUND_POINTS", ""); v != "" {
		rules, err := bracket.ParseRoundPoints(v)
		if err != nil {
			return nil, fmt.Errorf("ROUND_POINTS: %w", err)
		}
		cfg.Scoring = rules
	}

	lifetime, err := time.ParseDuration(get("SESSION_LIFETIME", "24h"))
	if err != nil {
		return nil, fmt.Errorf("SESSION_LIFETIME: %w", err)
	}
	cfg.SessionLifetime = lifetime

	return cfg, nil
}

// ParseLevel accepts debug, info, warn and error (case-insensitive) and
// falls back to info.
func ParseLevel(level string) slog.Level {
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

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
