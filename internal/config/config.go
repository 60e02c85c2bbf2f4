package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sawyershoemaker/chess.com-tracker/internal/chesscom"
)

// State backends.
const (
	BackendFile      = "file"
	BackendFirestore = "firestore"
)

// League alert policies.
const (
	PolicyRank   = "rank"
	PolicyPoints = "points"
)

type Config struct {
	ChessUsername      string        `validate:"required"`
	DiscordWebhookURL  string        `validate:"required,url"`
	StateBackend       string        `validate:"oneof=file firestore"`
	StatePath          string        `validate:"required"`
	GoogleCloudProject string        `validate:"required_if=StateBackend firestore"`
	ChessAPIBaseURL    string        `validate:"required,url"`
	LeagueAPIBaseURL   string        `validate:"required,url"`
	LeagueAlertPolicy  string        `validate:"oneof=rank points"`
	LeaguePointsTarget int           `validate:"required_if=LeagueAlertPolicy points,gte=0"`
	LeagueAlertWindow  time.Duration `validate:"gt=0"`
	HTTPTimeout        time.Duration `validate:"gt=0"`
	RunTimeout         time.Duration `validate:"gt=0"`
	UserAgent          string
	LogLevel           string
}

func Load() (*Config, error) {
	chessUsername := os.Getenv("CHESS_USERNAME")
	if chessUsername == "" {
		return nil, fmt.Errorf("CHESS_USERNAME environment variable is required but not set")
	}

	discordWebhookURL := os.Getenv("DISCORD_WEBHOOK_URL")
	if discordWebhookURL == "" {
		return nil, fmt.Errorf("DISCORD_WEBHOOK_URL environment variable is required but not set")
	}

	cfg := &Config{
		ChessUsername:      chessUsername,
		DiscordWebhookURL:  discordWebhookURL,
		StateBackend:       envOr("STATE_BACKEND", BackendFile),
		StatePath:          envOr("STATE_PATH", "tracker_state.json"),
		GoogleCloudProject: os.Getenv("GOOGLE_CLOUD_PROJECT"),
		ChessAPIBaseURL:    envOr("CHESS_API_BASE_URL", "https://api.chess.com"),
		LeagueAPIBaseURL:   envOr("LEAGUE_API_BASE_URL", "https://www.chess.com"),
		LeagueAlertPolicy:  envOr("LEAGUE_ALERT_POLICY", PolicyRank),
		UserAgent:          envOr("USER_AGENT", chesscom.DefaultUserAgent),
		LogLevel:           envOr("LOG_LEVEL", "info"),
	}

	var err error
	if cfg.LeaguePointsTarget, err = intEnv("LEAGUE_POINTS_TARGET", 0); err != nil {
		return nil, err
	}
	if cfg.LeagueAlertWindow, err = durationEnv("LEAGUE_ALERT_WINDOW", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = durationEnv("HTTP_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.RunTimeout, err = durationEnv("RUN_TIMEOUT", 2*time.Minute); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return parsed, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return parsed, nil
}
