package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/itbasis/go-clock"
	"github.com/joho/godotenv"

	"github.com/sawyershoemaker/chess.com-tracker/internal/chesscom"
	"github.com/sawyershoemaker/chess.com-tracker/internal/config"
	"github.com/sawyershoemaker/chess.com-tracker/internal/notifier"
	"github.com/sawyershoemaker/chess.com-tracker/internal/storage"
	"github.com/sawyershoemaker/chess.com-tracker/internal/tracker"
)

func main() {
	// A .env file is a convenience for local runs; absence is normal.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Critical error loading configuration", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg.LogLevel, cfg.ChessUsername)
	slog.Info("Starting tracker run", "backend", cfg.StateBackend)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
	defer cancel()

	store, err := newStore(ctx, cfg)
	if err != nil {
		slog.Error("Critical error initializing state store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	client := chesscom.NewClient(chesscom.ClientConfig{
		BaseURL:       cfg.ChessAPIBaseURL,
		LeagueBaseURL: cfg.LeagueAPIBaseURL,
		UserAgent:     cfg.UserAgent,
		HTTPClient:    &http.Client{Timeout: cfg.HTTPTimeout},
	})
	n := notifier.New(cfg.DiscordWebhookURL, cfg.ChessUsername)
	t := tracker.New(store, client, n, cfg, clock.New())

	if err := t.Run(ctx); err != nil {
		slog.Error("Run failed", "error", err)
		os.Exit(1)
	}
}

func newStore(ctx context.Context, cfg *config.Config) (tracker.Store, error) {
	if cfg.StateBackend == config.BackendFirestore {
		return storage.NewFirestoreStore(ctx, cfg.GoogleCloudProject, cfg.ChessUsername)
	}
	return storage.NewFileStore(cfg.StatePath), nil
}

// setupLogging replaces the default logger with one at the configured
// level, stamped with a per-run ID so interleaved scheduler logs stay
// attributable to their invocation.
func setupLogging(level, username string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler).With("run_id", uuid.NewString(), "player", username))
}
