package tracker

import (
	"context"

	"github.com/sawyershoemaker/chess.com-tracker/internal/models"
)

// Fetcher abstracts the upstream game and league API.
type Fetcher interface {
	FetchRecentGames(ctx context.Context, username string) ([]models.GameRecord, error)
	FetchLeagueStanding(ctx context.Context, username string) (*models.LeagueSnapshot, error)
}

// Notifier abstracts the notification layer.
type Notifier interface {
	SendGame(ctx context.Context, game models.GameRecord) error
	SendLeague(ctx context.Context, standing models.LeagueSnapshot, alert bool, reason string) (string, error)
	Delete(ctx context.Context, messageID string) error
}

// Store abstracts the state persisted between runs.
type Store interface {
	Load(ctx context.Context) (models.PersistedState, error)
	Save(ctx context.Context, state models.PersistedState) error
	Close() error
}
