package models

import (
	"errors"
	"time"
)

// ErrBadPayload is returned when the source API answers successfully but
// the body does not decode into the expected shape. Unlike a network
// error this is not worth retrying blindly, so callers treat it as fatal.
var ErrBadPayload = errors.New("unexpected source payload")

// PersistedState is everything a run leaves behind for the next one.
// It is written as a single document: no partial updates, ever.
type PersistedState struct {
	ProcessedGameIDs    []string        `json:"processedGameIds" firestore:"processedGameIds"`
	LastRating          *int            `json:"lastRating,omitempty" firestore:"lastRating,omitempty"`
	LastLeague          *LeagueSnapshot `json:"lastLeague,omitempty" firestore:"lastLeague,omitempty"`
	LastLeagueMessageID string          `json:"lastLeagueMessageId,omitempty" firestore:"lastLeagueMessageId,omitempty"`
	LeagueAlertSent     bool            `json:"leagueAlertSent" firestore:"leagueAlertSent"`
	UpdatedAt           time.Time       `json:"updatedAt" firestore:"updatedAt"`
}

// ProcessedSet returns the processed game IDs as a set for membership checks.
func (s *PersistedState) ProcessedSet() map[string]struct{} {
	set := make(map[string]struct{}, len(s.ProcessedGameIDs))
	for _, id := range s.ProcessedGameIDs {
		set[id] = struct{}{}
	}
	return set
}
