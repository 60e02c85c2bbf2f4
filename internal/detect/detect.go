// Package detect compares one poll's findings against the state a
// previous run left behind. It does no I/O of its own: callers feed it
// fetched data and get back what needs announcing.
package detect

import (
	"time"

	"github.com/sawyershoemaker/chess.com-tracker/internal/models"
)

// DefaultAlertWindow is how close the period deadline must be before an
// at-risk standing turns into an alert.
const DefaultAlertWindow = 24 * time.Hour

// Input is one poll's worth of data plus the persisted state it is
// diffed against. Games must be ordered oldest first, as fetched.
type Input struct {
	State       models.PersistedState
	Games       []models.GameRecord
	League      *models.LeagueSnapshot
	Now         time.Time
	AlertWindow time.Duration
}

// Outcome is what changed since the previous run. NewGames keeps the
// input order and carries resolved rating deltas.
type Outcome struct {
	NewGames      []models.GameRecord
	CarriedRating *int
	LeagueChanged bool
	NewPeriod     bool
	AlertNeeded   bool
}

// Changes diffs a poll against the persisted state.
//
// A game is new when its ID is not in the processed set. Each new game
// missing a source-supplied rating delta gets one computed against the
// rating carried through the new games before it; with no baseline at
// all the delta stays unknown rather than guessed. CarriedRating ends at
// the last new game's end rating so the next run picks up from there.
//
// The league branch is evaluated only when the poll produced a standing.
// An alert fires at most once per league period: the sent latch holds it
// back until the division code or deadline changes.
func Changes(in Input, policy AlertPolicy) Outcome {
	out := Outcome{CarriedRating: in.State.LastRating}

	seen := in.State.ProcessedSet()
	for _, game := range in.Games {
		if _, ok := seen[game.ID]; ok {
			continue
		}
		if game.RatingDelta == nil && game.EndRating != nil && out.CarriedRating != nil {
			delta := *game.EndRating - *out.CarriedRating
			game.RatingDelta = &delta
		}
		if game.EndRating != nil {
			rating := *game.EndRating
			out.CarriedRating = &rating
		}
		out.NewGames = append(out.NewGames, game)
	}

	if in.League == nil {
		return out
	}

	prev := in.State.LastLeague
	out.LeagueChanged = !in.League.Equal(prev)
	out.NewPeriod = !in.League.SamePeriod(prev)

	alertSent := in.State.LeagueAlertSent && !out.NewPeriod
	window := in.AlertWindow
	if window <= 0 {
		window = DefaultAlertWindow
	}
	if !alertSent && policy != nil && policy.AtRisk(*in.League) {
		left := in.League.PeriodEndsAt.Sub(in.Now)
		if left > 0 && left < window {
			out.AlertNeeded = true
		}
	}
	return out
}
