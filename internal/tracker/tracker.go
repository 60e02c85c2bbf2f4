package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/itbasis/go-clock"

	"github.com/sawyershoemaker/chess.com-tracker/internal/config"
	"github.com/sawyershoemaker/chess.com-tracker/internal/detect"
	"github.com/sawyershoemaker/chess.com-tracker/internal/models"
)

// Tracker drives one poll cycle for one player. It owns no schedule:
// something external (cron, Cloud Scheduler, a systemd timer) invokes
// the binary, which calls Run exactly once.
type Tracker struct {
	store       Store
	fetcher     Fetcher
	notifier    Notifier
	clock       clock.Clock
	policy      detect.AlertPolicy
	username    string
	alertWindow time.Duration
}

func New(store Store, fetcher Fetcher, n Notifier, cfg *config.Config, clk clock.Clock) *Tracker {
	var policy detect.AlertPolicy = detect.RankPolicy{}
	if cfg.LeagueAlertPolicy == config.PolicyPoints {
		policy = detect.PointsPolicy{Target: cfg.LeaguePointsTarget}
	}
	return &Tracker{
		store:       store,
		fetcher:     fetcher,
		notifier:    n,
		clock:       clk,
		policy:      policy,
		username:    cfg.ChessUsername,
		alertWindow: cfg.LeagueAlertWindow,
	}
}

// Run executes one cycle: load state, fetch, diff, notify, persist.
// Notifications go out before the state that marks them processed is
// saved, so a crash in between re-delivers rather than drops.
//
// A transient fetch failure downgrades to "nothing new" and the run
// still exits cleanly; only an undecodable payload, a state load
// failure or a state save failure make Run return an error.
func (t *Tracker) Run(ctx context.Context) error {
	state, err := t.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading state: %w", err)
	}

	games, league, err := t.fetch(ctx)
	if err != nil {
		return err
	}

	out := detect.Changes(detect.Input{
		State:       state,
		Games:       games,
		League:      league,
		Now:         t.clock.Now(),
		AlertWindow: t.alertWindow,
	}, t.policy)

	sent := t.announceGames(ctx, out.NewGames)

	next := state
	next.ProcessedGameIDs = foldProcessed(state.ProcessedGameIDs, games, sent)
	next.LastRating = out.CarriedRating
	t.announceLeague(ctx, &next, league, out)
	next.UpdatedAt = t.clock.Now()

	if err := t.store.Save(ctx, next); err != nil {
		return fmt.Errorf("persisting state: %w", err)
	}

	slog.Info("Run complete",
		"new_games", len(out.NewGames),
		"announced", len(sent),
		"league_changed", out.LeagueChanged,
		"alert_needed", out.AlertNeeded)
	return nil
}

// fetch pulls both feeds. Transient failures (network, odd status) are
// logged and downgraded to empty results; a payload the decoder cannot
// make sense of aborts the run instead, since reprocessing garbage every
// cycle helps nobody.
func (t *Tracker) fetch(ctx context.Context) ([]models.GameRecord, *models.LeagueSnapshot, error) {
	games, err := t.fetcher.FetchRecentGames(ctx, t.username)
	if err != nil {
		if errors.Is(err, models.ErrBadPayload) {
			return nil, nil, fmt.Errorf("fetching games: %w", err)
		}
		slog.Warn("Game fetch failed, treating as no new data", "error", err)
		games = nil
	}

	league, err := t.fetcher.FetchLeagueStanding(ctx, t.username)
	if err != nil {
		if errors.Is(err, models.ErrBadPayload) {
			return nil, nil, fmt.Errorf("fetching league standing: %w", err)
		}
		slog.Warn("League fetch failed, leaving league state untouched", "error", err)
		league = nil
	}
	return games, league, nil
}

// announceGames sends one notification per new game, oldest first, and
// returns the IDs that actually went out. A failed send withholds that
// ID so the next run picks the game up again.
func (t *Tracker) announceGames(ctx context.Context, newGames []models.GameRecord) []string {
	sent := make([]string, 0, len(newGames))
	for _, game := range newGames {
		if err := t.notifier.SendGame(ctx, game); err != nil {
			slog.Error("Game notification failed, will retry next run", "game", game.ID, "error", err)
			continue
		}
		slog.Info("Announced game", "game", game.ID, "result", game.Result)
		sent = append(sent, game.ID)
	}
	return sent
}

// announceLeague replaces the standing message when the standing moved
// or an alert is due. The old message is deleted first so the channel
// never shows two standings; the new message ID is stored only after a
// successful send, leaving LastLeague untouched on failure so the same
// change is re-detected next run.
func (t *Tracker) announceLeague(ctx context.Context, next *models.PersistedState, league *models.LeagueSnapshot, out detect.Outcome) {
	if league == nil {
		return
	}

	refresh := out.LeagueChanged || out.AlertNeeded
	if !refresh && next.LastLeagueMessageID == "" {
		// The standing was announced before but its message is gone
		// (deleted by hand, or a save that never landed). Restore it.
		refresh = true
	}
	if !refresh {
		return
	}

	if next.LastLeagueMessageID != "" {
		if err := t.notifier.Delete(ctx, next.LastLeagueMessageID); err != nil {
			slog.Warn("Failed to delete previous league message", "message_id", next.LastLeagueMessageID, "error", err)
		}
	}

	reason := ""
	if out.AlertNeeded {
		reason = t.policy.Reason(*league)
	}
	msgID, err := t.notifier.SendLeague(ctx, *league, out.AlertNeeded, reason)
	if err != nil {
		slog.Error("League notification failed, will retry next run", "error", err)
		return
	}

	next.LastLeague = league
	next.LastLeagueMessageID = msgID
	if out.NewPeriod {
		next.LeagueAlertSent = false
	}
	if out.AlertNeeded {
		next.LeagueAlertSent = true
	}
	slog.Info("Announced league standing", "place", league.Place, "points", league.Points, "alert", out.AlertNeeded)
}

// foldProcessed merges the IDs announced this run into the processed set
// and drops IDs that fell out of the fetch window. An empty fetch leaves
// the set alone so a transient outage cannot erase dedup history.
func foldProcessed(processed []string, fetched []models.GameRecord, sent []string) []string {
	if len(fetched) == 0 {
		return processed
	}
	inFetch := make(map[string]struct{}, len(fetched))
	for _, g := range fetched {
		inFetch[g.ID] = struct{}{}
	}
	kept := make([]string, 0, len(fetched))
	for _, id := range processed {
		if _, ok := inFetch[id]; ok {
			kept = append(kept, id)
		}
	}
	return append(kept, sent...)
}
