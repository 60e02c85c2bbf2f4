package detect

import (
	"testing"
	"time"

	"github.com/sawyershoemaker/chess.com-tracker/internal/models"
)

var now = time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)

func intp(v int) *int { return &v }

func gameEnding(id string, endRating int) models.GameRecord {
	return models.GameRecord{
		ID:        "https://www.chess.com/game/live/" + id,
		Result:    models.ResultWin,
		EndRating: intp(endRating),
	}
}

func standing(place, points int, division string, endsIn time.Duration) *models.LeagueSnapshot {
	return &models.LeagueSnapshot{
		LeagueName:           "Crystal",
		Place:                place,
		Points:               points,
		DivisionCode:         division,
		AdvancementThreshold: intp(3),
		PeriodEndsAt:         now.Add(endsIn),
	}
}

func TestChanges_FirstRunAllNew(t *testing.T) {
	games := []models.GameRecord{gameEnding("1", 1500), gameEnding("2", 1490)}

	out := Changes(Input{Games: games, Now: now}, RankPolicy{})

	if len(out.NewGames) != 2 {
		t.Fatalf("expected 2 new games, got %d", len(out.NewGames))
	}
	if out.NewGames[0].ID != games[0].ID || out.NewGames[1].ID != games[1].ID {
		t.Error("new games must keep fetch order, oldest first")
	}
	if out.NewGames[0].RatingDelta != nil {
		t.Errorf("first run has no baseline, delta must stay unknown, got %d", *out.NewGames[0].RatingDelta)
	}
	if out.NewGames[1].RatingDelta == nil || *out.NewGames[1].RatingDelta != -10 {
		t.Errorf("second game's delta should come from the first game's end rating, got %v", out.NewGames[1].RatingDelta)
	}
	if out.CarriedRating == nil || *out.CarriedRating != 1490 {
		t.Errorf("expected carried rating 1490, got %v", out.CarriedRating)
	}
}

func TestChanges_KnownGamesSkipped(t *testing.T) {
	known := gameEnding("1", 1500)
	fresh := gameEnding("2", 1510)
	state := models.PersistedState{
		ProcessedGameIDs: []string{known.ID},
		LastRating:       intp(1500),
	}

	out := Changes(Input{State: state, Games: []models.GameRecord{known, fresh}, Now: now}, RankPolicy{})

	if len(out.NewGames) != 1 {
		t.Fatalf("expected 1 new game, got %d", len(out.NewGames))
	}
	if out.NewGames[0].ID != fresh.ID {
		t.Errorf("expected %s, got %s", fresh.ID, out.NewGames[0].ID)
	}
}

func TestChanges_NothingNew(t *testing.T) {
	known := gameEnding("1", 1500)
	state := models.PersistedState{
		ProcessedGameIDs: []string{known.ID},
		LastRating:       intp(1500),
	}

	out := Changes(Input{State: state, Games: []models.GameRecord{known}, Now: now}, RankPolicy{})

	if len(out.NewGames) != 0 {
		t.Fatalf("expected no new games, got %d", len(out.NewGames))
	}
	if out.CarriedRating == nil || *out.CarriedRating != 1500 {
		t.Errorf("carried rating must survive a quiet poll, got %v", out.CarriedRating)
	}
}

func TestChanges_RatingDeltaCarry(t *testing.T) {
	state := models.PersistedState{LastRating: intp(1000)}
	games := []models.GameRecord{gameEnding("1", 1010), gameEnding("2", 1005)}

	out := Changes(Input{State: state, Games: games, Now: now}, RankPolicy{})

	if d := out.NewGames[0].RatingDelta; d == nil || *d != 10 {
		t.Errorf("expected delta +10, got %v", d)
	}
	if d := out.NewGames[1].RatingDelta; d == nil || *d != -5 {
		t.Errorf("expected delta -5, got %v", d)
	}
	if out.CarriedRating == nil || *out.CarriedRating != 1005 {
		t.Errorf("expected carried rating 1005, got %v", out.CarriedRating)
	}
}

func TestChanges_TwoGamesFromStoredBaseline(t *testing.T) {
	state := models.PersistedState{LastRating: intp(1480)}
	games := []models.GameRecord{gameEnding("a", 1500), gameEnding("b", 1490)}

	out := Changes(Input{State: state, Games: games, Now: now}, RankPolicy{})

	if d := out.NewGames[0].RatingDelta; d == nil || *d != 20 {
		t.Errorf("expected delta +20, got %v", d)
	}
	if d := out.NewGames[1].RatingDelta; d == nil || *d != -10 {
		t.Errorf("expected delta -10, got %v", d)
	}
	if out.CarriedRating == nil || *out.CarriedRating != 1490 {
		t.Errorf("expected carried rating 1490, got %v", out.CarriedRating)
	}
}

func TestChanges_SourceDeltaPreferred(t *testing.T) {
	state := models.PersistedState{LastRating: intp(1480)}
	game := gameEnding("1", 1493)
	game.RatingDelta = intp(-7)

	out := Changes(Input{State: state, Games: []models.GameRecord{game}, Now: now}, RankPolicy{})

	if d := out.NewGames[0].RatingDelta; d == nil || *d != -7 {
		t.Errorf("source-supplied delta must win over the computed one, got %v", d)
	}
	if out.CarriedRating == nil || *out.CarriedRating != 1493 {
		t.Errorf("expected carried rating 1493, got %v", out.CarriedRating)
	}
}

func TestChanges_GameWithoutEndRating(t *testing.T) {
	state := models.PersistedState{LastRating: intp(1000)}
	unrated := models.GameRecord{ID: "https://www.chess.com/game/live/1", Result: models.ResultDraw}
	rated := gameEnding("2", 1020)

	out := Changes(Input{State: state, Games: []models.GameRecord{unrated, rated}, Now: now}, RankPolicy{})

	if out.NewGames[0].RatingDelta != nil {
		t.Errorf("a game without an end rating has no delta, got %d", *out.NewGames[0].RatingDelta)
	}
	if d := out.NewGames[1].RatingDelta; d == nil || *d != 20 {
		t.Errorf("the carry must skip over unrated games, got %v", d)
	}
	if out.CarriedRating == nil || *out.CarriedRating != 1020 {
		t.Errorf("expected carried rating 1020, got %v", out.CarriedRating)
	}
}

func TestChanges_LeagueFirstSighting(t *testing.T) {
	out := Changes(Input{League: standing(2, 100, "div-1", 5*24*time.Hour), Now: now}, RankPolicy{})

	if !out.LeagueChanged {
		t.Error("first sighting of a league must count as changed")
	}
	if !out.NewPeriod {
		t.Error("first sighting of a league must count as a new period")
	}
	if out.AlertNeeded {
		t.Error("place 2 of top 3 is not at risk")
	}
}

func TestChanges_LeagueUnchanged(t *testing.T) {
	snap := standing(2, 100, "div-1", 5*24*time.Hour)
	prev := *snap
	state := models.PersistedState{LastLeague: &prev}

	out := Changes(Input{State: state, League: snap, Now: now}, RankPolicy{})

	if out.LeagueChanged {
		t.Error("identical standing must not count as changed")
	}
	if out.NewPeriod {
		t.Error("identical standing must not count as a new period")
	}
}

func TestChanges_LeaguePlaceMoved(t *testing.T) {
	prev := standing(2, 100, "div-1", 5*24*time.Hour)
	curr := standing(4, 100, "div-1", 5*24*time.Hour)
	state := models.PersistedState{LastLeague: prev}

	out := Changes(Input{State: state, League: curr, Now: now}, RankPolicy{})

	if !out.LeagueChanged {
		t.Error("a place change must count as changed")
	}
	if out.NewPeriod {
		t.Error("a place change within the division is not a new period")
	}
}

func TestChanges_NilLeagueLeavesBranchAlone(t *testing.T) {
	state := models.PersistedState{LastLeague: standing(2, 100, "div-1", time.Hour), LeagueAlertSent: true}

	out := Changes(Input{State: state, Now: now}, RankPolicy{})

	if out.LeagueChanged || out.NewPeriod || out.AlertNeeded {
		t.Error("a poll without a standing must leave the league branch untouched")
	}
}

func TestChanges_AlertInsideWindow(t *testing.T) {
	curr := standing(5, 100, "div-1", 16*time.Hour)
	state := models.PersistedState{LastLeague: curr}

	out := Changes(Input{State: state, League: curr, Now: now}, RankPolicy{})

	if !out.AlertNeeded {
		t.Error("place 5 of top 3 with 16h left must alert")
	}
	if out.LeagueChanged {
		t.Error("the alert alone does not make the standing changed")
	}
}

func TestChanges_NoAlertOutsideWindow(t *testing.T) {
	curr := standing(5, 100, "div-1", 48*time.Hour)

	out := Changes(Input{League: curr, Now: now}, RankPolicy{})

	if out.AlertNeeded {
		t.Error("48h from the deadline is too early to alert")
	}
}

func TestChanges_NoAlertAfterDeadline(t *testing.T) {
	curr := standing(5, 100, "div-1", -time.Hour)

	out := Changes(Input{League: curr, Now: now}, RankPolicy{})

	if out.AlertNeeded {
		t.Error("an already ended period must not alert")
	}
}

func TestChanges_AlertOncePerPeriod(t *testing.T) {
	curr := standing(5, 100, "div-1", 16*time.Hour)
	state := models.PersistedState{LastLeague: curr, LeagueAlertSent: true}

	out := Changes(Input{State: state, League: curr, Now: now}, RankPolicy{})

	if out.AlertNeeded {
		t.Error("the sent latch must hold the alert back within one period")
	}
}

func TestChanges_LatchResetsOnNewPeriod(t *testing.T) {
	prev := standing(5, 100, "div-1", 16*time.Hour)
	curr := standing(5, 0, "div-2", 16*time.Hour)
	state := models.PersistedState{LastLeague: prev, LeagueAlertSent: true}

	out := Changes(Input{State: state, League: curr, Now: now}, RankPolicy{})

	if !out.NewPeriod {
		t.Fatal("a new division code must open a new period")
	}
	if !out.AlertNeeded {
		t.Error("a new period must clear the sent latch and allow a fresh alert")
	}
}

func TestChanges_NewDeadlineIsNewPeriod(t *testing.T) {
	prev := standing(5, 100, "div-1", 16*time.Hour)
	curr := standing(5, 100, "div-1", 16*time.Hour)
	curr.PeriodEndsAt = prev.PeriodEndsAt.Add(7 * 24 * time.Hour)
	state := models.PersistedState{LastLeague: prev, LeagueAlertSent: true}

	out := Changes(Input{State: state, League: curr, Now: now}, RankPolicy{})

	if !out.NewPeriod {
		t.Error("a moved deadline must open a new period")
	}
}

func TestChanges_CustomWindow(t *testing.T) {
	curr := standing(5, 100, "div-1", 30*time.Hour)

	out := Changes(Input{League: curr, Now: now, AlertWindow: 36 * time.Hour}, RankPolicy{})
	if !out.AlertNeeded {
		t.Error("30h left inside a 36h window must alert")
	}

	out = Changes(Input{League: curr, Now: now}, RankPolicy{})
	if out.AlertNeeded {
		t.Error("30h left with the default 24h window must not alert")
	}
}

func TestRankPolicy(t *testing.T) {
	safe := standing(3, 100, "div-1", time.Hour)
	if (RankPolicy{}).AtRisk(*safe) {
		t.Error("place 3 of top 3 is safe")
	}

	risky := standing(4, 100, "div-1", time.Hour)
	if !(RankPolicy{}).AtRisk(*risky) {
		t.Error("place 4 of top 3 is at risk")
	}
	if (RankPolicy{}).Reason(*risky) == "" {
		t.Error("an at-risk standing needs a reason")
	}

	noCutoff := standing(50, 0, "div-1", time.Hour)
	noCutoff.AdvancementThreshold = nil
	if (RankPolicy{}).AtRisk(*noCutoff) {
		t.Error("without a cutoff the rank policy never fires")
	}
}

func TestPointsPolicy(t *testing.T) {
	policy := PointsPolicy{Target: 50}

	short := standing(1, 40, "div-1", 16*time.Hour)
	if !policy.AtRisk(*short) {
		t.Error("40 of 50 points is at risk")
	}
	if policy.Reason(*short) == "" {
		t.Error("an at-risk standing needs a reason")
	}

	enough := standing(9, 50, "div-1", 16*time.Hour)
	if policy.AtRisk(*enough) {
		t.Error("50 of 50 points is safe regardless of place")
	}

	out := Changes(Input{League: short, Now: now}, policy)
	if !out.AlertNeeded {
		t.Error("the points policy must drive the alert decision")
	}
}
