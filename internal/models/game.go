package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Result classifies a finished game from the tracked player's side.
type Result string

const (
	ResultWin  Result = "Win"
	ResultLoss Result = "Loss"
	ResultDraw Result = "Draw"
)

// GameRecord is one completed game as seen from the tracked player's side.
// ID is the source's stable game URL and doubles as the dedup key.
type GameRecord struct {
	ID                string    `json:"id" validate:"required,url"`
	OpponentName      string    `json:"opponentName"`
	TimeControl       string    `json:"timeControl"` // raw source form, e.g. "600+5"
	Result            Result    `json:"result"`
	TerminationReason string    `json:"terminationReason,omitempty"`
	RatingDelta       *int      `json:"ratingDelta,omitempty"`
	EndRating         *int      `json:"endRating,omitempty"`
	EndTimestamp      time.Time `json:"endTimestamp,omitempty"`
}

// FormatTimeControl renders a raw time-control string for display.
// "600+5" becomes "10m 0s + 5s increment", "300" becomes "5m 0s" and
// "unlimited" becomes "Unlimited". Anything unparseable (daily controls
// like "1/86400") is returned untouched.
func FormatTimeControl(raw string) string {
	if strings.EqualFold(raw, "unlimited") {
		return "Unlimited"
	}
	main := raw
	increment := ""
	if base, inc, ok := strings.Cut(raw, "+"); ok {
		main, increment = base, inc
	}
	seconds, err := strconv.Atoi(main)
	if err != nil {
		return raw
	}
	out := fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
	if increment != "" {
		if inc, err := strconv.Atoi(increment); err == nil {
			out = fmt.Sprintf("%s + %ds increment", out, inc)
		}
	}
	return out
}
