package chesscom

import (
	"fmt"
	"strings"
	"time"

	"github.com/sawyershoemaker/chess.com-tracker/internal/models"
)

// The winner's result code. Losers and draws carry the reason the game
// ended instead ("resigned", "timeout", "agreed", ...).
const resultCodeWin = "win"

type archivesIndex struct {
	Archives []string `json:"archives"`
}

type archiveGames struct {
	Games []archiveGame `json:"games"`
}

type archiveGame struct {
	URL         string     `json:"url"`
	TimeControl string     `json:"time_control"`
	TimeClass   string     `json:"time_class"`
	Rated       bool       `json:"rated"`
	EndTime     int64      `json:"end_time"`
	Rules       string     `json:"rules"`
	White       sidePlayer `json:"white"`
	Black       sidePlayer `json:"black"`
}

type sidePlayer struct {
	Username string `json:"username"`
	Rating   int    `json:"rating"`
	Result   string `json:"result"`
}

type leagueStanding struct {
	League struct {
		Name string `json:"name"`
		Code string `json:"code"`
	} `json:"league"`
	Division struct {
		ID           string `json:"id"`
		EndTime      int64  `json:"endTime"`
		AdvanceCount *int   `json:"advanceCount"`
	} `json:"division"`
	Stats struct {
		Place  int `json:"place"`
		Points int `json:"points"`
	} `json:"stats"`
}

// toRecord maps an archive entry onto the tracked player's point of view.
func (g archiveGame) toRecord(username string) (models.GameRecord, error) {
	if g.URL == "" {
		return models.GameRecord{}, fmt.Errorf("game has no URL")
	}

	var me, them sidePlayer
	switch {
	case strings.EqualFold(g.White.Username, username):
		me, them = g.White, g.Black
	case strings.EqualFold(g.Black.Username, username):
		me, them = g.Black, g.White
	default:
		return models.GameRecord{}, fmt.Errorf("game %s: %s is on neither side", g.URL, username)
	}

	result := models.ResultDraw
	termination := me.Result
	switch {
	case me.Result == resultCodeWin:
		result = models.ResultWin
		termination = them.Result
	case them.Result == resultCodeWin:
		result = models.ResultLoss
	}

	record := models.GameRecord{
		ID:                g.URL,
		OpponentName:      them.Username,
		TimeControl:       g.TimeControl,
		Result:            result,
		TerminationReason: termination,
	}
	if me.Rating > 0 {
		rating := me.Rating
		record.EndRating = &rating
	}
	if g.EndTime > 0 {
		record.EndTimestamp = time.Unix(g.EndTime, 0).UTC()
	}
	return record, nil
}
