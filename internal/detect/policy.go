package detect

import (
	"fmt"

	"github.com/sawyershoemaker/chess.com-tracker/internal/models"
)

// AlertPolicy decides whether a league standing is bad enough to warn
// about before the period closes.
type AlertPolicy interface {
	AtRisk(s models.LeagueSnapshot) bool
	Reason(s models.LeagueSnapshot) string
}

// RankPolicy flags a standing below the division's advancement cutoff.
// When the source supplies no cutoff it never fires.
type RankPolicy struct{}

func (RankPolicy) AtRisk(s models.LeagueSnapshot) bool {
	return s.AdvancementThreshold != nil && s.Place > *s.AdvancementThreshold
}

func (RankPolicy) Reason(s models.LeagueSnapshot) string {
	if s.AdvancementThreshold == nil {
		return ""
	}
	return fmt.Sprintf("Place #%d is outside the top %d needed to advance", s.Place, *s.AdvancementThreshold)
}

// PointsPolicy flags a standing short of a fixed points target.
type PointsPolicy struct {
	Target int
}

func (p PointsPolicy) AtRisk(s models.LeagueSnapshot) bool {
	return s.Points < p.Target
}

func (p PointsPolicy) Reason(s models.LeagueSnapshot) string {
	return fmt.Sprintf("%d points is short of the %d point target", s.Points, p.Target)
}
