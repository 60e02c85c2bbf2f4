package models

import "time"

// LeagueSnapshot is the tracked player's standing in their current
// league division at one point in time.
type LeagueSnapshot struct {
	LeagueName           string    `json:"leagueName" firestore:"leagueName"`
	Place                int       `json:"place" firestore:"place" validate:"gte=0"`
	Points               int       `json:"points" firestore:"points" validate:"gte=0"`
	DivisionCode         string    `json:"divisionCode" firestore:"divisionCode"`
	AdvancementThreshold *int      `json:"advancementThreshold,omitempty" firestore:"advancementThreshold,omitempty"`
	PeriodEndsAt         time.Time `json:"periodEndsAt" firestore:"periodEndsAt"`
}

// Equal reports whether two snapshots show the same standing. Only the
// fields a viewer would notice count: place, points, division and the
// period deadline.
func (s *LeagueSnapshot) Equal(other *LeagueSnapshot) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.Place == other.Place &&
		s.Points == other.Points &&
		s.DivisionCode == other.DivisionCode &&
		s.PeriodEndsAt.Equal(other.PeriodEndsAt)
}

// SamePeriod reports whether two snapshots belong to the same league
// period. A different division code or deadline means the player rolled
// into a new period and per-period state must reset.
func (s *LeagueSnapshot) SamePeriod(other *LeagueSnapshot) bool {
	if s == nil || other == nil {
		return false
	}
	return s.DivisionCode == other.DivisionCode && s.PeriodEndsAt.Equal(other.PeriodEndsAt)
}
