// Package models holds the persisted and derived types of the season engine.
package models

import "time"

// Save is the tenancy boundary. Every team, player and matchday belongs to exactly one save.
type Save struct {
	ID            string
	Name          string
	CurrentSeason int
	CreatedAt     time.Time
}

// Division tiers.
const (
	DivisionD1        = "D1"
	DivisionD2        = "D2"
	DivisionD3        = "D3"
	DivisionD4        = "D4"
	DivisionDistrital = "Distrital"
)

// ValidDivision reports whether d is a known division tier.
func ValidDivision(d string) bool {
	switch d {
	case DivisionD1, DivisionD2, DivisionD3, DivisionD4, DivisionDistrital:
		return true
	}
	return false
}

// Team represents a club within a save.
type Team struct {
	ID        int
	SaveID    string
	Name      string
	Division  string
	Rating    int
	Morale    int
	CreatedAt time.Time
}

// Position is a player's role on the pitch.
type Position string

const (
	PositionGoalkeeper Position = "GK"
	PositionDefender   Position = "DF"
	PositionMidfielder Position = "MF"
	PositionAttacker   Position = "AT"
)

// Player represents a footballer. TeamID is nil for free agents.
type Player struct {
	ID              int
	SaveID          string
	Name            string
	Position        Position
	Rating          int
	Behavior        int // 1-5, affects salary and price
	Salary          int
	ContractExpires int // season number the contract runs out
	TeamID          *int
	CreatedAt       time.Time
}

// PlayerProfile is the display metadata joined onto ranking rows.
type PlayerProfile struct {
	PlayerID int
	Name     string
	Position Position
	TeamID   *int
	TeamName string
}

// MatchdayType distinguishes league rounds from cup rounds.
type MatchdayType string

const (
	MatchdayLeague MatchdayType = "LEAGUE"
	MatchdayCup    MatchdayType = "CUP"
)

// Matchday is one scheduled round. IsPlayed flips from false to true exactly once.
type Matchday struct {
	ID        int
	SaveID    string
	Number    int
	Type      MatchdayType
	Season    int
	Division  *string // league rounds only
	IsPlayed  bool
	CreatedAt time.Time
}

// Match is a fixture between two teams. Goals stay nil until the simulator records a result.
type Match struct {
	ID          int
	MatchdayID  int
	HomeTeamID  int
	AwayTeamID  int
	HomeGoals   *int
	AwayGoals   *int
	IsPlayed    bool
	ScheduledAt *time.Time
	CreatedAt   time.Time
}

// EventType is the kind of a logged match event.
type EventType string

const (
	EventGoal   EventType = "GOAL"
	EventAssist EventType = "ASSIST"
	EventYellow EventType = "YELLOW"
	EventRed    EventType = "RED"
	EventInjury EventType = "INJURY"
	EventSub    EventType = "SUB"
)

// EventTypes lists every known event type.
var EventTypes = []EventType{EventGoal, EventAssist, EventYellow, EventRed, EventInjury, EventSub}

// ValidEventType reports whether t is a known event type.
func ValidEventType(t EventType) bool {
	for _, known := range EventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// MatchEvent is one entry of a match's append-only event log.
type MatchEvent struct {
	ID        int
	MatchID   int
	Minute    int
	Type      EventType
	PlayerID  *int // Nullable
	TeamID    *int // Nullable
	CreatedAt time.Time
}

// PlayerMatchStat is the projection of one player's events in one match.
// It is always fully overwritten, never incremented.
type PlayerMatchStat struct {
	PlayerID    int
	MatchID     int
	Goals       int
	Assists     int
	YellowCards int
	RedCards    int
	Injuries    int
	UpdatedAt   time.Time
}

// MatchdayFilter narrows a matchday listing. Nil fields do not filter.
type MatchdayFilter struct {
	Season     *int
	Type       *MatchdayType
	Division   *string
	PlayedOnly bool
}

// ScheduledRound is a matchday together with the matches it holds, written as one unit.
type ScheduledRound struct {
	Matchday *Matchday
	Matches  []*Match
}
