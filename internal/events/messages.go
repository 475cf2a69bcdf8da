package events

import "github.com/ramonehamilton/season-engine/internal/storage/models"

// Event types dispatched by the season engine.
const (
	TypeMatchKickoff      = "match:kickoff"
	TypeMatchSubstitution = "match:substitution"
	TypeMatchAutoSubs     = "match:auto_substitutions"
	TypeMatchPaused       = "match:paused"
	TypeMatchResumed      = "match:resumed"
	TypeMatchEnded        = "match:ended"
	TypeMatchEventLogged  = "match:event"
	TypeMatchResult       = "match:result"
	TypeStatsProjected    = "stats:projected"
	TypeMatchdayFinalized = "matchday:finalized"
	TypeScheduleCreated   = "schedule:created"
)

// ============================================================================
// Event Message Types
// These types define the structure of data sent with events.
// ============================================================================

// MatchStateEvent is the payload for kickoff, pause, resume and end events.
type MatchStateEvent struct {
	MatchID int                `json:"match_id"`
	State   *models.MatchState `json:"state,omitempty"`
}

// SubstitutionEvent is the payload for match:substitution events.
// Sent once per swap, manual or automatic.
type SubstitutionEvent struct {
	MatchID           int         `json:"match_id"`
	Side              models.Side `json:"side"`
	OutPlayerID       int         `json:"out_player_id"`
	InPlayerID        int         `json:"in_player_id"`
	SubstitutionsMade int         `json:"substitutions_made"`
	Automatic         bool        `json:"automatic"`
	Injury            bool        `json:"injury"`
}

// AutoSubstitutionsEvent is the payload for match:auto_substitutions events.
type AutoSubstitutionsEvent struct {
	MatchID int `json:"match_id"`
	Home    int `json:"home"` // swaps made for the home side
	Away    int `json:"away"` // swaps made for the away side
}

// MatchEventLoggedEvent is the payload for match:event events.
type MatchEventLoggedEvent struct {
	MatchID  int              `json:"match_id"`
	EventID  int              `json:"event_id"`
	Minute   int              `json:"minute"`
	Type     models.EventType `json:"type"`
	PlayerID *int             `json:"player_id,omitempty"`
	TeamID   *int             `json:"team_id,omitempty"`
}

// MatchResultEvent is the payload for match:result events.
type MatchResultEvent struct {
	MatchID   int `json:"match_id"`
	HomeGoals int `json:"home_goals"`
	AwayGoals int `json:"away_goals"`
}

// StatsProjectedEvent is the payload for stats:projected events.
type StatsProjectedEvent struct {
	Scope   string `json:"scope"` // "match", "matchday" or "save"
	ID      string `json:"id"`
	Matches int    `json:"matches"`
}

// MatchdayFinalizedEvent is the payload for matchday:finalized events.
type MatchdayFinalizedEvent struct {
	SaveID           string `json:"save_id"`
	MatchdayID       int    `json:"matchday_id"`
	MatchesFinalized int    `json:"matches_finalized"`
	AlreadyPlayed    bool   `json:"already_played"`
}

// ScheduleCreatedEvent is the payload for schedule:created events.
type ScheduleCreatedEvent struct {
	SaveID    string              `json:"save_id"`
	Season    int                 `json:"season"`
	Type      models.MatchdayType `json:"type"`
	Division  string              `json:"division,omitempty"`
	Matchdays int                 `json:"matchdays"`
	Matches   int                 `json:"matches"`
}
