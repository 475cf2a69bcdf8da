package models

// StandingRow is one team's line in a league table. It is derived on demand and never stored.
type StandingRow struct {
	Position       int    `json:"position"`
	TeamID         int    `json:"team_id"`
	TeamName       string `json:"team_name"`
	Played         int    `json:"played"`
	Won            int    `json:"won"`
	Drawn          int    `json:"drawn"`
	Lost           int    `json:"lost"`
	GoalsFor       int    `json:"goals_for"`
	GoalsAgainst   int    `json:"goals_against"`
	GoalDifference int    `json:"goal_difference"`
	Points         int    `json:"points"`
}

// Scope filters rankings and tables by matchday type.
type Scope string

const (
	ScopeAll    Scope = "all"
	ScopeLeague Scope = "league"
	ScopeCup    Scope = "cup"
)

// ParseScope parses a scope string; the empty string means ScopeAll.
func ParseScope(s string) (Scope, bool) {
	switch Scope(s) {
	case "", ScopeAll:
		return ScopeAll, true
	case ScopeLeague, ScopeCup:
		return Scope(s), true
	}
	return "", false
}

// MatchdayType returns the matchday type the scope selects, or nil for ScopeAll.
func (s Scope) MatchdayType() *MatchdayType {
	var t MatchdayType
	switch s {
	case ScopeLeague:
		t = MatchdayLeague
	case ScopeCup:
		t = MatchdayCup
	default:
		return nil
	}
	return &t
}

// ScorerQuery selects which goals count towards a ranking.
type ScorerQuery struct {
	SaveID string
	Season *int          // nil = every season
	Type   *MatchdayType // nil = league and cup
	Limit  int           // <= 0 = no limit
}

// GoalTally is an aggregated goal count for one player.
type GoalTally struct {
	PlayerID int
	Goals    int
}

// Scorer is one row of the golden boot leaderboard.
type Scorer struct {
	Rank       int      `json:"rank"`
	PlayerID   int      `json:"player_id"`
	PlayerName string   `json:"player_name"`
	TeamID     *int     `json:"team_id,omitempty"`
	TeamName   string   `json:"team_name"`
	Position   Position `json:"position"`
	Goals      int      `json:"goals"`
}

// FormStats summarises a team's recent results.
type FormStats struct {
	TeamID             int    `json:"team_id"`
	CurrentStreak      int    `json:"current_streak"` // positive for wins, negative for losses
	LongestWinStreak   int    `json:"longest_win_streak"`
	LongestUnbeatenRun int    `json:"longest_unbeaten_run"`
	LongestLossStreak  int    `json:"longest_loss_streak"`
	RecentForm         string `json:"recent_form"` // newest last, e.g. "WWDLW"
	MatchesConsidered  int    `json:"matches_considered"`
}
