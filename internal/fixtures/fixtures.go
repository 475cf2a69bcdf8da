// Package fixtures generates league and cup schedules.
//
// Generators are pure: they take team ids and a random source and return
// fixtures. Persisting them is the schedule package's job.
package fixtures

import (
	"github.com/ramonehamilton/season-engine/internal/apperr"
)

const (
	// LeagueTeams is the number of teams in one league division.
	LeagueTeams = 8
	// LeagueMatchesPerMatchday is how many fixtures are popped per league round.
	LeagueMatchesPerMatchday = 4
	// LeagueMatchdays is the number of rounds of a double round-robin of LeagueTeams.
	LeagueMatchdays = LeagueTeams * (LeagueTeams - 1) / LeagueMatchesPerMatchday

	// CupTeams is the size of the cup draw.
	CupTeams = 128
	// CupRounds is the number of knockout rounds for CupTeams.
	CupRounds = 7
	// CupMatchdayInterval spaces cup rounds between league rounds: 3, 6, 9, ...
	CupMatchdayInterval = 3
)

// Fixture is one scheduled pairing.
type Fixture struct {
	Matchday int `json:"matchday"`
	Home     int `json:"home"`
	Away     int `json:"away"`
}

// GenerateLeague builds a double round-robin for exactly LeagueTeams teams:
// every ordered pair plays once, the full list is shuffled, and fixtures are
// dealt LeagueMatchesPerMatchday at a time into matchdays 1..LeagueMatchdays.
//
// The shuffle does not guarantee a team plays only once per matchday.
func GenerateLeague(teamIDs []int, rng Rand) ([]Fixture, error) {
	if len(teamIDs) != LeagueTeams {
		return nil, apperr.Validation("teams", "league schedule needs exactly %d teams, got %d", LeagueTeams, len(teamIDs))
	}
	if err := checkDistinct(teamIDs); err != nil {
		return nil, err
	}

	pairs := make([]Fixture, 0, len(teamIDs)*(len(teamIDs)-1))
	for i := 0; i < len(teamIDs); i++ {
		for j := i + 1; j < len(teamIDs); j++ {
			pairs = append(pairs,
				Fixture{Home: teamIDs[i], Away: teamIDs[j]},
				Fixture{Home: teamIDs[j], Away: teamIDs[i]},
			)
		}
	}

	Shuffle(pairs, rng)

	for i := range pairs {
		pairs[i].Matchday = i/LeagueMatchesPerMatchday + 1
	}
	return pairs, nil
}

func checkDistinct(teamIDs []int) error {
	seen := make(map[int]struct{}, len(teamIDs))
	for _, id := range teamIDs {
		if _, dup := seen[id]; dup {
			return apperr.Validation("teams", "team %d listed twice", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
