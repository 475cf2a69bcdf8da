package fixtures

import (
	"github.com/ramonehamilton/season-engine/internal/apperr"
)

// CupRound is one knockout round.
type CupRound struct {
	Round    int       `json:"round"`
	Matchday int       `json:"matchday"`
	Ties     []Fixture `json:"ties"`
}

// CupResult is the recorded score of a played cup tie.
type CupResult struct {
	Home      int
	Away      int
	HomeGoals int
	AwayGoals int
}

// Winner returns the team that went through, or false for a draw.
func (r CupResult) Winner() (int, bool) {
	switch {
	case r.HomeGoals > r.AwayGoals:
		return r.Home, true
	case r.AwayGoals > r.HomeGoals:
		return r.Away, true
	}
	return 0, false
}

// FirstCupRound draws the opening round for exactly CupTeams teams. The teams
// are shuffled once and paired consecutively.
func FirstCupRound(teamIDs []int, rng Rand) (CupRound, error) {
	if len(teamIDs) != CupTeams {
		return CupRound{}, apperr.Validation("teams", "cup draw needs exactly %d teams, got %d", CupTeams, len(teamIDs))
	}
	if err := checkDistinct(teamIDs); err != nil {
		return CupRound{}, err
	}

	drawn := append([]int(nil), teamIDs...)
	Shuffle(drawn, rng)

	return CupRound{
		Round:    1,
		Matchday: CupMatchdayInterval,
		Ties:     pairConsecutive(drawn, CupMatchdayInterval),
	}, nil
}

// GenerateCup builds the whole bracket up front. Rounds after the first are
// placeholders: the home slot of every earlier pairing is treated as the team
// that advances, which cannot reflect real results. Use AdvanceCupRound to
// build later rounds from recorded scores instead.
func GenerateCup(teamIDs []int, rng Rand) ([]CupRound, error) {
	first, err := FirstCupRound(teamIDs, rng)
	if err != nil {
		return nil, err
	}

	rounds := []CupRound{first}
	for prev := first; len(prev.Ties) > 1; {
		advancing := make([]int, len(prev.Ties))
		for i, tie := range prev.Ties {
			advancing[i] = tie.Home
		}
		next := nextRound(prev, advancing)
		rounds = append(rounds, next)
		prev = next
	}
	return rounds, nil
}

// AdvanceCupRound builds the next round from the real results of previous.
// Every tie of previous needs exactly one decisive result.
func AdvanceCupRound(previous CupRound, results []CupResult) (CupRound, error) {
	if len(previous.Ties) < 2 {
		return CupRound{}, apperr.Validation("round", "round %d is the final, nothing to advance", previous.Round)
	}

	byTie := make(map[[2]int]CupResult, len(results))
	for _, r := range results {
		byTie[[2]int{r.Home, r.Away}] = r
	}

	advancing := make([]int, len(previous.Ties))
	for i, tie := range previous.Ties {
		result, ok := byTie[[2]int{tie.Home, tie.Away}]
		if !ok {
			return CupRound{}, apperr.Validation("results", "no result for tie %d v %d", tie.Home, tie.Away)
		}
		winner, decided := result.Winner()
		if !decided {
			return CupRound{}, apperr.Validation("results", "tie %d v %d ended level, no winner", tie.Home, tie.Away)
		}
		advancing[i] = winner
	}

	return nextRound(previous, advancing), nil
}

func nextRound(prev CupRound, advancing []int) CupRound {
	matchday := prev.Matchday + CupMatchdayInterval
	return CupRound{
		Round:    prev.Round + 1,
		Matchday: matchday,
		Ties:     pairConsecutive(advancing, matchday),
	}
}

func pairConsecutive(teams []int, matchday int) []Fixture {
	ties := make([]Fixture, 0, len(teams)/2)
	for i := 0; i+1 < len(teams); i += 2 {
		ties = append(ties, Fixture{Matchday: matchday, Home: teams[i], Away: teams[i+1]})
	}
	return ties
}
