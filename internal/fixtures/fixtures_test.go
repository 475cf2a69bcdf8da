package fixtures

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/season-engine/internal/apperr"
)

func teamRange(n int) []int {
	ids := make([]int, n)
	for i := range ids {
		ids[i] = 100 + i
	}
	return ids
}

func TestGenerateLeague_Completeness(t *testing.T) {
	teams := teamRange(LeagueTeams)

	fixtures, err := GenerateLeague(teams, NewRand(1))
	require.NoError(t, err)
	require.Len(t, fixtures, 56)

	perMatchday := make(map[int]int)
	pairs := make(map[[2]int]int)
	for _, f := range fixtures {
		perMatchday[f.Matchday]++
		pairs[[2]int{f.Home, f.Away}]++
		assert.NotEqual(t, f.Home, f.Away)
	}

	assert.Len(t, perMatchday, 14)
	for md := 1; md <= 14; md++ {
		assert.Equal(t, 4, perMatchday[md], "matchday %d", md)
	}

	for _, home := range teams {
		for _, away := range teams {
			if home == away {
				continue
			}
			assert.Equal(t, 1, pairs[[2]int{home, away}], "pair %d v %d", home, away)
		}
	}
}

func TestGenerateLeague_SeedIsReproducible(t *testing.T) {
	a, err := GenerateLeague(teamRange(8), NewRand(42))
	require.NoError(t, err)
	b, err := GenerateLeague(teamRange(8), NewRand(42))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerateLeague_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		teams []int
	}{
		{name: "too few", teams: teamRange(7)},
		{name: "too many", teams: teamRange(9)},
		{name: "empty", teams: nil},
		{name: "duplicate", teams: []int{1, 2, 3, 4, 5, 6, 7, 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GenerateLeague(tt.teams, NewRand(1))
			require.Error(t, err)
			assert.True(t, apperr.IsValidation(err))
		})
	}
}

func TestGenerateCup_Completeness(t *testing.T) {
	rounds, err := GenerateCup(teamRange(CupTeams), NewRand(7))
	require.NoError(t, err)
	require.Len(t, rounds, CupRounds)

	total := 0
	expectedTies := 64
	for i, round := range rounds {
		assert.Equal(t, i+1, round.Round)
		assert.Equal(t, 3*(i+1), round.Matchday)
		assert.Len(t, round.Ties, expectedTies, "round %d", round.Round)
		for _, tie := range round.Ties {
			assert.Equal(t, round.Matchday, tie.Matchday)
		}
		total += len(round.Ties)
		expectedTies /= 2
	}
	assert.Equal(t, 127, total)

	seen := make(map[int]bool)
	for _, tie := range rounds[0].Ties {
		seen[tie.Home] = true
		seen[tie.Away] = true
	}
	assert.Len(t, seen, CupTeams, "every team is drawn exactly once in round 1")
}

func TestGenerateCup_PlaceholderAdvancesHomeSlot(t *testing.T) {
	rounds, err := GenerateCup(teamRange(CupTeams), NewRand(3))
	require.NoError(t, err)

	first, second := rounds[0], rounds[1]
	for i, tie := range second.Ties {
		assert.Equal(t, first.Ties[2*i].Home, tie.Home)
		assert.Equal(t, first.Ties[2*i+1].Home, tie.Away)
	}
}

func TestGenerateCup_InvalidInput(t *testing.T) {
	_, err := GenerateCup(teamRange(64), NewRand(1))
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
}

func TestAdvanceCupRound_UsesRealWinners(t *testing.T) {
	first, err := FirstCupRound(teamRange(CupTeams), NewRand(11))
	require.NoError(t, err)

	results := make([]CupResult, len(first.Ties))
	for i, tie := range first.Ties {
		// away side wins every tie
		results[i] = CupResult{Home: tie.Home, Away: tie.Away, HomeGoals: 0, AwayGoals: 1}
	}

	next, err := AdvanceCupRound(first, results)
	require.NoError(t, err)
	assert.Equal(t, 2, next.Round)
	assert.Equal(t, 6, next.Matchday)
	require.Len(t, next.Ties, 32)
	for i, tie := range next.Ties {
		assert.Equal(t, first.Ties[2*i].Away, tie.Home)
		assert.Equal(t, first.Ties[2*i+1].Away, tie.Away)
	}
}

func TestAdvanceCupRound_Errors(t *testing.T) {
	round := CupRound{Round: 6, Matchday: 18, Ties: []Fixture{
		{Matchday: 18, Home: 1, Away: 2},
		{Matchday: 18, Home: 3, Away: 4},
	}}

	t.Run("missing result", func(t *testing.T) {
		_, err := AdvanceCupRound(round, []CupResult{{Home: 1, Away: 2, HomeGoals: 1}})
		assert.True(t, apperr.IsValidation(err))
	})

	t.Run("drawn tie", func(t *testing.T) {
		_, err := AdvanceCupRound(round, []CupResult{
			{Home: 1, Away: 2, HomeGoals: 1},
			{Home: 3, Away: 4, HomeGoals: 2, AwayGoals: 2},
		})
		assert.True(t, apperr.IsValidation(err))
	})

	t.Run("final", func(t *testing.T) {
		final := CupRound{Round: 7, Matchday: 21, Ties: []Fixture{{Matchday: 21, Home: 1, Away: 3}}}
		_, err := AdvanceCupRound(final, []CupResult{{Home: 1, Away: 3, HomeGoals: 1}})
		assert.True(t, apperr.IsValidation(err))
	})

	t.Run("ok", func(t *testing.T) {
		next, err := AdvanceCupRound(round, []CupResult{
			{Home: 1, Away: 2, HomeGoals: 1},
			{Home: 3, Away: 4, AwayGoals: 2},
		})
		require.NoError(t, err)
		assert.Equal(t, []Fixture{{Matchday: 21, Home: 1, Away: 4}}, next.Ties)
	})
}

func TestShuffle_IsPermutation(t *testing.T) {
	s := teamRange(50)
	Shuffle(s, NewRand(5))
	assert.ElementsMatch(t, teamRange(50), s)
}
