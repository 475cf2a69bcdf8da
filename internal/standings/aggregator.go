package standings

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/ramonehamilton/season-engine/internal/apperr"
	"github.com/ramonehamilton/season-engine/internal/storage/models"
)

// Store is the persistence the aggregator reads from.
type Store interface {
	GetSave(ctx context.Context, id string) (*models.Save, error)
	GetMatchday(ctx context.Context, id int) (*models.Matchday, error)
	ListMatchdays(ctx context.Context, saveID string, filter models.MatchdayFilter) ([]*models.Matchday, error)
	MatchesByMatchdays(ctx context.Context, matchdayIDs []int) ([]*models.Match, error)
	TeamNames(ctx context.Context, saveID string) (map[int]string, error)
	MarkMatchdayPlayed(ctx context.Context, id int) (bool, error)
	CountMatches(ctx context.Context, matchdayID int) (int, error)
}

// Filter narrows the matchdays a table is built from.
type Filter struct {
	Season   *int         // nil = every season
	Scope    models.Scope // "" or all = league and cup
	Division *string      // league division, nil = every division
}

// FinalizeResult is what FinalizeMatchday reports.
type FinalizeResult struct {
	Matchday      *models.Matchday
	AlreadyPlayed bool
	MatchCount    int
	Standings     []models.StandingRow
}

// Progression is the cumulative points of every team after each played league matchday.
type Progression struct {
	Season    int          `json:"season"`
	Matchdays []int        `json:"matchdays"`
	Teams     []TeamPoints `json:"teams"`
}

// TeamPoints is one team's running total, aligned with Progression.Matchdays.
type TeamPoints struct {
	TeamID   int    `json:"team_id"`
	TeamName string `json:"team_name"`
	Points   []int  `json:"points"`
}

// Aggregator computes tables for a save.
type Aggregator struct {
	store Store
}

// NewAggregator creates a standings aggregator.
func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store}
}

// ComputeStandings builds the table of every played matchday of the save.
func (a *Aggregator) ComputeStandings(ctx context.Context, saveID string) ([]models.StandingRow, error) {
	return a.ComputeStandingsFiltered(ctx, saveID, Filter{})
}

// ComputeStandingsFiltered builds the table of the played matchdays selected by filter.
// Partially played rounds are excluded as a whole: only matchdays flagged
// played contribute, and all of their matches count.
func (a *Aggregator) ComputeStandingsFiltered(ctx context.Context, saveID string, filter Filter) ([]models.StandingRow, error) {
	if err := a.requireSave(ctx, saveID); err != nil {
		return nil, err
	}

	matchdays, err := a.store.ListMatchdays(ctx, saveID, models.MatchdayFilter{
		Season:     filter.Season,
		Type:       filter.Scope.MatchdayType(),
		Division:   filter.Division,
		PlayedOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list played matchdays: %w", err)
	}

	matches, err := a.store.MatchesByMatchdays(ctx, matchdayIDs(matchdays))
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	names, err := a.store.TeamNames(ctx, saveID)
	if err != nil {
		return nil, fmt.Errorf("failed to load team names: %w", err)
	}

	return Compute(matches, names), nil
}

// FinalizeMatchday flips a matchday to played and returns a fresh table.
// Finalizing an already played matchday changes nothing and reports AlreadyPlayed.
func (a *Aggregator) FinalizeMatchday(ctx context.Context, saveID string, matchdayID int) (*FinalizeResult, error) {
	matchday, err := a.store.GetMatchday(ctx, matchdayID)
	if err != nil {
		return nil, fmt.Errorf("failed to load matchday %d: %w", matchdayID, err)
	}
	if matchday == nil {
		return nil, apperr.NotFound("matchday", matchdayID)
	}
	if matchday.SaveID != saveID {
		return nil, apperr.Conflict(apperr.CodeMatchdayNotInSave, "matchday %d does not belong to save %s", matchdayID, saveID)
	}

	changed, err := a.store.MarkMatchdayPlayed(ctx, matchdayID)
	if err != nil {
		return nil, fmt.Errorf("failed to finalize matchday %d: %w", matchdayID, err)
	}
	matchday.IsPlayed = true

	count, err := a.store.CountMatches(ctx, matchdayID)
	if err != nil {
		return nil, fmt.Errorf("failed to count matches of matchday %d: %w", matchdayID, err)
	}

	table, err := a.ComputeStandings(ctx, saveID)
	if err != nil {
		return nil, err
	}

	if changed {
		log.Printf("[StandingsAggregator] Finalized matchday %d of save %s (%d matches)", matchdayID, saveID, count)
	}

	return &FinalizeResult{
		Matchday:      matchday,
		AlreadyPlayed: !changed,
		MatchCount:    count,
		Standings:     table,
	}, nil
}

// PointsProgression returns the running points total of every team across the
// played league matchdays of a season, grouped by matchday number.
// A team without a match on a matchday carries its previous total.
func (a *Aggregator) PointsProgression(ctx context.Context, saveID string, season int, division *string) (*Progression, error) {
	if err := a.requireSave(ctx, saveID); err != nil {
		return nil, err
	}

	league := models.MatchdayLeague
	matchdays, err := a.store.ListMatchdays(ctx, saveID, models.MatchdayFilter{
		Season:     &season,
		Type:       &league,
		Division:   division,
		PlayedOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list played matchdays: %w", err)
	}

	matches, err := a.store.MatchesByMatchdays(ctx, matchdayIDs(matchdays))
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	names, err := a.store.TeamNames(ctx, saveID)
	if err != nil {
		return nil, fmt.Errorf("failed to load team names: %w", err)
	}

	numberOf := make(map[int]int, len(matchdays))
	var numbers []int
	seen := make(map[int]bool)
	for _, md := range matchdays {
		numberOf[md.ID] = md.Number
		if !seen[md.Number] {
			seen[md.Number] = true
			numbers = append(numbers, md.Number)
		}
	}
	sort.Ints(numbers)
	column := make(map[int]int, len(numbers))
	for i, n := range numbers {
		column[n] = i
	}

	// Points earned per team per column, accumulated afterwards.
	earned := make(map[int][]int)
	add := func(teamID, col, pts int) {
		row, ok := earned[teamID]
		if !ok {
			row = make([]int, len(numbers))
			earned[teamID] = row
		}
		row[col] += pts
	}
	for _, m := range matches {
		col := column[numberOf[m.MatchdayID]]
		home, away := goals(m.HomeGoals), goals(m.AwayGoals)
		add(m.HomeTeamID, col, pointsFor(home, away))
		add(m.AwayTeamID, col, pointsFor(away, home))
	}

	progression := &Progression{Season: season, Matchdays: numbers, Teams: make([]TeamPoints, 0, len(earned))}
	for teamID, row := range earned {
		for i := 1; i < len(row); i++ {
			row[i] += row[i-1]
		}
		progression.Teams = append(progression.Teams, TeamPoints{TeamID: teamID, TeamName: teamName(names, teamID), Points: row})
	}
	sort.Slice(progression.Teams, func(i, j int) bool {
		return progression.Teams[i].TeamID < progression.Teams[j].TeamID
	})
	if progression.Matchdays == nil {
		progression.Matchdays = []int{}
	}
	return progression, nil
}

func (a *Aggregator) requireSave(ctx context.Context, saveID string) error {
	save, err := a.store.GetSave(ctx, saveID)
	if err != nil {
		return fmt.Errorf("failed to load save %s: %w", saveID, err)
	}
	if save == nil {
		return apperr.NotFound("save", saveID)
	}
	return nil
}

func pointsFor(scored, conceded int) int {
	switch {
	case scored > conceded:
		return PointsWin
	case scored < conceded:
		return PointsLoss
	}
	return PointsDraw
}

func matchdayIDs(matchdays []*models.Matchday) []int {
	ids := make([]int, len(matchdays))
	for i, md := range matchdays {
		ids[i] = md.ID
	}
	return ids
}
