// Package standings derives league tables from recorded match results.
//
// Tables are never stored. Every call recomputes them from the matches of
// played matchdays, so they cannot drift from the results they summarise.
package standings

import (
	"fmt"
	"sort"

	"github.com/ramonehamilton/season-engine/internal/storage/models"
)

// Points awarded per result.
const (
	PointsWin  = 3
	PointsDraw = 1
	PointsLoss = 0
)

// Compute folds matches into a sorted table. Nil goals count as 0.
// Teams missing from names are labelled by ID.
//
// Rows are ordered by points, goal difference and goals scored, all
// descending, then by team ID ascending, so the output does not depend on
// the order of matches.
func Compute(matches []*models.Match, names map[int]string) []models.StandingRow {
	table := make(map[int]*models.StandingRow)
	row := func(teamID int) *models.StandingRow {
		r, ok := table[teamID]
		if !ok {
			r = &models.StandingRow{TeamID: teamID, TeamName: teamName(names, teamID)}
			table[teamID] = r
		}
		return r
	}

	for _, m := range matches {
		home, away := goals(m.HomeGoals), goals(m.AwayGoals)
		record(row(m.HomeTeamID), home, away)
		record(row(m.AwayTeamID), away, home)
	}

	rows := make([]models.StandingRow, 0, len(table))
	for _, r := range table {
		r.GoalDifference = r.GoalsFor - r.GoalsAgainst
		rows = append(rows, *r)
	}
	Sort(rows)
	for i := range rows {
		rows[i].Position = i + 1
	}
	return rows
}

// Sort orders rows by the table tie-breakers.
func Sort(rows []models.StandingRow) {
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GoalDifference != b.GoalDifference {
			return a.GoalDifference > b.GoalDifference
		}
		if a.GoalsFor != b.GoalsFor {
			return a.GoalsFor > b.GoalsFor
		}
		return a.TeamID < b.TeamID
	})
}

func record(r *models.StandingRow, scored, conceded int) {
	r.Played++
	r.GoalsFor += scored
	r.GoalsAgainst += conceded
	r.Points += pointsFor(scored, conceded)

	switch {
	case scored > conceded:
		r.Won++
	case scored < conceded:
		r.Lost++
	default:
		r.Drawn++
	}
}

func goals(g *int) int {
	if g == nil {
		return 0
	}
	return *g
}

func teamName(names map[int]string, id int) string {
	if name, ok := names[id]; ok {
		return name
	}
	return fmt.Sprintf("Team #%d", id)
}
