package stats

import (
	"fmt"
	"strings"

	"github.com/ramonehamilton/season-engine/internal/storage/models"
)

// FormWindow is how many of the latest results make up the form string.
const FormWindow = 5

// Outcome of a played match from one team's point of view.
type Outcome byte

const (
	Win  Outcome = 'W'
	Draw Outcome = 'D'
	Loss Outcome = 'L'
)

// OutcomeFor returns the result of m for teamID. ok is false when the team
// did not play in m or the match has no recorded score.
func OutcomeFor(m *models.Match, teamID int) (Outcome, bool) {
	if !m.IsPlayed || m.HomeGoals == nil || m.AwayGoals == nil {
		return 0, false
	}

	var own, other int
	switch teamID {
	case m.HomeTeamID:
		own, other = *m.HomeGoals, *m.AwayGoals
	case m.AwayTeamID:
		own, other = *m.AwayGoals, *m.HomeGoals
	default:
		return 0, false
	}

	switch {
	case own > other:
		return Win, true
	case own < other:
		return Loss, true
	}
	return Draw, true
}

// CalculateForm computes streaks and recent form for a team.
// Matches should be ordered oldest to newest for the current streak to be accurate.
// Matches the team did not play, or without a score, are ignored.
func CalculateForm(teamID int, matches []*models.Match) *models.FormStats {
	form := &models.FormStats{TeamID: teamID}

	currentWin, currentLoss, unbeaten := 0, 0, 0
	var outcomes []Outcome

	for _, m := range matches {
		outcome, ok := OutcomeFor(m, teamID)
		if !ok {
			continue
		}
		outcomes = append(outcomes, outcome)

		switch outcome {
		case Win:
			currentWin++
			currentLoss = 0
			unbeaten++
			if currentWin > form.LongestWinStreak {
				form.LongestWinStreak = currentWin
			}
		case Loss:
			currentLoss++
			currentWin = 0
			unbeaten = 0
			if currentLoss > form.LongestLossStreak {
				form.LongestLossStreak = currentLoss
			}
		case Draw:
			// A draw breaks both streaks but not the unbeaten run.
			currentWin = 0
			currentLoss = 0
			unbeaten++
		}
		if unbeaten > form.LongestUnbeatenRun {
			form.LongestUnbeatenRun = unbeaten
		}
	}

	switch {
	case currentWin > 0:
		form.CurrentStreak = currentWin
	case currentLoss > 0:
		form.CurrentStreak = -currentLoss
	}

	form.MatchesConsidered = len(outcomes)
	recent := outcomes[max(0, len(outcomes)-FormWindow):]
	var b strings.Builder
	for _, o := range recent {
		b.WriteByte(byte(o))
	}
	form.RecentForm = b.String()

	return form
}

// FormatCurrentStreak returns a human-readable string for the current streak.
func FormatCurrentStreak(streak int) string {
	if streak == 0 {
		return "No active streak"
	}
	if streak > 0 {
		if streak == 1 {
			return "1 win streak"
		}
		return fmt.Sprintf("%d win streak", streak)
	}
	absStreak := -streak
	if absStreak == 1 {
		return "1 loss streak"
	}
	return fmt.Sprintf("%d loss streak", absStreak)
}
