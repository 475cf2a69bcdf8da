package models

import (
	"fmt"
	"time"
)

// Side selects the home or away half of a MatchState.
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

// Sides lists both sides in processing order.
var Sides = []Side{SideHome, SideAway}

// ParseSide parses "home" or "away".
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case SideHome, SideAway:
		return Side(s), nil
	}
	return "", fmt.Errorf("unknown side %q", s)
}

// SideState is one team's live lineup, bench and substitution counter.
// SubbedOff records every player taken off during the match, in order.
type SideState struct {
	Lineup            []int `json:"lineup"`
	Reserves          []int `json:"reserves"`
	SubstitutionsMade int   `json:"substitutions_made"`
	SubbedOff         []int `json:"subbed_off,omitempty"`
}

// InLineup reports whether playerID is currently on the pitch.
func (s *SideState) InLineup(playerID int) bool {
	return indexOf(s.Lineup, playerID) >= 0
}

// InReserves reports whether playerID is currently on the bench.
func (s *SideState) InReserves(playerID int) bool {
	return indexOf(s.Reserves, playerID) >= 0
}

// WasSubbedOff reports whether playerID has already been taken off in this match.
func (s *SideState) WasSubbedOff(playerID int) bool {
	return indexOf(s.SubbedOff, playerID) >= 0
}

// Swap replaces outID with inID in the lineup at the same position and moves
// outID to the end of the reserves. Callers validate membership first.
func (s *SideState) Swap(outID, inID int) {
	if i := indexOf(s.Lineup, outID); i >= 0 {
		s.Lineup[i] = inID
	}
	if j := indexOf(s.Reserves, inID); j >= 0 {
		s.Reserves = append(s.Reserves[:j], s.Reserves[j+1:]...)
	}
	s.Reserves = append(s.Reserves, outID)
	s.SubbedOff = append(s.SubbedOff, outID)
	s.SubstitutionsMade++
}

func (s SideState) clone() SideState {
	return SideState{
		Lineup:            append([]int(nil), s.Lineup...),
		Reserves:          append([]int(nil), s.Reserves...),
		SubstitutionsMade: s.SubstitutionsMade,
		SubbedOff:         append([]int(nil), s.SubbedOff...),
	}
}

// MatchState is the ephemeral live state of one match, created at kickoff.
type MatchState struct {
	MatchID   int       `json:"match_id"`
	Home      SideState `json:"home"`
	Away      SideState `json:"away"`
	Paused    bool      `json:"paused"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Side returns a pointer to the requested half of the state.
func (m *MatchState) Side(side Side) *SideState {
	if side == SideAway {
		return &m.Away
	}
	return &m.Home
}

// Clone returns a deep copy so callers can mutate without touching the stored value.
func (m *MatchState) Clone() *MatchState {
	return &MatchState{
		MatchID:   m.MatchID,
		Home:      m.Home.clone(),
		Away:      m.Away.clone(),
		Paused:    m.Paused,
		UpdatedAt: m.UpdatedAt,
	}
}

func indexOf(ids []int, id int) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
