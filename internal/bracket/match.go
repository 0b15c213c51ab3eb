package bracket

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Side int

const (
	Left Side = iota
	Right
)

type Match struct {
	ID           uuid.UUID `db:"id" json:"id"`
	TournamentID uuid.UUID `db:"tournament_id" json:"tournamentId"`

	Round Round `db:"round" json:"round"`
	// Nil for F4 and CHAMP
	Region      *Region `db:"region" json:"region"`
	MatchNumber int     `db:"match_number" json:"matchNumber"`

	// Only set for R64
	LeftEntrantID  *uuid.UUID `db:"left_entrant_id" json:"leftEntrantId,omitempty"`
	RightEntrantID *uuid.UUID `db:"right_entrant_id" json:"rightEntrantId,omitempty"`

	// Only set after R64
	LeftFeederID  *uuid.UUID `db:"left_feeder_id" json:"leftFeederId,omitempty"`
	RightFeederID *uuid.UUID `db:"right_feeder_id" json:"rightFeederId,omitempty"`

	WinnerEntrantID *uuid.UUID `db:"winner_entrant_id" json:"winnerEntrantId,omitempty"`
	DecidedAt       *time.Time `db:"decided_at" json:"decidedAt,omitempty"`
}

// Key is stable across rebuilds of the same field, e.g. "WADVISORS-S16-2" or "F4-1".
func (m *Match) Key() string {
	return MatchKey(m.Round, m.Region, m.MatchNumber)
}

func MatchKey(round Round, region *Region, number int) string {
	if region == nil {
		return fmt.Sprintf("%s-%d", round, number)
	}
	return fmt.Sprintf("%s-%s-%d", *region, round, number)
}

func (m *Match) Decided() bool {
	return m.WinnerEntrantID != nil
}

func (m *Match) IsWinner(entrantID uuid.UUID) bool {
	return m.WinnerEntrantID != nil && *m.WinnerEntrantID == entrantID
}

func (m *Match) feeder(side Side) *uuid.UUID {
	if side == Left {
		return m.LeftFeederID
	}
	return m.RightFeederID
}

func (m *Match) seeded(side Side) *uuid.UUID {
	if side == Left {
		return m.LeftEntrantID
	}
	return m.RightEntrantID
}

// Occupants are the entrants eligible to appear in a match's two slots. A nil
// side is TBD.
type Occupants struct {
	Left  *Entrant `json:"left"`
	Right *Entrant `json:"right"`
}

func (o Occupants) Resolved() bool {
	return o.Left != nil && o.Right != nil
}

func (o Occupants) Contains(entrantID uuid.UUID) bool {
	return (o.Left != nil && o.Left.ID == entrantID) || (o.Right != nil && o.Right.ID == entrantID)
}

// Opponent returns the other occupant, or nil if entrantID is not in the match.
func (o Occupants) Opponent(entrantID uuid.UUID) *Entrant {
	switch {
	case o.Left != nil && o.Left.ID == entrantID:
		return o.Right
	case o.Right != nil && o.Right.ID == entrantID:
		return o.Left
	}
	return nil
}
