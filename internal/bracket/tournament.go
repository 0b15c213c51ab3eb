package bracket

import (
	"time"

	"github.com/google/uuid"
)

type TournamentStatus string

const (
	TournamentOpen      TournamentStatus = "open"
	TournamentStarted   TournamentStatus = "started"
	TournamentCompleted TournamentStatus = "completed"
)

type Tournament struct {
	ID     uuid.UUID        `db:"id" json:"id"`
	Name   string           `db:"name" json:"name"`
	Status TournamentStatus `db:"status" json:"status"`
	// Non-admin picks are rejected at or after LockAt. Nil means never locked.
	LockAt    *time.Time `db:"lock_at" json:"lockAt,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
}

func (t *Tournament) Locked(now time.Time) bool {
	return t.LockAt != nil && !now.Before(*t.LockAt)
}

// Bracket is one user's set of picks for a tournament.
type Bracket struct {
	ID           uuid.UUID `db:"id" json:"id"`
	TournamentID uuid.UUID `db:"tournament_id" json:"tournamentId"`
	UserID       uuid.UUID `db:"user_id" json:"userId"`
	OwnerName    string    `db:"owner_name" json:"ownerName"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

type Pick struct {
	BracketID uuid.UUID `db:"bracket_id" json:"bracketId"`
	MatchID   uuid.UUID `db:"match_id" json:"matchId"`
	EntrantID uuid.UUID `db:"entrant_id" json:"entrantId"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
