package bracket

import "github.com/google/uuid"

type Entrant struct {
	ID           uuid.UUID `db:"id" json:"id"`
	TournamentID uuid.UUID `db:"tournament_id" json:"tournamentId"`
	DisplayName  string    `db:"display_name" json:"displayName"`
	Region       Region    `db:"region" json:"region"`
	Seed         int       `db:"seed" json:"seed"`

	// Cosmetic only
	Department *string `db:"department" json:"department,omitempty"`
	Title      *string `db:"title" json:"title,omitempty"`
}
