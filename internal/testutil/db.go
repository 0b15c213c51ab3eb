package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/AdamBeresnev/bracket-challenge/internal/bracket"
	"github.com/AdamBeresnev/bracket-challenge/internal/db"
	users "github.com/AdamBeresnev/bracket-challenge/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// NewTestDB opens an in-memory SQLite database with every migration applied.
// The pool is pinned to one connection since each connection to :memory:
// gets its own empty database.
func NewTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err, "Failed to connect to in-memory DB")
	database.SetMaxOpenConns(1)
	t.Cleanup(func() { database.Close() })

	require.NoError(t, db.RunMigrations(database.DB), "Failed to apply migrations")
	return database
}

func CreateUser(t *testing.T, database *sqlx.DB, username string, role users.Role) *users.User {
	t.Helper()

	user := &users.User{
		ID:       uuid.New(),
		Email:    username + "@example.com",
		Username: username,
		Role:     role,
	}
	_, err := database.NamedExecContext(context.Background(),
		"INSERT INTO users (id, email, username, role) VALUES (:id, :email, :username, :role)", user)
	require.NoError(t, err)
	return user
}

// Field returns a complete 64 entrant field named "<region> #<seed>".
func Field(tournamentID uuid.UUID) []bracket.Entrant {
	entrants := make([]bracket.Entrant, 0, len(bracket.Regions)*bracket.SeedsPerRegion)
	for _, region := range bracket.Regions {
		for seed := 1; seed <= bracket.SeedsPerRegion; seed++ {
			entrants = append(entrants, bracket.Entrant{
				ID:           uuid.New(),
				TournamentID: tournamentID,
				DisplayName:  fmt.Sprintf("%s #%d", region, seed),
				Region:       region,
				Seed:         seed,
			})
		}
	}
	return entrants
}
