package store

import (
	"context"
	"errors"
	"testing"

	"github.com/AdamBeresnev/bracket-challenge/internal/bracket"
	"github.com/AdamBeresnev/bracket-challenge/internal/testutil"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlite3"), mock
}

func TestReassignSeedsTx_StopsOnFirstFailure(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewTournamentStore(db)
	ctx := context.Background()

	tournamentID := uuid.New()
	entrants := testutil.Field(tournamentID)[:bracket.SeedsPerRegion]

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE entrants SET seed = seed \\+ \\?").
		WithArgs(seedStagingOffset, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 16))
	mock.ExpectExec("UPDATE entrants SET seed = \\?").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE entrants SET seed = \\?").WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)

	err = store.ReassignSeedsTx(ctx, tx, tournamentID, bracket.IAdvisors, entrants)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assign seed 2")
	require.NoError(t, tx.Rollback())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMatchesTx_ZeroRowsIsAnError(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewTournamentStore(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE matches SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE matches SET").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.BeginTxx(ctx, nil)
	require.NoError(t, err)

	matches := []bracket.Match{{ID: uuid.New()}, {ID: uuid.New()}}
	err = store.UpdateMatchesTx(ctx, tx, matches)
	require.Error(t, err)
	assert.Contains(t, err.Error(), matches[1].ID.String())
	require.NoError(t, tx.Rollback())

	assert.NoError(t, mock.ExpectationsWereMet())
}
