package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AdamBeresnev/bracket-challenge/internal/bracket"
	"github.com/AdamBeresnev/bracket-challenge/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrResultsRecorded rejects seed changes once play has started.
	ErrResultsRecorded = errors.New("results have already been recorded")
)

// notFound maps a missing row to ErrNotFound, keeping the original error in
// the message.
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}

// Clock is swapped out in tests.
type Clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}

// readTx opens a read-only transaction so every query in it sees the same
// state. Callers only roll it back.
func readTx(ctx context.Context, reader *sqlx.DB) (*sqlx.Tx, error) {
	return reader.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
}

func loadSnapshotTx(ctx context.Context, s *store.TournamentStore, tx *sqlx.Tx, tournamentID uuid.UUID) (*bracket.Snapshot, error) {
	entrants, err := s.GetEntrantsTx(ctx, tx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get entrants: %w", err)
	}
	matches, err := s.GetMatchesTx(ctx, tx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get matches: %w", err)
	}
	return bracket.NewSnapshot(entrants, matches), nil
}

// changedMatches returns the matches of after whose slots or result differ
// from before.
func changedMatches(before, after *bracket.Snapshot) []bracket.Match {
	var out []bracket.Match
	for _, m := range after.Matches() {
		old, ok := before.Match(m.ID)
		if !ok || !sameState(old, m) {
			out = append(out, m)
		}
	}
	return out
}

func sameState(a, b bracket.Match) bool {
	return sameID(a.LeftEntrantID, b.LeftEntrantID) &&
		sameID(a.RightEntrantID, b.RightEntrantID) &&
		sameID(a.WinnerEntrantID, b.WinnerEntrantID) &&
		sameTime(a.DecidedAt, b.DecidedAt)
}

func sameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
