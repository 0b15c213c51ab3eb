package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AdamBeresnev/bracket-challenge/internal/bracket"
	"github.com/AdamBeresnev/bracket-challenge/internal/metrics"
	"github.com/AdamBeresnev/bracket-challenge/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type MatchService struct {
	db    *sqlx.DB
	store *store.TournamentStore
	now   Clock
}

func NewMatchService(db *sqlx.DB, store *store.TournamentStore) *MatchService {
	return &MatchService{db: db, store: store, now: utcNow}
}

// MatchOutcome is the match as stored after a result change, plus any
// downstream results that had to be cleared.
type MatchOutcome struct {
	Match        bracket.Match        `json:"match"`
	Invalidation bracket.Invalidation `json:"invalidation"`
}

type snapshotChange func(snap *bracket.Snapshot) (*bracket.Snapshot, bracket.Invalidation, error)

// RecordWinner sets or corrects the winner of a match. A correction clears
// every result downstream of it.
func (s *MatchService) RecordWinner(ctx context.Context, matchID, winnerID uuid.UUID) (*MatchOutcome, error) {
	outcome, changed, err := s.apply(ctx, matchID, func(snap *bracket.Snapshot) (*bracket.Snapshot, bracket.Invalidation, error) {
		return snap.RecordWinner(matchID, winnerID, s.now())
	})
	if err != nil || !changed {
		return outcome, err
	}

	metrics.ResultsRecorded.Inc()
	slog.Info("Match result recorded",
		"match_id", matchID,
		"winner_id", winnerID,
		"cleared", len(outcome.Invalidation.ClearedMatchIDs),
	)
	return outcome, nil
}

func (s *MatchService) ClearWinner(ctx context.Context, matchID uuid.UUID) (*MatchOutcome, error) {
	outcome, changed, err := s.apply(ctx, matchID, func(snap *bracket.Snapshot) (*bracket.Snapshot, bracket.Invalidation, error) {
		return snap.ClearWinner(matchID)
	})
	if err != nil || !changed {
		return outcome, err
	}

	metrics.ResultsCleared.Inc()
	slog.Info("Match result cleared", "match_id", matchID, "cleared", len(outcome.Invalidation.ClearedMatchIDs))
	return outcome, nil
}

// apply re-reads the tournament inside a write transaction, runs change and
// persists only the matches it touched. It reports false, writing nothing,
// when change left every match as it was.
func (s *MatchService) apply(ctx context.Context, matchID uuid.UUID, change snapshotChange) (*MatchOutcome, bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	match, err := s.store.GetMatchTx(ctx, tx, matchID)
	if err != nil {
		return nil, false, notFound(err, "match")
	}

	before, err := loadSnapshotTx(ctx, s.store, tx, match.TournamentID)
	if err != nil {
		return nil, false, err
	}

	after, invalidation, err := change(before)
	if err != nil {
		return nil, false, err
	}

	changed := changedMatches(before, after)
	if len(changed) == 0 {
		return &MatchOutcome{Match: *match, Invalidation: invalidation}, false, nil
	}
	if err := s.store.UpdateMatchesTx(ctx, tx, changed); err != nil {
		return nil, false, fmt.Errorf("failed to update matches: %w", err)
	}

	status := bracket.TournamentStarted
	switch {
	case after.Complete():
		status = bracket.TournamentCompleted
	case after.Decided() == 0:
		status = bracket.TournamentOpen
	}
	if err := s.store.UpdateTournamentStatusTx(ctx, tx, match.TournamentID, status); err != nil {
		return nil, false, fmt.Errorf("failed to update tournament status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, err
	}

	if !invalidation.Empty() {
		metrics.CascadeInvalidations.Add(float64(len(invalidation.ClearedMatchIDs)))
		slog.Warn("Downstream results cleared",
			"match_id", matchID,
			"tournament_id", match.TournamentID,
			"cleared_match_ids", invalidation.ClearedMatchIDs,
		)
	}

	updated, _ := after.Match(matchID)
	return &MatchOutcome{Match: updated, Invalidation: invalidation}, true, nil
}
