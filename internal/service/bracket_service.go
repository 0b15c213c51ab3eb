package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AdamBeresnev/bracket-challenge/internal/bracket"
	"github.com/AdamBeresnev/bracket-challenge/internal/metrics"
	"github.com/AdamBeresnev/bracket-challenge/internal/store"
	users "github.com/AdamBeresnev/bracket-challenge/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type BracketService struct {
	db          *sqlx.DB
	reader      *sqlx.DB
	tournaments *store.TournamentStore
	brackets    *store.BracketStore
	rules       bracket.ScoringRules
	now         Clock
}

func NewBracketService(db, reader *sqlx.DB, tournaments *store.TournamentStore, brackets *store.BracketStore, rules bracket.ScoringRules) *BracketService {
	return &BracketService{db: db, reader: reader, tournaments: tournaments, brackets: brackets, rules: rules, now: utcNow}
}

// PickedMatch is a match as the bracket owner sees it: occupants filled in
// from results first and from their own picks where results are missing.
type PickedMatch struct {
	MatchView
	Pick *uuid.UUID `json:"pick,omitempty"`
}

type BracketView struct {
	Bracket   *bracket.Bracket  `json:"bracket"`
	Matches   []PickedMatch     `json:"matches"`
	Score     bracket.ScoreCard `json:"score"`
	MaxPoints int               `json:"maxPoints"`
	Locked    bool              `json:"locked"`
	LockAt    *time.Time        `json:"lockAt,omitempty"`
}

type PickResult struct {
	Picks   bracket.PickSet `json:"picks"`
	Removed []uuid.UUID     `json:"removedMatchIds"`
}

// GetBracketView returns the caller's bracket, creating it on first visit.
// Only the first visit writes; the view itself is read in a read transaction.
func (s *BracketService) GetBracketView(ctx context.Context, tournamentID uuid.UUID, user *users.User) (*BracketView, error) {
	if _, err := s.tournaments.GetTournament(ctx, tournamentID); err != nil {
		return nil, notFound(err, "tournament")
	}
	created, err := s.brackets.EnsureBracket(ctx, s.draft(tournamentID, user.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to create bracket: %w", err)
	}
	if created {
		slog.Info("Bracket created", "tournament_id", tournamentID, "user_id", user.ID)
	}

	tx, err := readTx(ctx, s.reader)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	tournament, err := s.tournaments.GetTournamentTx(ctx, tx, tournamentID)
	if err != nil {
		return nil, notFound(err, "tournament")
	}
	b, err := s.brackets.GetBracketByUserTx(ctx, tx, tournamentID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bracket: %w", err)
	}
	snap, err := loadSnapshotTx(ctx, s.tournaments, tx, tournamentID)
	if err != nil {
		return nil, err
	}
	stored, err := s.brackets.GetPicksTx(ctx, tx, b.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get picks: %w", err)
	}

	picks := bracket.NewPickSet(stored)
	board := snap.HypotheticalBoard(picks)
	matches := snap.Matches()
	view := &BracketView{
		Bracket:   b,
		Matches:   make([]PickedMatch, 0, len(matches)),
		Score:     bracket.Score(snap, picks, s.rules),
		MaxPoints: s.rules.MaxPoints(),
		Locked:    !user.IsAdmin() && tournament.Locked(s.now()),
		LockAt:    tournament.LockAt,
	}
	for _, m := range matches {
		o := board[m.ID]
		pm := PickedMatch{MatchView: MatchView{Match: m, Key: m.Key(), Left: o.Left, Right: o.Right}}
		if id, ok := picks[m.ID]; ok {
			pm.Pick = &id
		}
		view.Matches = append(view.Matches, pm)
	}
	return view, nil
}

// UpsertPick saves one pick for the caller and removes the downstream picks
// it made unreachable.
func (s *BracketService) UpsertPick(ctx context.Context, tournamentID uuid.UUID, user *users.User, matchID, entrantID uuid.UUID) (*PickResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	tournament, err := s.tournaments.GetTournamentTx(ctx, tx, tournamentID)
	if err != nil {
		return nil, notFound(err, "tournament")
	}
	created, err := s.brackets.EnsureBracketTx(ctx, tx, s.draft(tournamentID, user.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to create bracket: %w", err)
	}
	b, err := s.brackets.GetBracketByUserTx(ctx, tx, tournamentID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bracket: %w", err)
	}
	snap, err := loadSnapshotTx(ctx, s.tournaments, tx, tournamentID)
	if err != nil {
		return nil, err
	}
	stored, err := s.brackets.GetPicksTx(ctx, tx, b.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get picks: %w", err)
	}

	now := s.now()
	policy := bracket.PickPolicy{LockAt: tournament.LockAt, CallerIsAdmin: user.IsAdmin(), Now: now}
	picks, removed, err := bracket.UpsertPick(snap, bracket.NewPickSet(stored), matchID, entrantID, policy)
	if err != nil {
		var rejected *bracket.PickRejectedError
		if errors.As(err, &rejected) {
			metrics.PicksRejected.WithLabelValues(string(rejected.Reason)).Inc()
		}
		return nil, err
	}

	pick := &bracket.Pick{BracketID: b.ID, MatchID: matchID, EntrantID: entrantID, UpdatedAt: now}
	if err := s.brackets.SavePickTx(ctx, tx, pick); err != nil {
		return nil, fmt.Errorf("failed to save pick: %w", err)
	}
	if err := s.brackets.DeletePicksTx(ctx, tx, b.ID, removed); err != nil {
		return nil, fmt.Errorf("failed to delete invalidated picks: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if created {
		slog.Info("Bracket created", "bracket_id", b.ID, "tournament_id", tournamentID, "user_id", user.ID)
	}
	metrics.PicksSaved.Inc()
	slog.Info("Pick saved",
		"bracket_id", b.ID,
		"match_id", matchID,
		"entrant_id", entrantID,
		"removed", len(removed),
	)
	return &PickResult{Picks: picks, Removed: removed}, nil
}

func (s *BracketService) draft(tournamentID, userID uuid.UUID) *bracket.Bracket {
	return &bracket.Bracket{
		ID:           uuid.New(),
		TournamentID: tournamentID,
		UserID:       userID,
		CreatedAt:    s.now(),
	}
}
