package store

import (
	"context"

	"github.com/AdamBeresnev/bracket-challenge/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	bracketColumns = `SELECT b.id, b.tournament_id, b.user_id, b.created_at, u.username AS owner_name
		FROM brackets b JOIN users u ON u.id = b.user_id`

	getBracketByUserQuery = bracketColumns + " WHERE b.tournament_id = ? AND b.user_id = ?"
	listBracketsQuery     = bracketColumns + " WHERE b.tournament_id = ? ORDER BY b.created_at ASC"

	ensureBracketQuery = `INSERT INTO brackets (id, tournament_id, user_id, created_at)
		VALUES (:id, :tournament_id, :user_id, :created_at)
		ON CONFLICT (tournament_id, user_id) DO NOTHING`

	getPicksQuery           = "SELECT * FROM picks WHERE bracket_id = ?"
	getTournamentPicksQuery = "SELECT p.* FROM picks p JOIN brackets b ON b.id = p.bracket_id WHERE b.tournament_id = ?"

	savePickQuery = `INSERT INTO picks (bracket_id, match_id, entrant_id, updated_at)
		VALUES (:bracket_id, :match_id, :entrant_id, :updated_at)
		ON CONFLICT (bracket_id, match_id) DO UPDATE SET
		entrant_id = excluded.entrant_id,
		updated_at = excluded.updated_at`
	deletePicksQuery = "DELETE FROM picks WHERE bracket_id = ? AND match_id IN (?)"
)

type BracketStore struct {
	db *sqlx.DB
}

func NewBracketStore(db *sqlx.DB) *BracketStore {
	return &BracketStore{db: db}
}

// GetBracketByUserTx returns sql.ErrNoRows when the user has not started a
// bracket for the tournament.
func (s *BracketStore) GetBracketByUserTx(ctx context.Context, tx *sqlx.Tx, tournamentID, userID uuid.UUID) (*bracket.Bracket, error) {
	var b bracket.Bracket
	if err := tx.GetContext(ctx, &b, getBracketByUserQuery, tournamentID, userID); err != nil {
		return nil, err
	}
	return &b, nil
}

// EnsureBracket inserts b unless the user already has a bracket for the
// tournament, and reports whether it did.
func (s *BracketStore) EnsureBracket(ctx context.Context, b *bracket.Bracket) (bool, error) {
	return ensureBracket(ctx, s.db, b)
}

func (s *BracketStore) EnsureBracketTx(ctx context.Context, tx *sqlx.Tx, b *bracket.Bracket) (bool, error) {
	return ensureBracket(ctx, tx, b)
}

func ensureBracket(ctx context.Context, e sqlx.ExtContext, b *bracket.Bracket) (bool, error) {
	res, err := sqlx.NamedExecContext(ctx, e, ensureBracketQuery, b)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *BracketStore) ListBracketsTx(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID) ([]bracket.Bracket, error) {
	var brackets []bracket.Bracket
	err := tx.SelectContext(ctx, &brackets, listBracketsQuery, tournamentID)
	return brackets, err
}

func (s *BracketStore) GetPicksTx(ctx context.Context, tx *sqlx.Tx, bracketID uuid.UUID) ([]bracket.Pick, error) {
	var picks []bracket.Pick
	err := tx.SelectContext(ctx, &picks, getPicksQuery, bracketID)
	return picks, err
}

// GetTournamentPicksTx groups every pick in the tournament by bracket.
func (s *BracketStore) GetTournamentPicksTx(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID) (map[uuid.UUID]bracket.PickSet, error) {
	var picks []bracket.Pick
	if err := tx.SelectContext(ctx, &picks, getTournamentPicksQuery, tournamentID); err != nil {
		return nil, err
	}

	byBracket := make(map[uuid.UUID]bracket.PickSet)
	for _, p := range picks {
		set, ok := byBracket[p.BracketID]
		if !ok {
			set = make(bracket.PickSet)
			byBracket[p.BracketID] = set
		}
		set[p.MatchID] = p.EntrantID
	}
	return byBracket, nil
}

func (s *BracketStore) SavePickTx(ctx context.Context, tx *sqlx.Tx, pick *bracket.Pick) error {
	_, err := tx.NamedExecContext(ctx, savePickQuery, pick)
	return err
}

func (s *BracketStore) DeletePicksTx(ctx context.Context, tx *sqlx.Tx, bracketID uuid.UUID, matchIDs []uuid.UUID) error {
	if len(matchIDs) == 0 {
		return nil
	}
	query, args, err := sqlx.In(deletePicksQuery, bracketID, matchIDs)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, tx.Rebind(query), args...)
	return err
}
