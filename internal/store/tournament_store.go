package store

import (
	"context"
	"fmt"

	"github.com/AdamBeresnev/bracket-challenge/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Offset applied to seeds while a region is being renumbered, keeping the
// (tournament, region, seed) unique index satisfied between the two passes.
const seedStagingOffset = 1000

const (
	getTournamentQuery   = "SELECT * FROM tournaments WHERE id = ?"
	listTournamentsQuery = "SELECT * FROM tournaments ORDER BY created_at DESC"
	getEntrantsQuery     = "SELECT * FROM entrants WHERE tournament_id = ? ORDER BY region ASC, seed ASC"
	getEntrantQuery      = "SELECT * FROM entrants WHERE id = ?"
	getMatchesQuery      = "SELECT * FROM matches WHERE tournament_id = ?"
	getMatchQuery        = "SELECT * FROM matches WHERE id = ?"
	countDecidedQuery    = "SELECT COUNT(*) FROM matches WHERE tournament_id = ? AND winner_entrant_id IS NOT NULL"

	createTournamentQuery = `INSERT INTO tournaments (id, name, status, lock_at, created_at)
		VALUES (:id, :name, :status, :lock_at, :created_at)`
	createEntrantsQuery = `INSERT INTO entrants (id, tournament_id, display_name, region, seed, department, title)
		VALUES (:id, :tournament_id, :display_name, :region, :seed, :department, :title)`
	createMatchesQuery = `INSERT INTO matches (id, tournament_id, round, region, match_number, left_entrant_id, right_entrant_id,
		left_feeder_id, right_feeder_id, winner_entrant_id, decided_at)
		VALUES (:id, :tournament_id, :round, :region, :match_number, :left_entrant_id, :right_entrant_id,
		:left_feeder_id, :right_feeder_id, :winner_entrant_id, :decided_at)`
	updateMatchQuery = `UPDATE matches SET
		left_entrant_id = :left_entrant_id,
		right_entrant_id = :right_entrant_id,
		winner_entrant_id = :winner_entrant_id,
		decided_at = :decided_at
		WHERE id = :id`
	updateEntrantQuery = `UPDATE entrants SET
		display_name = :display_name,
		department = :department,
		title = :title
		WHERE id = :id`
	updateTournamentStatusQuery = "UPDATE tournaments SET status = ? WHERE id = ?"
	stageSeedsQuery             = "UPDATE entrants SET seed = seed + ? WHERE tournament_id = ? AND region = ?"
	assignSeedQuery             = "UPDATE entrants SET seed = ? WHERE id = ? AND tournament_id = ? AND region = ?"
)

type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

func (s *TournamentStore) CreateTournament(ctx context.Context, tx *sqlx.Tx, tournament *bracket.Tournament) error {
	_, err := tx.NamedExecContext(ctx, createTournamentQuery, tournament)
	return err
}

func (s *TournamentStore) CreateEntrants(ctx context.Context, tx *sqlx.Tx, entrants []bracket.Entrant) error {
	if len(entrants) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, createEntrantsQuery, entrants)
	return err
}

// CreateMatches expects feeders to appear before the matches they feed.
func (s *TournamentStore) CreateMatches(ctx context.Context, tx *sqlx.Tx, matches []bracket.Match) error {
	if len(matches) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, createMatchesQuery, matches)
	return err
}

func (s *TournamentStore) GetTournament(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error) {
	return getTournament(ctx, s.db, id)
}

func (s *TournamentStore) GetTournamentTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*bracket.Tournament, error) {
	return getTournament(ctx, tx, id)
}

func getTournament(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*bracket.Tournament, error) {
	var tournament bracket.Tournament
	if err := sqlx.GetContext(ctx, q, &tournament, getTournamentQuery, id); err != nil {
		return nil, err
	}
	return &tournament, nil
}

func (s *TournamentStore) ListTournaments(ctx context.Context) ([]bracket.Tournament, error) {
	var tournaments []bracket.Tournament
	err := s.db.SelectContext(ctx, &tournaments, listTournamentsQuery)
	return tournaments, err
}

func (s *TournamentStore) GetEntrants(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Entrant, error) {
	return getEntrants(ctx, s.db, tournamentID)
}

func (s *TournamentStore) GetEntrantsTx(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID) ([]bracket.Entrant, error) {
	return getEntrants(ctx, tx, tournamentID)
}

func getEntrants(ctx context.Context, q sqlx.QueryerContext, tournamentID uuid.UUID) ([]bracket.Entrant, error) {
	var entrants []bracket.Entrant
	err := sqlx.SelectContext(ctx, q, &entrants, getEntrantsQuery, tournamentID)
	return entrants, err
}

func (s *TournamentStore) GetEntrantTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*bracket.Entrant, error) {
	var entrant bracket.Entrant
	if err := tx.GetContext(ctx, &entrant, getEntrantQuery, id); err != nil {
		return nil, err
	}
	return &entrant, nil
}

func (s *TournamentStore) GetMatches(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Match, error) {
	return getMatches(ctx, s.db, tournamentID)
}

func (s *TournamentStore) GetMatchesTx(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID) ([]bracket.Match, error) {
	return getMatches(ctx, tx, tournamentID)
}

// Callers get matches in storage order; the snapshot sorts them.
func getMatches(ctx context.Context, q sqlx.QueryerContext, tournamentID uuid.UUID) ([]bracket.Match, error) {
	var matches []bracket.Match
	err := sqlx.SelectContext(ctx, q, &matches, getMatchesQuery, tournamentID)
	return matches, err
}

func (s *TournamentStore) GetMatchTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*bracket.Match, error) {
	var match bracket.Match
	if err := tx.GetContext(ctx, &match, getMatchQuery, id); err != nil {
		return nil, err
	}
	return &match, nil
}

func (s *TournamentStore) CountDecidedTx(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID) (int, error) {
	var n int
	err := tx.GetContext(ctx, &n, countDecidedQuery, tournamentID)
	return n, err
}

// UpdateMatchesTx writes back the slot and result columns of each match.
func (s *TournamentStore) UpdateMatchesTx(ctx context.Context, tx *sqlx.Tx, matches []bracket.Match) error {
	for i := range matches {
		res, err := tx.NamedExecContext(ctx, updateMatchQuery, &matches[i])
		if err != nil {
			return fmt.Errorf("update match %s: %w", matches[i].ID, err)
		}
		if err := expectOne(res); err != nil {
			return fmt.Errorf("update match %s: %w", matches[i].ID, err)
		}
	}
	return nil
}

func (s *TournamentStore) UpdateTournamentStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status bracket.TournamentStatus) error {
	_, err := tx.ExecContext(ctx, updateTournamentStatusQuery, status, id)
	return err
}

func (s *TournamentStore) UpdateEntrantTx(ctx context.Context, tx *sqlx.Tx, entrant *bracket.Entrant) error {
	res, err := tx.NamedExecContext(ctx, updateEntrantQuery, entrant)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// ReassignSeedsTx renumbers one region. Every entrant of the region must be
// present in entrants with its new seed.
func (s *TournamentStore) ReassignSeedsTx(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID, region bracket.Region, entrants []bracket.Entrant) error {
	if _, err := tx.ExecContext(ctx, stageSeedsQuery, seedStagingOffset, tournamentID, region); err != nil {
		return fmt.Errorf("stage seeds: %w", err)
	}

	for _, e := range entrants {
		res, err := tx.ExecContext(ctx, assignSeedQuery, e.Seed, e.ID, tournamentID, region)
		if err != nil {
			return fmt.Errorf("assign seed %d: %w", e.Seed, err)
		}
		if err := expectOne(res); err != nil {
			return fmt.Errorf("assign seed %d to %s: %w", e.Seed, e.ID, err)
		}
	}
	return nil
}
