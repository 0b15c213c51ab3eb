package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/AdamBeresnev/bracket-challenge/internal/bracket"
	"github.com/AdamBeresnev/bracket-challenge/internal/store"
	"github.com/AdamBeresnev/bracket-challenge/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const maxDisplayNameLength = 80

type TournamentService struct {
	db       *sqlx.DB
	store    *store.TournamentStore
	brackets *store.BracketStore
	now      Clock
}

func NewTournamentService(db *sqlx.DB, store *store.TournamentStore, brackets *store.BracketStore) *TournamentService {
	return &TournamentService{db: db, store: store, brackets: brackets, now: utcNow}
}

type EntrantInput struct {
	DisplayName string         `json:"displayName"`
	Region      bracket.Region `json:"region"`
	Seed        int            `json:"seed"`
	Department  string         `json:"department,omitempty"`
	Title       string         `json:"title,omitempty"`
}

type CreateTournamentInput struct {
	Name     string         `json:"name"`
	LockAt   *time.Time     `json:"lockAt,omitempty"`
	Entrants []EntrantInput `json:"entrants"`
}

// MatchView is a match with its actual occupants resolved.
type MatchView struct {
	bracket.Match
	Key   string           `json:"key"`
	Left  *bracket.Entrant `json:"left"`
	Right *bracket.Entrant `json:"right"`
}

type TournamentData struct {
	Tournament   *bracket.Tournament `json:"tournament"`
	Entrants     []bracket.Entrant   `json:"entrants"`
	Matches      []MatchView         `json:"matches"`
	CurrentRound *bracket.Round      `json:"currentRound,omitempty"`
	Decided      int                 `json:"decided"`
}

func (s *TournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (uuid.UUID, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return uuid.Nil, &bracket.ValidationError{Problems: []string{"tournament name is required"}}
	}

	tournamentID := uuid.New()
	entrants := make([]bracket.Entrant, 0, len(input.Entrants))
	for _, in := range input.Entrants {
		entrants = append(entrants, bracket.Entrant{
			ID:           uuid.New(),
			TournamentID: tournamentID,
			DisplayName:  strings.TrimSpace(in.DisplayName),
			Region:       in.Region,
			Seed:         in.Seed,
			Department:   utils.StringOrNil(in.Department),
			Title:        utils.StringOrNil(in.Title),
		})
	}
	if err := checkDisplayNames(entrants); err != nil {
		return uuid.Nil, err
	}

	matches, err := bracket.BuildTopology(tournamentID, entrants)
	if err != nil {
		return uuid.Nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	tournament := bracket.Tournament{
		ID:        tournamentID,
		Name:      name,
		Status:    bracket.TournamentOpen,
		LockAt:    input.LockAt,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateTournament(ctx, tx, &tournament); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	if err := s.store.CreateEntrants(ctx, tx, entrants); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create entrants: %w", err)
	}
	if err := s.store.CreateMatches(ctx, tx, matches); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create matches: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, err
	}

	slog.Info("Tournament created", "tournament_id", tournamentID, "name", name, "matches", len(matches))
	return tournamentID, nil
}

func checkDisplayNames(entrants []bracket.Entrant) error {
	verr := &bracket.ValidationError{}
	for _, e := range entrants {
		switch {
		case e.DisplayName == "":
			verr.Problems = append(verr.Problems, fmt.Sprintf("entrant %s #%d has no display name", e.Region, e.Seed))
		case utf8.RuneCountInString(e.DisplayName) > maxDisplayNameLength:
			verr.Problems = append(verr.Problems, fmt.Sprintf("display name %q exceeds %d characters", e.DisplayName, maxDisplayNameLength))
		}
	}
	if len(verr.Problems) > 0 {
		return verr
	}
	return nil
}

func (s *TournamentService) GetTournament(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error) {
	tournament, err := s.store.GetTournament(ctx, id)
	if err != nil {
		return nil, notFound(err, "tournament")
	}
	return tournament, nil
}

func (s *TournamentService) ListTournaments(ctx context.Context) ([]bracket.Tournament, error) {
	return s.store.ListTournaments(ctx)
}

func (s *TournamentService) GetTournamentData(ctx context.Context, id uuid.UUID) (*TournamentData, error) {
	tournament, err := s.GetTournament(ctx, id)
	if err != nil {
		return nil, err
	}

	entrants, err := s.store.GetEntrants(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get entrants: %w", err)
	}
	stored, err := s.store.GetMatches(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get matches: %w", err)
	}
	snap := bracket.NewSnapshot(entrants, stored)

	matches := snap.Matches()
	views := make([]MatchView, 0, len(matches))
	for _, m := range matches {
		// Every ID comes from the snapshot, so resolution cannot fail
		o, _ := snap.ResolveOccupants(m.ID)
		views = append(views, MatchView{Match: m, Key: m.Key(), Left: o.Left, Right: o.Right})
	}

	data := &TournamentData{
		Tournament: tournament,
		Entrants:   entrants,
		Matches:    views,
		Decided:    snap.Decided(),
	}
	if round, ok := snap.CurrentRound(); ok {
		data.CurrentRound = &round
	}
	return data, nil
}

type SeedAssignment struct {
	EntrantID uuid.UUID `json:"entrantId"`
	Seed      int       `json:"seed"`
}

// ReseedRegion renumbers one region, rewrites its opening matches and drops
// every bracket pick the new layout makes unreachable. It returns the number
// of picks removed.
func (s *TournamentService) ReseedRegion(ctx context.Context, tournamentID uuid.UUID, region bracket.Region, seeds []SeedAssignment) (int, error) {
	if !region.Valid() {
		return 0, &bracket.ValidationError{Problems: []string{fmt.Sprintf("unknown region %q", region)}}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := s.store.GetTournamentTx(ctx, tx, tournamentID); err != nil {
		return 0, notFound(err, "tournament")
	}
	decided, err := s.store.CountDecidedTx(ctx, tx, tournamentID)
	if err != nil {
		return 0, err
	}
	if decided > 0 {
		return 0, ErrResultsRecorded
	}

	before, err := loadSnapshotTx(ctx, s.store, tx, tournamentID)
	if err != nil {
		return 0, err
	}

	regionEntrants, err := applySeeds(before, region, seeds)
	if err != nil {
		return 0, err
	}
	matches, err := bracket.AssignSeeds(before.Matches(), region, regionEntrants)
	if err != nil {
		return 0, err
	}

	if err := s.store.ReassignSeedsTx(ctx, tx, tournamentID, region, regionEntrants); err != nil {
		return 0, fmt.Errorf("failed to reassign seeds: %w", err)
	}

	entrants, err := s.store.GetEntrantsTx(ctx, tx, tournamentID)
	if err != nil {
		return 0, err
	}
	after := bracket.NewSnapshot(entrants, matches)
	if err := s.store.UpdateMatchesTx(ctx, tx, changedMatches(before, after)); err != nil {
		return 0, fmt.Errorf("failed to update matches: %w", err)
	}

	pruned, err := s.prunePicksTx(ctx, tx, after, tournamentID)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	slog.Info("Region reseeded", "tournament_id", tournamentID, "region", region, "picks_removed", pruned)
	return pruned, nil
}

// applySeeds returns the region's entrants carrying their new seeds. Every
// region entrant must be assigned exactly once.
func applySeeds(snap *bracket.Snapshot, region bracket.Region, seeds []SeedAssignment) ([]bracket.Entrant, error) {
	verr := &bracket.ValidationError{}
	seen := make(map[uuid.UUID]bool, len(seeds))
	out := make([]bracket.Entrant, 0, len(seeds))
	for _, a := range seeds {
		e, ok := snap.Entrant(a.EntrantID)
		switch {
		case !ok:
			verr.Problems = append(verr.Problems, fmt.Sprintf("unknown entrant %s", a.EntrantID))
			continue
		case e.Region != region:
			verr.Problems = append(verr.Problems, fmt.Sprintf("entrant %s is in region %s, not %s", e.ID, e.Region, region))
			continue
		case seen[e.ID]:
			verr.Problems = append(verr.Problems, fmt.Sprintf("entrant %s is assigned twice", e.ID))
			continue
		}
		seen[e.ID] = true
		e.Seed = a.Seed
		out = append(out, e)
	}
	if len(verr.Problems) > 0 {
		return nil, verr
	}
	// Seed range and completeness are checked when the slots are rebuilt
	return out, nil
}

func (s *TournamentService) prunePicksTx(ctx context.Context, tx *sqlx.Tx, snap *bracket.Snapshot, tournamentID uuid.UUID) (int, error) {
	all, err := s.brackets.GetTournamentPicksTx(ctx, tx, tournamentID)
	if err != nil {
		return 0, fmt.Errorf("failed to get picks: %w", err)
	}

	total := 0
	for bracketID, picks := range all {
		_, removed := bracket.PrunePicks(snap, picks)
		if err := s.brackets.DeletePicksTx(ctx, tx, bracketID, removed); err != nil {
			return 0, fmt.Errorf("failed to delete picks of bracket %s: %w", bracketID, err)
		}
		total += len(removed)
	}
	return total, nil
}

type EntrantUpdate struct {
	DisplayName string `json:"displayName"`
	Department  string `json:"department,omitempty"`
	Title       string `json:"title,omitempty"`
}

// UpdateEntrant changes display fields only; region and seed move through
// ReseedRegion.
func (s *TournamentService) UpdateEntrant(ctx context.Context, id uuid.UUID, update EntrantUpdate) (*bracket.Entrant, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	entrant, err := s.store.GetEntrantTx(ctx, tx, id)
	if err != nil {
		return nil, notFound(err, "entrant")
	}

	entrant.DisplayName = strings.TrimSpace(update.DisplayName)
	entrant.Department = utils.StringOrNil(update.Department)
	entrant.Title = utils.StringOrNil(update.Title)
	if err := checkDisplayNames([]bracket.Entrant{*entrant}); err != nil {
		return nil, err
	}

	if err := s.store.UpdateEntrantTx(ctx, tx, entrant); err != nil {
		return nil, fmt.Errorf("failed to update entrant: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	slog.Info("Entrant updated", "entrant_id", id, "display_name", entrant.DisplayName)
	return entrant, nil
}
