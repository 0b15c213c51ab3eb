package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/AdamBeresnev/bracket-challenge/internal/bracket"
	"github.com/AdamBeresnev/bracket-challenge/internal/store"
	"github.com/AdamBeresnev/bracket-challenge/internal/testutil"
	users "github.com/AdamBeresnev/bracket-challenge/internal/user"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

var startOfPlay = time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)

// tickingClock advances one minute per reading so results get distinct times.
func tickingClock(start time.Time) Clock {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := next
		next = next.Add(time.Minute)
		return now
	}
}

type services struct {
	db          *sqlx.DB
	tournaments *TournamentService
	matches     *MatchService
	brackets    *BracketService
	leaderboard *LeaderboardService
}

func newServices(t *testing.T) *services {
	t.Helper()
	db := testutil.NewTestDB(t)
	tournamentStore := store.NewTournamentStore(db)
	bracketStore := store.NewBracketStore(db)

	svc := &services{
		db:          db,
		tournaments: NewTournamentService(db, tournamentStore, bracketStore),
		matches:     NewMatchService(db, tournamentStore),
		brackets:    NewBracketService(db, db, tournamentStore, bracketStore, bracket.DefaultScoringRules),
		leaderboard: NewLeaderboardService(db, tournamentStore, bracketStore, bracket.DefaultScoringRules),
	}
	clock := tickingClock(startOfPlay)
	svc.tournaments.now = clock
	svc.matches.now = clock
	svc.brackets.now = clock
	svc.leaderboard.now = clock
	return svc
}

func fieldInput() []EntrantInput {
	var out []EntrantInput
	for _, region := range bracket.Regions {
		for seed := 1; seed <= bracket.SeedsPerRegion; seed++ {
			out = append(out, EntrantInput{
				DisplayName: fmt.Sprintf("%s %d", region.Label(), seed),
				Region:      region,
				Seed:        seed,
			})
		}
	}
	return out
}

type fixture struct {
	*services
	tournamentID uuid.UUID
	// seeds[region][seed] is the entrant as created
	seeds map[bracket.Region]map[int]bracket.Entrant
}

func newFixture(t *testing.T, lockAt *time.Time) *fixture {
	t.Helper()
	svc := newServices(t)
	ctx := context.Background()

	id, err := svc.tournaments.CreateTournament(ctx, CreateTournamentInput{
		Name:     "Spring Madness",
		LockAt:   lockAt,
		Entrants: fieldInput(),
	})
	require.NoError(t, err)

	data, err := svc.tournaments.GetTournamentData(ctx, id)
	require.NoError(t, err)

	f := &fixture{services: svc, tournamentID: id, seeds: make(map[bracket.Region]map[int]bracket.Entrant)}
	for _, e := range data.Entrants {
		if f.seeds[e.Region] == nil {
			f.seeds[e.Region] = make(map[int]bracket.Entrant)
		}
		f.seeds[e.Region][e.Seed] = e
	}
	return f
}

func (f *fixture) match(key string) uuid.UUID {
	return bracket.MatchID(f.tournamentID, key)
}

func (f *fixture) seed(region bracket.Region, seed int) uuid.UUID {
	return f.seeds[region][seed].ID
}

func (f *fixture) record(t *testing.T, key string, region bracket.Region, seed int) *MatchOutcome {
	t.Helper()
	outcome, err := f.matches.RecordWinner(context.Background(), f.match(key), f.seed(region, seed))
	require.NoError(t, err, key)
	return outcome
}

func (f *fixture) player(t *testing.T, name string) *users.User {
	t.Helper()
	return testutil.CreateUser(t, f.db, name, users.RolePlayer)
}

func (f *fixture) pick(t *testing.T, user *users.User, key string, region bracket.Region, seed int) *PickResult {
	t.Helper()
	result, err := f.brackets.UpsertPick(context.Background(), f.tournamentID, user, f.match(key), f.seed(region, seed))
	require.NoError(t, err, key)
	return result
}

func (f *fixture) snapshot(t *testing.T) *bracket.Snapshot {
	t.Helper()
	ctx := context.Background()
	tx, err := readTx(ctx, f.db)
	require.NoError(t, err)
	defer tx.Rollback()

	snap, err := loadSnapshotTx(ctx, f.tournaments.store, tx, f.tournamentID)
	require.NoError(t, err)
	return snap
}

// playChalk records every match with the better seed winning, round by round.
func (f *fixture) playChalk(t *testing.T) {
	t.Helper()
	for _, m := range f.snapshot(t).Matches() {
		o, err := f.snapshot(t).ResolveOccupants(m.ID)
		require.NoError(t, err)
		winner := o.Left
		if o.Right.Seed < winner.Seed {
			winner = o.Right
		}
		_, err = f.matches.RecordWinner(context.Background(), m.ID, winner.ID)
		require.NoError(t, err, m.Key())
	}
}
