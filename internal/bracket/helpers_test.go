package bracket

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testTournamentID = uuid.MustParse("6f1c1e0a-8a47-4c39-9a7b-2f8d5a3c9e10")

func newField() []Entrant {
	entrants := make([]Entrant, 0, len(Regions)*SeedsPerRegion)
	for _, region := range Regions {
		for seed := 1; seed <= SeedsPerRegion; seed++ {
			entrants = append(entrants, Entrant{
				ID:           uuid.NewSHA1(testTournamentID, []byte(fmt.Sprintf("%s-%d", region, seed))),
				TournamentID: testTournamentID,
				DisplayName:  fmt.Sprintf("%s #%d", region.Label(), seed),
				Region:       region,
				Seed:         seed,
			})
		}
	}
	return entrants
}

func newTestSnapshot(t *testing.T) (*Snapshot, []Entrant) {
	t.Helper()
	field := newField()
	matches, err := BuildTopology(testTournamentID, field)
	require.NoError(t, err)
	return NewSnapshot(field, matches), field
}

func seedOf(t *testing.T, field []Entrant, region Region, seed int) Entrant {
	t.Helper()
	for _, e := range field {
		if e.Region == region && e.Seed == seed {
			return e
		}
	}
	t.Fatalf("no entrant with seed %d in %s", seed, region)
	return Entrant{}
}

func matchID(key string) uuid.UUID {
	return MatchID(testTournamentID, key)
}

var clock = time.Date(2026, 3, 19, 12, 0, 0, 0, time.UTC)

func record(t *testing.T, s *Snapshot, key string, winner Entrant) *Snapshot {
	t.Helper()
	clock = clock.Add(time.Minute)
	next, _, err := s.RecordWinner(matchID(key), winner.ID, clock)
	require.NoError(t, err, "recording %s", key)
	return next
}

func better(o Occupants) Entrant {
	if o.Right.Seed < o.Left.Seed {
		return *o.Right
	}
	return *o.Left
}

// chalkPicks picks the better seed everywhere, the left side on a tie.
func chalkPicks(t *testing.T, s *Snapshot) PickSet {
	t.Helper()
	picks := PickSet{}
	for _, m := range s.Matches() {
		o, err := s.ResolveHypotheticalOccupants(picks, m.ID)
		require.NoError(t, err)
		require.True(t, o.Resolved(), "match %s should be resolved", m.Key())
		picks[m.ID] = better(o).ID
	}
	return picks
}

// playChalk records the better seed as the winner of every match.
func playChalk(t *testing.T, s *Snapshot) *Snapshot {
	t.Helper()
	for _, m := range s.Matches() {
		o, err := s.ResolveOccupants(m.ID)
		require.NoError(t, err)
		require.True(t, o.Resolved(), "match %s should be resolved", m.Key())
		s = record(t, s, m.Key(), better(o))
	}
	return s
}
