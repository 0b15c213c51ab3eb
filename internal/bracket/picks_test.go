package bracket

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var openPolicy = PickPolicy{Now: clock}

func TestUpsertPick_Rejections(t *testing.T) {
	s, field := newTestSnapshot(t)
	one := seedOf(t, field, IAdvisors, 1)
	lockAt := clock.Add(-time.Minute)

	decided := record(t, s, "IADVISORS-R64-1", one)

	testCases := []struct {
		name    string
		snap    *Snapshot
		matchID uuid.UUID
		entrant uuid.UUID
		policy  PickPolicy
		reason  PickReason
	}{
		{"locked", s, matchID("IADVISORS-R64-1"), one.ID, PickPolicy{LockAt: &lockAt, Now: clock}, PickLocked},
		{"unknown match", s, uuid.New(), one.ID, openPolicy, PickUnknownMatch},
		{"decided match", decided, matchID("IADVISORS-R64-1"), one.ID, openPolicy, PickMatchDecided},
		{"unresolved slots", s, matchID("IADVISORS-R32-1"), one.ID, openPolicy, PickSlotsUnresolved},
		{"not an occupant", s, matchID("IADVISORS-R64-2"), one.ID, openPolicy, PickNotAnOccupant},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			picks := PickSet{}
			next, removed, err := UpsertPick(tc.snap, picks, tc.matchID, tc.entrant, tc.policy)

			var perr *PickRejectedError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tc.reason, perr.Reason)
			assert.Nil(t, next)
			assert.Nil(t, removed)
			assert.Empty(t, picks)
		})
	}
}

func TestUpsertPick_LockPolicy(t *testing.T) {
	s, field := newTestSnapshot(t)
	one := seedOf(t, field, IAdvisors, 1)
	lockAt := clock

	adminPolicy := PickPolicy{LockAt: &lockAt, CallerIsAdmin: true, Now: clock.Add(time.Hour)}
	picks, _, err := UpsertPick(s, PickSet{}, matchID("IADVISORS-R64-1"), one.ID, adminPolicy)
	require.NoError(t, err)
	assert.Equal(t, one.ID, picks[matchID("IADVISORS-R64-1")])

	beforeLock := PickPolicy{LockAt: &lockAt, Now: clock.Add(-time.Second)}
	_, _, err = UpsertPick(s, PickSet{}, matchID("IADVISORS-R64-1"), one.ID, beforeLock)
	require.NoError(t, err)

	atLock := PickPolicy{LockAt: &lockAt, Now: clock}
	_, _, err = UpsertPick(s, PickSet{}, matchID("IADVISORS-R64-1"), one.ID, atLock)
	var perr *PickRejectedError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, PickLocked, perr.Reason)
}

func TestUpsertPick_ChainedPicks(t *testing.T) {
	s, field := newTestSnapshot(t)
	one := seedOf(t, field, IAdvisors, 1)
	eight := seedOf(t, field, IAdvisors, 8)

	picks, _, err := UpsertPick(s, PickSet{}, matchID("IADVISORS-R64-1"), one.ID, openPolicy)
	require.NoError(t, err)
	picks, _, err = UpsertPick(s, picks, matchID("IADVISORS-R64-2"), eight.ID, openPolicy)
	require.NoError(t, err)

	picks, removed, err := UpsertPick(s, picks, matchID("IADVISORS-R32-1"), eight.ID, openPolicy)
	require.NoError(t, err)
	assert.Empty(t, removed)
	assert.Len(t, picks, 3)
}

func TestUpsertPick_ChangeCascades(t *testing.T) {
	s, field := newTestSnapshot(t)
	seed := func(n int) uuid.UUID { return seedOf(t, field, IAdvisors, n).ID }

	picks := PickSet{}
	steps := []struct {
		key     string
		entrant uuid.UUID
	}{
		{"IADVISORS-R64-1", seed(1)},
		{"IADVISORS-R64-2", seed(8)},
		{"IADVISORS-R64-3", seed(5)},
		{"IADVISORS-R64-4", seed(4)},
		{"IADVISORS-R32-1", seed(1)},
		{"IADVISORS-R32-2", seed(4)},
		{"IADVISORS-S16-1", seed(1)},
	}
	for _, step := range steps {
		var err error
		picks, _, err = UpsertPick(s, picks, matchID(step.key), step.entrant, openPolicy)
		require.NoError(t, err, step.key)
	}
	original := picks.Clone()

	// Re-picking the same entrant changes nothing
	same, removed, err := UpsertPick(s, picks, matchID("IADVISORS-R64-1"), seed(1), openPolicy)
	require.NoError(t, err)
	assert.Empty(t, removed)
	assert.Equal(t, picks, same)

	// Changing a pick that is not carried forward keeps the later picks
	changed, removed, err := UpsertPick(s, picks, matchID("IADVISORS-R64-2"), seed(9), openPolicy)
	require.NoError(t, err)
	assert.Empty(t, removed)
	assert.Len(t, changed, len(steps))

	// Changing the pick that was carried forward removes it downstream
	changed, removed, err = UpsertPick(s, picks, matchID("IADVISORS-R64-1"), seed(16), openPolicy)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{matchID("IADVISORS-R32-1"), matchID("IADVISORS-S16-1")}, removed)
	assert.Equal(t, seed(16), changed[matchID("IADVISORS-R64-1")])
	assert.NotContains(t, changed, matchID("IADVISORS-R32-1"))
	assert.NotContains(t, changed, matchID("IADVISORS-S16-1"))
	assert.Equal(t, seed(4), changed[matchID("IADVISORS-R32-2")])

	assert.Equal(t, original, picks, "input set is not modified")
}

func TestPrunePicks_AfterReseed(t *testing.T) {
	field := newField()
	matches, err := BuildTopology(testTournamentID, field)
	require.NoError(t, err)
	s := NewSnapshot(field, matches)

	one := seedOf(t, field, XAdvisors, 1)
	two := seedOf(t, field, XAdvisors, 2)
	picks := chalkPicks(t, s)

	// Swap seeds 1 and 2 in XADVISORS
	var region []Entrant
	for i := range field {
		switch field[i].ID {
		case one.ID:
			field[i].Seed = 2
		case two.ID:
			field[i].Seed = 1
		}
		if field[i].Region == XAdvisors {
			region = append(region, field[i])
		}
	}
	reseeded, err := AssignSeeds(matches, XAdvisors, region)
	require.NoError(t, err)
	s = NewSnapshot(field, reseeded)

	pruned, removed := PrunePicks(s, picks)
	assert.Contains(t, removed, matchID("XADVISORS-R64-1"))
	assert.Contains(t, removed, matchID("XADVISORS-R64-8"))
	assert.NotContains(t, pruned, matchID("XADVISORS-R64-1"))
	assert.Contains(t, pruned, matchID("XADVISORS-R64-2"))
	assert.Contains(t, pruned, matchID("IADVISORS-R64-1"))
	assert.Contains(t, pruned, matchID("IADVISORS-E8-1"))
	assert.Contains(t, removed, matchID("XADVISORS-E8-1"))
	assert.Contains(t, removed, matchID("F4-1"))
	assert.Contains(t, removed, matchID("CHAMP-1"))
	assert.Contains(t, pruned, matchID("F4-2"))

	// Everything that survived could be picked again as it stands
	for id, entrant := range pruned {
		o, err := s.ResolveHypotheticalOccupants(pruned, id)
		require.NoError(t, err)
		assert.True(t, o.Resolved())
		assert.True(t, o.Contains(entrant))
	}
}
