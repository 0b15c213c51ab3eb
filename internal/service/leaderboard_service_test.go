package service

import (
	"context"
	"testing"

	"github.com/AdamBeresnev/bracket-challenge/internal/bracket"
	"github.com/AdamBeresnev/bracket-challenge/internal/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaderboard(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	chalk := f.player(t, "chalk")
	upset := f.player(t, "upset")
	idle := f.player(t, "idle")

	f.pick(t, chalk, "IADVISORS-R64-1", bracket.IAdvisors, 1)
	f.pick(t, chalk, "IADVISORS-R64-2", bracket.IAdvisors, 8)
	f.pick(t, upset, "IADVISORS-R64-1", bracket.IAdvisors, 16)
	f.pick(t, upset, "IADVISORS-R64-2", bracket.IAdvisors, 8)
	_, err := f.brackets.GetBracketView(ctx, f.tournamentID, idle)
	require.NoError(t, err)

	f.record(t, "IADVISORS-R64-1", bracket.IAdvisors, 1)

	board, err := f.leaderboard.Leaderboard(ctx, f.tournamentID)
	require.NoError(t, err)
	require.Len(t, board.Entries, 3)

	assert.Equal(t, "chalk", board.Entries[0].OwnerName)
	assert.Equal(t, 1, board.Entries[0].Points)
	assert.Equal(t, 1, board.Entries[0].PossibleRemaining)
	assert.True(t, board.Entries[0].IsPerfect)

	assert.Equal(t, "upset", board.Entries[1].OwnerName)
	assert.Equal(t, 2, board.Entries[1].Rank)
	assert.False(t, board.Entries[1].IsPerfect)

	assert.Equal(t, "idle", board.Entries[2].OwnerName)
	assert.Equal(t, 3, board.Entries[2].Rank)

	assert.Equal(t, 2, board.PerfectCount)
	assert.Equal(t, 3, board.Total)

	_, err = f.leaderboard.Leaderboard(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTVData(t *testing.T) {
	f := newFixture(t, utils.Ptr(startOfPlay.Add(-1)))
	ctx := context.Background()

	fresh, err := f.leaderboard.TVData(ctx, f.tournamentID, 0)
	require.NoError(t, err)
	assert.Equal(t, "Spring Madness", fresh.Tournament)
	assert.Empty(t, fresh.RecentResults)
	assert.Equal(t, "Round of 64", fresh.CurrentRound)
	assert.Equal(t, bracket.DefaultScoringRules.MaxPoints(), fresh.MaxPoints)
	assert.True(t, fresh.Locked)
	assert.Contains(t, fresh.LockInfo, "locked")

	f.record(t, "XADVISORS-R64-1", bracket.XAdvisors, 16)
	f.record(t, "XADVISORS-R64-2", bracket.XAdvisors, 8)

	data, err := f.leaderboard.TVData(ctx, f.tournamentID, 1)
	require.NoError(t, err)
	require.Len(t, data.RecentResults, 1)
	latest := data.RecentResults[0]
	assert.Equal(t, f.match("XADVISORS-R64-2"), latest.MatchID)
	assert.Equal(t, "xAdvisors Round of 64: (8) xAdvisors 8 def. (9) xAdvisors 9", latest.Description)
	assert.Equal(t, 2, data.Decided)
}

func TestTVData_Complete(t *testing.T) {
	f := newFixture(t, nil)
	f.playChalk(t)

	data, err := f.leaderboard.TVData(context.Background(), f.tournamentID, 0)
	require.NoError(t, err)
	assert.Empty(t, data.CurrentRound)
	assert.Len(t, data.RecentResults, defaultRecentResults)
	assert.Equal(t, "Brackets are open", data.LockInfo)
	assert.Contains(t, data.RecentResults[0].Description, "Championship")
}
