package bracket

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

type BracketScore struct {
	BracketID uuid.UUID
	OwnerName string
	CreatedAt time.Time
	ScoreCard
}

type LeaderboardEntry struct {
	Rank              int       `json:"rank"`
	BracketID         uuid.UUID `json:"bracketId"`
	OwnerName         string    `json:"name"`
	Points            int       `json:"totalPoints"`
	PossibleRemaining int       `json:"possibleRemainingPoints"`
	IsPerfect         bool      `json:"isPerfect"`
}

type Leaderboard struct {
	Entries      []LeaderboardEntry `json:"entries"`
	PerfectCount int                `json:"perfectBrackets"`
	Total        int                `json:"total"`
}

// Rank orders brackets by points, then possible remaining points, then
// creation time and ID so the order is reproducible.
//
// Ranks use standard competition ranking (1, 1, 3): brackets share a rank
// when both points and possible remaining points are equal. The creation
// time tie-break only orders them for display.
func Rank(scores []BracketScore) Leaderboard {
	sorted := make([]BracketScore, len(scores))
	copy(sorted, scores)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.PossibleRemaining != b.PossibleRemaining {
			return a.PossibleRemaining > b.PossibleRemaining
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.BracketID.String() < b.BracketID.String()
	})

	board := Leaderboard{
		Entries: make([]LeaderboardEntry, 0, len(sorted)),
		Total:   len(sorted),
	}
	for i, s := range sorted {
		rank := i + 1
		if i > 0 {
			prev := sorted[i-1]
			if prev.Points == s.Points && prev.PossibleRemaining == s.PossibleRemaining {
				rank = board.Entries[i-1].Rank
			}
		}
		if s.IsPerfect {
			board.PerfectCount++
		}
		board.Entries = append(board.Entries, LeaderboardEntry{
			Rank:              rank,
			BracketID:         s.BracketID,
			OwnerName:         s.OwnerName,
			Points:            s.Points,
			PossibleRemaining: s.PossibleRemaining,
			IsPerfect:         s.IsPerfect,
		})
	}
	return board
}
