package service

import (
	"context"
	"fmt"
	"time"

	"github.com/AdamBeresnev/bracket-challenge/internal/bracket"
	"github.com/AdamBeresnev/bracket-challenge/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const defaultRecentResults = 10

type LeaderboardService struct {
	reader      *sqlx.DB
	tournaments *store.TournamentStore
	brackets    *store.BracketStore
	rules       bracket.ScoringRules
	now         Clock
}

func NewLeaderboardService(reader *sqlx.DB, tournaments *store.TournamentStore, brackets *store.BracketStore, rules bracket.ScoringRules) *LeaderboardService {
	return &LeaderboardService{reader: reader, tournaments: tournaments, brackets: brackets, rules: rules, now: utcNow}
}

// TVData feeds the lobby display.
type TVData struct {
	Tournament    string              `json:"tournament"`
	Leaderboard   bracket.Leaderboard `json:"leaderboard"`
	RecentResults []bracket.Result    `json:"recentResults"`
	// Label of the earliest round still in play; empty once the champion is decided
	CurrentRound string     `json:"currentRound"`
	Decided      int        `json:"decided"`
	MaxPoints    int        `json:"maxPoints"`
	Locked       bool       `json:"locked"`
	LockAt       *time.Time `json:"lockAt,omitempty"`
	LockInfo     string     `json:"lockInfo"`
	GeneratedAt  time.Time  `json:"generatedAt"`
}

type standings struct {
	tournament *bracket.Tournament
	snap       *bracket.Snapshot
	board      bracket.Leaderboard
}

func (s *LeaderboardService) Leaderboard(ctx context.Context, tournamentID uuid.UUID) (bracket.Leaderboard, error) {
	st, err := s.standings(ctx, tournamentID)
	if err != nil {
		return bracket.Leaderboard{}, err
	}
	return st.board, nil
}

// standings reads the tournament, its results and every bracket in one read
// transaction so scores never mix two states of the tournament.
func (s *LeaderboardService) standings(ctx context.Context, tournamentID uuid.UUID) (*standings, error) {
	tx, err := readTx(ctx, s.reader)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	tournament, err := s.tournaments.GetTournamentTx(ctx, tx, tournamentID)
	if err != nil {
		return nil, notFound(err, "tournament")
	}
	snap, err := loadSnapshotTx(ctx, s.tournaments, tx, tournamentID)
	if err != nil {
		return nil, err
	}
	brackets, err := s.brackets.ListBracketsTx(ctx, tx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list brackets: %w", err)
	}
	picks, err := s.brackets.GetTournamentPicksTx(ctx, tx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get picks: %w", err)
	}

	scores := make([]bracket.BracketScore, 0, len(brackets))
	for _, b := range brackets {
		scores = append(scores, bracket.BracketScore{
			BracketID: b.ID,
			OwnerName: b.OwnerName,
			CreatedAt: b.CreatedAt,
			ScoreCard: bracket.Score(snap, picks[b.ID], s.rules),
		})
	}
	return &standings{tournament: tournament, snap: snap, board: bracket.Rank(scores)}, nil
}

// TVData bundles leaderboard, latest results and lock state. A limit of zero
// or less returns the default number of results.
func (s *LeaderboardService) TVData(ctx context.Context, tournamentID uuid.UUID, limit int) (*TVData, error) {
	st, err := s.standings(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultRecentResults
	}
	now := s.now()
	data := &TVData{
		Tournament:    st.tournament.Name,
		Leaderboard:   st.board,
		RecentResults: st.snap.RecentResults(limit),
		Decided:       st.snap.Decided(),
		MaxPoints:     s.rules.MaxPoints(),
		Locked:        st.tournament.Locked(now),
		LockAt:        st.tournament.LockAt,
		LockInfo:      lockInfo(st.tournament, now),
		GeneratedAt:   now,
	}
	if round, ok := st.snap.CurrentRound(); ok {
		data.CurrentRound = round.Label()
	}
	if data.RecentResults == nil {
		data.RecentResults = []bracket.Result{}
	}
	return data, nil
}

func lockInfo(t *bracket.Tournament, now time.Time) string {
	switch {
	case t.LockAt == nil:
		return "Brackets are open"
	case t.Locked(now):
		return "Brackets locked " + t.LockAt.UTC().Format("Jan 2, 15:04 MST")
	default:
		return "Brackets lock " + t.LockAt.UTC().Format("Jan 2, 15:04 MST")
	}
}
