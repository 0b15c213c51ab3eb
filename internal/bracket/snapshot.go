package bracket

import (
	"fmt"
	"sort"
	"time"

	"github.com/AdamBeresnev/bracket-challenge/internal/utils"
	"github.com/google/uuid"
)

// Snapshot is an immutable view of a tournament's entrants and matches.
// Winners are stored per match, so resolving a slot is a single feeder
// lookup rather than a walk over the whole tree. Mutating operations return
// a new Snapshot and leave the receiver untouched, which makes a Snapshot
// safe to share between concurrent readers.
type Snapshot struct {
	entrants map[uuid.UUID]Entrant
	matches  []Match
	index    map[uuid.UUID]int
	// feeder match ID -> the match it feeds
	parent map[uuid.UUID]uuid.UUID
}

func NewSnapshot(entrants []Entrant, matches []Match) *Snapshot {
	s := &Snapshot{
		entrants: make(map[uuid.UUID]Entrant, len(entrants)),
		matches:  make([]Match, len(matches)),
	}
	for _, e := range entrants {
		s.entrants[e.ID] = e
	}
	copy(s.matches, matches)
	sortMatches(s.matches)
	s.reindex()
	return s
}

func (s *Snapshot) reindex() {
	s.index = make(map[uuid.UUID]int, len(s.matches))
	s.parent = make(map[uuid.UUID]uuid.UUID, len(s.matches))
	for i, m := range s.matches {
		s.index[m.ID] = i
		for _, f := range []*uuid.UUID{m.LeftFeederID, m.RightFeederID} {
			if f != nil {
				s.parent[*f] = m.ID
			}
		}
	}
}

func (s *Snapshot) clone() *Snapshot {
	c := &Snapshot{
		entrants: s.entrants,
		matches:  make([]Match, len(s.matches)),
		index:    s.index,
		parent:   s.parent,
	}
	copy(c.matches, s.matches)
	return c
}

// Matches returns a copy ordered by round, region and match number.
func (s *Snapshot) Matches() []Match {
	out := make([]Match, len(s.matches))
	copy(out, s.matches)
	return out
}

func (s *Snapshot) Match(id uuid.UUID) (Match, bool) {
	i, ok := s.index[id]
	if !ok {
		return Match{}, false
	}
	return s.matches[i], true
}

func (s *Snapshot) Entrant(id uuid.UUID) (Entrant, bool) {
	e, ok := s.entrants[id]
	return e, ok
}

func (s *Snapshot) entrantPtr(id *uuid.UUID) *Entrant {
	if id == nil {
		return nil
	}
	e, ok := s.entrants[*id]
	if !ok {
		return nil
	}
	return &e
}

// ResolveOccupants returns the entrants occupying a match from recorded
// results only. R64 slots are seeded directly; later slots hold the feeder's
// recorded winner or nil.
func (s *Snapshot) ResolveOccupants(matchID uuid.UUID) (Occupants, error) {
	i, ok := s.index[matchID]
	if !ok {
		return Occupants{}, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	return s.occupants(&s.matches[i]), nil
}

func (s *Snapshot) occupants(m *Match) Occupants {
	return Occupants{
		Left:  s.actualSide(m, Left),
		Right: s.actualSide(m, Right),
	}
}

func (s *Snapshot) actualSide(m *Match, side Side) *Entrant {
	if m.Round == R64 {
		return s.entrantPtr(m.seeded(side))
	}
	feederID := m.feeder(side)
	if feederID == nil {
		return nil
	}
	feeder, ok := s.Match(*feederID)
	if !ok {
		return nil
	}
	return s.entrantPtr(feeder.WinnerEntrantID)
}

// ResolveHypotheticalOccupants is ResolveOccupants with the bracket's picks
// standing in for missing results. A pick only advances an entrant when both
// sides of the picked match are themselves resolved and the pick is one of
// them; unpicked feeders stay TBD.
func (s *Snapshot) ResolveHypotheticalOccupants(picks PickSet, matchID uuid.UUID) (Occupants, error) {
	i, ok := s.index[matchID]
	if !ok {
		return Occupants{}, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	memo := make(map[uuid.UUID]*Entrant)
	return s.hypotheticalOccupants(&s.matches[i], picks, memo), nil
}

func (s *Snapshot) hypotheticalOccupants(m *Match, picks PickSet, memo map[uuid.UUID]*Entrant) Occupants {
	if m.Round == R64 {
		return s.occupants(m)
	}
	var o Occupants
	for _, side := range []Side{Left, Right} {
		feederID := m.feeder(side)
		if feederID == nil {
			continue
		}
		w := s.hypotheticalWinner(*feederID, picks, memo)
		if side == Left {
			o.Left = w
		} else {
			o.Right = w
		}
	}
	return o
}

func (s *Snapshot) hypotheticalWinner(matchID uuid.UUID, picks PickSet, memo map[uuid.UUID]*Entrant) *Entrant {
	if w, ok := memo[matchID]; ok {
		return w
	}
	i, ok := s.index[matchID]
	if !ok {
		return nil
	}
	m := &s.matches[i]

	var w *Entrant
	if m.WinnerEntrantID != nil {
		w = s.entrantPtr(m.WinnerEntrantID)
	} else if picked, ok := picks[matchID]; ok {
		o := s.hypotheticalOccupants(m, picks, memo)
		if o.Resolved() && o.Contains(picked) {
			w = s.entrantPtr(&picked)
		}
	}
	memo[matchID] = w
	return w
}

// HypotheticalBoard resolves every match at once, in snapshot order.
func (s *Snapshot) HypotheticalBoard(picks PickSet) map[uuid.UUID]Occupants {
	memo := make(map[uuid.UUID]*Entrant)
	board := make(map[uuid.UUID]Occupants, len(s.matches))
	for i := range s.matches {
		board[s.matches[i].ID] = s.hypotheticalOccupants(&s.matches[i], picks, memo)
	}
	return board
}

// RecordWinner records a result and returns the updated snapshot. The winner
// must be one of the match's two resolved occupants. Correcting an existing
// result clears every recorded winner downstream of the match; the cleared
// matches are reported in the returned Invalidation.
func (s *Snapshot) RecordWinner(matchID, winnerID uuid.UUID, at time.Time) (*Snapshot, Invalidation, error) {
	i, ok := s.index[matchID]
	if !ok {
		return nil, Invalidation{}, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	m := &s.matches[i]
	if _, ok := s.entrants[winnerID]; !ok {
		return nil, Invalidation{}, fmt.Errorf("%w: %s", ErrEntrantNotFound, winnerID)
	}

	o := s.occupants(m)
	if !o.Resolved() {
		return nil, Invalidation{}, &InvalidWinnerError{MatchID: matchID, EntrantID: winnerID, Reason: "both occupants are not yet resolved"}
	}
	if !o.Contains(winnerID) {
		return nil, Invalidation{}, &InvalidWinnerError{MatchID: matchID, EntrantID: winnerID, Reason: "entrant is not an occupant of this match"}
	}
	if m.IsWinner(winnerID) {
		return s, Invalidation{}, nil
	}

	next := s.clone()
	var notice Invalidation
	if m.Decided() {
		notice = next.clearDownstream(matchID)
	}
	nm := &next.matches[i]
	nm.WinnerEntrantID = utils.Ptr(winnerID)
	nm.DecidedAt = utils.Ptr(at)
	return next, notice, nil
}

// ClearWinner removes a recorded result along with every result downstream
// of it. Clearing an undecided match is a no-op.
func (s *Snapshot) ClearWinner(matchID uuid.UUID) (*Snapshot, Invalidation, error) {
	i, ok := s.index[matchID]
	if !ok {
		return nil, Invalidation{}, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	if !s.matches[i].Decided() {
		return s, Invalidation{}, nil
	}

	next := s.clone()
	notice := next.clearDownstream(matchID)
	next.matches[i].WinnerEntrantID = nil
	next.matches[i].DecidedAt = nil
	return next, notice, nil
}

// clearDownstream walks the parent chain of matchID. Every match on it takes
// an occupant from matchID's result, directly or through another result, so
// none of their results survive a change to it.
func (s *Snapshot) clearDownstream(matchID uuid.UUID) Invalidation {
	var notice Invalidation
	for id, ok := s.parent[matchID]; ok; id, ok = s.parent[id] {
		m := &s.matches[s.index[id]]
		if m.Decided() {
			m.WinnerEntrantID = nil
			m.DecidedAt = nil
			notice.ClearedMatchIDs = append(notice.ClearedMatchIDs, id)
		}
	}
	return notice
}

// Downstream returns the IDs of the matches fed, directly or transitively,
// by matchID, nearest first.
func (s *Snapshot) Downstream(matchID uuid.UUID) []uuid.UUID {
	var ids []uuid.UUID
	for id, ok := s.parent[matchID]; ok; id, ok = s.parent[id] {
		ids = append(ids, id)
	}
	return ids
}

// Eliminated returns every entrant that has lost a recorded match.
func (s *Snapshot) Eliminated() map[uuid.UUID]bool {
	out := make(map[uuid.UUID]bool)
	for i := range s.matches {
		m := &s.matches[i]
		if !m.Decided() {
			continue
		}
		if loser := s.occupants(m).Opponent(*m.WinnerEntrantID); loser != nil {
			out[loser.ID] = true
		}
	}
	return out
}

// CurrentRound is the earliest round with an undecided match. It returns
// false once the championship is decided.
func (s *Snapshot) CurrentRound() (Round, bool) {
	for i := range s.matches {
		if !s.matches[i].Decided() {
			return s.matches[i].Round, true
		}
	}
	return 0, false
}

func (s *Snapshot) Decided() int {
	n := 0
	for i := range s.matches {
		if s.matches[i].Decided() {
			n++
		}
	}
	return n
}

func (s *Snapshot) Complete() bool {
	_, inProgress := s.CurrentRound()
	return len(s.matches) > 0 && !inProgress
}

type Result struct {
	MatchID     uuid.UUID `json:"matchId"`
	Round       Round     `json:"round"`
	Region      *Region   `json:"region"`
	MatchNumber int       `json:"matchNumber"`
	Winner      Entrant   `json:"winner"`
	Loser       Entrant   `json:"loser"`
	Description string    `json:"description"`
	DecidedAt   time.Time `json:"decidedAt"`
}

// RecentResults returns up to limit decided matches, newest first.
// limit <= 0 returns all of them.
func (s *Snapshot) RecentResults(limit int) []Result {
	var results []Result
	for i := range s.matches {
		m := &s.matches[i]
		if !m.Decided() {
			continue
		}
		o := s.occupants(m)
		winner := s.entrantPtr(m.WinnerEntrantID)
		loser := o.Opponent(*m.WinnerEntrantID)
		if winner == nil || loser == nil {
			continue
		}
		r := Result{
			MatchID:     m.ID,
			Round:       m.Round,
			Region:      m.Region,
			MatchNumber: m.MatchNumber,
			Winner:      *winner,
			Loser:       *loser,
			Description: describe(m, *winner, *loser),
		}
		if m.DecidedAt != nil {
			r.DecidedAt = *m.DecidedAt
		}
		results = append(results, r)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].DecidedAt.After(results[j].DecidedAt)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

func describe(m *Match, winner, loser Entrant) string {
	where := m.Round.Label()
	if m.Region != nil {
		where = m.Region.Label() + " " + where
	}
	return fmt.Sprintf("%s: (%d) %s def. (%d) %s", where, winner.Seed, winner.DisplayName, loser.Seed, loser.DisplayName)
}

func sortMatches(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.Round != b.Round {
			return a.Round < b.Round
		}
		ra, rb := regionOrder(a.Region), regionOrder(b.Region)
		if ra != rb {
			return ra < rb
		}
		return a.MatchNumber < b.MatchNumber
	})
}

func regionOrder(r *Region) int {
	if r == nil {
		return len(Regions)
	}
	return r.index()
}
