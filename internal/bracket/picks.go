package bracket

import (
	"time"

	"github.com/google/uuid"
)

// PickSet maps match ID to the picked winner's entrant ID for one bracket.
type PickSet map[uuid.UUID]uuid.UUID

func NewPickSet(picks []Pick) PickSet {
	set := make(PickSet, len(picks))
	for _, p := range picks {
		set[p.MatchID] = p.EntrantID
	}
	return set
}

func (p PickSet) Clone() PickSet {
	out := make(PickSet, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// PickPolicy carries the caller-dependent rules for accepting a pick.
type PickPolicy struct {
	LockAt        *time.Time
	CallerIsAdmin bool
	Now           time.Time
}

func (p PickPolicy) locked() bool {
	return !p.CallerIsAdmin && p.LockAt != nil && !p.Now.Before(*p.LockAt)
}

// UpsertPick validates and applies a pick, returning the new set and the IDs
// of the downstream picks it invalidated. The input set is not modified.
//
// Picks further along the changed match's path are re-checked in round
// order; any that no longer name one of two resolved hypothetical occupants
// are removed.
func UpsertPick(s *Snapshot, picks PickSet, matchID, entrantID uuid.UUID, policy PickPolicy) (PickSet, []uuid.UUID, error) {
	reject := func(reason PickReason) error {
		return &PickRejectedError{MatchID: matchID, EntrantID: entrantID, Reason: reason}
	}

	if policy.locked() {
		return nil, nil, reject(PickLocked)
	}
	m, ok := s.Match(matchID)
	if !ok {
		return nil, nil, reject(PickUnknownMatch)
	}
	if m.Decided() {
		return nil, nil, reject(PickMatchDecided)
	}
	o, err := s.ResolveHypotheticalOccupants(picks, matchID)
	if err != nil {
		return nil, nil, err
	}
	if !o.Resolved() {
		return nil, nil, reject(PickSlotsUnresolved)
	}
	if !o.Contains(entrantID) {
		return nil, nil, reject(PickNotAnOccupant)
	}

	next := picks.Clone()
	previous, hadPick := next[matchID]
	next[matchID] = entrantID
	if !hadPick || previous == entrantID {
		return next, nil, nil
	}

	var removed []uuid.UUID
	for _, id := range s.Downstream(matchID) {
		if dropInvalid(s, next, id) {
			removed = append(removed, id)
		}
	}
	return next, removed, nil
}

// PrunePicks applies the same check as UpsertPick to every undecided match,
// in round order, so a removal cascades into later rounds in one pass.
func PrunePicks(s *Snapshot, picks PickSet) (PickSet, []uuid.UUID) {
	next := picks.Clone()
	var removed []uuid.UUID
	for _, m := range s.matches {
		if dropInvalid(s, next, m.ID) {
			removed = append(removed, m.ID)
		}
	}
	return next, removed
}

func dropInvalid(s *Snapshot, picks PickSet, matchID uuid.UUID) bool {
	picked, ok := picks[matchID]
	if !ok {
		return false
	}
	if m, _ := s.Match(matchID); m.Decided() {
		return false
	}
	o, err := s.ResolveHypotheticalOccupants(picks, matchID)
	if err == nil && o.Resolved() && o.Contains(picked) {
		return false
	}
	delete(picks, matchID)
	return true
}
