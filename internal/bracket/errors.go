package bracket

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrMatchNotFound   = errors.New("match not found")
	ErrEntrantNotFound = errors.New("entrant not found")
)

// ValidationError is returned when the entrant field cannot produce a
// tournament. Problems lists every violation found, not just the first.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid field: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

type InvalidWinnerError struct {
	MatchID   uuid.UUID
	EntrantID uuid.UUID
	Reason    string
}

func (e *InvalidWinnerError) Error() string {
	return fmt.Sprintf("cannot record %s as winner of match %s: %s", e.EntrantID, e.MatchID, e.Reason)
}

type PickReason string

const (
	PickLocked          PickReason = "picks are locked"
	PickUnknownMatch    PickReason = "match does not exist"
	PickMatchDecided    PickReason = "match already has a result"
	PickSlotsUnresolved PickReason = "both sides of the match are not yet known"
	PickNotAnOccupant   PickReason = "entrant is not playing in this match"
)

type PickRejectedError struct {
	MatchID   uuid.UUID
	EntrantID uuid.UUID
	Reason    PickReason
}

func (e *PickRejectedError) Error() string {
	return fmt.Sprintf("pick rejected for match %s: %s", e.MatchID, e.Reason)
}

// Invalidation is not an error. It reports the recorded winners that a
// correction or reset cleared and which must be entered again.
type Invalidation struct {
	ClearedMatchIDs []uuid.UUID `json:"clearedMatchIds"`
}

func (n Invalidation) Empty() bool {
	return len(n.ClearedMatchIDs) == 0
}
