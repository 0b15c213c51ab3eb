package bracket

import (
	"fmt"
	"strconv"
	"strings"
)

// ScoringRules holds the points awarded for a correct pick in each round.
type ScoringRules struct {
	Points map[Round]int
}

var DefaultScoringRules = ScoringRules{
	Points: map[Round]int{
		R64:   1,
		R32:   2,
		S16:   4,
		E8:    8,
		F4:    16,
		Champ: 32,
	},
}

// ParseRoundPoints reads a comma separated list of six weights, R64 first.
func ParseRoundPoints(s string) (ScoringRules, error) {
	parts := strings.Split(s, ",")
	if len(parts) != len(Rounds) {
		return ScoringRules{}, fmt.Errorf("expected %d round weights, got %d", len(Rounds), len(parts))
	}
	rules := ScoringRules{Points: make(map[Round]int, len(Rounds))}
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return ScoringRules{}, fmt.Errorf("round %s: %w", Rounds[i], err)
		}
		if n < 0 {
			return ScoringRules{}, fmt.Errorf("round %s: negative weight %d", Rounds[i], n)
		}
		rules.Points[Rounds[i]] = n
	}
	return rules, nil
}

func (r ScoringRules) For(round Round) int {
	return r.Points[round]
}

// MaxPoints is the score of a bracket that picks every match correctly.
func (r ScoringRules) MaxPoints() int {
	total := 0
	for _, round := range Rounds {
		if round.Regional() {
			total += r.For(round) * round.MatchesPerRegion() * len(Regions)
		}
	}
	total += r.For(F4) * len(FinalFourPairings)
	total += r.For(Champ)
	return total
}

type ScoreCard struct {
	Points            int  `json:"points"`
	PossibleRemaining int  `json:"possibleRemaining"`
	IsPerfect         bool `json:"isPerfect"`
	Correct           int  `json:"correct"`
	Incorrect         int  `json:"incorrect"`
}

// Score grades a bracket against recorded results.
//
// A decided match scores its round weight when the pick equals the winner
// and breaks perfection when it does not. A decided match with no pick does
// neither. An undecided pick counts towards PossibleRemaining only while the
// picked entrant is alive and is one of the two occupants the bracket's own
// hypothetical board puts in the match, the same test PrunePicks applies.
func Score(s *Snapshot, picks PickSet, rules ScoringRules) ScoreCard {
	card := ScoreCard{IsPerfect: true}
	eliminated := s.Eliminated()
	board := s.HypotheticalBoard(picks)

	for i := range s.matches {
		m := &s.matches[i]
		picked, ok := picks[m.ID]
		if !ok {
			continue
		}
		weight := rules.For(m.Round)

		if m.Decided() {
			if *m.WinnerEntrantID == picked {
				card.Points += weight
				card.Correct++
			} else {
				card.IsPerfect = false
				card.Incorrect++
			}
			continue
		}

		if o := board[m.ID]; !eliminated[picked] && o.Resolved() && o.Contains(picked) {
			card.PossibleRemaining += weight
		}
	}
	return card
}
