package bracket

import (
	"github.com/AdamBeresnev/bracket-challenge/internal/utils"
	"github.com/google/uuid"
)

// r64SeedOrder is the canonical 16-team pairing order. Consecutive pairs are
// R64 matches 1..8 and adjacent matches feed the same R32 match.
var r64SeedOrder = [SeedsPerRegion]int{1, 16, 8, 9, 5, 12, 4, 13, 6, 11, 3, 14, 7, 10, 2, 15}

const MatchCount = 63

// SeedPairs returns the R64 seed pairings of a region in match order.
func SeedPairs() [][2]int {
	pairs := make([][2]int, 0, SeedsPerRegion/2)
	for i := 0; i < len(r64SeedOrder); i += 2 {
		pairs = append(pairs, [2]int{r64SeedOrder[i], r64SeedOrder[i+1]})
	}
	return pairs
}

// MatchID is derived from the tournament and the match key so the same field
// always produces the same IDs.
func MatchID(tournamentID uuid.UUID, key string) uuid.UUID {
	return uuid.NewSHA1(tournamentID, []byte(key))
}

// BuildTopology builds all 63 matches for a 64-entrant field. It is pure: the
// caller persists the result.
func BuildTopology(tournamentID uuid.UUID, entrants []Entrant) ([]Match, error) {
	seeds, err := indexField(entrants)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, MatchCount)
	newMatch := func(round Round, region *Region, number int) Match {
		return Match{
			ID:           MatchID(tournamentID, MatchKey(round, region, number)),
			TournamentID: tournamentID,
			Round:        round,
			Region:       region,
			MatchNumber:  number,
		}
	}

	// IDs of the previous round per region, indexed by match number - 1
	previous := make(map[Region][]uuid.UUID, len(Regions))

	for _, round := range []Round{R64, R32, S16, E8} {
		for _, region := range Regions {
			current := make([]uuid.UUID, 0, round.MatchesPerRegion())
			for n := 1; n <= round.MatchesPerRegion(); n++ {
				m := newMatch(round, utils.Ptr(region), n)
				if round == R64 {
					pair := SeedPairs()[n-1]
					m.LeftEntrantID = utils.Ptr(seeds[region][pair[0]])
					m.RightEntrantID = utils.Ptr(seeds[region][pair[1]])
				} else {
					m.LeftFeederID = utils.Ptr(previous[region][2*n-2])
					m.RightFeederID = utils.Ptr(previous[region][2*n-1])
				}
				matches = append(matches, m)
				current = append(current, m.ID)
			}
			previous[region] = current
		}
	}

	finalFour := make([]uuid.UUID, 0, len(FinalFourPairings))
	for i, pairing := range FinalFourPairings {
		m := newMatch(F4, nil, i+1)
		m.LeftFeederID = utils.Ptr(previous[pairing[0]][0])
		m.RightFeederID = utils.Ptr(previous[pairing[1]][0])
		matches = append(matches, m)
		finalFour = append(finalFour, m.ID)
	}

	champ := newMatch(Champ, nil, 1)
	champ.LeftFeederID = utils.Ptr(finalFour[0])
	champ.RightFeederID = utils.Ptr(finalFour[1])
	matches = append(matches, champ)

	return matches, nil
}

// AssignSeeds rewrites the R64 slots of one region from the given entrants.
// Matches of other regions and later rounds are returned untouched.
func AssignSeeds(matches []Match, region Region, entrants []Entrant) ([]Match, error) {
	verr := &ValidationError{}
	bySeed := make(map[int]uuid.UUID, SeedsPerRegion)
	for _, e := range entrants {
		if e.Region != region {
			verr.add("entrant %s is in region %s, not %s", e.ID, e.Region, region)
			continue
		}
		checkSeed(verr, bySeed, e)
	}
	checkRegionComplete(verr, region, bySeed)
	if len(verr.Problems) > 0 {
		return nil, verr
	}

	pairs := SeedPairs()
	out := make([]Match, len(matches))
	copy(out, matches)
	for i := range out {
		m := &out[i]
		if m.Round != R64 || m.Region == nil || *m.Region != region {
			continue
		}
		pair := pairs[m.MatchNumber-1]
		m.LeftEntrantID = utils.Ptr(bySeed[pair[0]])
		m.RightEntrantID = utils.Ptr(bySeed[pair[1]])
	}
	return out, nil
}

func indexField(entrants []Entrant) (map[Region]map[int]uuid.UUID, error) {
	verr := &ValidationError{}
	seen := make(map[uuid.UUID]bool, len(entrants))
	seeds := make(map[Region]map[int]uuid.UUID, len(Regions))
	for _, region := range Regions {
		seeds[region] = make(map[int]uuid.UUID, SeedsPerRegion)
	}

	for _, e := range entrants {
		if seen[e.ID] {
			verr.add("duplicate entrant %s", e.ID)
			continue
		}
		seen[e.ID] = true

		bySeed, ok := seeds[e.Region]
		if !ok {
			verr.add("entrant %q has unknown region %q", e.DisplayName, e.Region)
			continue
		}
		checkSeed(verr, bySeed, e)
	}

	for _, region := range Regions {
		checkRegionComplete(verr, region, seeds[region])
	}

	if len(verr.Problems) > 0 {
		return nil, verr
	}
	return seeds, nil
}

func checkSeed(verr *ValidationError, bySeed map[int]uuid.UUID, e Entrant) {
	if e.Seed < 1 || e.Seed > SeedsPerRegion {
		verr.add("entrant %q has seed %d outside 1-%d", e.DisplayName, e.Seed, SeedsPerRegion)
		return
	}
	if _, taken := bySeed[e.Seed]; taken {
		verr.add("seed %d is used twice in region %s", e.Seed, e.Region)
		return
	}
	bySeed[e.Seed] = e.ID
}

func checkRegionComplete(verr *ValidationError, region Region, bySeed map[int]uuid.UUID) {
	for seed := 1; seed <= SeedsPerRegion; seed++ {
		if _, ok := bySeed[seed]; !ok {
			verr.add("region %s has no seed %d", region, seed)
		}
	}
}
