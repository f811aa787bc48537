package selection

import (
	"math/rand"

	"mkpbt/population"
)

// VeloPolicy implements spec.md §4.2.2: fit a Theil-Sen line to each
// worker's value history, extrapolate both confidence bounds out to the
// combined horizon, and declare a winner only if the intervals don't
// overlap.
type VeloPolicy struct {
	PThreshold float64
}

func (VeloPolicy) Name() string        { return "velo" }
func (VeloPolicy) UsesPopulation() bool { return false }

func (v VeloPolicy) SamplePair(n int, _ []population.SlotValues, rng *rand.Rand) (a, b int, ok bool) {
	return distinctPair(n, rng)
}

func (v VeloPolicy) Evaluate(aSteps uint64, aHistory []float64, bSteps uint64, bHistory []float64) Decision {
	_, _ = aSteps, bSteps
	confidence := 1 - v.PThreshold
	fitA := theilSen(aHistory, confidence)
	fitB := theilSen(bHistory, confidence)

	n := float64(len(aHistory) + len(bHistory) - 2)
	midA := float64(len(aHistory)-1) / 2
	midB := float64(len(bHistory)-1) / 2
	anchorA := fitA.Slope*midA + fitA.Intercept
	anchorB := fitB.Slope*midB + fitB.Intercept

	aLo := fitA.LoSlope*(n-midA) + anchorA
	aHi := fitA.HiSlope*(n-midA) + anchorA
	bLo := fitB.LoSlope*(n-midB) + anchorB
	bHi := fitB.HiSlope*(n-midB) + anchorB

	switch {
	case aLo > bHi:
		return Decision{Decided: true, Winner: 0, Loser: 1}
	case bLo > aHi:
		return Decision{Decided: true, Winner: 1, Loser: 0}
	default:
		return Decision{Decided: false}
	}
}

// ProtectedSteps requires both workers to have aged past nProtected, per
// the same general reading applied to WelchPolicy.
func (VeloPolicy) ProtectedSteps(decision Decision, winnerSteps, loserSteps uint64, nProtected int) bool {
	if !decision.Decided {
		return false
	}
	return winnerSteps >= uint64(nProtected) && loserSteps >= uint64(nProtected)
}
