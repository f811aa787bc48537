package selection

import (
	"math/rand"

	"mkpbt/population"
)

// WelchPolicy implements spec.md §4.2.1: compare two workers' value
// histories with Welch's (unequal-variance) t-test; the worker with the
// larger mean wins if p < pThreshold.
type WelchPolicy struct {
	PThreshold float64
}

func (WelchPolicy) Name() string            { return "welch" }
func (WelchPolicy) UsesPopulation() bool     { return false }

func (p WelchPolicy) SamplePair(n int, _ []population.SlotValues, rng *rand.Rand) (a, b int, ok bool) {
	return distinctPair(n, rng)
}

func (p WelchPolicy) Evaluate(aSteps uint64, aHistory []float64, bSteps uint64, bHistory []float64) Decision {
	_, _ = aSteps, bSteps
	pval, meanDiff := welchTTest(aHistory, bHistory)
	if pval >= p.PThreshold {
		return Decision{Decided: false}
	}
	if meanDiff > 0 {
		return Decision{Decided: true, Winner: 0, Loser: 1}
	}
	if meanDiff < 0 {
		return Decision{Decided: true, Winner: 1, Loser: 0}
	}
	return Decision{Decided: false}
}

// ProtectedSteps requires both the winner and the loser to have aged past
// nProtected before the exchange proceeds — the general reading of
// spec.md §4.2 step 4 ("If either party has steps < n_protected, skip").
func (WelchPolicy) ProtectedSteps(decision Decision, winnerSteps, loserSteps uint64, nProtected int) bool {
	if !decision.Decided {
		return false
	}
	return winnerSteps >= uint64(nProtected) && loserSteps >= uint64(nProtected)
}
