// Package selection implements the three interchangeable coordinator
// policies of spec.md §4.2 as a common Policy interface, per the "tagged
// variant with a common select capability" modeled in spec.md §9's design
// notes.
package selection

import (
	"math/rand"

	"mkpbt/population"
)

// Decision is the outcome of one policy evaluation. Winner/Loser are 0 or 1,
// relative to the (a, b) pair passed to SamplePair/Evaluate — the
// coordinator maps them back to absolute worker indices.
type Decision struct {
	// Decided reports whether the policy reached a winner/loser pair. If
	// false, the coordinator counts this as inactivity.
	Decided       bool
	Winner, Loser int
}

// Policy is the generic capability every coordinator selection strategy
// implements. The coordinator loop is written once against this interface
// and is oblivious to which concrete policy it drives.
type Policy interface {
	// Name identifies the policy, matching config.Selection.Subr.
	Name() string
	// UsesPopulation reports whether SamplePair needs the live Population
	// snapshot (only trunc does; welch/velo only need history via Report).
	UsesPopulation() bool
	// SamplePair chooses the two worker indices to compare this round.
	// For trunc, values holds the latest Population.ReadAll() snapshot;
	// welch/velo ignore it and sample uniformly at random.
	SamplePair(n int, values []population.SlotValues, rng *rand.Rand) (a, b int, ok bool)
	// Evaluate decides a winner given each worker's report. trunc ignores
	// both histories.
	Evaluate(aSteps uint64, aHistory []float64, bSteps uint64, bHistory []float64) Decision
	// ProtectedSteps reports, given the Decision's winner/loser reports,
	// whether the exchange may proceed; false means a protected-age worker
	// would be touched and the coordinator skips it. The asymmetry between policies here is
	// intentional (see DESIGN.md): welch/velo require both participants to
	// have aged past nProtected, while trunc requires only the donor.
	ProtectedSteps(decision Decision, winnerSteps, loserSteps uint64, nProtected int) bool
}

// distinctPair draws two distinct indices uniformly from [0,n).
func distinctPair(n int, rng *rand.Rand) (a, b int, ok bool) {
	if n < 2 {
		return 0, 0, false
	}
	a = rng.Intn(n)
	b = rng.Intn(n - 1)
	if b >= a {
		b++
	}
	return a, b, true
}
