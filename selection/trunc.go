package selection

import (
	"math/rand"
	"sort"

	"mkpbt/population"
)

// TruncPolicy implements spec.md §4.2.3: rank the Population snapshot by
// current value, restrict the sampled pair to (low-ranked a, high-ranked
// b), and always decide in favor of the high performer. UsesPopulation
// reports that the trunc policy ranks by the Snapshot, per spec.md §9's
// note that it's the only policy for which the scalar current value
// suffices; the coordinator still pulls each side's Report for the step
// counts, and Evaluate ignores the histories it carries.
type TruncPolicy struct {
	Pctg float64
}

func (TruncPolicy) Name() string        { return "trunc" }
func (TruncPolicy) UsesPopulation() bool { return true }

// SamplePair implements spec.md's get_extremes cutoff rule: the low set is
// the cutoff workers with lowest current value, the high set the cutoff
// with highest. a is drawn uniformly over the whole population and the
// round is abandoned (ok=false) unless a lands in low; b is then drawn
// uniformly from high.
func (p TruncPolicy) SamplePair(n int, values []population.SlotValues, rng *rand.Rand) (a, b int, ok bool) {
	low, high := extremes(values, p.Pctg)

	a = rng.Intn(n)
	if !contains(low, a) {
		return 0, 0, false
	}
	b = high[rng.Intn(len(high))]
	return a, b, true
}

// Evaluate always favors b (the high performer drawn by SamplePair) — there
// is no statistical test in trunc, only the ranking SamplePair already
// applied.
func (TruncPolicy) Evaluate(aSteps uint64, aHistory []float64, bSteps uint64, bHistory []float64) Decision {
	_, _, _, _ = aSteps, aHistory, bSteps, bHistory
	return Decision{Decided: true, Winner: 1, Loser: 0}
}

// ProtectedSteps checks only the donor b's steps, per spec.md §4.2.3's
// literal text ("On steps_b >= n_protected, exploit b -> a") — unlike
// Welch/Velo, the recipient a's age is not consulted.
func (TruncPolicy) ProtectedSteps(decision Decision, winnerSteps, loserSteps uint64, nProtected int) bool {
	_ = loserSteps
	if !decision.Decided {
		return false
	}
	return winnerSteps >= uint64(nProtected)
}

// extremes returns the indices of the cutoff lowest-value and cutoff
// highest-value slots, where cutoff = max(1, floor(pctg*len(values))+1),
// matching spec.md §4.2.3 and its scenario 6.
func extremes(values []population.SlotValues, pctg float64) (low, high []int) {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return values[order[i]].Value < values[order[j]].Value
	})

	cutoff := int(pctg*float64(len(values))) + 1
	if cutoff < 1 {
		cutoff = 1
	}
	if cutoff > len(values) {
		cutoff = len(values)
	}

	low = append(low, order[:cutoff]...)
	high = append(high, order[len(order)-cutoff:]...)
	return low, high
}

func contains(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
