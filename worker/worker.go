// Package worker implements the SA Worker of spec.md §4.1: one independent
// simulated-annealing search agent with its own hyperparameters, solution,
// and rolling value history, stepped by a single goroutine and observed
// through the worker<->coordinator message protocol and its Population
// slot.
package worker

import (
	"math"
	"math/rand"

	"mkpbt/config"
	"mkpbt/instance"
	"mkpbt/population"
)

// Solution is a bitmask of included items, one bool per item.
type Solution []bool

// Clone returns an independent copy.
func (s Solution) Clone() Solution {
	out := make(Solution, len(s))
	copy(out, s)
	return out
}

// WorkerState is an immutable snapshot of a worker's hyperparameters and
// solution, sufficient to drive another worker's Reset. Spec.md's "Design
// Notes" require this to be a deep, owned copy — not a view — since the
// coordinator forwards it in a Reset message while the origin worker keeps
// mutating concurrently.
type WorkerState struct {
	Hyper    Hyperparameters
	Solution Solution
}

// Clone returns an independent deep copy of the state.
func (s WorkerState) Clone() WorkerState {
	return WorkerState{Hyper: s.Hyper, Solution: s.Solution.Clone()}
}

// Worker is one SA search agent. All fields are owned exclusively by the
// goroutine that calls Step/Reset/Perturb — there is no internal locking,
// matching spec.md §5's single-owner concurrency model.
type Worker struct {
	Index int

	inst    *instance.Instance
	rng     *rand.Rand
	slot    *population.Slot
	horizon int

	hyper    Hyperparameters
	solution Solution
	steps    uint64
	value    int64
	history  []int64 // ring buffer; history[0] is oldest, history[len-1] is worker.value
}

// New constructs a worker per spec.md §4.1 Initialization: seeds its own
// PRNG from seed (never inheriting the caller's generator state, per §9),
// draws hyperparameters from inits, draws an initial solution by drawing
// q~U(0,1) once and each bit ~ Bernoulli(q), then repairs to feasibility.
func New(
	index int,
	inst *instance.Instance,
	seed int64,
	inits map[string]config.Distribution,
	horizon int,
	slot *population.Slot,
) *Worker {
	rng := rand.New(rand.NewSource(seed))

	w := &Worker{
		Index:   index,
		inst:    inst,
		rng:     rng,
		slot:    slot,
		horizon: horizon,
		hyper:   InitHyperparameters(inits, rng),
	}

	q := rng.Float64()
	solution := make(Solution, inst.N)
	for i := range solution {
		solution[i] = rng.Float64() < q
	}
	repair(solution, inst, rng)
	w.solution = solution
	w.value = inst.Evaluate(solution)

	w.history = make([]int64, horizon)
	for i := range w.history {
		w.history[i] = w.value
	}

	w.publish()
	return w
}

// Step advances one SA iteration: neighbor, repair, accept, cool, record,
// advance. Non-blocking and bounded-time: O(n*m) worst case, from repair.
func (w *Worker) Step() {
	candidate := w.neighbor()
	repair(candidate, w.inst, w.rng)

	candidateValue := w.inst.Evaluate(candidate)
	if candidateValue >= w.value {
		w.solution = candidate
		w.value = candidateValue
	}

	w.hyper.Temperature *= 1 - w.hyper.CoolingRate

	copy(w.history, w.history[1:])
	w.history[len(w.history)-1] = w.value

	w.steps++
	w.publish()
}

// neighbor proposes additions only: for each currently-excluded item,
// independently include it with probability PMutations.
func (w *Worker) neighbor() Solution {
	candidate := w.solution.Clone()
	for i, included := range w.solution {
		if !included && w.rng.Float64() < w.hyper.PMutations {
			candidate[i] = true
		}
	}
	return candidate
}

// repair removes included items, in a permutation of the included set
// fixed once at the start of this call (spec.md Design Notes resolve this
// explicitly), until every capacity is respected. Terminates because
// allocations are monotone non-increasing and the empty solution is
// feasible (capacities are non-negative).
func repair(candidate Solution, inst *instance.Instance, rng *rand.Rand) {
	allocations := inst.Allocations(candidate)
	if inst.Feasible(allocations) {
		return
	}

	included := make([]int, 0, len(candidate))
	for i, in := range candidate {
		if in {
			included = append(included, i)
		}
	}
	rng.Shuffle(len(included), func(i, j int) { included[i], included[j] = included[j], included[i] })

	for c := 0; !inst.Feasible(allocations); c++ {
		item := included[c]
		for k := range allocations {
			allocations[k] -= inst.Weights[k][item]
		}
		candidate[item] = false
	}
}

// Snapshot returns an immutable, deep-copied view of the worker's current
// hyperparameters and solution, suitable for sending in a Reset to another
// worker. This is worker.Worker's half of the SendState reply.
func (w *Worker) Snapshot() WorkerState {
	return WorkerState{Hyper: w.hyper, Solution: w.solution.Clone()}
}

// Reset adopts template's hyperparameters and solution, zeroes Steps, and
// refills the value history from the copied solution's value.
func (w *Worker) Reset(template WorkerState) {
	w.hyper = template.Hyper
	w.solution = template.Solution.Clone()
	w.value = w.inst.Evaluate(w.solution)
	w.steps = 0
	for i := range w.history {
		w.history[i] = w.value
	}
	w.publish()
}

// Perturb multiplicatively jitters the worker's hyperparameters, per
// spec.md's "explore" step, applied after a Reset adopts a template.
func (w *Worker) Perturb(scales map[string]float64) {
	w.hyper = w.hyper.Perturb(scales, w.rng)
	w.publish()
}

// Report returns the data the coordinator needs for a Welch/Velo decision:
// the step count and a copy of the value history.
func (w *Worker) Report() (steps uint64, history []float64) {
	history = make([]float64, len(w.history))
	for i, v := range w.history {
		history[i] = float64(v)
	}
	return w.steps, history
}

// Summary returns the 5-tuple stored in the Population slot.
func (w *Worker) Summary() population.SlotValues {
	return population.SlotValues{
		Steps:       float64(w.steps),
		Value:       float64(w.value),
		Temperature: w.hyper.Temperature,
		CoolingRate: w.hyper.CoolingRate,
		PMutations:  w.hyper.PMutations,
	}
}

// Steps returns the worker's current step count.
func (w *Worker) Steps() uint64 { return w.steps }

// Value returns the worker's current solution value.
func (w *Worker) Value() int64 { return w.value }

// Solution returns the worker's current solution (not a copy — callers
// must not mutate it).
func (w *Worker) Solution() Solution { return w.solution }

// Hyperparameters returns the worker's current hyperparameters.
func (w *Worker) Hyperparameters() Hyperparameters { return w.hyper }

func (w *Worker) publish() {
	if w.slot != nil {
		w.slot.Write(w.Summary())
	}
}

// AcceptMetropolis implements the Metropolis-Hastings acceptance rule
// spec.md §4.1 describes as "available but not the default": accept
// unconditionally if candidateValue >= currentValue, otherwise accept with
// probability exp((candidateValue-currentValue)/temperature). The overflow
// guard (|delta/temperature| > 700 is clamped) matters only to this
// variant; the canonical greedy rule in Step never touches the exponential.
func AcceptMetropolis(currentValue, candidateValue int64, temperature float64, rng *rand.Rand) bool {
	delta := float64(candidateValue - currentValue)
	arg := delta / temperature
	if arg >= 0 {
		return true
	}
	if arg < -700 {
		return false
	}
	p := math.Exp(arg)
	return rng.Float64() < p
}
