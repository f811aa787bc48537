// Package population implements the Population Snapshot of spec.md §3: one
// lock-free, single-writer slot per worker, readable at any time by the
// scribe and (for the trunc policy) the coordinator.
//
// AtomicFloat64 below is adapted from the teacher's atomic_float package,
// which flagged its own unsafe.Pointer bit-casting as needing review. The
// CAS-on-bit-pattern technique is kept — it's exactly the right tool for a
// contention-free, per-slot float — but expressed with the standard
// library's atomic.Uint64 instead of unsafe, since that removes the one
// thing the teacher's own comments distrusted about it.
package population

import (
	"math"
	"sync/atomic"
)

// AtomicFloat64 encapsulates a float64 for lock-free atomic access. Per
// spec.md §5, per-slot tearing across fields is fine (monitoring-grade, not
// control-grade) but a single field must never be read half-written; this
// type guarantees that for one field.
type AtomicFloat64 struct {
	bits atomic.Uint64
}

// NewAtomicFloat64 returns an AtomicFloat64 holding val.
func NewAtomicFloat64(val float64) *AtomicFloat64 {
	af := &AtomicFloat64{}
	af.bits.Store(math.Float64bits(val))
	return af
}

// AtomicRead returns the current value.
func (af *AtomicFloat64) AtomicRead() float64 {
	return math.Float64frombits(af.bits.Load())
}

// AtomicSet stores newVal unconditionally.
func (af *AtomicFloat64) AtomicSet(newVal float64) {
	af.bits.Store(math.Float64bits(newVal))
}

// AtomicAdd adds addend to the float, retrying the compare-and-swap until
// it succeeds against whatever value is currently stored. Worker summary
// writes are idempotent snapshots (AtomicSet), not addends, but this is
// kept as a primitive other monitoring-grade accumulations could use.
func (af *AtomicFloat64) AtomicAdd(addend float64) (newVal float64) {
	for {
		old := af.bits.Load()
		newVal = math.Float64frombits(old) + addend
		if af.bits.CompareAndSwap(old, math.Float64bits(newVal)) {
			return
		}
	}
}
