package population

// SlotValues is the 5-tuple spec.md §3 assigns to each Population slot.
type SlotValues struct {
	Steps       float64
	Value       float64
	Temperature float64
	CoolingRate float64
	PMutations  float64
}

// Slot is one worker's monitoring-grade state, written only by that worker
// and read by the scribe and (trunc policy) the coordinator.
type Slot struct {
	steps       AtomicFloat64
	value       AtomicFloat64
	temperature AtomicFloat64
	coolingRate AtomicFloat64
	pMutations  AtomicFloat64
}

func newSlot() *Slot {
	return &Slot{}
}

// Write publishes a new 5-tuple. Each field is set independently — per-slot
// tearing across fields is acceptable per spec.md §5 since these values are
// monitoring-grade, not used for control decisions that require a
// consistent joint read (the one policy that reads the Population, trunc,
// only needs Value).
func (s *Slot) Write(v SlotValues) {
	s.steps.AtomicSet(v.Steps)
	s.value.AtomicSet(v.Value)
	s.temperature.AtomicSet(v.Temperature)
	s.coolingRate.AtomicSet(v.CoolingRate)
	s.pMutations.AtomicSet(v.PMutations)
}

// Read returns a consistent-enough snapshot of the slot for monitoring use.
func (s *Slot) Read() SlotValues {
	return SlotValues{
		Steps:       s.steps.AtomicRead(),
		Value:       s.value.AtomicRead(),
		Temperature: s.temperature.AtomicRead(),
		CoolingRate: s.coolingRate.AtomicRead(),
		PMutations:  s.pMutations.AtomicRead(),
	}
}

// Population is the array of N slots, one per worker.
type Population struct {
	Slots []*Slot
}

// New allocates a Population of n zeroed slots.
func New(n int) *Population {
	slots := make([]*Slot, n)
	for i := range slots {
		slots[i] = newSlot()
	}
	return &Population{Slots: slots}
}

// N returns the population size.
func (p *Population) N() int { return len(p.Slots) }

// ReadAll returns a snapshot of every slot's current values, index-aligned
// with Slots. Used by the scribe every tick and by the trunc policy.
func (p *Population) ReadAll() []SlotValues {
	out := make([]SlotValues, len(p.Slots))
	for i, slot := range p.Slots {
		out[i] = slot.Read()
	}
	return out
}
