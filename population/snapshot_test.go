package population

import (
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSlotReadWrite(t *testing.T) {
	Convey("A slot returns exactly what was last written", t, func() {
		s := newSlot()
		s.Write(SlotValues{Steps: 3, Value: 42, Temperature: 1.5, CoolingRate: 0.01, PMutations: 0.2})
		So(s.Read(), ShouldResemble, SlotValues{Steps: 3, Value: 42, Temperature: 1.5, CoolingRate: 0.01, PMutations: 0.2})
	})
}

func TestPopulationIndependentSlots(t *testing.T) {
	Convey("Each worker writes only to its own slot, concurrently", t, func() {
		pop := New(8)
		var wg sync.WaitGroup
		for i, slot := range pop.Slots {
			wg.Add(1)
			go func(i int, slot *Slot) {
				defer wg.Done()
				for step := 0; step < 100; step++ {
					slot.Write(SlotValues{Steps: float64(step), Value: float64(i)})
				}
			}(i, slot)
		}
		wg.Wait()

		values := pop.ReadAll()
		for i, v := range values {
			So(v.Value, ShouldEqual, float64(i))
			So(v.Steps, ShouldEqual, float64(99))
		}
	})
}

func TestAtomicFloat64(t *testing.T) {
	Convey("AtomicFloat64 read/set/add round-trip correctly", t, func() {
		af := NewAtomicFloat64(1.5)
		So(af.AtomicRead(), ShouldEqual, 1.5)
		af.AtomicSet(2.5)
		So(af.AtomicRead(), ShouldEqual, 2.5)
		So(af.AtomicAdd(1.0), ShouldEqual, 3.5)
		So(af.AtomicRead(), ShouldEqual, 3.5)
	})
}
