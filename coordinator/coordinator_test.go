package coordinator

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"mkpbt/config"
	"mkpbt/instance"
	"mkpbt/message"
	"mkpbt/population"
	"mkpbt/worker"

	. "github.com/smartystreets/goconvey/convey"
)

const toyInstanceData = "4 1 17\n10 6 8 7\n5 3 4 2\n7\n"

func testInstance(t *testing.T) *instance.Instance {
	t.Helper()
	inst, err := instance.Parse(strings.NewReader(toyInstanceData))
	if err != nil {
		t.Fatalf("parse instance: %v", err)
	}
	return inst
}

func spawnWorker(t *testing.T, inst *instance.Instance, index int, seed int64, pop *population.Population, done <-chan struct{}, autoStep bool) (*worker.Worker, *message.Link) {
	t.Helper()
	inits := map[string]config.Distribution{
		"temperature":  {Kind: config.DistConst, A: 100},
		"cooling rate": {Kind: config.DistConst, A: 0.01},
		"p mutations":  {Kind: config.DistConst, A: 0.2},
	}
	w := worker.New(index, inst, seed, inits, 10, pop.Slots[index])
	link := message.NewLink()
	go func() {
		for {
			select {
			case <-done:
				return
			default:
			}
			message.Poll(link, w)
			if autoStep {
				w.Step()
			}
		}
	}()
	return w, link
}

func TestExploitTransfersState(t *testing.T) {
	Convey("Coordinator.exploit sends the winner's state and resets the loser", t, func() {
		inst := testInstance(t)
		pop := population.New(2)
		done := make(chan struct{})
		defer close(done)

		_, linkA := spawnWorker(t, inst, 0, 1, pop, done, false)
		wB, linkB := spawnWorker(t, inst, 1, 2, pop, done, false)

		c := New(
			[]*message.Link{linkA, linkB},
			pop,
			config.Selection{Subr: "welch", P: 0.05, Inactiv: 50, NProtected: 0},
			map[string]float64{"temperature": 0, "cooling rate": 0, "p mutations": 0},
			99,
			zerolog.New(io.Discard),
		)

		aState, ok := message.RequestState(linkA, time.Second)
		So(ok, ShouldBeTrue)

		dead := map[int]bool{}
		So(c.exploit(0, 1, dead), ShouldBeTrue)

		time.Sleep(20 * time.Millisecond)
		bReport, ok := message.RequestReport(linkB, time.Second)
		So(ok, ShouldBeTrue)
		// Neither A nor B auto-steps in this test, so A's state is the same
		// for both SendStates and the Reset's effect on B is directly
		// observable: zero jitter scales make Perturb a no-op, so
		// B's hyperparameters and solution exactly equal A's pre-exchange
		// snapshot, and B's steps is 0.
		So(wB.Hyperparameters(), ShouldResemble, aState.State.Hyper)
		So(wB.Solution(), ShouldResemble, aState.State.Solution)
		So(bReport.Steps, ShouldEqual, uint64(0))
	})
}

func TestRunRespectsContextCancellation(t *testing.T) {
	Convey("Run returns promptly once ctx is cancelled", t, func() {
		inst := testInstance(t)
		pop := population.New(4)
		done := make(chan struct{})
		defer close(done)

		links := make([]*message.Link, 4)
		for i := range links {
			_, link := spawnWorker(t, inst, i, int64(i+1), pop, done, true)
			links[i] = link
		}

		c := New(
			links, pop,
			config.Selection{Subr: "velo", P: 0.01, Inactiv: 5, NProtected: 0},
			map[string]float64{"temperature": 0.05, "cooling rate": 0.05, "p mutations": 0.05},
			1,
			zerolog.New(io.Discard),
		)

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		finished := make(chan struct{})
		go func() {
			c.Run(ctx)
			close(finished)
		}()

		select {
		case <-finished:
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not return after context cancellation")
		}
	})
}
