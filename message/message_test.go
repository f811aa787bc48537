package message

import (
	"strings"
	"testing"
	"time"

	"mkpbt/config"
	"mkpbt/instance"
	"mkpbt/population"
	"mkpbt/worker"

	. "github.com/smartystreets/goconvey/convey"
)

const toyInstanceData = "4 1 17\n10 6 8 7\n5 3 4 2\n7\n"

func newTestWorker(t *testing.T, index int, seed int64) (*worker.Worker, *Link) {
	t.Helper()
	inst, err := instance.Parse(strings.NewReader(toyInstanceData))
	if err != nil {
		t.Fatalf("parse instance: %v", err)
	}
	inits := map[string]config.Distribution{
		"temperature":  {Kind: config.DistConst, A: 10},
		"cooling rate": {Kind: config.DistConst, A: 0.01},
		"p mutations":  {Kind: config.DistConst, A: 0.3},
	}
	slot := population.New(1).Slots[0]
	w := worker.New(index, inst, seed, inits, 5, slot)
	return w, NewLink()
}

// runWorkerLoop drives a worker in a background goroutine, polling its
// link between steps, until done is closed.
func runWorkerLoop(w *worker.Worker, link *Link, done <-chan struct{}) {
	go func() {
		for {
			select {
			case <-done:
				return
			default:
			}
			Poll(link, w)
			w.Step()
		}
	}()
}

func TestReportExchange(t *testing.T) {
	Convey("A Report request returns the worker's steps and history", t, func() {
		w, link := newTestWorker(t, 0, 1)
		done := make(chan struct{})
		runWorkerLoop(w, link, done)
		defer close(done)

		resp, ok := RequestReport(link, time.Second)
		So(ok, ShouldBeTrue)
		So(resp.History, ShouldHaveLength, 5)
	})
}

func TestSendStateExchange(t *testing.T) {
	Convey("A SendState request returns an owned snapshot", t, func() {
		w, link := newTestWorker(t, 0, 1)
		done := make(chan struct{})
		runWorkerLoop(w, link, done)
		defer close(done)

		resp, ok := RequestState(link, time.Second)
		So(ok, ShouldBeTrue)
		So(resp.State.Solution, ShouldNotBeNil)
	})
}

func TestResetHasNoReply(t *testing.T) {
	Convey("Reset delivers state without blocking on a reply", t, func() {
		donor, donorLink := newTestWorker(t, 0, 1)
		recipient, recipientLink := newTestWorker(t, 1, 2)

		done := make(chan struct{})
		runWorkerLoop(donor, donorLink, done)
		runWorkerLoop(recipient, recipientLink, done)
		defer close(done)

		stateResp, ok := RequestState(donorLink, time.Second)
		So(ok, ShouldBeTrue)

		scales := map[string]float64{"temperature": 0.05, "cooling rate": 0.05, "p mutations": 0.05}
		sent := SendReset(recipientLink, stateResp.State, scales, time.Second)
		So(sent, ShouldBeTrue)

		reportResp, ok := RequestReport(recipientLink, time.Second)
		So(ok, ShouldBeTrue)
		So(reportResp.Steps, ShouldBeLessThan, uint64(1000))
	})
}

func TestExchangeTimesOutOnDeadChannel(t *testing.T) {
	Convey("An exchange against a link nobody is polling times out", t, func() {
		link := NewLink()
		_, ok := RequestReport(link, 20*time.Millisecond)
		So(ok, ShouldBeFalse)
	})
}
