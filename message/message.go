// Package message implements the worker<->coordinator protocol of spec.md
// §6.2: a tagged-union request/reply exchange carried over one unbuffered
// channel pair per worker, polled non-blockingly by the worker between SA
// steps and driven exclusively by the coordinator.
package message

import "mkpbt/worker"

// Kind tags a Request.
type Kind int

const (
	// Report asks the worker to reply with its step count and value history.
	Report Kind = iota
	// SendState asks the worker to reply with an owned snapshot of its
	// hyperparameters and solution.
	SendState
	// Reset delivers a template state for the worker to adopt; no reply is
	// sent. The worker applies explore (perturb) immediately after adopting.
	Reset
)

func (k Kind) String() string {
	switch k {
	case Report:
		return "Report"
	case SendState:
		return "SendState"
	case Reset:
		return "Reset"
	default:
		return "Unknown"
	}
}

// Request is what the coordinator sends down a worker's inbound channel.
type Request struct {
	Kind   Kind
	State  worker.WorkerState  // only meaningful for Reset
	Scales map[string]float64 // only meaningful for Reset: explore jitter scales
}

// Response is what the worker sends back up its outbound channel. Reset
// requests get no Response; the coordinator must not wait for one.
type Response struct {
	Steps   uint64
	History []float64
	State   worker.WorkerState
}

// Link is one worker's half of the channel pair, created by the supervisor
// and handed one endpoint to the worker goroutine, the other to the
// coordinator. Both directions are unbuffered: a Send blocks until the
// counterpart is ready, matching the "answered before the next message on
// that channel is processed" ordering guarantee of spec.md §5.
type Link struct {
	ToWorker chan Request
	ToCoord  chan Response
}

// NewLink allocates a fresh, unbuffered Link.
func NewLink() *Link {
	return &Link{
		ToWorker: make(chan Request),
		ToCoord:  make(chan Response),
	}
}

// Poll is the worker side of the protocol: a single non-blocking attempt to
// drain one pending request and answer it inline. Workers call this between
// SA steps and must never block here, per spec.md §4.1. Reports false if
// nothing was pending.
func Poll(link *Link, w *worker.Worker) bool {
	select {
	case req := <-link.ToWorker:
		handle(link, w, req)
		return true
	default:
		return false
	}
}

// Drain calls Poll repeatedly until the channel is empty, in case the
// coordinator queued more than one request since the worker last checked
// (it shouldn't, given the protocol's one-in-flight discipline, but a
// worker must never leave a request unanswered).
func Drain(link *Link, w *worker.Worker) {
	for Poll(link, w) {
	}
}

func handle(link *Link, w *worker.Worker, req Request) {
	switch req.Kind {
	case Report:
		steps, history := w.Report()
		link.ToCoord <- Response{Steps: steps, History: history}
	case SendState:
		link.ToCoord <- Response{State: w.Snapshot()}
	case Reset:
		// Adopt the template, then explore: spec.md §4.2 "Receipt of a
		// Reset message causes the recipient to apply perturb(scales)
		// after adopting the template."
		w.Reset(req.State)
		w.Perturb(req.Scales)
	}
}
