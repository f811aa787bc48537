package message

import (
	"time"

	"mkpbt/worker"
)

// DefaultExchangeTimeout bounds how long the coordinator waits for a
// worker to answer a Report/SendState before giving up on it. spec.md §5
// notes the coordinator may add "a reasonable per-exchange timeout to
// defend against misbehaving workers" as an allowed extension; a worker
// answers within one SA step in the steady state, so this is generous.
const DefaultExchangeTimeout = 5 * time.Second

// RequestReport sends a Report to link and waits (up to timeout) for the
// reply. ok is false if the exchange timed out, which the coordinator
// treats per spec.md §7 as a dead channel: skip this worker index for the
// remainder of the run.
func RequestReport(link *Link, timeout time.Duration) (resp Response, ok bool) {
	return exchange(link, Request{Kind: Report}, timeout)
}

// RequestState sends a SendState and waits for the owned state snapshot.
func RequestState(link *Link, timeout time.Duration) (resp Response, ok bool) {
	return exchange(link, Request{Kind: SendState}, timeout)
}

// SendReset delivers a Reset(state) request carrying the explore scales the
// recipient applies after adopting state. Reset has no reply — the worker
// adopts it and perturbs on its own time — so this only reports whether the
// send itself succeeded within timeout.
func SendReset(link *Link, state worker.WorkerState, scales map[string]float64, timeout time.Duration) bool {
	select {
	case link.ToWorker <- Request{Kind: Reset, State: state, Scales: scales}:
		return true
	case <-time.After(timeout):
		return false
	}
}

func exchange(link *Link, req Request, timeout time.Duration) (Response, bool) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	select {
	case link.ToWorker <- req:
	case <-deadline.C:
		return Response{}, false
	}

	select {
	case resp := <-link.ToCoord:
		return resp, true
	case <-deadline.C:
		return Response{}, false
	}
}
