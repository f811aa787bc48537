// Package coordinator implements the PBT coordinator of spec.md §4.2: a
// tight loop, generic over the selection.Policy in force, that samples
// worker pairs, pulls reports over the message protocol, and issues
// exploit+explore on a decision.
package coordinator

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"mkpbt/config"
	"mkpbt/message"
	"mkpbt/population"
	"mkpbt/selection"
)

// NewPolicy builds the selection.Policy named by sel.Subr. Config.Validate
// has already rejected unknown names by the time this is called.
func NewPolicy(sel config.Selection) selection.Policy {
	switch sel.Subr {
	case config.SubrWelch:
		return selection.WelchPolicy{PThreshold: sel.P}
	case config.SubrTrunc:
		return selection.TruncPolicy{Pctg: sel.Trunc}
	default:
		return selection.VeloPolicy{PThreshold: sel.P}
	}
}

// Coordinator drives one selection policy against a fixed set of worker
// links and the shared Population snapshot.
type Coordinator struct {
	links      []*message.Link
	pop        *population.Population
	policy     selection.Policy
	scales     map[string]float64
	nProtected int
	inactiv    int
	rng        *rand.Rand
	log        zerolog.Logger
	timeout    time.Duration
}

// New constructs a Coordinator. seed seeds the coordinator's own PRNG,
// independent of every worker's, per the same never-share-a-generator rule
// spec.md §9 applies to workers.
func New(
	links []*message.Link,
	pop *population.Population,
	sel config.Selection,
	scales map[string]float64,
	seed int64,
	log zerolog.Logger,
) *Coordinator {
	return &Coordinator{
		links:      links,
		pop:        pop,
		policy:     NewPolicy(sel),
		scales:     scales,
		nProtected: sel.NProtected,
		inactiv:    sel.Inactiv,
		rng:        rand.New(rand.NewSource(seed)),
		log:        log.With().Str("component", "coordinator").Str("policy", sel.Subr).Logger(),
		timeout:    message.DefaultExchangeTimeout,
	}
}

// Run drives the coordinator loop until ctx is cancelled. Dead channels
// (an exchange that times out) are logged and that worker index is skipped
// for the remainder of the run, per spec.md §7.
func (c *Coordinator) Run(ctx context.Context) {
	dead := make(map[int]bool, len(c.links))
	inactivity := 0

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n := len(c.links)
		var values []population.SlotValues
		if c.policy.UsesPopulation() {
			values = c.pop.ReadAll()
		}

		a, b, ok := c.policy.SamplePair(n, values, c.rng)
		if !ok {
			continue
		}
		if dead[a] || dead[b] {
			continue
		}

		if inactivity > c.inactiv && c.policy.Name() != config.SubrTrunc {
			c.rescueSelf(a, dead)
			inactivity = 0
			continue
		}

		decided := c.evaluate(a, b, dead)
		if decided == nil {
			inactivity++
			continue
		}
		if !decided.Decided {
			inactivity++
			continue
		}

		winnerIdx, loserIdx := a, b
		if decided.Winner == 1 {
			winnerIdx, loserIdx = b, a
		}

		if !c.exploit(winnerIdx, loserIdx, dead) {
			inactivity++
			continue
		}
		inactivity = 0
	}
}

// evaluate pulls each side's Report and asks the policy to decide. It
// returns nil if either exchange timed out (the coordinator marks that
// worker dead and treats the round as inactivity).
func (c *Coordinator) evaluate(a, b int, dead map[int]bool) *selection.Decision {
	aResp, ok := message.RequestReport(c.links[a], c.timeout)
	if !ok {
		c.log.Warn().Int("worker", a).Msg("dead channel, skipping worker for remainder of run")
		dead[a] = true
		return nil
	}
	bResp, ok := message.RequestReport(c.links[b], c.timeout)
	if !ok {
		c.log.Warn().Int("worker", b).Msg("dead channel, skipping worker for remainder of run")
		dead[b] = true
		return nil
	}

	decision := c.policy.Evaluate(aResp.Steps, aResp.History, bResp.Steps, bResp.History)
	if !decision.Decided {
		return &decision
	}

	winnerSteps, loserSteps := aResp.Steps, bResp.Steps
	if decision.Winner == 1 {
		winnerSteps, loserSteps = bResp.Steps, aResp.Steps
	}
	if !c.policy.ProtectedSteps(decision, winnerSteps, loserSteps, c.nProtected) {
		decision.Decided = false
	}
	return &decision
}

// exploit sends SendState from winner and Reset to loser.
func (c *Coordinator) exploit(winner, loser int, dead map[int]bool) bool {
	resp, ok := message.RequestState(c.links[winner], c.timeout)
	if !ok {
		c.log.Warn().Int("worker", winner).Msg("dead channel, skipping worker for remainder of run")
		dead[winner] = true
		return false
	}
	if !message.SendReset(c.links[loser], resp.State, c.scales, c.timeout) {
		c.log.Warn().Int("worker", loser).Msg("dead channel, skipping worker for remainder of run")
		dead[loser] = true
		return false
	}
	c.log.Debug().Int("winner", winner).Int("loser", loser).Msg("exploit")
	return true
}

// rescueSelf implements spec.md §4.2's "Inactivity rescue": unconditionally
// reset worker a from its own current state, a no-op self-exploit that
// still triggers explore at the recipient and breaks a dead-locked
// population where the statistical test never concludes.
func (c *Coordinator) rescueSelf(a int, dead map[int]bool) {
	resp, ok := message.RequestState(c.links[a], c.timeout)
	if !ok {
		c.log.Warn().Int("worker", a).Msg("dead channel, skipping worker for remainder of run")
		dead[a] = true
		return
	}
	if !message.SendReset(c.links[a], resp.State, c.scales, c.timeout) {
		c.log.Warn().Int("worker", a).Msg("dead channel, skipping worker for remainder of run")
		dead[a] = true
		return
	}
	c.log.Debug().Int("worker", a).Msg("inactivity rescue: self-reset")
}
