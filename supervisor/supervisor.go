// Package supervisor implements spec.md §4.4: read config, spawn the
// Instance, Population, channel pairs, workers, scribe, coordinator, and
// monitor, sleep for time_limit minutes, then tear everything down.
package supervisor

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"mkpbt/config"
	"mkpbt/coordinator"
	"mkpbt/instance"
	"mkpbt/message"
	"mkpbt/monitor"
	"mkpbt/population"
	"mkpbt/scribe"
	"mkpbt/worker"
)

// MonitorAddr is the default bind address for the live dashboard. An empty
// Options.MonitorAddr falls back to it; "-" disables the dashboard.
const MonitorAddr = ":8089"

// Options tune a Run beyond what config.Config carries: the monitor's bind
// address and the random source used to mint worker seeds.
type Options struct {
	MonitorAddr string
	SeedSource  *rand.Rand
}

// Run wires and drives one complete mkpbt session until ctx is cancelled or
// cfg.TimeLimit minutes elapse, whichever comes first. It blocks until
// every spawned component has torn down.
func Run(ctx context.Context, cfg *config.Config, opts Options, log zerolog.Logger) error {
	inst, err := instance.Load(cfg.Filename)
	if err != nil {
		return fmt.Errorf("supervisor: loading instance: %w", err)
	}

	seedSrc := opts.SeedSource
	if seedSrc == nil {
		seedSrc = rand.New(rand.NewSource(1))
	}

	pop := population.New(cfg.NWorkers)
	links := make([]*message.Link, cfg.NWorkers)
	workers := make([]*worker.Worker, cfg.NWorkers)
	for i := 0; i < cfg.NWorkers; i++ {
		seed := seedSrc.Int63()
		links[i] = message.NewLink()
		workers[i] = worker.New(i, inst, seed, cfg.Inits, cfg.Horizon, pop.Slots[i])
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if cfg.TimeLimit > 0 {
		var timeoutCancel context.CancelFunc
		runCtx, timeoutCancel = context.WithTimeout(runCtx, time.Duration(cfg.TimeLimit*float64(time.Minute)))
		defer timeoutCancel()
	}

	var wg sync.WaitGroup

	// Workers: spec.md §4.1's step/poll loop, cooperatively cancelled
	// between steps rather than the Python original's forced process
	// termination — spec.md §4.4 explicitly allows this when the
	// language's cancellation is lightweight, which goroutines are.
	for i := range workers {
		wg.Add(1)
		go func(w *worker.Worker, link *message.Link) {
			defer wg.Done()
			for {
				select {
				case <-runCtx.Done():
					return
				default:
				}
				message.Drain(link, w)
				w.Step()
			}
		}(workers[i], links[i])
	}

	startedAt := time.Now()
	s, err := scribe.New(pop, cfg, scribe.DefaultDelay, startedAt, log)
	if err != nil {
		return fmt.Errorf("supervisor: starting scribe: %w", err)
	}
	scribeDone := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Run(scribeDone)
	}()
	go func() {
		<-runCtx.Done()
		close(scribeDone)
	}()

	if !cfg.Baseline && cfg.NWorkers > 1 {
		coordSeed := seedSrc.Int63()
		coord := coordinator.New(links, pop, cfg.Selection, cfg.Scales, coordSeed, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			coord.Run(runCtx)
		}()
	}

	monitorAddr := opts.MonitorAddr
	if monitorAddr == "" {
		monitorAddr = MonitorAddr
	}
	if monitorAddr != "-" {
		mon := monitor.New(monitorAddr, pop, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := mon.Serve(runCtx); err != nil {
				log.Error().Err(err).Msg("monitor server exited")
			}
		}()
	}

	log.Info().
		Int("n_workers", cfg.NWorkers).
		Str("selection", cfg.Selection.Subr).
		Bool("baseline", cfg.Baseline).
		Float64("time_limit_min", cfg.TimeLimit).
		Msg("supervisor: run started")

	<-runCtx.Done()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		log.Warn().Msg("supervisor: teardown grace period exceeded, some goroutines may still be exiting")
	}

	log.Info().Msg("supervisor: run complete")
	return nil
}
