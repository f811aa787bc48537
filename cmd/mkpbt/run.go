package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"mkpbt/config"
	"mkpbt/supervisor"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Args:  cobra.NoArgs,
	Short: "Run a PBT/SA session until its time_limit elapses",
	Long:  `Loads a config document (or the built-in reference defaults), runs workers, a coordinator, a scribe, and a live dashboard until the configured time_limit elapses or the process receives an interrupt.`,
	RunE:  runMkpbt,
}

func init() {
	runCmd.Flags().String("monitor-addr", supervisor.MonitorAddr, "dashboard bind address, or \"-\" to disable")
	runCmd.Flags().Int64("seed", 0, "seed for minting per-worker RNG seeds (default: time-derived)")
}

func runMkpbt(cmd *cobra.Command, args []string) error {
	monitorAddr, _ := cmd.Flags().GetString("monitor-addr")
	seed, _ := cmd.Flags().GetInt64("seed")

	logger := newLogger()

	cfg := config.Default()
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
	} else {
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	logger.Info().
		Str("config", cfgFile).
		Int64("seed", seed).
		Msg("mkpbt: starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := supervisor.Options{
		MonitorAddr: monitorAddr,
		SeedSource:  rand.New(rand.NewSource(seed)),
	}

	return supervisor.Run(ctx, cfg, opts, logger)
}

// newLogger builds a human-readable console logger; -v lowers its level
// from info to debug.
func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	var w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
