// Command mkpbt runs a population-based-training session over simulated
// annealing workers against a multidimensional knapsack instance.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:     "mkpbt",
	Short:   "Population-based tuning of simulated annealing for multidimensional knapsack",
	Long:    `mkpbt runs a pool of simulated-annealing workers against a 0-1 multidimensional knapsack instance, tuning their hyperparameters online via population-based training.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is the built-in reference config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose console logging")

	rootCmd.AddCommand(runCmd)
}

// Commands are defined in separate files:
// - runCmd in run.go

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
