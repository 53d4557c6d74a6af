package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "callisto",
	Short: "Callisto - embedded rate limiting toolbox",
	Long: `Callisto provides a family of embedded rate limiting algorithms
(token bucket, fixed window counter, sliding window log, sliding window
counter) behind a uniform consumption contract, plus tooling around them:

  - Configuration validation for limit policies
  - Deterministic workload simulation on a virtual clock
  - A queryable journal of admission decisions
  - Retention pruning for journal storage`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "callisto.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
