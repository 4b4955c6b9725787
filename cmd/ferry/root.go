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
	Use:   "ferry",
	Short: "Ferry - local API routing proxy",
	Long: `Ferry is a local routing proxy that fronts multiple interchangeable
upstream API credentials behind a single address.

It forwards each request to a healthy upstream endpoint, bans endpoints
that fail, recovers them via background probes, and supports fallback,
polling, and speed-first selection strategies. The endpoint set can be
replaced at runtime without dropping in-flight requests.`,
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
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
