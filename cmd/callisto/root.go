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
	Short: "Callisto - feature-flag route guard",
	Long: `Callisto is a feature-flag route guard service.

It gates navigation to configured routes behind feature flags:
  - Routes declare their flag in a metadata bag
  - Flags live in a hot-reloadable YAML registry with percentage rollouts
  - Disabled flags deny the navigation or redirect it to a canonical URL
  - Persistent overrides allow operational kill switches
  - Every decision is recorded in an audit trail

For more information, visit: https://github.com/mercator-hq/callisto`,
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
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
