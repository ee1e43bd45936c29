// Package main provides the entry point for the cidx CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	internal "github.com/ZanzyTHEbar/callindex/cidx"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   internal.DefaultAppCMDShortCut,
		Short: "cidx - call detail record index",
		Long: `cidx loads a switch list and a call record file into memory and
answers routing and traffic queries over them.

Commands:
  called      Numbers a dialler called
  callers     Numbers that called a receiver
  faults      Switches at fault for a number's calls
  max, min    Busiest and quietest switch
  calls-made  Calls within a time range
  through     Calls routed through given switches
  activity    Calls made and received by a number
  stats       Index shape and load summary`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default searches ./config.yaml and "+internal.DefaultGlobalConfig+")")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(
		a.calledCmd(),
		a.callersCmd(),
		a.faultsCmd(),
		a.extremumCmd("max", "Switch that carried the most calls", true),
		a.extremumCmd("min", "Switch that carried the fewest calls", false),
		a.callsMadeCmd(),
		a.throughCmd(),
		a.activityCmd(),
		a.statsCmd(),
		versionCmd(),
	)
	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (commit: %s, built: %s)\n", internal.DefaultAppName, version, commit, date)
		},
	}
}
