package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var version = "0.1.0"

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "markprof",
	Short:   "Component-based instrumentation and aggregation engine",
	Version: version,
	Long: `markprof measures named regions of a program for a set of components
(wall clock, CPU time, peak RSS, allocations, ...) and aggregates them into a
call tree, a flat table or a timeline per component.

The fib and inefficient commands run instrumented demo workloads; report and
validate inspect the JSON documents they produce.`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		// If no subcommand is provided, print help
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}

// addSettingsFlags registers the flags that override settings.
func addSettingsFlags(flags *pflag.FlagSet) {
	flags.StringP("config", "c", "", "Settings file (.yaml, .yml or .json)")
	flags.CountP("verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	flags.StringP("output", "o", "", "Output directory")
	flags.String("label", "", "Output file label")
	flags.StringSlice("components", nil, "Global components (e.g. wall_clock,cpu_clock,peak_rss)")
	flags.String("timing-units", "", "Timing display unit: sec, msec, usec, nsec")
	flags.String("memory-units", "", "Memory display unit: B, KB, MB, GB, KiB, MiB, GiB")
	flags.Int("precision", 0, "Decimals in the text report")
	flags.Bool("flat", false, "Aggregate regions in a flat table")
	flags.Bool("timeline", false, "Record every region in a timeline")
	flags.Bool("percentiles", false, "Print p50/p95/p99 for timing components")
	flags.Bool("no-file", false, "Do not write report files")
	flags.Bool("no-color", false, "Disable colored output")
}

func init() {
	addSettingsFlags(RootCmd.PersistentFlags())

	// Add subcommands to root command
	RootCmd.AddCommand(fibCmd)
	RootCmd.AddCommand(inefficientCmd)
	RootCmd.AddCommand(reportCmd)
	RootCmd.AddCommand(validateCmd)
	RootCmd.AddCommand(componentsCmd)
}
