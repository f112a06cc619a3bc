package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/markprof/internal/report"
	"github.com/wesleyorama2/markprof/internal/settings"
)

var reportCmd = &cobra.Command{
	Use:   "report <file.json>",
	Short: "Print a report document as text or query it",
	Long: `Render a JSON report written by markprof as column-aligned tables, or
extract a single value with a dotted path.

Examples:
  markprof report markprof-output/markprof.json
  markprof report markprof-output/markprof.json --no-hierarchy --component wall_clock
  markprof report markprof-output/markprof.json --query components.wall_clock.graph.0.sum`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query, _ := cmd.Flags().GetString("query")
		flat, _ := cmd.Flags().GetBool("no-hierarchy")
		componentName, _ := cmd.Flags().GetString("component")

		s, err := loadSettings(cmd, os.LookupEnv)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read report: %w", err)
		}

		out := cmd.OutOrStdout()
		if query != "" {
			value, err := report.Query(data, query)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, value)
			return nil
		}

		colors := report.NoColorScheme()
		if !s.NoColor && report.IsTerminal(out) {
			colors = report.DefaultColorScheme()
		}
		return printReport(out, data, componentName, textOptions(s, colors, flat))
	},
}

func textOptions(s settings.Settings, colors *report.ColorScheme, flat bool) report.TextOptions {
	return report.TextOptions{
		Precision:        s.Precision,
		Width:            s.Width,
		PrintCount:       s.PrintCount,
		PrintMean:        s.PrintMean,
		PrintStats:       s.PrintStats,
		PrintPercentiles: s.PrintPercentiles,
		Flat:             flat,
		Colors:           colors,
	}
}

func printReport(out io.Writer, data []byte, componentName string, opts report.TextOptions) error {
	doc, err := report.ParseDocument(data)
	if err != nil {
		return err
	}

	if componentName == "" {
		return report.WriteText(out, doc, opts)
	}
	c, ok := doc.Components[componentName]
	if !ok {
		return fmt.Errorf("component %q not found in report", componentName)
	}
	return report.WriteComponentText(out, c, opts)
}

func init() {
	reportCmd.Flags().StringP("query", "q", "", "Print the value at a dotted path")
	reportCmd.Flags().Bool("no-hierarchy", false, "Print the flat table instead of the call tree")
	reportCmd.Flags().String("component", "", "Print a single component")
}
