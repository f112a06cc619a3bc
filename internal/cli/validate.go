package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/markprof/internal/report"
	"github.com/wesleyorama2/markprof/internal/settings"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a report document or a settings file",
	Long: `Check a JSON report against the report schema, or with --settings check
a settings file (.yaml, .yml or .json) for invalid values.

Examples:
  markprof validate markprof-output/markprof.json
  markprof validate --settings markprof.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		isSettings, _ := cmd.Flags().GetBool("settings")
		if isSettings {
			return validateSettings(cmd.OutOrStdout(), args[0])
		}
		return validateReport(cmd.OutOrStdout(), args[0])
	},
}

func validateReport(out io.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read report: %w", err)
	}
	if err := report.Validate(data); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: valid report\n", path)
	return nil
}

func validateSettings(out io.Writer, path string) error {
	s, err := settings.LoadConfig(path)
	if err != nil {
		return err
	}
	if err := s.Validate(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: valid settings\n", path)
	return nil
}

func init() {
	validateCmd.Flags().Bool("settings", false, "Validate a settings file instead of a report")
}
