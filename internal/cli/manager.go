package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/markprof/internal/profiler"
	"github.com/wesleyorama2/markprof/internal/settings"
)

// loadSettings builds the settings for a run: the --config file (or the
// defaults), MARKPROF_* environment overrides, then explicit flags.
func loadSettings(cmd *cobra.Command, lookup func(string) (string, bool)) (settings.Settings, error) {
	s := settings.Default()

	configFile, _ := cmd.Flags().GetString("config")
	if configFile != "" {
		loaded, err := settings.LoadConfig(configFile)
		if err != nil {
			return settings.Settings{}, fmt.Errorf("error loading config: %w", err)
		}
		s = loaded
	}

	if lookup != nil {
		if err := settings.ApplyEnv(&s, lookup); err != nil {
			return settings.Settings{}, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("verbose") {
		s.Verbose, _ = flags.GetCount("verbose")
	}
	if flags.Changed("output") {
		s.OutputPath, _ = flags.GetString("output")
	}
	if flags.Changed("label") {
		s.OutputLabel, _ = flags.GetString("label")
	}
	if flags.Changed("components") {
		s.GlobalComponents, _ = flags.GetStringSlice("components")
	}
	if flags.Changed("timing-units") {
		s.TimingUnits, _ = flags.GetString("timing-units")
	}
	if flags.Changed("memory-units") {
		s.MemoryUnits, _ = flags.GetString("memory-units")
	}
	if flags.Changed("precision") {
		s.Precision, _ = flags.GetInt("precision")
	}
	if flags.Changed("flat") {
		s.FlatProfile, _ = flags.GetBool("flat")
	}
	if flags.Changed("timeline") {
		s.TimelineProfile, _ = flags.GetBool("timeline")
	}
	if flags.Changed("percentiles") {
		s.PrintPercentiles, _ = flags.GetBool("percentiles")
	}
	if noFile, _ := flags.GetBool("no-file"); noFile {
		s.FileOutput = false
	}
	if noColor, _ := flags.GetBool("no-color"); noColor {
		s.NoColor = true
	}

	if err := s.Validate(); err != nil {
		return settings.Settings{}, err
	}
	return s, nil
}

// newManager creates the manager for a workload command and records the
// invocation.
func newManager(cmd *cobra.Command, args []string) (*profiler.Manager, error) {
	s, err := loadSettings(cmd, os.LookupEnv)
	if err != nil {
		return nil, err
	}

	mgr, err := profiler.New(
		profiler.WithSettings(s),
		profiler.WithOutput(cmd.OutOrStdout()),
	)
	if err != nil {
		return nil, err
	}
	mgr.Init(append([]string{cmd.CommandPath()}, args...)...)
	return mgr, nil
}
