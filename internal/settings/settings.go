// Package settings provides the engine's process-wide configuration.
//
// Settings are plain values: the Manager keeps the current snapshot and
// swaps it atomically on update, so markers always read a consistent view.
//
// Example YAML:
//
//	precision: 6
//	timing_units: usec
//	flat_profile: false
//	timeline_profile: true
//	auto_output: true
//	output_path: markprof-output
//	global_components: [wall_clock, cpu_clock]
package settings

// Settings is the engine configuration.
type Settings struct {
	// Enabled turns all markers into no-ops when false
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Verbose controls diagnostic logging (0 = warnings, 1 = info, 2+ = debug)
	Verbose int `json:"verbose,omitempty" yaml:"verbose,omitempty"`

	// Precision is the number of decimals in text output (0 = component default)
	Precision int `json:"precision,omitempty" yaml:"precision,omitempty"`

	// Width is the minimum column width in text output
	Width int `json:"width,omitempty" yaml:"width,omitempty"`

	// TimingUnits is the display unit for timing components: sec, msec, usec, nsec, min, hr
	TimingUnits string `json:"timing_units,omitempty" yaml:"timing_units,omitempty"`

	// MemoryUnits is the display unit for memory components: B, KB, MB, GB, KiB, MiB, GiB
	MemoryUnits string `json:"memory_units,omitempty" yaml:"memory_units,omitempty"`

	// FlatProfile makes new markers default to flat attribution
	FlatProfile bool `json:"flat_profile,omitempty" yaml:"flat_profile,omitempty"`

	// TimelineProfile makes new markers default to timeline attribution
	TimelineProfile bool `json:"timeline_profile,omitempty" yaml:"timeline_profile,omitempty"`

	// AutoOutput serializes every storage on finalize
	AutoOutput bool `json:"auto_output" yaml:"auto_output"`

	// CoutOutput prints the text report to the console writer
	CoutOutput bool `json:"cout_output" yaml:"cout_output"`

	// FileOutput writes reports below OutputPath
	FileOutput bool `json:"file_output" yaml:"file_output"`

	// JSONOutput and TextOutput select the file formats written
	JSONOutput bool `json:"json_output" yaml:"json_output"`
	TextOutput bool `json:"text_output" yaml:"text_output"`

	// OutputPath is the output directory
	OutputPath string `json:"output_path,omitempty" yaml:"output_path,omitempty"`

	// OutputPrefix is prepended to every output file name
	OutputPrefix string `json:"output_prefix,omitempty" yaml:"output_prefix,omitempty"`

	// OutputLabel is the base name of the report files
	OutputLabel string `json:"output_label,omitempty" yaml:"output_label,omitempty"`

	// TimeOutput places output files in a timestamped subdirectory
	TimeOutput bool `json:"time_output,omitempty" yaml:"time_output,omitempty"`

	// TimeFormat is the Go time layout used for the timestamped subdirectory
	TimeFormat string `json:"time_format,omitempty" yaml:"time_format,omitempty"`

	// GlobalComponents is the default component set (user_global_bundle)
	GlobalComponents []string `json:"global_components,omitempty" yaml:"global_components,omitempty"`

	// Column toggles for the text report
	PrintCount       bool `json:"print_count" yaml:"print_count"`
	PrintMean        bool `json:"print_mean" yaml:"print_mean"`
	PrintStats       bool `json:"print_stats" yaml:"print_stats"`
	PrintPercentiles bool `json:"print_percentiles" yaml:"print_percentiles"`

	// NoColor disables ANSI colors in console output
	NoColor bool `json:"no_color,omitempty" yaml:"no_color,omitempty"`
}

// Default returns the default settings.
func Default() Settings {
	return Settings{
		Enabled:          true,
		Width:            10,
		TimingUnits:      "sec",
		MemoryUnits:      "MB",
		AutoOutput:       true,
		CoutOutput:       true,
		FileOutput:       true,
		JSONOutput:       true,
		TextOutput:       true,
		OutputPath:       "markprof-output",
		OutputLabel:      "markprof",
		TimeFormat:       "2006-01-02_15.04",
		GlobalComponents: []string{"wall_clock"},
		PrintCount:       true,
		PrintMean:        true,
		PrintStats:       true,
		PrintPercentiles: false,
	}
}

// Clone returns a deep copy of s.
func (s Settings) Clone() Settings {
	out := s
	if s.GlobalComponents != nil {
		out.GlobalComponents = make([]string, len(s.GlobalComponents))
		copy(out.GlobalComponents, s.GlobalComponents)
	}
	return out
}

// Mode returns the default aggregation flags for new markers.
func (s Settings) Mode() (flat, timeline bool) {
	return s.FlatProfile, s.TimelineProfile
}
