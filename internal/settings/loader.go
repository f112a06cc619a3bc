package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/markprof/internal/fault"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "MARKPROF_"

// LoadConfig loads settings from a file on top of the defaults.
//
// The file format is determined by extension:
//   - .yaml, .yml -> YAML
//   - .json -> JSON
func LoadConfig(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(data, path)
}

// ParseConfig parses settings data on top of the defaults.
//
// The format is determined by the file extension in path, or defaults to YAML
// if the path is empty or has an unknown extension.
func ParseConfig(data []byte, path string) (Settings, error) {
	s := Default()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &s); err != nil {
			return Settings{}, fmt.Errorf("failed to parse JSON config: %v: %w", err, fault.ErrConfiguration)
		}
	default:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return Settings{}, fmt.Errorf("failed to parse YAML config: %v: %w", err, fault.ErrConfiguration)
		}
	}

	return s, nil
}

type envSetter func(s *Settings, raw string) error

func boolSetter(field func(*Settings) *bool) envSetter {
	return func(s *Settings, raw string) error {
		v, err := ParseBool(raw)
		if err != nil {
			return err
		}
		*field(s) = v
		return nil
	}
}

func intSetter(field func(*Settings) *int) envSetter {
	return func(s *Settings, raw string) error {
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("invalid integer %q", raw)
		}
		*field(s) = v
		return nil
	}
}

func stringSetter(field func(*Settings) *string) envSetter {
	return func(s *Settings, raw string) error {
		*field(s) = strings.TrimSpace(raw)
		return nil
	}
}

var envSetters = map[string]envSetter{
	"ENABLED":           boolSetter(func(s *Settings) *bool { return &s.Enabled }),
	"VERBOSE":           intSetter(func(s *Settings) *int { return &s.Verbose }),
	"PRECISION":         intSetter(func(s *Settings) *int { return &s.Precision }),
	"WIDTH":             intSetter(func(s *Settings) *int { return &s.Width }),
	"TIMING_UNITS":      stringSetter(func(s *Settings) *string { return &s.TimingUnits }),
	"MEMORY_UNITS":      stringSetter(func(s *Settings) *string { return &s.MemoryUnits }),
	"FLAT_PROFILE":      boolSetter(func(s *Settings) *bool { return &s.FlatProfile }),
	"TIMELINE_PROFILE":  boolSetter(func(s *Settings) *bool { return &s.TimelineProfile }),
	"AUTO_OUTPUT":       boolSetter(func(s *Settings) *bool { return &s.AutoOutput }),
	"COUT_OUTPUT":       boolSetter(func(s *Settings) *bool { return &s.CoutOutput }),
	"FILE_OUTPUT":       boolSetter(func(s *Settings) *bool { return &s.FileOutput }),
	"JSON_OUTPUT":       boolSetter(func(s *Settings) *bool { return &s.JSONOutput }),
	"TEXT_OUTPUT":       boolSetter(func(s *Settings) *bool { return &s.TextOutput }),
	"OUTPUT_PATH":       stringSetter(func(s *Settings) *string { return &s.OutputPath }),
	"OUTPUT_PREFIX":     stringSetter(func(s *Settings) *string { return &s.OutputPrefix }),
	"OUTPUT_LABEL":      stringSetter(func(s *Settings) *string { return &s.OutputLabel }),
	"TIME_OUTPUT":       boolSetter(func(s *Settings) *bool { return &s.TimeOutput }),
	"TIME_FORMAT":       stringSetter(func(s *Settings) *string { return &s.TimeFormat }),
	"PRINT_COUNT":       boolSetter(func(s *Settings) *bool { return &s.PrintCount }),
	"PRINT_MEAN":        boolSetter(func(s *Settings) *bool { return &s.PrintMean }),
	"PRINT_STATS":       boolSetter(func(s *Settings) *bool { return &s.PrintStats }),
	"PRINT_PERCENTILES": boolSetter(func(s *Settings) *bool { return &s.PrintPercentiles }),
	"NO_COLOR":          boolSetter(func(s *Settings) *bool { return &s.NoColor }),
	"GLOBAL_COMPONENTS": func(s *Settings, raw string) error {
		s.GlobalComponents = SplitList(raw)
		return nil
	},
}

// ApplyEnv overrides settings from MARKPROF_* variables found by lookup
// (typically os.LookupEnv). Malformed values are configuration errors.
func ApplyEnv(s *Settings, lookup func(string) (string, bool)) error {
	errs := &ValidationErrors{}
	for name, set := range envSetters {
		raw, ok := lookup(EnvPrefix + name)
		if !ok {
			continue
		}
		if err := set(s, raw); err != nil {
			errs.Add(strings.ToLower(name), fmt.Sprintf("%s%s: %v", EnvPrefix, name, err))
		}
	}
	if errs.HasErrors() {
		return errs
	}
	return nil
}

// ParseBool accepts strconv.ParseBool forms plus ON/OFF and YES/NO.
func ParseBool(raw string) (bool, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "ON", "YES", "Y":
		return true, nil
	case "OFF", "NO", "N", "":
		return false, nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, fmt.Errorf("invalid boolean %q", raw)
	}
	return v, nil
}

// SplitList splits a comma or whitespace separated component list.
func SplitList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
