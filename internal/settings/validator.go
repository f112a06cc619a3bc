package settings

import (
	"fmt"
	"strings"

	"github.com/wesleyorama2/markprof/internal/fault"
)

// ValidationError represents a single invalid setting.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Unwrap classifies validation failures as configuration errors.
func (e *ValidationError) Unwrap() error {
	return fault.ErrConfiguration
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors struct {
	Errors []*ValidationError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Unwrap classifies validation failures as configuration errors.
func (e *ValidationErrors) Unwrap() error {
	return fault.ErrConfiguration
}

// Add adds an error to the collection.
func (e *ValidationErrors) Add(field, message string) {
	e.Errors = append(e.Errors, &ValidationError{Field: field, Message: message})
}

// HasErrors returns true if there are any errors.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// Validate checks the settings for invalid or conflicting values.
//
// Returns nil if valid, or a *ValidationErrors listing every problem.
func (s *Settings) Validate() error {
	errs := &ValidationErrors{}

	if s.FlatProfile && s.TimelineProfile {
		errs.Add("flat_profile", "flat_profile and timeline_profile are mutually exclusive")
	}

	if s.Precision < 0 {
		errs.Add("precision", "precision cannot be negative")
	}
	if s.Width < 0 {
		errs.Add("width", "width cannot be negative")
	}
	if s.Verbose < 0 {
		errs.Add("verbose", "verbose cannot be negative")
	}

	if s.TimingUnits != "" {
		if _, err := LookupTimingUnit(s.TimingUnits); err != nil {
			errs.Add("timing_units", err.Error())
		}
	}
	if s.MemoryUnits != "" {
		if _, err := LookupMemoryUnit(s.MemoryUnits); err != nil {
			errs.Add("memory_units", err.Error())
		}
	}

	if s.FileOutput && s.AutoOutput {
		if strings.TrimSpace(s.OutputLabel) == "" {
			errs.Add("output_label", "output_label is required when file_output is enabled")
		}
		if strings.ContainsAny(s.OutputLabel, `/\`) {
			errs.Add("output_label", "output_label must not contain path separators")
		}
	}

	for i, name := range s.GlobalComponents {
		if strings.TrimSpace(name) == "" {
			errs.Add(fmt.Sprintf("global_components[%d]", i), "component name cannot be empty")
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
