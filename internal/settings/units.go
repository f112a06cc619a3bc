package settings

import (
	"fmt"
	"strings"
)

// Unit is a display unit: values in base units are divided by Scale.
type Unit struct {
	Label string
	Scale float64
}

var timingUnits = map[string]Unit{
	"nsec": {Label: "nsec", Scale: 1},
	"ns":   {Label: "nsec", Scale: 1},
	"usec": {Label: "usec", Scale: 1e3},
	"us":   {Label: "usec", Scale: 1e3},
	"msec": {Label: "msec", Scale: 1e6},
	"ms":   {Label: "msec", Scale: 1e6},
	"sec":  {Label: "sec", Scale: 1e9},
	"s":    {Label: "sec", Scale: 1e9},
	"min":  {Label: "min", Scale: 60e9},
	"hr":   {Label: "hr", Scale: 3600e9},
}

var memoryUnits = map[string]Unit{
	"b":   {Label: "B", Scale: 1},
	"kb":  {Label: "KB", Scale: 1e3},
	"mb":  {Label: "MB", Scale: 1e6},
	"gb":  {Label: "GB", Scale: 1e9},
	"kib": {Label: "KiB", Scale: 1 << 10},
	"mib": {Label: "MiB", Scale: 1 << 20},
	"gib": {Label: "GiB", Scale: 1 << 30},
}

// LookupTimingUnit resolves a timing unit name.
func LookupTimingUnit(name string) (Unit, error) {
	u, ok := timingUnits[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Unit{}, fmt.Errorf("unknown timing unit: %s", name)
	}
	return u, nil
}

// LookupMemoryUnit resolves a memory unit name.
func LookupMemoryUnit(name string) (Unit, error) {
	u, ok := memoryUnits[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Unit{}, fmt.Errorf("unknown memory unit: %s", name)
	}
	return u, nil
}

// TimingUnit returns the configured timing unit, falling back to seconds.
func (s *Settings) TimingUnit() Unit {
	if u, err := LookupTimingUnit(s.TimingUnits); err == nil {
		return u
	}
	return timingUnits["sec"]
}

// MemoryUnit returns the configured memory unit, falling back to megabytes.
func (s *Settings) MemoryUnit() Unit {
	if u, err := LookupMemoryUnit(s.MemoryUnits); err == nil {
		return u
	}
	return memoryUnits["mb"]
}
