// Package component defines measurable quantities and the samplers behind them.
//
// A component Type couples a Sampler (a side-effect-free read of one physical
// quantity) with the rules needed to aggregate its readings: how a delta is
// derived from a start and a stop sample, and how deltas are combined when
// several measurements land on the same region.
package component

import "math"

// Value is a single reading or delta in the component's base unit.
//
// Base units are nanoseconds for timing components, bytes for memory
// components and raw counts for counters.
type Value = float64

// Category groups components by the unit family they report in.
type Category string

const (
	// CategoryTiming components report durations in nanoseconds
	CategoryTiming Category = "timing"

	// CategoryMemory components report sizes in bytes
	CategoryMemory Category = "memory"

	// CategoryCounter components report dimensionless counts
	CategoryCounter Category = "counter"
)

// Kind is the numeric value type a component declares for formatting.
type Kind string

const (
	KindInt   Kind = "int"
	KindFloat Kind = "float"
)

// Rule is the combination rule applied when deltas are accumulated.
type Rule string

const (
	// RuleSum adds deltas (time, counters)
	RuleSum Rule = "sum"

	// RuleMax keeps the largest delta (peak values)
	RuleMax Rule = "max"

	// RuleMin keeps the smallest delta
	RuleMin Rule = "min"
)

// DeltaMode selects how a measurement is derived from its two samples.
type DeltaMode string

const (
	// DeltaDifference computes stop - start
	DeltaDifference DeltaMode = "difference"

	// DeltaPeak computes max(start, stop)
	DeltaPeak DeltaMode = "peak"

	// DeltaInstant uses the stop sample as-is
	DeltaInstant DeltaMode = "instant"
)

// Sampler reads one physical quantity at a point in time.
//
// Implementations must not have side effects. When the backing counter is
// not supported on the current platform, Sample returns an error wrapping
// fault.ErrSamplerUnavailable.
type Sampler interface {
	Sample() (Value, error)
}

// SamplerFunc adapts a plain function to the Sampler interface.
type SamplerFunc func() (Value, error)

// Sample calls f.
func (f SamplerFunc) Sample() (Value, error) {
	return f()
}

// Type describes a registered component. It is immutable once registered.
type Type struct {
	// Name is the stable identifier used by markers (e.g. "wall_clock")
	Name string

	// Description is a human readable summary for reports
	Description string

	Category Category
	Kind     Kind
	Rule     Rule

	// Derive selects how Delta turns two samples into a measurement
	Derive DeltaMode

	// Precision is the default number of decimals in text reports
	Precision int

	// Sampler provides the raw readings
	Sampler Sampler
}

// Sample reads the component's current value.
func (t *Type) Sample() (Value, error) {
	if t.Sampler == nil {
		return 0, unavailable(t.Name, "no sampler configured")
	}
	return t.Sampler.Sample()
}

// Combine merges two accumulated values according to the component's rule.
func (t *Type) Combine(a, b Value) Value {
	switch t.Rule {
	case RuleMax:
		return math.Max(a, b)
	case RuleMin:
		return math.Min(a, b)
	default:
		return a + b
	}
}

// Delta derives a measurement from a start and a stop sample.
func (t *Type) Delta(start, stop Value) Value {
	switch t.Derive {
	case DeltaPeak:
		return math.Max(start, stop)
	case DeltaInstant:
		return stop
	default:
		return stop - start
	}
}

// IsTiming reports whether the component measures elapsed time.
func (t *Type) IsTiming() bool {
	return t.Category == CategoryTiming
}

// String returns the component name.
func (t *Type) String() string {
	return t.Name
}
