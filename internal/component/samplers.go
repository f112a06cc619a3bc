package component

import (
	"fmt"
	"runtime"
	"runtime/metrics"
	"time"

	"github.com/wesleyorama2/markprof/internal/fault"
)

// epoch anchors wall_clock readings so values stay well inside float64's
// exact integer range.
var epoch = time.Now()

func unavailable(name, reason string) error {
	return fmt.Errorf("%s: %s: %w", name, reason, fault.ErrSamplerUnavailable)
}

// wallClock reads monotonic elapsed time since process start.
func wallClock() (Value, error) {
	return Value(time.Since(epoch).Nanoseconds()), nil
}

const heapAllocsMetric = "/gc/heap/allocs:bytes"

// allocatedBytes reads the cumulative bytes allocated on the Go heap.
func allocatedBytes() (Value, error) {
	sample := []metrics.Sample{{Name: heapAllocsMetric}}
	metrics.Read(sample)
	if sample[0].Value.Kind() != metrics.KindUint64 {
		return 0, unavailable("allocated_bytes", "runtime metric "+heapAllocsMetric+" not supported")
	}
	return Value(sample[0].Value.Uint64()), nil
}

// goroutines reads the number of live goroutines.
func goroutines() (Value, error) {
	return Value(runtime.NumGoroutine()), nil
}

// Builtins returns the component types every registry starts with.
func Builtins() []*Type {
	return []*Type{
		{
			Name:        "wall_clock",
			Description: "Real-clock timer (i.e. wall-clock timer)",
			Category:    CategoryTiming,
			Kind:        KindFloat,
			Rule:        RuleSum,
			Derive:      DeltaDifference,
			Precision:   3,
			Sampler:     SamplerFunc(wallClock),
		},
		{
			Name:        "cpu_clock",
			Description: "Total CPU time spent in both user- and kernel-mode",
			Category:    CategoryTiming,
			Kind:        KindFloat,
			Rule:        RuleSum,
			Derive:      DeltaDifference,
			Precision:   3,
			Sampler:     SamplerFunc(cpuClock),
		},
		{
			Name:        "user_clock",
			Description: "CPU time spent in user-mode",
			Category:    CategoryTiming,
			Kind:        KindFloat,
			Rule:        RuleSum,
			Derive:      DeltaDifference,
			Precision:   3,
			Sampler:     SamplerFunc(userClock),
		},
		{
			Name:        "system_clock",
			Description: "CPU time spent in kernel-mode",
			Category:    CategoryTiming,
			Kind:        KindFloat,
			Rule:        RuleSum,
			Derive:      DeltaDifference,
			Precision:   3,
			Sampler:     SamplerFunc(systemClock),
		},
		{
			Name:        "peak_rss",
			Description: "Measures changes in the high-water mark for the amount of memory allocated in RAM",
			Category:    CategoryMemory,
			Kind:        KindInt,
			Rule:        RuleMax,
			Derive:      DeltaPeak,
			Precision:   3,
			Sampler:     SamplerFunc(peakRSS),
		},
		{
			Name:        "page_rss",
			Description: "Amount of memory allocated in pages of memory",
			Category:    CategoryMemory,
			Kind:        KindInt,
			Rule:        RuleMax,
			Derive:      DeltaInstant,
			Precision:   3,
			Sampler:     SamplerFunc(pageRSS),
		},
		{
			Name:        "allocated_bytes",
			Description: "Bytes allocated on the Go heap",
			Category:    CategoryMemory,
			Kind:        KindInt,
			Rule:        RuleSum,
			Derive:      DeltaDifference,
			Precision:   3,
			Sampler:     SamplerFunc(allocatedBytes),
		},
		{
			Name:        "goroutines",
			Description: "Number of live goroutines when the region closes",
			Category:    CategoryCounter,
			Kind:        KindInt,
			Rule:        RuleMax,
			Derive:      DeltaInstant,
			Precision:   0,
			Sampler:     SamplerFunc(goroutines),
		},
	}
}
