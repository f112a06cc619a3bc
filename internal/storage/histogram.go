package storage

import (
	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/wesleyorama2/markprof/internal/component"
)

// HistogramConfig configures the per-node latency histograms kept for
// timing components. Values are recorded in microseconds.
type HistogramConfig struct {
	// Min is the minimum recordable value in microseconds (default: 1)
	Min int64

	// Max is the maximum recordable value in microseconds (default: 3600000000 = 1 hour)
	Max int64

	// SigFigs is the number of significant figures (default: 2)
	SigFigs int
}

// DefaultHistogramConfig returns the default histogram configuration.
func DefaultHistogramConfig() HistogramConfig {
	return HistogramConfig{
		Min:     1,
		Max:     3600000000, // 1 hour in microseconds
		SigFigs: 2,
	}
}

func (hc *HistogramConfig) newHistogram() *hdrhistogram.Histogram {
	return hdrhistogram.New(hc.Min, hc.Max, hc.SigFigs)
}

// recordNanos records a nanosecond value, clamped to the histogram range.
// NOTE: HDR histogram RecordValue is NOT thread-safe, callers hold the
// owning partial's lock.
func (hc *HistogramConfig) recordNanos(h *hdrhistogram.Histogram, ns component.Value) {
	micros := int64(ns / 1e3)
	if micros < hc.Min {
		micros = hc.Min
	}
	if micros > hc.Max {
		micros = hc.Max
	}
	_ = h.RecordValue(micros)
}

// percentilesNanos returns p50, p90, p95 and p99 in nanoseconds.
func percentilesNanos(h *hdrhistogram.Histogram) [4]float64 {
	return [4]float64{
		float64(h.ValueAtQuantile(50)) * 1e3,
		float64(h.ValueAtQuantile(90)) * 1e3,
		float64(h.ValueAtQuantile(95)) * 1e3,
		float64(h.ValueAtQuantile(99)) * 1e3,
	}
}
