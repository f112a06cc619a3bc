package storage

import (
	"math"

	"github.com/wesleyorama2/markprof/internal/component"
)

// Stats accumulates measurements for one tree position or flat key.
// All values are in the component's base unit.
type Stats struct {
	Count int64

	// Value is the combine-rule result of every measurement
	Value float64

	Sum   float64
	Min   float64
	Max   float64
	SumSq float64

	// Degraded is set when any measurement used a fallback value
	Degraded bool
}

func (s *Stats) add(ct *component.Type, v component.Value, degraded bool) {
	if s.Count == 0 {
		s.Value, s.Min, s.Max = v, v, v
	} else {
		s.Value = ct.Combine(s.Value, v)
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.Count++
	s.Sum += v
	s.SumSq += v * v
	s.Degraded = s.Degraded || degraded
}

// merge folds o into s. Value follows the component rule, Min and Max are
// combined componentwise.
func (s *Stats) merge(ct *component.Type, o Stats) {
	s.Degraded = s.Degraded || o.Degraded
	if o.Count == 0 {
		return
	}
	if s.Count == 0 {
		degraded := s.Degraded
		*s = o
		s.Degraded = degraded
		return
	}
	s.Value = ct.Combine(s.Value, o.Value)
	s.Min = math.Min(s.Min, o.Min)
	s.Max = math.Max(s.Max, o.Max)
	s.Count += o.Count
	s.Sum += o.Sum
	s.SumSq += o.SumSq
}

// Mean returns the arithmetic mean of the measurements.
func (s Stats) Mean() float64 {
	if s.Count == 0 {
		return 0
	}
	return s.Sum / float64(s.Count)
}

// StdDev returns the population standard deviation of the measurements.
func (s Stats) StdDev() float64 {
	if s.Count < 2 {
		return 0
	}
	mean := s.Mean()
	variance := s.SumSq/float64(s.Count) - mean*mean
	if variance <= 0 {
		return 0
	}
	return math.Sqrt(variance)
}
