package storage

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/wesleyorama2/markprof/internal/component"
	"github.com/wesleyorama2/markprof/internal/report"
	"github.com/wesleyorama2/markprof/internal/settings"
)

// Format is a serialization format.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// RenderOptions controls unit conversion and text layout.
type RenderOptions struct {
	TimingUnit settings.Unit
	MemoryUnit settings.Unit

	// Percentiles includes histogram percentiles for timing nodes
	Percentiles bool

	// Text is used by FormatText
	Text report.TextOptions
}

// DefaultRenderOptions reports time in seconds and memory in megabytes.
func DefaultRenderOptions() RenderOptions {
	s := settings.Default()
	return RenderOptions{
		TimingUnit: s.TimingUnit(),
		MemoryUnit: s.MemoryUnit(),
		Text:       report.DefaultTextOptions(),
	}
}

// RenderOptionsFrom derives render options from settings.
func RenderOptionsFrom(s settings.Settings, colors *report.ColorScheme) RenderOptions {
	return RenderOptions{
		TimingUnit:  s.TimingUnit(),
		MemoryUnit:  s.MemoryUnit(),
		Percentiles: s.PrintPercentiles,
		Text: report.TextOptions{
			Precision:        s.Precision,
			Width:            s.Width,
			PrintCount:       s.PrintCount,
			PrintMean:        s.PrintMean,
			PrintStats:       s.PrintStats,
			PrintPercentiles: s.PrintPercentiles,
			Colors:           colors,
		},
	}
}

func (o RenderOptions) unitFor(ct *component.Type) settings.Unit {
	switch ct.Category {
	case component.CategoryTiming:
		return o.TimingUnit
	case component.CategoryMemory:
		return o.MemoryUnit
	default:
		return settings.Unit{Label: "count", Scale: 1}
	}
}

// Report converts the current view into its serialized form.
func (s *Storage) Report(opts RenderOptions) *report.Component {
	ct := s.typ
	unit := opts.unitFor(ct)
	if unit.Scale == 0 {
		unit.Scale = 1
	}
	res := s.view()

	comp := &report.Component{
		Name:        ct.Name,
		Description: ct.Description,
		Category:    string(ct.Category),
		Kind:        string(ct.Kind),
		Rule:        string(ct.Rule),
		Unit:        unit.Label,
		UnitValue:   unit.Scale,
		Precision:   ct.Precision,
		Threads:     res.threads,
		Records:     res.tree.Stats.Count,
		Graph:       []report.Node{},
	}

	res.tree.Walk(func(path []string, n *Node) {
		node := reportNode(strings.Join(path, "/"), n.Key, n.Depth, n.Stats, unit.Scale)
		if opts.Percentiles && n.hist != nil && n.hist.TotalCount() > 0 {
			p := percentilesNanos(n.hist)
			node.Percentiles = &report.Percentiles{
				P50: p[0] / unit.Scale,
				P90: p[1] / unit.Scale,
				P95: p[2] / unit.Scale,
				P99: p[3] / unit.Scale,
			}
		}
		comp.Degraded = comp.Degraded || n.Stats.Degraded
		comp.Graph = append(comp.Graph, node)
	})

	for _, e := range s.flatOf(res) {
		comp.Flat = append(comp.Flat, reportNode(e.Key, e.Key, 0, e.Stats, unit.Scale))
		comp.Degraded = comp.Degraded || e.Stats.Degraded
	}

	for _, ev := range res.timeline {
		comp.Timeline = append(comp.Timeline, report.Event{
			Seq:      ev.Seq,
			Thread:   ev.Thread,
			Prefix:   strings.Join(ev.Path, "/"),
			Key:      ev.Key,
			Depth:    len(ev.Path),
			Value:    ev.Value / unit.Scale,
			Start:    ev.Start / unit.Scale,
			Stop:     ev.Stop / unit.Scale,
			Degraded: ev.Degraded,
		})
		comp.Degraded = comp.Degraded || ev.Degraded
	}

	return comp
}

func reportNode(prefix, key string, depth int, st Stats, scale float64) report.Node {
	return report.Node{
		Prefix:   prefix,
		Key:      key,
		Depth:    depth,
		Count:    st.Count,
		Value:    st.Value / scale,
		Sum:      st.Sum / scale,
		Min:      st.Min / scale,
		Max:      st.Max / scale,
		Mean:     st.Mean() / scale,
		StdDev:   st.StdDev() / scale,
		Degraded: st.Degraded,
	}
}

// Serialize renders the storage as JSON or as a column-aligned table.
func (s *Storage) Serialize(format Format, opts RenderOptions) ([]byte, error) {
	comp := s.Report(opts)

	switch format {
	case FormatJSON:
		return report.MarshalComponent(comp)
	case FormatText:
		var buf bytes.Buffer
		if err := report.WriteComponentText(&buf, comp, opts.Text); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown serialization format %q", format)
	}
}
