// Package report defines the engine's output artifact and its renderings.
//
// A Document is keyed by component type; each component carries its call
// tree in depth-first order ("graph"), an optional flat table and an
// optional timeline. Values are stored in display units, UnitValue records
// how many base units one display unit holds.
package report

import (
	"time"
)

// Document is the process-wide report written on finalize.
type Document struct {
	// Label is the output label the document was produced under
	Label string `json:"label"`

	// LaunchTime is when the manager was created
	LaunchTime time.Time `json:"launch_time"`

	// Commands holds the arguments of every Init call
	Commands [][]string `json:"commands,omitempty"`

	// Metadata holds user supplied key/value pairs
	Metadata map[string]any `json:"metadata,omitempty"`

	// ComponentOrder lists component names in registration order
	ComponentOrder []string `json:"component_order"`

	// Components maps component type names to their results
	Components map[string]*Component `json:"components"`
}

// Component is the serialized state of one storage instance.
type Component struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category"`
	Kind        string  `json:"kind"`
	Rule        string  `json:"rule"`
	Unit        string  `json:"unit"`
	UnitValue   float64 `json:"unit_value"`
	Precision   int     `json:"precision"`

	// Threads is the number of threads whose data was merged
	Threads int `json:"threads"`

	// Records is the total number of measurements in the call tree
	Records int64 `json:"records"`

	// Degraded is set when any measurement used a fallback value
	Degraded bool `json:"degraded,omitempty"`

	// Graph is the call tree in depth-first order, without the root
	Graph []Node `json:"graph"`

	// Flat is the flat table sorted by key
	Flat []Node `json:"flat,omitempty"`

	// Timeline is every timeline measurement in completion order
	Timeline []Event `json:"timeline,omitempty"`
}

// Node is one aggregated region.
type Node struct {
	// Prefix is the call path joined by "/"
	Prefix string `json:"prefix"`
	Key    string `json:"key"`
	Depth  int    `json:"depth"`
	Count  int64  `json:"count"`

	// Value is the combine-rule result of every measurement
	Value float64 `json:"value"`

	Sum    float64 `json:"sum"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`

	Percentiles *Percentiles `json:"percentiles,omitempty"`
	Degraded    bool         `json:"degraded,omitempty"`
}

// Percentiles are latency percentiles of a timing node.
type Percentiles struct {
	P50 float64 `json:"p50"`
	P90 float64 `json:"p90"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

// Event is a single unmerged timeline measurement.
type Event struct {
	Seq      uint64  `json:"seq"`
	Thread   uint64  `json:"thread"`
	Prefix   string  `json:"prefix"`
	Key      string  `json:"key"`
	Depth    int     `json:"depth"`
	Value    float64 `json:"value"`
	Start    float64 `json:"start"`
	Stop     float64 `json:"stop"`
	Degraded bool    `json:"degraded,omitempty"`
}

// NewDocument creates an empty document.
func NewDocument(label string, launch time.Time) *Document {
	return &Document{
		Label:          label,
		LaunchTime:     launch,
		ComponentOrder: []string{},
		Components:     make(map[string]*Component),
	}
}

// Add appends a component, keeping registration order.
func (d *Document) Add(c *Component) {
	if _, exists := d.Components[c.Name]; !exists {
		d.ComponentOrder = append(d.ComponentOrder, c.Name)
	}
	d.Components[c.Name] = c
}

// Ordered returns the components in registration order. Components missing
// from ComponentOrder follow in map order.
func (d *Document) Ordered() []*Component {
	out := make([]*Component, 0, len(d.Components))
	seen := make(map[string]bool, len(d.Components))
	for _, name := range d.ComponentOrder {
		if c, ok := d.Components[name]; ok && !seen[name] {
			out = append(out, c)
			seen[name] = true
		}
	}
	for name, c := range d.Components {
		if !seen[name] {
			out = append(out, c)
		}
	}
	return out
}
