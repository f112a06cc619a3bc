package profiler

import (
	"errors"
	"fmt"

	"github.com/wesleyorama2/markprof/internal/callstack"
	"github.com/wesleyorama2/markprof/internal/component"
	"github.com/wesleyorama2/markprof/internal/fault"
	"github.com/wesleyorama2/markprof/internal/storage"
)

// MarkerStateError reports an unbalanced Start/Stop call.
type MarkerStateError struct {
	// Key is the marker's region name
	Key string

	// Op is the rejected operation
	Op string

	// Reason describes the marker state
	Reason string
}

func (e *MarkerStateError) Error() string {
	return fmt.Sprintf("marker %q: %s: %s", e.Key, e.Op, e.Reason)
}

// Unwrap classifies the error as a marker state error.
func (e *MarkerStateError) Unwrap() error {
	return fault.ErrMarkerState
}

// MarkerOption configures a marker.
type MarkerOption func(*Marker)

// WithFlat overrides the flat_profile setting for one marker.
func WithFlat(flat bool) MarkerOption {
	return func(m *Marker) {
		m.flat = &flat
	}
}

// WithTimeline overrides the timeline_profile setting for one marker.
func WithTimeline(timeline bool) MarkerOption {
	return func(m *Marker) {
		m.timeline = &timeline
	}
}

// measurement is one component being measured by a running marker.
type measurement struct {
	typ      *component.Type
	partial  *storage.Partial
	start    component.Value
	degraded bool
}

// Marker measures one named region for a set of components.
//
// A Marker belongs to the Thread that created it and must be started and
// stopped on that thread. A stopped marker may be started again; each
// Start/Stop pair produces one record per component.
type Marker struct {
	thread   *Thread
	key      string
	provider ComponentSetProvider
	flat     *bool
	timeline *bool

	running  bool
	disabled bool
	mode     storage.Mode
	frame    *callstack.Frame
	active   []measurement
}

// Key returns the marker's region name.
func (m *Marker) Key() string {
	return m.key
}

// Running reports whether the marker has been started and not stopped.
func (m *Marker) Running() bool {
	return m.running
}

// Start resolves the component set, opens the region on the thread's call
// stack and samples every component.
func (m *Marker) Start() error {
	if m.running {
		return &MarkerStateError{Key: m.key, Op: "start", Reason: "already started"}
	}

	t := m.thread
	mgr := t.mgr
	if mgr.Finalized() {
		return fmt.Errorf("start marker %q: %w", m.key, fault.ErrPostFinalizeAccess)
	}

	s := mgr.snapshot()
	if !s.Enabled {
		m.running, m.disabled = true, true
		return nil
	}

	types, err := mgr.resolveComponents(m.provider, s)
	if err != nil {
		return fmt.Errorf("start marker %q: %w", m.key, err)
	}

	flat, timeline := s.Mode()
	if m.flat != nil {
		flat = *m.flat
	}
	if m.timeline != nil {
		timeline = *m.timeline
	}

	names := make([]string, len(types))
	active := m.active[:0]
	for i, ct := range types {
		names[i] = ct.Name
		p, err := t.partial(ct)
		if err != nil {
			return fmt.Errorf("start marker %q: %w", m.key, err)
		}
		active = append(active, measurement{typ: ct, partial: p})
	}

	frame, err := t.tracker.Push(m.key, flat, timeline, names)
	if err != nil {
		return fmt.Errorf("start marker %q: %w", m.key, err)
	}

	m.mode = storage.Mode{Flat: flat, Timeline: timeline}
	m.frame = frame
	m.active = active
	m.running, m.disabled = true, false

	for i := range m.active {
		m.active[i].start, m.active[i].degraded = mgr.sample(m.active[i].typ)
	}
	return nil
}

// Stop samples every component, closes the region and records one delta
// per component. A LIFO violation poisons the thread: its data is excluded
// from the final report.
func (m *Marker) Stop() error {
	if !m.running {
		return &MarkerStateError{Key: m.key, Op: "stop", Reason: "not started"}
	}
	m.running = false
	if m.disabled {
		return nil
	}

	t := m.thread
	stops := make([]component.Value, len(m.active))
	degraded := make([]bool, len(m.active))
	for i := len(m.active) - 1; i >= 0; i-- {
		stops[i], degraded[i] = t.mgr.sample(m.active[i].typ)
	}

	if err := t.tracker.Pop(m.frame); err != nil {
		t.poison(err)
		return fmt.Errorf("stop marker %q: %w", m.key, err)
	}

	var errs []error
	for i, a := range m.active {
		rec := storage.Record{
			Key:      m.key,
			Parent:   m.frame.Parent,
			Start:    a.start,
			Stop:     stops[i],
			Value:    a.typ.Delta(a.start, stops[i]),
			Mode:     m.mode,
			Degraded: a.degraded || degraded[i],
		}
		if err := a.partial.Record(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
