package profiler

import (
	"strconv"

	"github.com/wesleyorama2/markprof/internal/callstack"
	"github.com/wesleyorama2/markprof/internal/component"
	"github.com/wesleyorama2/markprof/internal/storage"
)

// Thread is one thread of execution: it owns a call stack and records into
// its own share of every storage.
//
// A Thread is not safe for concurrent use. Create one per goroutine with
// Manager.NewThread and pass it along directly or through a context (see
// WithThread).
type Thread struct {
	id       uint64
	mgr      *Manager
	tracker  *callstack.Tracker
	partials map[string]*storage.Partial

	// regions holds the markers opened by PushRegion, per key
	regions map[string][]*Marker

	// records holds the markers opened by BeginRecord
	records    map[uint64]*Marker
	nextRecord uint64
}

func newThread(mgr *Manager, id uint64) *Thread {
	return &Thread{
		id:       id,
		mgr:      mgr,
		tracker:  callstack.New(),
		partials: make(map[string]*storage.Partial),
		regions:  make(map[string][]*Marker),
		records:  make(map[uint64]*Marker),
	}
}

// ID returns the thread id, unique within the manager.
func (t *Thread) ID() uint64 {
	return t.id
}

// Manager returns the manager the thread belongs to.
func (t *Thread) Manager() *Manager {
	return t.mgr
}

// Depth returns the number of markers currently open on the thread.
func (t *Thread) Depth() int {
	return t.tracker.Depth()
}

// Err returns the call stack corruption that poisoned the thread, if any.
func (t *Thread) Err() error {
	return t.tracker.Err()
}

// NewMarker creates a stopped marker. A nil provider measures the
// settings' global_components.
func (t *Thread) NewMarker(key string, provider ComponentSetProvider, opts ...MarkerOption) *Marker {
	m := &Marker{
		thread:   t,
		key:      key,
		provider: provider,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Begin creates and starts a marker. The caller stops it, typically with
// defer m.Stop().
func (t *Thread) Begin(key string, provider ComponentSetProvider, opts ...MarkerOption) (*Marker, error) {
	m := t.NewMarker(key, provider, opts...)
	if err := m.Start(); err != nil {
		return nil, err
	}
	return m, nil
}

// PushRegion starts a marker for the global components, to be closed by
// PopRegion with the same key.
func (t *Thread) PushRegion(key string) error {
	m, err := t.Begin(key, SettingsProvider{})
	if err != nil {
		return err
	}
	t.regions[key] = append(t.regions[key], m)
	return nil
}

// PopRegion stops the innermost region opened by PushRegion with key.
func (t *Thread) PopRegion(key string) error {
	stack := t.regions[key]
	if len(stack) == 0 {
		return &MarkerStateError{Key: key, Op: "pop region", Reason: "no open region"}
	}
	m := stack[len(stack)-1]
	if len(stack) == 1 {
		delete(t.regions, key)
	} else {
		t.regions[key] = stack[:len(stack)-1]
	}
	return m.Stop()
}

// BeginRecord starts a marker for the global components and returns an id
// for EndRecord.
func (t *Thread) BeginRecord(key string) (uint64, error) {
	m, err := t.Begin(key, SettingsProvider{})
	if err != nil {
		return 0, err
	}
	t.nextRecord++
	t.records[t.nextRecord] = m
	return t.nextRecord, nil
}

// EndRecord stops the marker started by BeginRecord.
func (t *Thread) EndRecord(id uint64) error {
	m, ok := t.records[id]
	if !ok {
		return &MarkerStateError{Key: "#" + strconv.FormatUint(id, 10), Op: "end record", Reason: "unknown record id"}
	}
	delete(t.records, id)
	return m.Stop()
}

// partial returns the thread's share of the component's storage.
func (t *Thread) partial(ct *component.Type) (*storage.Partial, error) {
	if p, ok := t.partials[ct.Name]; ok {
		return p, nil
	}
	st, err := t.mgr.storage(ct)
	if err != nil {
		return nil, err
	}
	p := st.Attach(t.id)
	t.partials[ct.Name] = p
	return p, nil
}

// poison excludes the thread's data from every storage.
func (t *Thread) poison(err error) {
	for _, p := range t.partials {
		p.Poison(err)
	}
	t.mgr.log.Error().Err(err).Uint64("thread", t.id).Msg("call stack corrupted, thread data will be excluded")
}
