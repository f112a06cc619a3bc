// Package storage aggregates completed measurements for one component type.
//
// Each Storage keeps one Partial per thread. A thread records only into its
// own Partial, so the hot measurement path never contends with other
// threads; partials are combined by MergeThreads when the manager
// finalizes. Records are placed according to their Mode:
//
//   - tree (default): the node at the record's call path, one node per
//     (key, depth) position
//   - flat: a table keyed by region name alone
//   - timeline: an append-only sequence that never merges records
package storage

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/wesleyorama2/markprof/internal/callstack"
	"github.com/wesleyorama2/markprof/internal/component"
	"github.com/wesleyorama2/markprof/internal/fault"
)

// Mode selects where a record is aggregated.
type Mode struct {
	// Flat bypasses call-tree attribution
	Flat bool

	// Timeline appends the record to the timeline instead of merging it
	Timeline bool
}

// Record is a completed measurement handed over by a marker.
type Record struct {
	Key string

	// Parent is the frame enclosing the marker, nil at the outermost level
	Parent *callstack.Frame

	Start component.Value
	Stop  component.Value
	Value component.Value

	Mode     Mode
	Degraded bool
}

// FlatEntry is one row of the flat table.
type FlatEntry struct {
	Key   string
	Stats Stats
}

// Event is one timeline record.
type Event struct {
	// Seq is the completion order within the storage, starting at 1
	Seq    uint64
	Thread uint64
	Key    string

	// Path is the call path including Key
	Path []string

	Start    component.Value
	Stop     component.Value
	Value    component.Value
	Degraded bool
}

// Option configures a Storage.
type Option func(*Storage)

// WithHistograms overrides the histogram configuration for timing nodes.
func WithHistograms(cfg HistogramConfig) Option {
	return func(s *Storage) {
		s.hist = &cfg
	}
}

// WithoutHistograms disables per-node histograms.
func WithoutHistograms() Option {
	return func(s *Storage) {
		s.hist = nil
	}
}

// Storage owns every measurement of one component type.
//
// # Thread Safety
//
// Storage is safe for concurrent use. Attach is serialized by a mutex that
// is taken once per thread; Partial.Record only takes its own partial's
// lock.
type Storage struct {
	typ  *component.Type
	hist *HistogramConfig

	mu       sync.Mutex
	partials []*Partial
	byThread map[uint64]*Partial

	seq       atomic.Uint64
	recorded  atomic.Bool
	finalized atomic.Bool

	mergeOnce sync.Once
	merged    *result
	mergeErr  error
}

// result is a merged view of a set of partials.
type result struct {
	tree     *Node
	flat     map[string]*FlatEntry
	timeline []Event
	threads  int
}

// New creates the storage for a component type.
func New(t *component.Type, opts ...Option) *Storage {
	hc := DefaultHistogramConfig()
	s := &Storage{
		typ:      t,
		hist:     &hc,
		byThread: make(map[uint64]*Partial),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Type returns the component type this storage aggregates.
func (s *Storage) Type() *component.Type {
	return s.typ
}

// Attach returns the thread's partial, creating it on first use.
func (s *Storage) Attach(thread uint64) *Partial {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.byThread[thread]; ok {
		return p
	}
	p := &Partial{
		storage: s,
		thread:  thread,
		tree:    newRoot(),
		flat:    make(map[string]*FlatEntry),
	}
	s.byThread[thread] = p
	s.partials = append(s.partials, p)
	return p
}

// HasData reports whether any record was accepted.
func (s *Storage) HasData() bool {
	return s.recorded.Load()
}

// Finalized reports whether MergeThreads has run.
func (s *Storage) Finalized() bool {
	return s.finalized.Load()
}

// MergeThreads combines every thread's partial into one process-wide
// result. It runs once; later calls return the first outcome. Partials
// poisoned by a stack corruption are excluded and reported in the error.
// After MergeThreads, Record fails with fault.ErrPostFinalizeAccess.
func (s *Storage) MergeThreads() error {
	s.mergeOnce.Do(func() {
		s.finalized.Store(true)
		s.merged, s.mergeErr = s.collect()
	})
	return s.mergeErr
}

// collect merges the current partials without changing them.
func (s *Storage) collect() (*result, error) {
	s.mu.Lock()
	partials := make([]*Partial, len(s.partials))
	copy(partials, s.partials)
	s.mu.Unlock()

	res := &result{
		tree: newRoot(),
		flat: make(map[string]*FlatEntry),
	}

	var errs []error
	for _, p := range partials {
		p.mu.Lock()
		if p.poisoned != nil {
			errs = append(errs, fmt.Errorf("%s: thread %d excluded from merge: %w", s.typ.Name, p.thread, p.poisoned))
			p.mu.Unlock()
			continue
		}

		res.tree.Stats.Count += p.tree.Stats.Count
		res.tree.mergeChildren(s.typ, s.hist, p.tree)
		for key, e := range p.flat {
			dst, ok := res.flat[key]
			if !ok {
				dst = &FlatEntry{Key: key}
				res.flat[key] = dst
			}
			dst.Stats.merge(s.typ, e.Stats)
		}
		for _, ev := range p.timeline {
			ev.Path = append([]string(nil), ev.Path...)
			res.timeline = append(res.timeline, ev)
		}
		res.threads++
		p.mu.Unlock()
	}

	sort.Slice(res.timeline, func(i, j int) bool {
		return res.timeline[i].Seq < res.timeline[j].Seq
	})

	return res, errors.Join(errs...)
}

// view returns the merged result after finalize, or a fresh merge of the
// live partials before it.
func (s *Storage) view() *result {
	if s.finalized.Load() {
		_ = s.MergeThreads()
		return s.merged
	}
	res, _ := s.collect()
	return res
}

// Tree returns a deep copy of the merged call tree.
func (s *Storage) Tree() *Node {
	return s.view().tree.clone(s.hist)
}

// Flat returns the flat table sorted by key: flat-mode records plus the
// projection of every tree node onto its key.
func (s *Storage) Flat() []FlatEntry {
	return s.flatOf(s.view())
}

func (s *Storage) flatOf(res *result) []FlatEntry {
	table := make(map[string]*FlatEntry, len(res.flat))
	for key, e := range res.flat {
		cp := *e
		table[key] = &cp
	}
	res.tree.Walk(func(_ []string, n *Node) {
		e, ok := table[n.Key]
		if !ok {
			e = &FlatEntry{Key: n.Key}
			table[n.Key] = e
		}
		e.Stats.merge(s.typ, n.Stats)
	})

	out := make([]FlatEntry, 0, len(table))
	for _, e := range table {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Timeline returns every timeline record in completion order.
func (s *Storage) Timeline() []Event {
	res := s.view()
	out := make([]Event, len(res.timeline))
	for i, ev := range res.timeline {
		ev.Path = append([]string(nil), ev.Path...)
		out[i] = ev
	}
	return out
}

// Threads returns the number of threads whose data is included in the
// current view.
func (s *Storage) Threads() int {
	return s.view().threads
}

// Partial is one thread's private share of a Storage.
type Partial struct {
	storage *Storage
	thread  uint64

	mu       sync.Mutex
	tree     *Node
	flat     map[string]*FlatEntry
	timeline []Event
	poisoned error
}

// Thread returns the id of the owning thread.
func (p *Partial) Thread() uint64 {
	return p.thread
}

// Poison marks the partial as corrupt. Its data is excluded from the merge
// and later records are refused.
func (p *Partial) Poison(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.poisoned == nil {
		p.poisoned = err
	}
}

// Record inserts a completed measurement according to its mode.
func (p *Partial) Record(rec Record) error {
	s := p.storage
	ct := s.typ

	p.mu.Lock()
	defer p.mu.Unlock()

	if s.finalized.Load() {
		return fmt.Errorf("record %q into %s: %w", rec.Key, ct.Name, fault.ErrPostFinalizeAccess)
	}
	if p.poisoned != nil {
		return fmt.Errorf("record %q into %s: %w", rec.Key, ct.Name, p.poisoned)
	}

	switch {
	case rec.Mode.Timeline:
		evPath := []string{rec.Key}
		if !rec.Mode.Flat {
			evPath = append(callstack.EventPath(rec.Parent, ct.Name), rec.Key)
		}
		p.timeline = append(p.timeline, Event{
			Seq:      s.seq.Add(1),
			Thread:   p.thread,
			Key:      rec.Key,
			Path:     evPath,
			Start:    rec.Start,
			Stop:     rec.Stop,
			Value:    rec.Value,
			Degraded: rec.Degraded,
		})

	case rec.Mode.Flat:
		e, ok := p.flat[rec.Key]
		if !ok {
			e = &FlatEntry{Key: rec.Key}
			p.flat[rec.Key] = e
		}
		e.Stats.add(ct, rec.Value, rec.Degraded)

	default:
		node := p.tree
		for _, key := range callstack.TreePath(rec.Parent, ct.Name) {
			node = node.child(key)
		}
		node = node.child(rec.Key)
		node.record(ct, s.hist, rec.Value, rec.Degraded)
		p.tree.Stats.Count++
	}

	s.recorded.Store(true)
	return nil
}
