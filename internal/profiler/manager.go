// Package profiler is the engine's entry point: it owns the settings, the
// per-component storages and the thread handles markers are opened on.
//
// A Manager is an explicit context. Application code creates one (or uses
// the default manager of the public prof package), obtains one Thread per
// goroutine and opens markers on it:
//
//	mgr, _ := profiler.New()
//	mgr.Init(os.Args...)
//	t := mgr.NewThread()
//
//	m, _ := t.Begin("solve", profiler.Static{"wall_clock", "peak_rss"})
//	solve()
//	_ = m.Stop()
//
//	_ = mgr.Finalize()
//
// Finalize merges every thread's data, builds the report document and writes
// it to the console and to the output directory according to the settings.
package profiler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/wesleyorama2/markprof/internal/component"
	"github.com/wesleyorama2/markprof/internal/fault"
	"github.com/wesleyorama2/markprof/internal/report"
	"github.com/wesleyorama2/markprof/internal/settings"
	"github.com/wesleyorama2/markprof/internal/storage"
)

// Manager coordinates settings, storages and output.
//
// # Thread Safety
//
// Manager is safe for concurrent use. Storages are created lazily and
// exactly once per component type, even when several threads start their
// first marker for that type at the same time.
type Manager struct {
	log      zerolog.Logger
	logSet   bool
	registry *component.Registry
	stdout   io.Writer
	launch   time.Time

	initial     *settings.Settings
	lookupEnv   func(string) (string, bool)
	storageOpts []storage.Option

	settings atomic.Pointer[settings.Settings]

	// storages maps component names to *storageEntry
	storages sync.Map
	orderMu  sync.Mutex
	order    []*storageEntry

	threadIDs atomic.Uint64

	// degraded holds the names of components whose sampler failure was logged
	degraded sync.Map

	mu       sync.Mutex
	commands [][]string
	metadata map[string]any

	finalizeOnce sync.Once
	finalized    atomic.Bool
	result       *report.Document
}

type storageEntry struct {
	once  sync.Once
	store *storage.Storage
}

// New creates a manager. Settings come from WithSettings (or the defaults),
// overridden by WithEnvironment, and must validate.
func New(opts ...Option) (*Manager, error) {
	m := &Manager{
		stdout:   os.Stdout,
		launch:   time.Now(),
		metadata: make(map[string]any),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = component.NewRegistry()
	}

	s := settings.Default()
	if m.initial != nil {
		s = m.initial.Clone()
	}
	if m.lookupEnv != nil {
		if err := settings.ApplyEnv(&s, m.lookupEnv); err != nil {
			return nil, err
		}
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	m.settings.Store(&s)

	if !m.logSet {
		m.log = defaultLogger(os.Stderr, s.Verbose)
	}
	return m, nil
}

// Registry returns the component registry.
func (m *Manager) Registry() *component.Registry {
	return m.registry
}

// Logger returns the manager's logger.
func (m *Manager) Logger() zerolog.Logger {
	return m.log
}

// LaunchTime returns the time the manager was created.
func (m *Manager) LaunchTime() time.Time {
	return m.launch
}

// Init records a program invocation. It may be called any number of times;
// every call appends args to the command history of the report.
func (m *Manager) Init(args ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands = append(m.commands, slices.Clone(args))
	m.log.Debug().Strs("args", args).Msg("initialized")
}

// AddMetadata stores a key/value pair in the report document.
func (m *Manager) AddMetadata(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metadata[key] = value
}

// Settings returns a copy of the current settings.
func (m *Manager) Settings() settings.Settings {
	return m.settings.Load().Clone()
}

func (m *Manager) snapshot() *settings.Settings {
	return m.settings.Load()
}

// UpdateSettings applies fn to a copy of the current settings and swaps
// the result in once it validates. Markers already started keep the
// snapshot they read; aggregation mode changes only affect new markers.
func (m *Manager) UpdateSettings(fn func(*settings.Settings)) error {
	for {
		cur := m.settings.Load()
		next := cur.Clone()
		fn(&next)
		if err := next.Validate(); err != nil {
			return fmt.Errorf("invalid settings: %w", err)
		}
		if !m.settings.CompareAndSwap(cur, &next) {
			continue
		}
		if (cur.FlatProfile != next.FlatProfile || cur.TimelineProfile != next.TimelineProfile) && m.hasData() {
			m.log.Warn().
				Bool("flat_profile", next.FlatProfile).
				Bool("timeline_profile", next.TimelineProfile).
				Msg("aggregation mode changed after data was recorded; existing records keep their mode")
		}
		return nil
	}
}

// AddComponents appends names to the default component set.
func (m *Manager) AddComponents(names ...string) error {
	for _, name := range names {
		if _, err := m.registry.Resolve(name); err != nil {
			return err
		}
	}
	return m.UpdateSettings(func(s *settings.Settings) {
		for _, name := range names {
			if !slices.Contains(s.GlobalComponents, name) {
				s.GlobalComponents = append(s.GlobalComponents, name)
			}
		}
	})
}

// RemoveComponents removes names from the default component set.
func (m *Manager) RemoveComponents(names ...string) error {
	return m.UpdateSettings(func(s *settings.Settings) {
		s.GlobalComponents = slices.DeleteFunc(s.GlobalComponents, func(c string) bool {
			return slices.Contains(names, c)
		})
	})
}

// NewThread returns a handle for a new thread of execution. A Thread must
// be used by one goroutine at a time.
func (m *Manager) NewThread() *Thread {
	return newThread(m, m.threadIDs.Add(1)-1)
}

// storage returns the storage of a component, creating it on first use.
// No storage is created once Finalize has started.
func (m *Manager) storage(ct *component.Type) (*storage.Storage, error) {
	v, _ := m.storages.LoadOrStore(ct.Name, &storageEntry{})
	e := v.(*storageEntry)
	e.once.Do(func() {
		m.orderMu.Lock()
		defer m.orderMu.Unlock()
		if m.finalized.Load() {
			return
		}
		e.store = storage.New(ct, m.storageOptions()...)
		m.order = append(m.order, e)
		m.log.Debug().Str("component", ct.Name).Msg("storage created")
	})
	if e.store == nil {
		return nil, fmt.Errorf("create storage %s: %w", ct.Name, fault.ErrPostFinalizeAccess)
	}
	return e.store, nil
}

// storageOptions returns the options for a new storage. Histograms are only
// kept when percentiles are printed; explicit WithStorageOptions win.
func (m *Manager) storageOptions() []storage.Option {
	opts := make([]storage.Option, 0, len(m.storageOpts)+1)
	if !m.snapshot().PrintPercentiles {
		opts = append(opts, storage.WithoutHistograms())
	}
	return append(opts, m.storageOpts...)
}

// Storages returns the live storages in creation order.
func (m *Manager) Storages() []*storage.Storage {
	m.orderMu.Lock()
	defer m.orderMu.Unlock()

	out := make([]*storage.Storage, len(m.order))
	for i, e := range m.order {
		out[i] = e.store
	}
	return out
}

func (m *Manager) hasData() bool {
	for _, s := range m.Storages() {
		if s.HasData() {
			return true
		}
	}
	return false
}

// sample reads a component, substituting zero when its sampler fails. The
// first failure of each component is logged.
func (m *Manager) sample(ct *component.Type) (component.Value, bool) {
	v, err := ct.Sample()
	if err == nil {
		return v, false
	}
	if _, logged := m.degraded.LoadOrStore(ct.Name, struct{}{}); !logged {
		ev := m.log.Warn()
		if !errors.Is(err, fault.ErrSamplerUnavailable) {
			ev = m.log.Error()
		}
		ev.Err(err).Str("component", ct.Name).Msg("sampler failed, recording zero values")
	}
	return 0, true
}

// RenderOptions returns the report rendering options for the current
// settings. Colors are used only when console output goes to a terminal.
func (m *Manager) RenderOptions() storage.RenderOptions {
	s := m.snapshot()
	colors := report.NoColorScheme()
	if !s.NoColor && report.IsTerminal(m.stdout) {
		colors = report.DefaultColorScheme()
	}
	return storage.RenderOptionsFrom(*s, colors)
}

// Get returns the report nodes of one component: the call tree in
// depth-first order when hierarchy is set, the flat table otherwise.
// Before Finalize the nodes reflect the live data.
func (m *Manager) Get(name string, hierarchy bool) ([]report.Node, error) {
	if _, err := m.registry.Resolve(name); err != nil {
		return nil, err
	}

	var comp *report.Component
	if doc := m.Results(); doc != nil {
		comp = doc.Components[name]
	} else {
		for _, st := range m.Storages() {
			if st.Type().Name == name {
				comp = st.Report(m.RenderOptions())
				break
			}
		}
	}
	if comp == nil {
		return []report.Node{}, nil
	}
	if hierarchy {
		return slices.Clone(comp.Graph), nil
	}
	return slices.Clone(comp.Flat), nil
}

// Finalized reports whether Finalize has run.
func (m *Manager) Finalized() bool {
	return m.finalized.Load()
}

// Results returns the document built by Finalize, or nil before it.
func (m *Manager) Results() *report.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.result
}

// Finalize merges every storage in creation order, builds the report
// document and writes output according to the settings. It runs once;
// later calls return nil. Storages that excluded corrupted threads, and
// output that could not be written, are reported in the returned error.
func (m *Manager) Finalize() error {
	var err error
	m.finalizeOnce.Do(func() {
		err = m.finalize()
	})
	return err
}

func (m *Manager) finalize() error {
	m.orderMu.Lock()
	m.finalized.Store(true)
	m.orderMu.Unlock()

	s := m.snapshot()
	opts := m.RenderOptions()

	m.mu.Lock()
	doc := report.NewDocument(s.OutputLabel, m.launch)
	for _, args := range m.commands {
		doc.Commands = append(doc.Commands, slices.Clone(args))
	}
	if len(m.metadata) > 0 {
		doc.Metadata = make(map[string]any, len(m.metadata))
		for k, v := range m.metadata {
			doc.Metadata[k] = v
		}
	}
	m.mu.Unlock()

	var errs []error
	for _, st := range m.Storages() {
		if err := st.MergeThreads(); err != nil {
			m.log.Error().Err(err).Str("component", st.Type().Name).Msg("threads excluded from merge")
			errs = append(errs, err)
		}
		doc.Add(st.Report(opts))
	}

	m.mu.Lock()
	m.result = doc
	m.mu.Unlock()

	if s.AutoOutput {
		if err := m.emit(doc, s, opts); err != nil {
			errs = append(errs, err)
		}
	}

	m.release()
	return errors.Join(errs...)
}

// emit prints and writes the finalized document.
func (m *Manager) emit(doc *report.Document, s *settings.Settings, opts storage.RenderOptions) error {
	var errs []error

	if s.CoutOutput && len(doc.Components) > 0 {
		if err := report.WriteText(m.stdout, doc, opts.Text); err != nil {
			errs = append(errs, fmt.Errorf("failed to print report: %w", err))
		}
	}

	if !s.FileOutput {
		return errors.Join(errs...)
	}

	if s.JSONOutput {
		data, err := report.MarshalDocument(doc)
		if err == nil {
			err = m.writeOutput(s, ".json", data)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}

	if s.TextOutput {
		text := opts.Text
		text.Colors = report.NoColorScheme()
		var buf bytes.Buffer
		err := report.WriteText(&buf, doc, text)
		if err == nil {
			err = m.writeOutput(s, ".txt", buf.Bytes())
		}
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (m *Manager) writeOutput(s *settings.Settings, ext string, data []byte) error {
	path := s.ComposeOutputFilename(s.OutputLabel, ext, m.launch)
	if err := report.WriteFile(path, data); err != nil {
		return err
	}
	m.log.Info().Str("path", path).Int("bytes", len(data)).Msg("report written")
	return nil
}

// release drops the storages once their results are in the document.
func (m *Manager) release() {
	m.orderMu.Lock()
	m.order = nil
	m.orderMu.Unlock()
	m.storages.Range(func(key, _ any) bool {
		m.storages.Delete(key)
		return true
	})
}
