package profiler

import (
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/wesleyorama2/markprof/internal/component"
	"github.com/wesleyorama2/markprof/internal/settings"
	"github.com/wesleyorama2/markprof/internal/storage"
)

// Option configures a Manager.
type Option func(*Manager)

// WithLogger replaces the default console logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) {
		m.log = l
		m.logSet = true
	}
}

// WithSettings sets the initial settings. They are validated by New.
func WithSettings(s settings.Settings) Option {
	return func(m *Manager) {
		s = s.Clone()
		m.initial = &s
	}
}

// WithRegistry sets the component registry used to resolve marker
// components. The default registry holds the built-in components.
func WithRegistry(r *component.Registry) Option {
	return func(m *Manager) {
		m.registry = r
	}
}

// WithOutput sets the writer the console report is printed to
// (default: os.Stdout).
func WithOutput(w io.Writer) Option {
	return func(m *Manager) {
		m.stdout = w
	}
}

// WithEnvironment applies MARKPROF_* overrides read through lookup on top
// of the initial settings, e.g. WithEnvironment(os.LookupEnv).
func WithEnvironment(lookup func(string) (string, bool)) Option {
	return func(m *Manager) {
		m.lookupEnv = lookup
	}
}

// WithStorageOptions configures every storage the manager creates.
func WithStorageOptions(opts ...storage.Option) Option {
	return func(m *Manager) {
		m.storageOpts = append(m.storageOpts, opts...)
	}
}

// WithLaunchTime overrides the launch time recorded in the report and used
// for timestamped output directories.
func WithLaunchTime(t time.Time) Option {
	return func(m *Manager) {
		m.launch = t
	}
}
