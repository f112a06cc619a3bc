package prof

import (
	"context"
	"os"
	"sync"

	"github.com/wesleyorama2/markprof/internal/component"
	"github.com/wesleyorama2/markprof/internal/fault"
	"github.com/wesleyorama2/markprof/internal/profiler"
	"github.com/wesleyorama2/markprof/internal/report"
	"github.com/wesleyorama2/markprof/internal/settings"
)

type (
	Manager              = profiler.Manager
	Thread               = profiler.Thread
	Marker               = profiler.Marker
	Option               = profiler.Option
	MarkerOption         = profiler.MarkerOption
	MarkerStateError     = profiler.MarkerStateError
	ComponentSetProvider = profiler.ComponentSetProvider
	Static               = profiler.Static
	Env                  = profiler.Env
	ProviderFunc         = profiler.ProviderFunc
	SettingsProvider     = profiler.SettingsProvider

	Settings  = settings.Settings
	Registry  = component.Registry
	Component = component.Type
	Value     = component.Value

	Document = report.Document
	Node     = report.Node
)

// GlobalBundle expands to the global_components setting.
const GlobalBundle = profiler.GlobalBundle

var (
	ErrSamplerUnavailable = fault.ErrSamplerUnavailable
	ErrMarkerState        = fault.ErrMarkerState
	ErrStackCorruption    = fault.ErrStackCorruption
	ErrPostFinalizeAccess = fault.ErrPostFinalizeAccess
	ErrConfiguration      = fault.ErrConfiguration
)

var (
	WithLogger       = profiler.WithLogger
	WithSettings     = profiler.WithSettings
	WithRegistry     = profiler.WithRegistry
	WithOutput       = profiler.WithOutput
	WithEnvironment  = profiler.WithEnvironment
	WithLaunchTime   = profiler.WithLaunchTime
	WithFlat         = profiler.WithFlat
	WithTimeline     = profiler.WithTimeline
	DefaultSettings  = settings.Default
	LoadSettings     = settings.LoadConfig
	NewRegistry      = component.NewRegistry
	WithThread       = profiler.WithThread
	ThreadFrom       = profiler.ThreadFrom
	Scope            = profiler.Scope
	WrapFunc         = profiler.WrapFunc
	ParseDocument    = report.ParseDocument
	ValidateDocument = report.Validate
)

// New creates a manager.
func New(opts ...Option) (*Manager, error) {
	return profiler.New(opts...)
}

// ScopeValue measures fn as region key on the thread carried by ctx.
func ScopeValue[T any](ctx context.Context, key string, provider ComponentSetProvider, fn func(context.Context) (T, error), opts ...MarkerOption) (T, error) {
	return profiler.ScopeValue(ctx, key, provider, fn, opts...)
}

// Wrap returns fn instrumented as a region on the thread carried by the
// call's context.
func Wrap[A, R any](key string, provider ComponentSetProvider, fn func(context.Context, A) (R, error), opts ...MarkerOption) func(context.Context, A) (R, error) {
	return profiler.Wrap(key, provider, fn, opts...)
}

var (
	defaultOnce sync.Once
	defaultMgr  *Manager
	defaultErr  error
)

// Default returns the process-wide manager, created on first use with the
// default settings and MARKPROF_* environment overrides.
func Default() (*Manager, error) {
	defaultOnce.Do(func() {
		defaultMgr, defaultErr = profiler.New(profiler.WithEnvironment(os.LookupEnv))
	})
	return defaultMgr, defaultErr
}

// Init records the program invocation on the default manager.
func Init(args ...string) error {
	mgr, err := Default()
	if err != nil {
		return err
	}
	mgr.Init(args...)
	return nil
}

// Finalize finalizes the default manager.
func Finalize() error {
	mgr, err := Default()
	if err != nil {
		return err
	}
	return mgr.Finalize()
}

// NewThread returns a thread handle of the default manager.
func NewThread() (*Thread, error) {
	mgr, err := Default()
	if err != nil {
		return nil, err
	}
	return mgr.NewThread(), nil
}

// MustThread is NewThread for programs that cannot continue without
// instrumentation. It panics when the default manager cannot be created.
func MustThread() *Thread {
	t, err := NewThread()
	if err != nil {
		panic(err)
	}
	return t
}
