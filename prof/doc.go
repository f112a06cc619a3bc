// Package prof is the public API of markprof, a component-based
// instrumentation engine.
//
// Regions of a program are measured by markers. Each marker records a set
// of components (wall_clock, cpu_clock, peak_rss, ...) and the engine
// aggregates the deltas per component into a call tree, a flat table or a
// timeline. Finalize merges the data of every thread and writes a JSON and
// a text report.
//
// Basic usage with the default manager:
//
//	func main() {
//	    prof.Init(os.Args...)
//	    defer prof.Finalize()
//
//	    t := prof.MustThread()
//	    m, _ := t.Begin("main", prof.Static{"wall_clock", "cpu_clock"})
//	    defer m.Stop()
//	    ...
//	}
//
// Scoped regions through a context:
//
//	ctx = prof.WithThread(ctx, t)
//	err := prof.Scope(ctx, "load", nil, func(ctx context.Context) error {
//	    return load(ctx)
//	})
//
// Settings are read from MARKPROF_* environment variables by the default
// manager, e.g. MARKPROF_TIMING_UNITS=msec or MARKPROF_FLAT_PROFILE=ON.
package prof
