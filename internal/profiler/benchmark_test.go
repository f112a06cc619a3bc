package profiler

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/wesleyorama2/markprof/internal/settings"
)

// =============================================================================
// Marker Benchmarks
// =============================================================================

func benchManager(b *testing.B) *Manager {
	b.Helper()
	s := settings.Default()
	s.AutoOutput = false
	mgr, err := New(WithLogger(zerolog.Nop()), WithSettings(s))
	if err != nil {
		b.Fatal(err)
	}
	return mgr
}

// BenchmarkMarker_StartStop measures one wall_clock region.
func BenchmarkMarker_StartStop(b *testing.B) {
	th := benchManager(b).NewThread()
	m := th.NewMarker("region", Static{"wall_clock"})

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = m.Start()
		_ = m.Stop()
	}
}

// BenchmarkMarker_StartStop_Parallel measures regions on concurrent threads.
//
// Threads never share a partial, so throughput should scale with cores.
func BenchmarkMarker_StartStop_Parallel(b *testing.B) {
	mgr := benchManager(b)

	b.ResetTimer()
	b.ReportAllocs()

	b.RunParallel(func(pb *testing.PB) {
		m := mgr.NewThread().NewMarker("region", Static{"wall_clock"})
		for pb.Next() {
			_ = m.Start()
			_ = m.Stop()
		}
	})
}

// BenchmarkScope measures the context based scope helper.
func BenchmarkScope(b *testing.B) {
	ctx := WithThread(context.Background(), benchManager(b).NewThread())
	fn := func(context.Context) error { return nil }

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = Scope(ctx, "scope", Static{"wall_clock"}, fn)
	}
}
