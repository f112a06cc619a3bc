package workload

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/markprof/internal/profiler"
	"github.com/wesleyorama2/markprof/internal/report"
	"github.com/wesleyorama2/markprof/internal/settings"
)

func newManager(t *testing.T) (*profiler.Manager, context.Context) {
	t.Helper()
	s := settings.Default()
	s.AutoOutput = false
	mgr, err := profiler.New(profiler.WithLogger(zerolog.Nop()), profiler.WithSettings(s))
	require.NoError(t, err)
	return mgr, profiler.WithThread(context.Background(), mgr.NewThread())
}

func finalize(t *testing.T, mgr *profiler.Manager) *report.Component {
	t.Helper()
	require.NoError(t, mgr.Finalize())
	comp := mgr.Results().Components["wall_clock"]
	require.NotNil(t, comp)
	return comp
}

func TestFibonacci(t *testing.T) {
	tests := []struct {
		n       int
		want    int
		records int64
	}{
		{n: 0, want: 0, records: 1},
		{n: 1, want: 1, records: 1},
		{n: 5, want: 5, records: 15},
		{n: 10, want: 55, records: 177},
	}

	for _, tt := range tests {
		mgr, ctx := newManager(t)
		got, err := New().Fibonacci(ctx, tt.n)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "fibonacci(%d)", tt.n)

		comp := finalize(t, mgr)
		assert.Equal(t, tt.records, comp.Records, "fibonacci(%d)", tt.n)
	}
}

func TestRun(t *testing.T) {
	mgr, ctx := newManager(t)

	got, err := New().Run(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 7475.0, got)

	comp := finalize(t, mgr)
	assert.Equal(t, int64(18), comp.Records)

	byPrefix := make(map[string]report.Node)
	for _, n := range comp.Graph {
		byPrefix[n.Prefix] = n
	}
	require.Contains(t, byPrefix, "run(5)")
	require.Contains(t, byPrefix, "run(5)/inefficient(5)")
	assert.Equal(t, int64(2), byPrefix["run(5)/fibonacci"].Count)
	assert.Equal(t, 2, byPrefix["run(5)/inefficient(5)"].Depth)
}

func TestRun_NoThread(t *testing.T) {
	_, err := New().Run(context.Background(), 3)
	assert.Error(t, err)
}

func TestInefficient_Bounded(t *testing.T) {
	assert.Equal(t, 0.0, inefficient(0))
	assert.Equal(t, float64(maxInefficientLen)*float64(maxInefficientLen-1)/2, inefficient(200))
}

func TestInefficientLen(t *testing.T) {
	tests := []struct {
		name string
		a, n int
		want int
	}{
		{name: "zero", a: 0, n: 10, want: 0},
		{name: "small", a: 3, n: 3, want: 9},
		{name: "at limit", a: maxInefficientLen, n: 1, want: maxInefficientLen},
		{name: "clamped", a: 200 * 200 * 200, n: 200, want: maxInefficientLen},
		// a*n wraps int64 for n = 65537
		{name: "overflow", a: 65537 * 65537 * 65536, n: 65537, want: maxInefficientLen},
		{name: "negative", a: -5, n: 10, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inefficientLen(tt.a, tt.n))
		})
	}
}

func TestLoops(t *testing.T) {
	mgr, err := profiler.New(profiler.WithLogger(zerolog.Nop()), profiler.WithSettings(func() settings.Settings {
		s := settings.Default()
		s.AutoOutput = false
		return s
	}()))
	require.NoError(t, err)
	th := mgr.NewThread()

	ans, err := Loops(th, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, 11, ans)
	assert.Equal(t, 0, th.Depth())

	comp := finalize(t, mgr)
	prefixes := make([]string, len(comp.Graph))
	for i, n := range comp.Graph {
		prefixes[i] = n.Prefix
	}
	assert.Equal(t, []string{
		"total",
		"total/fib",
		"total/total_loops",
		"total/total_loops/loop_1",
		"total/total_loops/loop_2",
	}, prefixes)
}

func TestTools(t *testing.T) {
	names, err := Tools("peak_rss").Resolve()
	require.NoError(t, err)
	assert.Equal(t, []string{profiler.GlobalBundle, "peak_rss"}, names)
}
