package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/markprof/internal/callstack"
	"github.com/wesleyorama2/markprof/internal/component"
	"github.com/wesleyorama2/markprof/internal/fault"
	"github.com/wesleyorama2/markprof/internal/report"
)

func timingType() *component.Type {
	return &component.Type{
		Name:     "wall_clock",
		Category: component.CategoryTiming,
		Kind:     component.KindFloat,
		Rule:     component.RuleSum,
		Derive:   component.DeltaDifference,
	}
}

var wallOnly = []string{"wall_clock"}

// region opens a frame, runs body, closes the frame and records value.
func region(t *testing.T, tr *callstack.Tracker, p *Partial, key string, value float64, mode Mode, body func()) {
	t.Helper()
	f, err := tr.Push(key, mode.Flat, mode.Timeline, wallOnly)
	require.NoError(t, err)
	if body != nil {
		body()
	}
	require.NoError(t, tr.Pop(f))
	require.NoError(t, p.Record(Record{Key: key, Parent: f.Parent, Stop: value, Value: value, Mode: mode}))
}

func TestStorage_NestedTree(t *testing.T) {
	s := New(timingType())
	p := s.Attach(0)
	tr := callstack.New()

	region(t, tr, p, "main", 100, Mode{}, func() {
		region(t, tr, p, "a", 10, Mode{}, func() {
			region(t, tr, p, "leaf", 1, Mode{}, nil)
			region(t, tr, p, "leaf", 2, Mode{}, nil)
		})
		region(t, tr, p, "b", 20, Mode{}, func() {
			region(t, tr, p, "leaf", 4, Mode{}, nil)
		})
	})

	tree := s.Tree()
	assert.Equal(t, 3, tree.MaxDepth())
	assert.Equal(t, int64(6), tree.Stats.Count)

	main := tree.Child("main")
	require.NotNil(t, main)
	assert.Equal(t, []string{"a", "b"}, keys(main.Children()))

	aLeaf := main.Child("a").Child("leaf")
	assert.Equal(t, int64(2), aLeaf.Stats.Count)
	assert.Equal(t, 3.0, aLeaf.Stats.Sum)
	assert.Equal(t, 1.0, aLeaf.Stats.Min)
	assert.Equal(t, 2.0, aLeaf.Stats.Max)
	assert.Equal(t, 3, aLeaf.Depth)

	bLeaf := main.Child("b").Child("leaf")
	assert.Equal(t, int64(1), bLeaf.Stats.Count)
	assert.Equal(t, 4.0, bLeaf.Stats.Sum)
}

func TestStorage_RecursionKeepsDepths(t *testing.T) {
	s := New(timingType())
	p := s.Attach(0)
	tr := callstack.New()

	var recurse func(n int)
	recurse = func(n int) {
		region(t, tr, p, "rec", 1, Mode{}, func() {
			if n > 1 {
				recurse(n - 1)
			}
		})
	}
	recurse(4)

	tree := s.Tree()
	assert.Equal(t, 4, tree.MaxDepth())
	node := tree
	for depth := 1; depth <= 4; depth++ {
		node = node.Child("rec")
		require.NotNil(t, node, "depth %d", depth)
		assert.Equal(t, int64(1), node.Stats.Count)
	}
}

func TestStorage_FlatModeMergesDepths(t *testing.T) {
	s := New(timingType())
	p := s.Attach(0)
	tr := callstack.New()
	flat := Mode{Flat: true}

	const n = 7
	var recurse func(k int)
	recurse = func(k int) {
		region(t, tr, p, "rec", 2, flat, func() {
			if k > 1 {
				recurse(k - 1)
			}
		})
	}
	recurse(n)

	entries := s.Flat()
	require.Len(t, entries, 1)
	assert.Equal(t, "rec", entries[0].Key)
	assert.Equal(t, int64(n), entries[0].Stats.Count)
	assert.Equal(t, 2.0*n, entries[0].Stats.Sum)
	assert.Equal(t, 0, s.Tree().Len())
}

func TestStorage_FlatProjectionOfTree(t *testing.T) {
	s := New(timingType())
	p := s.Attach(0)
	tr := callstack.New()

	region(t, tr, p, "outer", 10, Mode{}, func() {
		region(t, tr, p, "work", 1, Mode{}, nil)
		region(t, tr, p, "mid", 5, Mode{}, func() {
			region(t, tr, p, "work", 2, Mode{}, nil)
		})
	})
	region(t, tr, p, "work", 4, Mode{Flat: true}, nil)

	flat := s.Flat()
	require.Equal(t, []string{"mid", "outer", "work"}, flatKeys(flat))

	// flat total for a key = every tree node sharing it + flat-mode records
	work := flat[2]
	assert.Equal(t, int64(3), work.Stats.Count)
	assert.Equal(t, 7.0, work.Stats.Sum)
}

func TestStorage_TimelineNeverMerges(t *testing.T) {
	s := New(timingType())
	p := s.Attach(0)
	tr := callstack.New()
	tl := Mode{Timeline: true}

	region(t, tr, p, "step", 1, tl, func() {
		region(t, tr, p, "step", 2, tl, nil)
		region(t, tr, p, "step", 3, tl, nil)
	})

	events := s.Timeline()
	require.Len(t, events, 3)
	assert.Equal(t, []float64{2, 3, 1}, []float64{events[0].Value, events[1].Value, events[2].Value})
	assert.Equal(t, []string{"step", "step"}, events[0].Path)
	assert.Equal(t, []string{"step"}, events[2].Path)
	for i, ev := range events {
		assert.Equal(t, uint64(i+1), ev.Seq)
	}
	assert.Equal(t, 0, s.Tree().Len())
}

func TestStorage_TimelineParentIsNotATreeNode(t *testing.T) {
	s := New(timingType())
	p := s.Attach(0)
	tr := callstack.New()

	region(t, tr, p, "main", 10, Mode{}, func() {
		region(t, tr, p, "outer", 5, Mode{Timeline: true}, func() {
			region(t, tr, p, "inner", 2, Mode{}, nil)
		})
	})

	tree := s.Tree()
	top := tree.Child("main")
	require.NotNil(t, top)
	assert.Equal(t, []string{"inner"}, keys(top.Children()))
	assert.Equal(t, int64(1), top.Child("inner").Stats.Count)

	for _, e := range s.Flat() {
		assert.NotEqual(t, "outer", e.Key)
		assert.Positive(t, e.Stats.Count, e.Key)
	}

	events := s.Timeline()
	require.Len(t, events, 1)
	assert.Equal(t, []string{"main", "outer"}, events[0].Path)
}

func TestStorage_ConcurrentThreadsMerge(t *testing.T) {
	const threads, perThread = 8, 250
	s := New(timingType())

	var wg sync.WaitGroup
	for th := 0; th < threads; th++ {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			p := s.Attach(id)
			tr := callstack.New()
			for i := 0; i < perThread; i++ {
				f, _ := tr.Push("work", false, false, wallOnly)
				_ = tr.Pop(f)
				_ = p.Record(Record{Key: "work", Parent: f.Parent, Value: float64(id + 1)})
			}
		}(uint64(th))
	}
	wg.Wait()

	require.NoError(t, s.MergeThreads())
	work := s.Tree().Child("work")
	require.NotNil(t, work)
	assert.Equal(t, int64(threads*perThread), work.Stats.Count)

	var expected float64
	for th := 1; th <= threads; th++ {
		expected += float64(th * perThread)
	}
	assert.InDelta(t, expected, work.Stats.Sum, 1e-9)
	assert.Equal(t, 1.0, work.Stats.Min)
	assert.Equal(t, float64(threads), work.Stats.Max)
	assert.Equal(t, threads, s.Threads())
}

func TestStorage_MaxRuleAcrossThreads(t *testing.T) {
	peak := &component.Type{Name: "peak_rss", Category: component.CategoryMemory, Rule: component.RuleMax, Derive: component.DeltaPeak}
	s := New(peak)

	for th, v := range []float64{30, 70, 50} {
		p := s.Attach(uint64(th))
		require.NoError(t, p.Record(Record{Key: "alloc", Value: v}))
	}
	require.NoError(t, s.MergeThreads())

	node := s.Tree().Child("alloc")
	assert.Equal(t, 70.0, node.Stats.Value)
	assert.Equal(t, 30.0, node.Stats.Min)
	assert.Equal(t, 150.0, node.Stats.Sum)
}

func TestStorage_PostFinalizeAccess(t *testing.T) {
	s := New(timingType())
	p := s.Attach(0)
	require.NoError(t, p.Record(Record{Key: "a", Value: 1}))
	require.NoError(t, s.MergeThreads())

	err := p.Record(Record{Key: "b", Value: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, fault.ErrPostFinalizeAccess))
	assert.Nil(t, s.Tree().Child("b"))

	// idempotent merge
	require.NoError(t, s.MergeThreads())
	assert.True(t, s.Finalized())
}

func TestStorage_PoisonedPartialExcluded(t *testing.T) {
	s := New(timingType())
	good := s.Attach(1)
	bad := s.Attach(2)
	require.NoError(t, good.Record(Record{Key: "a", Value: 1}))
	require.NoError(t, bad.Record(Record{Key: "a", Value: 5}))

	corruption := fmt.Errorf("thread 2: %w", fault.ErrStackCorruption)
	bad.Poison(corruption)
	assert.True(t, errors.Is(bad.Record(Record{Key: "a", Value: 1}), fault.ErrStackCorruption))

	err := s.MergeThreads()
	require.Error(t, err)
	assert.True(t, errors.Is(err, fault.ErrStackCorruption))

	a := s.Tree().Child("a")
	assert.Equal(t, int64(1), a.Stats.Count)
	assert.Equal(t, 1.0, a.Stats.Sum)
}

func TestStorage_SnapshotDoesNotAlias(t *testing.T) {
	s := New(timingType())
	p := s.Attach(0)
	require.NoError(t, p.Record(Record{Key: "a", Value: 1}))

	snap := s.Tree()
	snap.Child("a").Stats.Count = 999
	snap.child("injected")

	fresh := s.Tree()
	assert.Equal(t, int64(1), fresh.Child("a").Stats.Count)
	assert.Nil(t, fresh.Child("injected"))

	tl := s.Timeline()
	assert.Empty(t, tl)
}

func TestStorage_AttachIsPerThread(t *testing.T) {
	s := New(timingType())
	assert.Same(t, s.Attach(3), s.Attach(3))
	assert.NotSame(t, s.Attach(3), s.Attach(4))
	assert.Equal(t, uint64(4), s.Attach(4).Thread())
}

func TestStorage_SerializeJSON(t *testing.T) {
	s := New(timingType())
	p := s.Attach(0)
	tr := callstack.New()
	region(t, tr, p, "run", 3e9, Mode{}, func() {
		region(t, tr, p, "fib", 1e9, Mode{}, nil)
		region(t, tr, p, "fib", 1e9, Mode{}, nil)
	})

	opts := DefaultRenderOptions()
	opts.Percentiles = true
	data, err := s.Serialize(FormatJSON, opts)
	require.NoError(t, err)

	var comp report.Component
	require.NoError(t, json.Unmarshal(data, &comp))
	assert.Equal(t, "sec", comp.Unit)
	assert.Equal(t, int64(3), comp.Records)
	require.Len(t, comp.Graph, 2)

	assert.Equal(t, "run", comp.Graph[0].Prefix)
	assert.Equal(t, 3.0, comp.Graph[0].Sum)
	assert.Equal(t, "run/fib", comp.Graph[1].Prefix)
	assert.Equal(t, int64(2), comp.Graph[1].Count)
	assert.Equal(t, 2.0, comp.Graph[1].Sum)
	assert.Equal(t, 1.0, comp.Graph[1].Mean)
	require.NotNil(t, comp.Graph[1].Percentiles)
	assert.InDelta(t, 1.0, comp.Graph[1].Percentiles.P50, 0.02)
	assert.Equal(t, []string{"fib", "run"}, []string{comp.Flat[0].Key, comp.Flat[1].Key})
}

func TestStorage_SerializeText(t *testing.T) {
	s := New(timingType())
	p := s.Attach(0)
	require.NoError(t, p.Record(Record{Key: "run", Value: 2e6}))

	opts := DefaultRenderOptions()
	opts.TimingUnit.Label, opts.TimingUnit.Scale = "msec", 1e6
	opts.Text.Precision = 3
	data, err := s.Serialize(FormatText, opts)
	require.NoError(t, err)
	assert.Contains(t, string(data), ">>> run")
	assert.Contains(t, string(data), "msec")
	assert.Contains(t, string(data), "2.000")

	_, err = s.Serialize(Format("xml"), opts)
	assert.Error(t, err)
}

func TestStorage_HistogramOptions(t *testing.T) {
	tests := []struct {
		name        string
		opts        []Option
		percentiles bool
	}{
		{name: "default", percentiles: true},
		{name: "disabled", opts: []Option{WithoutHistograms()}},
		{name: "custom", opts: []Option{WithHistograms(HistogramConfig{Min: 1, Max: 60000000, SigFigs: 3})}, percentiles: true},
		{name: "re-enabled", opts: []Option{WithoutHistograms(), WithHistograms(DefaultHistogramConfig())}, percentiles: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(timingType(), tt.opts...)
			p := s.Attach(0)
			require.NoError(t, p.Record(Record{Key: "run", Value: 2e9}))

			opts := DefaultRenderOptions()
			opts.Percentiles = true
			comp := s.Report(opts)
			require.Len(t, comp.Graph, 1)
			if !tt.percentiles {
				assert.Nil(t, comp.Graph[0].Percentiles)
				return
			}
			require.NotNil(t, comp.Graph[0].Percentiles)
			assert.InDelta(t, 2.0, comp.Graph[0].Percentiles.P50, 0.02)
		})
	}
}

func TestStats_StdDev(t *testing.T) {
	ct := timingType()
	var st Stats
	for _, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		st.add(ct, v, false)
	}
	assert.Equal(t, 5.0, st.Mean())
	assert.InDelta(t, 2.0, st.StdDev(), 1e-9)
}

func keys(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Key
	}
	return out
}

func flatKeys(entries []FlatEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Key
	}
	return out
}
