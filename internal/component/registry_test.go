package component

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/markprof/internal/fault"
)

func TestRegistry_ResolveUnknown(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Resolve("no_such_clock")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fault.ErrConfiguration))
	assert.Contains(t, err.Error(), "no_such_clock")
}

func TestRegistry_RegisterCounter(t *testing.T) {
	reg := NewRegistry()
	var n Value
	err := reg.RegisterCounter("iterations", "loop iterations", RuleSum, DeltaDifference, func() (Value, error) {
		n++
		return n, nil
	})
	require.NoError(t, err)

	ct, err := reg.Resolve("iterations")
	require.NoError(t, err)
	assert.Equal(t, CategoryCounter, ct.Category)
	assert.Equal(t, RuleSum, ct.Rule)

	start, _ := ct.Sample()
	stop, _ := ct.Sample()
	assert.Equal(t, Value(1), ct.Delta(start, stop))
}

func TestRegistry_RegisterRejectsInvalid(t *testing.T) {
	reg := NewRegistry()
	read := func() (Value, error) { return 0, nil }

	tests := []struct {
		name string
		typ  Type
	}{
		{name: "empty name", typ: Type{Sampler: SamplerFunc(read)}},
		{name: "duplicate builtin", typ: Type{Name: "wall_clock", Sampler: SamplerFunc(read)}},
		{name: "no sampler", typ: Type{Name: "orphan"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reg.Register(tt.typ)
			assert.True(t, errors.Is(err, fault.ErrConfiguration), "got %v", err)
		})
	}

	assert.True(t, errors.Is(reg.RegisterCounter("nil_fn", "", RuleSum, DeltaDifference, nil), fault.ErrConfiguration))
}

func TestRegistry_NamesSorted(t *testing.T) {
	names := NewRegistry().Names()
	require.NotEmpty(t, names)
	assert.IsNonDecreasing(t, names)
	assert.Contains(t, names, "wall_clock")
	assert.Contains(t, names, "peak_rss")
}
