package component

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/markprof/internal/fault"
)

func TestType_Combine(t *testing.T) {
	tests := []struct {
		name     string
		rule     Rule
		a, b     Value
		expected Value
	}{
		{name: "sum", rule: RuleSum, a: 2, b: 3, expected: 5},
		{name: "max", rule: RuleMax, a: 2, b: 3, expected: 3},
		{name: "min", rule: RuleMin, a: 2, b: 3, expected: 2},
		{name: "empty rule sums", rule: "", a: 1.5, b: 1.5, expected: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct := &Type{Name: "x", Rule: tt.rule}
			assert.Equal(t, tt.expected, ct.Combine(tt.a, tt.b))
		})
	}
}

func TestType_Delta(t *testing.T) {
	tests := []struct {
		name        string
		mode        DeltaMode
		start, stop Value
		expected    Value
	}{
		{name: "difference", mode: DeltaDifference, start: 10, stop: 25, expected: 15},
		{name: "peak keeps start", mode: DeltaPeak, start: 40, stop: 25, expected: 40},
		{name: "peak keeps stop", mode: DeltaPeak, start: 10, stop: 25, expected: 25},
		{name: "instant", mode: DeltaInstant, start: 99, stop: 7, expected: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct := &Type{Name: "x", Derive: tt.mode}
			assert.Equal(t, tt.expected, ct.Delta(tt.start, tt.stop))
		})
	}
}

func TestType_SampleWithoutSampler(t *testing.T) {
	ct := &Type{Name: "broken"}
	v, err := ct.Sample()
	assert.Zero(t, v)
	assert.True(t, errors.Is(err, fault.ErrSamplerUnavailable))
}

func TestBuiltins_WallClockIsMonotonic(t *testing.T) {
	reg := NewRegistry()
	wc, err := reg.Resolve("wall_clock")
	require.NoError(t, err)

	first, err := wc.Sample()
	require.NoError(t, err)
	second, err := wc.Sample()
	require.NoError(t, err)

	assert.GreaterOrEqual(t, second, first)
	assert.True(t, wc.IsTiming())
}

func TestBuiltins_AllSampleOrDegrade(t *testing.T) {
	for _, ct := range Builtins() {
		t.Run(ct.Name, func(t *testing.T) {
			v, err := ct.Sample()
			if err != nil {
				assert.True(t, errors.Is(err, fault.ErrSamplerUnavailable), "unexpected error: %v", err)
				return
			}
			assert.GreaterOrEqual(t, v, Value(0))
		})
	}
}
