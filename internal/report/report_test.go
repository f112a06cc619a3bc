package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() *Document {
	doc := NewDocument("fib", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	doc.Commands = [][]string{{"markprof", "fib", "-n", "5"}}
	doc.Metadata = map[string]any{"nfib": 5.0}
	doc.Add(&Component{
		Name:        "wall_clock",
		Description: "Real-clock timer",
		Category:    "timing",
		Kind:        "float",
		Rule:        "sum",
		Unit:        "sec",
		UnitValue:   1e9,
		Precision:   3,
		Threads:     1,
		Records:     3,
		Graph: []Node{
			{Prefix: "run", Key: "run", Depth: 1, Count: 1, Value: 0.5, Sum: 0.5, Min: 0.5, Max: 0.5, Mean: 0.5,
				Percentiles: &Percentiles{P50: 0.5, P90: 0.5, P95: 0.5, P99: 0.5}},
			{Prefix: "run/fib", Key: "fib", Depth: 2, Count: 2, Value: 0.4, Sum: 0.4, Min: 0.1, Max: 0.3, Mean: 0.2, StdDev: 0.1},
		},
		Flat: []Node{
			{Prefix: "fib", Key: "fib", Count: 2, Value: 0.4, Sum: 0.4, Min: 0.1, Max: 0.3, Mean: 0.2},
			{Prefix: "run", Key: "run", Count: 1, Value: 0.5, Sum: 0.5, Min: 0.5, Max: 0.5, Mean: 0.5},
		},
	})
	doc.Add(&Component{
		Name:      "peak_rss",
		Category:  "memory",
		Kind:      "int",
		Rule:      "max",
		Unit:      "MB",
		UnitValue: 1e6,
		Graph:     []Node{{Prefix: "run", Key: "run", Depth: 1, Count: 1, Value: 12, Sum: 12, Min: 12, Max: 12, Mean: 12, Degraded: true}},
		Timeline:  []Event{{Seq: 1, Thread: 0, Prefix: "run", Key: "run", Depth: 1, Value: 12, Start: 10, Stop: 12}},
	})
	return doc
}

func TestDocument_RoundTrip(t *testing.T) {
	doc := sampleDocument()
	data, err := MarshalDocument(doc)
	require.NoError(t, err)

	parsed, err := ParseDocument(data)
	require.NoError(t, err)

	assert.Equal(t, doc.Label, parsed.Label)
	assert.True(t, doc.LaunchTime.Equal(parsed.LaunchTime))
	assert.Equal(t, doc.Commands, parsed.Commands)
	assert.Equal(t, doc.Metadata, parsed.Metadata)
	assert.Equal(t, []string{"wall_clock", "peak_rss"}, parsed.ComponentOrder)
	assert.Equal(t, doc.Components["wall_clock"], parsed.Components["wall_clock"])
	assert.Equal(t, doc.Components["peak_rss"], parsed.Components["peak_rss"])
}

func TestParseDocument_Invalid(t *testing.T) {
	_, err := ParseDocument([]byte(`{"label": `))
	assert.Error(t, err)

	_, err = ParseDocument([]byte(`{"label": "x"}`))
	assert.Error(t, err)
}

func TestQuery(t *testing.T) {
	data, err := MarshalDocument(sampleDocument())
	require.NoError(t, err)

	tests := []struct {
		name     string
		path     string
		expected string
		wantErr  bool
	}{
		{name: "jsonpath style", path: "$.components.wall_clock.graph[1].key", expected: "fib"},
		{name: "gjson style", path: "components.wall_clock.graph.1.count", expected: "2"},
		{name: "label", path: "$.label", expected: "fib"},
		{name: "missing", path: "$.components.cpu_clock", wantErr: true},
		{name: "empty", path: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Query(data, tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestValidate(t *testing.T) {
	data, err := MarshalDocument(sampleDocument())
	require.NoError(t, err)
	require.NoError(t, Validate(data))

	bad := strings.Replace(string(data), `"rule": "max"`, `"rule": "median"`, 1)
	assert.Error(t, Validate([]byte(bad)))

	assert.Error(t, Validate([]byte(`{"label": "x"}`)))
	assert.Error(t, Validate([]byte(`not json`)))
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, sampleDocument(), DefaultTextOptions()))
	out := buf.String()

	assert.Contains(t, out, "REAL-CLOCK TIMER")
	assert.Contains(t, out, ">>> run")
	assert.Contains(t, out, ">>> |_fib")
	assert.Contains(t, out, "0.400")
	assert.Contains(t, out, "peak_rss timeline (1 events)")
	assert.NotContains(t, out, "\x1b[")

	// every table line of one component has the same width
	lines := strings.Split(out, "\n")
	width := len(lines[0])
	for _, line := range lines[:6] {
		assert.Len(t, line, width)
	}
}

func TestWriteText_FlatAndColumns(t *testing.T) {
	var buf bytes.Buffer
	opts := TextOptions{Flat: true, PrintCount: false, PrintPercentiles: true}
	doc := sampleDocument()
	require.NoError(t, WriteComponentText(&buf, doc.Components["wall_clock"], opts))
	out := buf.String()

	assert.NotContains(t, out, "COUNT")
	assert.NotContains(t, out, "|_fib")
	assert.Contains(t, out, "P95")
	assert.Contains(t, out, ">>> fib")
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	require.NoError(t, WriteFile(path, []byte("first")))
	require.NoError(t, WriteFile(path, []byte("second")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	_, err = os.Stat(path + ".lock")
	assert.NoError(t, err, "lock file is kept between writes")
}

func TestWriteFile_WaitsForLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, WriteFile(path, []byte("first")))

	held := flock.New(path + ".lock")
	require.NoError(t, held.Lock())

	done := make(chan error, 1)
	go func() {
		done <- WriteFile(path, []byte("second"))
	}()

	select {
	case err := <-done:
		t.Fatalf("write finished while the lock was held: %v", err)
	case <-time.After(100 * time.Millisecond):
	}
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))

	require.NoError(t, held.Unlock())
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("write did not finish after the lock was released")
	}
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestIsTerminal_Buffer(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}
