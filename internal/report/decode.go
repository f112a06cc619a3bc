package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ParseDocument reads a report document produced by MarshalDocument.
func ParseDocument(data []byte) (*Document, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid report: malformed JSON")
	}

	root := gjson.ParseBytes(data)
	components := root.Get("components")
	if !components.IsObject() {
		return nil, fmt.Errorf("invalid report: missing components object")
	}

	doc := NewDocument(root.Get("label").String(), time.Time{})
	if lt := root.Get("launch_time"); lt.Exists() {
		t, err := time.Parse(time.RFC3339Nano, lt.String())
		if err != nil {
			return nil, fmt.Errorf("invalid report: launch_time: %w", err)
		}
		doc.LaunchTime = t
	}

	root.Get("commands").ForEach(func(_, cmd gjson.Result) bool {
		var args []string
		cmd.ForEach(func(_, arg gjson.Result) bool {
			args = append(args, arg.String())
			return true
		})
		doc.Commands = append(doc.Commands, args)
		return true
	})

	if md := root.Get("metadata"); md.IsObject() {
		if m, ok := md.Value().(map[string]any); ok {
			doc.Metadata = m
		}
	}

	order := root.Get("component_order").Array()
	for _, name := range order {
		c := components.Get(gjson.Escape(name.String()))
		if c.Exists() {
			doc.Add(parseComponent(name.String(), c))
		}
	}
	components.ForEach(func(key, c gjson.Result) bool {
		if _, seen := doc.Components[key.String()]; !seen {
			doc.Add(parseComponent(key.String(), c))
		}
		return true
	})

	return doc, nil
}

func parseComponent(name string, c gjson.Result) *Component {
	comp := &Component{
		Name:        name,
		Description: c.Get("description").String(),
		Category:    c.Get("category").String(),
		Kind:        c.Get("kind").String(),
		Rule:        c.Get("rule").String(),
		Unit:        c.Get("unit").String(),
		UnitValue:   c.Get("unit_value").Float(),
		Precision:   int(c.Get("precision").Int()),
		Threads:     int(c.Get("threads").Int()),
		Records:     c.Get("records").Int(),
		Degraded:    c.Get("degraded").Bool(),
		Graph:       []Node{},
	}

	for _, n := range c.Get("graph").Array() {
		comp.Graph = append(comp.Graph, parseNode(n))
	}
	for _, n := range c.Get("flat").Array() {
		comp.Flat = append(comp.Flat, parseNode(n))
	}
	for _, e := range c.Get("timeline").Array() {
		comp.Timeline = append(comp.Timeline, Event{
			Seq:      e.Get("seq").Uint(),
			Thread:   e.Get("thread").Uint(),
			Prefix:   e.Get("prefix").String(),
			Key:      e.Get("key").String(),
			Depth:    int(e.Get("depth").Int()),
			Value:    e.Get("value").Float(),
			Start:    e.Get("start").Float(),
			Stop:     e.Get("stop").Float(),
			Degraded: e.Get("degraded").Bool(),
		})
	}
	return comp
}

func parseNode(n gjson.Result) Node {
	node := Node{
		Prefix:   n.Get("prefix").String(),
		Key:      n.Get("key").String(),
		Depth:    int(n.Get("depth").Int()),
		Count:    n.Get("count").Int(),
		Value:    n.Get("value").Float(),
		Sum:      n.Get("sum").Float(),
		Min:      n.Get("min").Float(),
		Max:      n.Get("max").Float(),
		Mean:     n.Get("mean").Float(),
		StdDev:   n.Get("stddev").Float(),
		Degraded: n.Get("degraded").Bool(),
	}
	if p := n.Get("percentiles"); p.IsObject() {
		node.Percentiles = &Percentiles{
			P50: p.Get("p50").Float(),
			P90: p.Get("p90").Float(),
			P95: p.Get("p95").Float(),
			P99: p.Get("p99").Float(),
		}
	}
	return node
}

// Query extracts a value from a report using a JSONPath-like expression,
// e.g. "$.components.wall_clock.graph[0].sum" or the equivalent gjson path
// "components.wall_clock.graph.0.sum".
func Query(data []byte, path string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty report")
	}
	if path == "" {
		return "", fmt.Errorf("empty query path")
	}

	result := gjson.GetBytes(data, toGjsonPath(path))
	if !result.Exists() {
		return "", fmt.Errorf("path not found: %s", path)
	}
	if result.Type == gjson.Null {
		return "null", nil
	}
	return result.String(), nil
}

// toGjsonPath converts $.a.b[0].c into a.b.0.c.
func toGjsonPath(path string) string {
	path = strings.TrimPrefix(path, "$")
	path = strings.TrimPrefix(path, ".")

	var sb strings.Builder
	for i := 0; i < len(path); i++ {
		switch c := path[i]; c {
		case '[':
			if sb.Len() > 0 {
				sb.WriteByte('.')
			}
		case ']':
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
