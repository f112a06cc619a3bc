package storage

import (
	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/wesleyorama2/markprof/internal/component"
)

// Node is one call-tree position. The root node has an empty key and depth
// zero; its Count is the number of measurements anywhere in the tree.
type Node struct {
	Key   string
	Depth int
	Stats Stats

	children []*Node
	index    map[string]*Node
	hist     *hdrhistogram.Histogram
}

func newRoot() *Node {
	return &Node{}
}

// Children returns the child nodes in insertion order.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Child returns the child with the given key, or nil.
func (n *Node) Child(key string) *Node {
	return n.index[key]
}

// child returns the child for key, creating it at the end of the child list.
func (n *Node) child(key string) *Node {
	if c, ok := n.index[key]; ok {
		return c
	}
	c := &Node{Key: key, Depth: n.Depth + 1}
	if n.index == nil {
		n.index = make(map[string]*Node)
	}
	n.index[key] = c
	n.children = append(n.children, c)
	return c
}

// Walk visits every node below n depth-first in insertion order. path holds
// the keys from the first level down to the visited node.
func (n *Node) Walk(fn func(path []string, node *Node)) {
	var visit func(prefix []string, cur *Node)
	visit = func(prefix []string, cur *Node) {
		for _, c := range cur.children {
			path := append(prefix[:len(prefix):len(prefix)], c.Key)
			fn(path, c)
			visit(path, c)
		}
	}
	visit(nil, n)
}

// MaxDepth returns the depth of the deepest node below n.
func (n *Node) MaxDepth() int {
	deepest := n.Depth
	n.Walk(func(_ []string, c *Node) {
		if c.Depth > deepest {
			deepest = c.Depth
		}
	})
	return deepest
}

// Len returns the number of nodes below n.
func (n *Node) Len() int {
	count := 0
	n.Walk(func([]string, *Node) { count++ })
	return count
}

func (n *Node) record(ct *component.Type, hc *HistogramConfig, v component.Value, degraded bool) {
	n.Stats.add(ct, v, degraded)
	if hc != nil && ct.IsTiming() {
		if n.hist == nil {
			n.hist = hc.newHistogram()
		}
		hc.recordNanos(n.hist, v)
	}
}

// mergeChildren folds src's subtree into n, matching children by key at
// each depth.
func (n *Node) mergeChildren(ct *component.Type, hc *HistogramConfig, src *Node) {
	for _, sc := range src.children {
		dc := n.child(sc.Key)
		dc.Stats.merge(ct, sc.Stats)
		if sc.hist != nil && hc != nil {
			if dc.hist == nil {
				dc.hist = hc.newHistogram()
			}
			dc.hist.Merge(sc.hist)
		}
		dc.mergeChildren(ct, hc, sc)
	}
}

// clone returns a deep copy of n that shares no mutable state.
func (n *Node) clone(hc *HistogramConfig) *Node {
	out := &Node{Key: n.Key, Depth: n.Depth, Stats: n.Stats}
	if n.hist != nil && hc != nil {
		out.hist = hc.newHistogram()
		out.hist.Merge(n.hist)
	}
	for _, c := range n.children {
		cc := c.clone(hc)
		if out.index == nil {
			out.index = make(map[string]*Node, len(n.children))
		}
		out.index[cc.Key] = cc
		out.children = append(out.children, cc)
	}
	return out
}
