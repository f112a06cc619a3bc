// Package callstack tracks the markers that are currently open on one thread.
//
// A Tracker is owned by a single goroutine and is not safe for concurrent
// use. It establishes the parent/child relationships used to place
// measurements in a component's call tree, and it refuses to guess once the
// strict LIFO order of Push/Pop has been violated.
package callstack

import (
	"fmt"

	"github.com/wesleyorama2/markprof/internal/fault"
)

// Frame is one open marker on the stack. Frames are immutable after Push and
// remain valid as parent references after they are popped.
type Frame struct {
	// Key is the region name
	Key string

	// Flat frames do not contribute to call-tree attribution
	Flat bool

	// Timeline frames record events only and are not tree nodes
	Timeline bool

	// Components lists the component types the marker measures
	Components []string

	// Parent is the enclosing frame, nil at the outermost level
	Parent *Frame

	// Depth is the 1-based position of the frame on the stack
	Depth int
}

// Measures reports whether the frame records the named component.
func (f *Frame) Measures(component string) bool {
	for _, c := range f.Components {
		if c == component {
			return true
		}
	}
	return false
}

// Lineage returns the keys of f and its ancestors, outermost first, keeping
// only frames accepted by keep. A nil frame has an empty lineage.
func (f *Frame) Lineage(keep func(*Frame) bool) []string {
	var rev []string
	for cur := f; cur != nil; cur = cur.Parent {
		if keep == nil || keep(cur) {
			rev = append(rev, cur.Key)
		}
	}
	out := make([]string, len(rev))
	for i, k := range rev {
		out[len(rev)-1-i] = k
	}
	return out
}

// TreePath returns the call-tree path of a record for component that closed
// under parent: the keys of every tree-mode ancestor measuring component.
func TreePath(parent *Frame, component string) []string {
	return parent.Lineage(func(f *Frame) bool {
		return !f.Flat && !f.Timeline && f.Measures(component)
	})
}

// EventPath is the prefix of a timeline event: like TreePath, but enclosing
// timeline frames are kept.
func EventPath(parent *Frame, component string) []string {
	return parent.Lineage(func(f *Frame) bool {
		return !f.Flat && f.Measures(component)
	})
}

// CorruptionError reports a LIFO violation on a tracker.
type CorruptionError struct {
	// Expected is the key of the frame on top of the stack
	Expected string

	// Got is the key of the frame the caller tried to pop
	Got string
}

func (e *CorruptionError) Error() string {
	if e.Expected == "" {
		return fmt.Sprintf("pop of %q on an empty stack", e.Got)
	}
	return fmt.Sprintf("pop of %q while %q is on top of the stack", e.Got, e.Expected)
}

// Unwrap classifies the error as a stack corruption.
func (e *CorruptionError) Unwrap() error {
	return fault.ErrStackCorruption
}

// Tracker is a per-thread stack of open markers.
type Tracker struct {
	frames []*Frame
	err    error
}

// New creates an empty tracker.
func New() *Tracker {
	return &Tracker{frames: make([]*Frame, 0, 16)}
}

// Push opens a frame and returns it as the stable handle for the region.
// A corrupted tracker returns the original corruption error.
func (t *Tracker) Push(key string, flat, timeline bool, components []string) (*Frame, error) {
	if t.err != nil {
		return nil, t.err
	}

	f := &Frame{
		Key:        key,
		Flat:       flat,
		Timeline:   timeline,
		Components: components,
		Parent:     t.Top(),
		Depth:      len(t.frames) + 1,
	}
	t.frames = append(t.frames, f)
	return f, nil
}

// Pop closes f, which must be the frame on top of the stack. Any other frame
// is a LIFO violation: the tracker is poisoned and every later Push or Pop
// reports the same error.
func (t *Tracker) Pop(f *Frame) error {
	if t.err != nil {
		return t.err
	}

	top := t.Top()
	if top == nil || top != f {
		cerr := &CorruptionError{Got: keyOf(f)}
		if top != nil {
			cerr.Expected = top.Key
		}
		t.err = cerr
		return cerr
	}

	t.frames[len(t.frames)-1] = nil
	t.frames = t.frames[:len(t.frames)-1]
	return nil
}

// Top returns the innermost open frame, or nil when the stack is empty.
func (t *Tracker) Top() *Frame {
	if len(t.frames) == 0 {
		return nil
	}
	return t.frames[len(t.frames)-1]
}

// Depth returns the number of open frames.
func (t *Tracker) Depth() int {
	return len(t.frames)
}

// Err returns the corruption error, if any.
func (t *Tracker) Err() error {
	return t.err
}

func keyOf(f *Frame) string {
	if f == nil {
		return "<nil>"
	}
	return f.Key
}
