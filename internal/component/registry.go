package component

import (
	"fmt"
	"sort"
	"sync"

	"github.com/wesleyorama2/markprof/internal/fault"
)

// Registry maps component names to their types.
//
// Registry is safe for concurrent use. Types are immutable once registered,
// so resolved pointers may be shared freely.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*Type
}

// NewRegistry creates a registry pre-populated with the built-in components.
func NewRegistry() *Registry {
	r := &Registry{types: make(map[string]*Type)}
	for _, t := range Builtins() {
		r.types[t.Name] = t
	}
	return r
}

// Register adds a component type. Empty or duplicate names, and types
// without a sampler, are configuration errors.
func (r *Registry) Register(t Type) error {
	if t.Name == "" {
		return fmt.Errorf("component name is required: %w", fault.ErrConfiguration)
	}
	if t.Sampler == nil {
		return fmt.Errorf("component %q has no sampler: %w", t.Name, fault.ErrConfiguration)
	}
	if t.Kind == "" {
		t.Kind = KindFloat
	}
	if t.Rule == "" {
		t.Rule = RuleSum
	}
	if t.Derive == "" {
		t.Derive = DeltaDifference
	}
	if t.Category == "" {
		t.Category = CategoryCounter
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[t.Name]; exists {
		return fmt.Errorf("component %q already registered: %w", t.Name, fault.ErrConfiguration)
	}
	r.types[t.Name] = &t
	return nil
}

// RegisterCounter registers a named external counter read by fn.
func (r *Registry) RegisterCounter(name, description string, rule Rule, derive DeltaMode, fn func() (Value, error)) error {
	if fn == nil {
		return fmt.Errorf("counter %q has no read function: %w", name, fault.ErrConfiguration)
	}
	return r.Register(Type{
		Name:        name,
		Description: description,
		Category:    CategoryCounter,
		Kind:        KindFloat,
		Rule:        rule,
		Derive:      derive,
		Precision:   3,
		Sampler:     SamplerFunc(fn),
	})
}

// Resolve looks up a component by name.
func (r *Registry) Resolve(name string) (*Type, error) {
	r.mu.RLock()
	t, ok := r.types[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown component type %q: %w", name, fault.ErrConfiguration)
	}
	return t, nil
}

// Names returns all registered component names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
