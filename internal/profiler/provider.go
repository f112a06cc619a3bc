package profiler

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/wesleyorama2/markprof/internal/component"
	"github.com/wesleyorama2/markprof/internal/fault"
	"github.com/wesleyorama2/markprof/internal/settings"
)

// GlobalBundle is the component name that expands to the settings'
// global_components list.
const GlobalBundle = "user_global_bundle"

// ComponentSetProvider supplies the component names a marker measures.
// Providers are resolved every time a marker starts, so a provider may
// return a different set on each call.
type ComponentSetProvider interface {
	Resolve() ([]string, error)
}

// Static is a fixed component set.
type Static []string

// Resolve returns a copy of the set.
func (s Static) Resolve() ([]string, error) {
	return slices.Clone([]string(s)), nil
}

// Env reads a comma separated component list from an environment variable,
// falling back to Fallback when the variable is unset or empty.
type Env struct {
	Variable string
	Fallback []string
}

// Resolve reads the variable.
func (e Env) Resolve() ([]string, error) {
	if raw, ok := os.LookupEnv(e.Variable); ok {
		if names := settings.SplitList(raw); len(names) > 0 {
			return names, nil
		}
	}
	return slices.Clone(e.Fallback), nil
}

// ProviderFunc adapts a function to ComponentSetProvider.
type ProviderFunc func() ([]string, error)

// Resolve calls f.
func (f ProviderFunc) Resolve() ([]string, error) {
	return f()
}

// SettingsProvider resolves to the manager's global_components setting.
type SettingsProvider struct{}

// Resolve returns the global bundle alias, expanded when the marker starts.
func (SettingsProvider) Resolve() ([]string, error) {
	return []string{GlobalBundle}, nil
}

// resolveComponents expands and validates a provider's component set
// against the settings snapshot s. Duplicates are dropped, keeping the
// first occurrence.
func (m *Manager) resolveComponents(p ComponentSetProvider, s *settings.Settings) ([]*component.Type, error) {
	if p == nil {
		p = SettingsProvider{}
	}
	names, err := p.Resolve()
	if err != nil {
		if errors.Is(err, fault.ErrConfiguration) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to resolve components: %w: %w", err, fault.ErrConfiguration)
	}

	var expanded []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == GlobalBundle {
			expanded = append(expanded, s.GlobalComponents...)
			continue
		}
		expanded = append(expanded, name)
	}

	types := make([]*component.Type, 0, len(expanded))
	seen := make(map[string]bool, len(expanded))
	for _, name := range expanded {
		if seen[name] {
			continue
		}
		seen[name] = true
		ct, err := m.registry.Resolve(name)
		if err != nil {
			return nil, err
		}
		types = append(types, ct)
	}
	return types, nil
}
