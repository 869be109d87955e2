package flags

import (
	"fmt"
	"sort"
	"sync"
)

// Definition describes how a single registered flag evaluates.
type Definition struct {
	// State is the flag's evaluation state.
	// Options: "enabled", "disabled", "rollout"
	// Default: "disabled"
	State State `yaml:"state"`

	// RolloutPercent is the percentage of evaluations for which the flag
	// is on when State is "rollout". Range: 0–100.
	RolloutPercent uint `yaml:"rollout_percent"`

	// Description is a human-readable note about what the flag gates.
	Description string `yaml:"description,omitempty"`
}

// Registry is the set of recognized feature flags and their definitions.
// A flag name read from route metadata is only valid if the registry
// contains it. Registry is safe for concurrent use; the whole definition
// set is swapped atomically on reload.
type Registry struct {
	mu    sync.RWMutex
	flags map[Flag]Definition
}

// NewRegistry creates a registry with the given definitions.
func NewRegistry(defs map[Flag]Definition) *Registry {
	if defs == nil {
		defs = make(map[Flag]Definition)
	}
	return &Registry{flags: defs}
}

// Contains reports whether the flag is recognized.
// This is the validity predicate for flag names found in route metadata.
func (r *Registry) Contains(flag Flag) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.flags[flag]
	return ok
}

// Lookup returns the definition for a flag.
func (r *Registry) Lookup(flag Flag) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.flags[flag]
	return def, ok
}

// Names returns all registered flag names in sorted order.
func (r *Registry) Names() []Flag {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]Flag, 0, len(r.flags))
	for f := range r.flags {
		names = append(names, f)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Len returns the number of registered flags.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.flags)
}

// Replace atomically swaps the registry's definitions.
// Used by reloading backends after a successful registry file parse.
func (r *Registry) Replace(defs map[Flag]Definition) {
	if defs == nil {
		defs = make(map[Flag]Definition)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.flags = defs
}

// validateDefinitions checks a definition set for consistency.
func validateDefinitions(defs map[Flag]Definition) error {
	for name, def := range defs {
		if name == "" {
			return fmt.Errorf("flag with empty name")
		}
		switch def.State {
		case StateEnabled, StateDisabled, StateRollout:
		default:
			return fmt.Errorf("flag %q: unknown state %q", name, def.State)
		}
		if def.RolloutPercent > 100 {
			return fmt.Errorf("flag %q: rollout_percent %d out of range [0, 100]",
				name, def.RolloutPercent)
		}
	}
	return nil
}
