package flags

import (
	"math/rand"
	"sync"
	"time"
)

// RolloutEnabler decides percentage-based rollouts: a flag in the
// "rollout" state is on for roughly the configured percentage of
// evaluations, driven by the provided source of randomness.
type RolloutEnabler struct {
	mu   sync.Mutex
	rand *rand.Rand
}

// NewRolloutEnabler creates a rollout enabler with a time-seeded source.
func NewRolloutEnabler() *RolloutEnabler {
	return NewRolloutEnablerWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewRolloutEnablerWithSource creates a rollout enabler with a custom
// source of randomness. Mainly useful for testing.
func NewRolloutEnablerWithSource(source rand.Source) *RolloutEnabler {
	return &RolloutEnabler{rand: rand.New(source)}
}

// Enabled reports whether a rollout at the given percentage is on for
// this evaluation. Percentages of 100 or more are always on; 0 is always
// off.
func (e *RolloutEnabler) Enabled(percent uint) bool {
	if percent >= 100 {
		return true
	}
	if percent == 0 {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.rand.Intn(100) < int(percent)
}
