package flags

import "context"

// StaticService evaluates flags from a fixed registry.
// All answers are immediate booleans. Unknown flags evaluate to false;
// callers are expected to validate flag names against the registry before
// asking.
type StaticService struct {
	registry *Registry
	rollout  *RolloutEnabler
}

// NewStaticService creates a static flag service over the given registry.
func NewStaticService(registry *Registry) *StaticService {
	return &StaticService{
		registry: registry,
		rollout:  NewRolloutEnabler(),
	}
}

// Registry returns the service's registry.
func (s *StaticService) Registry() *Registry {
	return s.registry
}

// IsEnabled evaluates the flag against the registry.
func (s *StaticService) IsEnabled(ctx context.Context, flag Flag) Result {
	return BoolResult(s.evaluate(flag))
}

// evaluate resolves a flag definition to a boolean.
func (s *StaticService) evaluate(flag Flag) bool {
	def, ok := s.registry.Lookup(flag)
	if !ok {
		return false
	}

	switch def.State {
	case StateEnabled:
		return true
	case StateRollout:
		return s.rollout.Enabled(def.RolloutPercent)
	default:
		return false
	}
}
