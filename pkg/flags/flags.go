package flags

import "context"

// Flag is an opaque feature-flag identifier.
// A Flag is only meaningful if a registry recognizes it; values read from
// route metadata must pass the registry's Contains check before being used
// as lookup keys.
type Flag string

// String returns the flag name.
func (f Flag) String() string {
	return string(f)
}

// Service evaluates feature flags.
//
// IsEnabled may answer in one of three shapes (see Result): an immediate
// boolean, a deferred boolean, or a single-emission boolean stream.
// Implementations choose the shape; callers must handle all three.
// IsEnabled must not block: backends that need I/O answer with a deferred
// or stream result and resolve it from their own goroutine.
type Service interface {
	IsEnabled(ctx context.Context, flag Flag) Result
}

// State describes how a registered flag evaluates.
type State string

const (
	// StateEnabled means the flag is on for everyone.
	StateEnabled State = "enabled"

	// StateDisabled means the flag is off for everyone.
	StateDisabled State = "disabled"

	// StateRollout means the flag is on for a percentage of evaluations,
	// decided by a rollout enabler.
	StateRollout State = "rollout"
)
