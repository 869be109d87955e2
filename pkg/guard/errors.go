package guard

import (
	"fmt"

	"mercator-hq/callisto/pkg/flags"
)

// ConfigurationError indicates a route's guard metadata is malformed:
// typically a declared feature flag that the registry does not recognize,
// or a redirect target that cannot be parsed. It is fatal to the
// navigation attempt and raised before any asynchronous work begins.
type ConfigurationError struct {
	// RoutePath is the path of the misconfigured route.
	RoutePath string

	// Key is the metadata key holding the invalid value.
	Key string

	// Value is the invalid value as declared.
	Value string

	// Cause is the underlying error, if any.
	Cause error
}

// Error returns the error message.
func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("route %q: invalid value %q for metadata key %q: %v",
			e.RoutePath, e.Value, e.Key, e.Cause)
	}
	return fmt.Sprintf("route %q: invalid value %q for metadata key %q",
		e.RoutePath, e.Value, e.Key)
}

// Unwrap returns the underlying cause.
func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// UnhandledResultTypeError indicates the flag service violated its
// contract by answering with a shape outside {boolean, deferred, stream}.
// It is a programming defect in the service, fatal to the navigation
// attempt, and never retried.
type UnhandledResultTypeError struct {
	// RoutePath is the path of the route being evaluated.
	RoutePath string

	// Kind is the offending result kind.
	Kind flags.ResultKind
}

// Error returns the error message.
func (e *UnhandledResultTypeError) Error() string {
	return fmt.Sprintf("route %q: flag service returned unhandled result type %q",
		e.RoutePath, e.Kind)
}
