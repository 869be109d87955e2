package guard

import (
	"context"
	"fmt"

	"mercator-hq/callisto/pkg/flags"
	"mercator-hq/callisto/pkg/router"
)

// Decision is a resolved navigation decision.
// Allowed true means the navigation proceeds. Allowed false with a nil
// Redirect means the navigation is denied outright; a non-nil Redirect
// means the navigation is diverted to that canonical URL instead.
type Decision struct {
	// Allowed reports whether the navigation may proceed.
	Allowed bool

	// Redirect is the canonical URL to divert to when the navigation is
	// not allowed. Nil when the decision is a plain allow or deny.
	Redirect *router.CanonicalURL
}

// Allow returns an allowing decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a denying decision with no redirect.
func Deny() Decision {
	return Decision{}
}

// RedirectTo returns a decision that diverts to the given URL.
func RedirectTo(u *router.CanonicalURL) Decision {
	return Decision{Redirect: u}
}

// IsRedirect reports whether the decision diverts the navigation.
func (d Decision) IsRedirect() bool {
	return !d.Allowed && d.Redirect != nil
}

// OutcomeKind discriminates the synchronicity class of an evaluation
// outcome. The zero value is invalid.
type OutcomeKind int

const (
	// OutcomeSync is an immediately resolved decision.
	OutcomeSync OutcomeKind = iota + 1

	// OutcomeDeferred is a decision that resolves once.
	OutcomeDeferred

	// OutcomeStream is a decision carried by a single-emission stream.
	OutcomeStream
)

// String returns the kind's name.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSync:
		return "sync"
	case OutcomeDeferred:
		return "deferred"
	case OutcomeStream:
		return "stream"
	default:
		return "invalid"
	}
}

// Outcome is the guard's answer for one navigation attempt: a tagged
// union over {resolved decision, deferred decision, decision stream},
// mirroring the synchronicity class of the flag service's result.
// Exactly one variant is populated, selected by Kind.
type Outcome struct {
	// Kind selects the populated variant.
	Kind OutcomeKind

	// Decision is the resolved decision (Kind == OutcomeSync).
	Decision Decision

	// Deferred is the deferred decision (Kind == OutcomeDeferred).
	Deferred *DeferredDecision

	// Stream is the decision stream (Kind == OutcomeStream).
	Stream *DecisionStream
}

// SyncOutcome returns an immediately resolved outcome.
func SyncOutcome(d Decision) *Outcome {
	return &Outcome{Kind: OutcomeSync, Decision: d}
}

// DeferredOutcome returns a deferred outcome.
func DeferredOutcome(d *DeferredDecision) *Outcome {
	return &Outcome{Kind: OutcomeDeferred, Deferred: d}
}

// StreamOutcome returns a stream outcome.
func StreamOutcome(s *DecisionStream) *Outcome {
	return &Outcome{Kind: OutcomeStream, Stream: s}
}

// Resolve collapses the outcome to a decision regardless of its class,
// blocking on deferred and stream outcomes until they produce a value or
// the context is cancelled. Callers that care about the class switch on
// Kind instead.
func (o *Outcome) Resolve(ctx context.Context) (Decision, error) {
	switch o.Kind {
	case OutcomeSync:
		return o.Decision, nil
	case OutcomeDeferred:
		return o.Deferred.Await(ctx)
	case OutcomeStream:
		d, ok, err := o.Stream.Next(ctx)
		if err != nil {
			return Decision{}, err
		}
		if !ok {
			return Decision{}, flags.ErrStreamCompleted
		}
		return d, nil
	default:
		return Decision{}, fmt.Errorf("invalid outcome kind %d", int(o.Kind))
	}
}

// DeferredDecision is a single-resolution navigation decision.
// It wraps the flag service's deferred boolean and applies the guard's
// substitution rule as a continuation when the boolean resolves; awaiting
// it never blocks the guard itself.
type DeferredDecision struct {
	src       *flags.Deferred
	transform func(enabled bool) Decision
}

// newDeferredDecision attaches transform to a deferred boolean.
func newDeferredDecision(src *flags.Deferred, transform func(bool) Decision) *DeferredDecision {
	return &DeferredDecision{src: src, transform: transform}
}

// Await blocks until the decision resolves or the context is cancelled.
func (d *DeferredDecision) Await(ctx context.Context) (Decision, error) {
	enabled, err := d.src.Await(ctx)
	if err != nil {
		return Decision{}, err
	}
	return d.transform(enabled), nil
}

// DecisionStream is a navigation decision carried by a boolean stream
// that emits once and completes. Each emission is passed through the
// guard's substitution rule.
type DecisionStream struct {
	src       *flags.Stream
	transform func(enabled bool) Decision
}

// newDecisionStream attaches transform to a boolean stream.
func newDecisionStream(src *flags.Stream, transform func(bool) Decision) *DecisionStream {
	return &DecisionStream{src: src, transform: transform}
}

// Next returns the next decision, blocking until the underlying stream
// emits, completes, or the context is cancelled. ok is false once the
// stream has completed.
func (s *DecisionStream) Next(ctx context.Context) (d Decision, ok bool, err error) {
	enabled, ok, err := s.src.Next(ctx)
	if err != nil || !ok {
		return Decision{}, ok, err
	}
	return s.transform(enabled), true, nil
}
