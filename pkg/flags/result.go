package flags

import (
	"context"
	"errors"
	"fmt"
)

// ErrStreamCompleted indicates a stream result completed without emitting
// a value, violating the emit-then-complete contract.
var ErrStreamCompleted = errors.New("stream completed without emitting a value")

// ResultKind discriminates the shape of a flag evaluation result.
// The zero value is invalid on purpose: a Result built without one of the
// constructors below is detectable as a contract violation.
type ResultKind int

const (
	// KindBool is an immediate boolean result.
	KindBool ResultKind = iota + 1

	// KindDeferred is a single-resolution deferred boolean result.
	KindDeferred

	// KindStream is a boolean-emitting stream result that completes after
	// its first emission.
	KindStream
)

// String returns the kind's name.
func (k ResultKind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindDeferred:
		return "deferred"
	case KindStream:
		return "stream"
	default:
		return "invalid"
	}
}

// Result is the outcome of evaluating a feature flag: a tagged union over
// {immediate boolean, deferred boolean, boolean stream}. Exactly one
// variant is populated, selected by Kind.
type Result struct {
	// Kind selects the populated variant.
	Kind ResultKind

	// Bool is the immediate value (Kind == KindBool).
	Bool bool

	// Deferred is the deferred value (Kind == KindDeferred).
	Deferred *Deferred

	// Stream is the stream value (Kind == KindStream).
	Stream *Stream
}

// BoolResult returns an immediate boolean result.
func BoolResult(enabled bool) Result {
	return Result{Kind: KindBool, Bool: enabled}
}

// DeferredResult returns a deferred result.
func DeferredResult(d *Deferred) Result {
	return Result{Kind: KindDeferred, Deferred: d}
}

// StreamResult returns a stream result.
func StreamResult(s *Stream) Result {
	return Result{Kind: KindStream, Stream: s}
}

// Await resolves the result to a boolean regardless of its shape,
// blocking for deferred and stream results until they produce a value or
// the context is cancelled. Callers that must preserve the result's
// synchronicity class switch on Kind instead.
func (r Result) Await(ctx context.Context) (bool, error) {
	switch r.Kind {
	case KindBool:
		return r.Bool, nil
	case KindDeferred:
		return r.Deferred.Await(ctx)
	case KindStream:
		val, ok, err := r.Stream.Next(ctx)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, ErrStreamCompleted
		}
		return val, nil
	default:
		return false, fmt.Errorf("invalid result kind %d", int(r.Kind))
	}
}
