// Package guard implements the feature-flag route guard: a pure decision
// function invoked before a route is activated.
//
// The guard reads the route's metadata bag under configured keys, validates
// any declared feature flag against the flag registry, asks the flag
// service whether the flag is enabled, and produces a navigation decision:
// allow, deny, or redirect to a canonical URL. Because flag evaluation may
// be asynchronous, the decision preserves the synchronicity class of the
// flag service's answer — an immediate boolean stays synchronous, a
// deferred answer yields a deferred decision, a stream answer yields a
// decision stream.
//
// The guard holds no state between invocations, performs no I/O of its
// own, and never blocks: asynchronous answers are transformed by attaching
// a continuation, and awaiting them is the caller's job.
package guard
