// Package flags provides feature-flag identification and evaluation.
//
// A Flag is an opaque identifier belonging to a registry of recognized
// flag names. A Service answers whether a flag is enabled; the answer is a
// Result, a tagged union that is either an immediate boolean, a deferred
// single-resolution boolean, or a boolean-emitting stream that completes
// after its first emission. Callers switch on the Result's Kind; an
// unrecognized kind is a contract violation on the service's side.
//
// Backends:
//   - StaticService evaluates from a fixed in-memory registry.
//   - FileService evaluates from a YAML registry file and can hot-reload
//     it when the file changes.
//   - OverlayService layers persistent per-flag overrides (stored in
//     SQLite) over another service, answering through a deferred result.
package flags
