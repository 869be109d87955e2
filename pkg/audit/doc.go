// Package audit records guard decisions as an append-only trail.
//
// Every evaluated navigation produces a DecisionRecord describing the
// route, the flag consulted, and the outcome. Records are written
// asynchronously so that recording never slows down a decision, and a
// retention pruner keeps the trail bounded.
package audit
