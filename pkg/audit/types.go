package audit

import (
	"context"
	"time"
)

// Outcome classifies what the guard decided.
type Outcome string

const (
	// OutcomeAllowed means the navigation proceeded.
	OutcomeAllowed Outcome = "allowed"

	// OutcomeDenied means the navigation was denied outright.
	OutcomeDenied Outcome = "denied"

	// OutcomeRedirected means the navigation was diverted.
	OutcomeRedirected Outcome = "redirected"

	// OutcomeError means evaluation failed before a decision was made.
	OutcomeError Outcome = "error"
)

// DecisionRecord is one guard decision, as stored in the audit trail.
type DecisionRecord struct {
	// ID uniquely identifies the record (UUID v4).
	ID string

	// Timestamp is when the decision was made (UTC).
	Timestamp time.Time

	// RoutePath is the path of the evaluated route.
	RoutePath string

	// Flag is the feature flag consulted; empty when the route declared
	// none.
	Flag string

	// Outcome is what the guard decided.
	Outcome Outcome

	// RedirectTo is the canonical redirect URL for redirected outcomes.
	RedirectTo string

	// Detail carries the error message for error outcomes.
	Detail string

	// Duration is how long the evaluation took.
	Duration time.Duration
}

// Store persists decision records.
type Store interface {
	// Write persists a record.
	Write(ctx context.Context, record *DecisionRecord) error

	// Count returns the number of stored records.
	Count(ctx context.Context) (int64, error)

	// DeleteBefore removes records older than the cutoff and returns how
	// many were removed.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// DeleteOldest removes the n oldest records and returns how many
	// were removed.
	DeleteOldest(ctx context.Context, n int64) (int64, error)

	// Close releases the store's resources.
	Close() error
}
