package storage

import (
	"context"
	"testing"
	"time"

	"mercator-hq/callisto/pkg/audit"
)

func recordAt(id string, ts time.Time) *audit.DecisionRecord {
	return &audit.DecisionRecord{
		ID:        id,
		Timestamp: ts,
		RoutePath: "/reports",
		Outcome:   audit.OutcomeAllowed,
	}
}

func TestMemoryStoreWriteAndCount(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	now := time.Now().UTC()
	for i, id := range []string{"a", "b", "c"} {
		if err := s.Write(ctx, recordAt(id, now.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	count, err := s.Count(ctx)
	if err != nil || count != 3 {
		t.Fatalf("Count() = (%d, %v), want (3, nil)", count, err)
	}
}

func TestMemoryStoreWriteCopies(t *testing.T) {
	s := NewMemoryStore()
	rec := recordAt("a", time.Now().UTC())

	if err := s.Write(context.Background(), rec); err != nil {
		t.Fatal(err)
	}
	rec.Outcome = audit.OutcomeDenied // mutation after write must not leak in

	stored := s.Records()
	if len(stored) != 1 {
		t.Fatalf("got %d records, want 1", len(stored))
	}
	if stored[0].Outcome != audit.OutcomeAllowed {
		t.Errorf("stored outcome = %q, want allowed", stored[0].Outcome)
	}
}

func TestMemoryStoreDeleteBefore(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	s.Write(ctx, recordAt("old", now.Add(-48*time.Hour)))
	s.Write(ctx, recordAt("older", now.Add(-72*time.Hour)))
	s.Write(ctx, recordAt("fresh", now))

	removed, err := s.DeleteBefore(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}

	records := s.Records()
	if len(records) != 1 || records[0].ID != "fresh" {
		t.Errorf("remaining = %v, want only fresh", records)
	}
}

func TestMemoryStoreDeleteOldest(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	// Written out of timestamp order on purpose.
	s.Write(ctx, recordAt("second", now.Add(1*time.Minute)))
	s.Write(ctx, recordAt("first", now))
	s.Write(ctx, recordAt("third", now.Add(2*time.Minute)))

	removed, err := s.DeleteOldest(ctx, 2)
	if err != nil {
		t.Fatalf("DeleteOldest() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}

	records := s.Records()
	if len(records) != 1 || records[0].ID != "third" {
		t.Errorf("remaining = %v, want only third", records)
	}

	// Asking for more than exists removes everything without error.
	s.Write(ctx, recordAt("extra", now))
	removed, err = s.DeleteOldest(ctx, 10)
	if err != nil || removed != 2 {
		t.Errorf("DeleteOldest(10) = (%d, %v), want (2, nil)", removed, err)
	}
}
