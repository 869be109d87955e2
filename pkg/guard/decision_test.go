package guard

import (
	"context"
	"errors"
	"testing"
	"time"

	"mercator-hq/callisto/pkg/flags"
	"mercator-hq/callisto/pkg/router"
)

func TestDecisionIsRedirect(t *testing.T) {
	u := &router.CanonicalURL{Path: "/upgrade"}

	tests := []struct {
		name     string
		decision Decision
		want     bool
	}{
		{name: "allow", decision: Allow(), want: false},
		{name: "deny", decision: Deny(), want: false},
		{name: "redirect", decision: RedirectTo(u), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.decision.IsRedirect(); got != tt.want {
				t.Errorf("IsRedirect() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOutcomeResolveSync(t *testing.T) {
	outcome := SyncOutcome(Allow())

	d, err := outcome.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !d.Allowed {
		t.Error("Allowed = false, want true")
	}
}

func TestOutcomeResolveDeferred(t *testing.T) {
	src := flags.NewDeferred()
	outcome := DeferredOutcome(newDeferredDecision(src, func(enabled bool) Decision {
		if enabled {
			return Allow()
		}
		return Deny()
	}))

	go src.Resolve(true)

	d, err := outcome.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !d.Allowed {
		t.Error("Allowed = false, want true")
	}
}

func TestOutcomeResolveDeferredCancellation(t *testing.T) {
	src := flags.NewDeferred() // never resolves
	outcome := DeferredOutcome(newDeferredDecision(src, func(bool) Decision { return Allow() }))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := outcome.Resolve(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Resolve() error = %v, want deadline exceeded", err)
	}
}

func TestOutcomeResolveStreamWithoutEmission(t *testing.T) {
	src := flags.NewStream()
	src.Complete()
	outcome := StreamOutcome(newDecisionStream(src, func(bool) Decision { return Allow() }))

	_, err := outcome.Resolve(context.Background())
	if !errors.Is(err, flags.ErrStreamCompleted) {
		t.Errorf("Resolve() error = %v, want ErrStreamCompleted", err)
	}
}

func TestOutcomeResolveInvalidKind(t *testing.T) {
	outcome := &Outcome{}

	if _, err := outcome.Resolve(context.Background()); err == nil {
		t.Error("Resolve() error = nil, want error for zero kind")
	}
}

func TestOutcomeKindString(t *testing.T) {
	tests := []struct {
		kind OutcomeKind
		want string
	}{
		{OutcomeSync, "sync"},
		{OutcomeDeferred, "deferred"},
		{OutcomeStream, "stream"},
		{OutcomeKind(0), "invalid"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("OutcomeKind(%d).String() = %q, want %q", int(tt.kind), got, tt.want)
		}
	}
}
