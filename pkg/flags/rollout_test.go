package flags

import (
	"context"
	"math/rand"
	"testing"
)

func TestRolloutEnablerBoundaries(t *testing.T) {
	e := NewRolloutEnabler()

	for i := 0; i < 100; i++ {
		if !e.Enabled(100) {
			t.Fatal("Enabled(100) = false, want always on")
		}
		if e.Enabled(0) {
			t.Fatal("Enabled(0) = true, want always off")
		}
	}
	if !e.Enabled(150) {
		t.Error("Enabled(150) = false, want on for percentages above 100")
	}
}

func TestRolloutEnablerDistribution(t *testing.T) {
	// A fixed source makes the sequence deterministic; the proportion of
	// on-decisions must track the percentage.
	e := NewRolloutEnablerWithSource(rand.NewSource(1))

	const trials = 10000
	var on int
	for i := 0; i < trials; i++ {
		if e.Enabled(30) {
			on++
		}
	}

	ratio := float64(on) / trials
	if ratio < 0.25 || ratio > 0.35 {
		t.Errorf("on-ratio = %.3f, want ~0.30", ratio)
	}
}

func TestStaticServiceEvaluation(t *testing.T) {
	registry := NewRegistry(map[Flag]Definition{
		"on-flag":  {State: StateEnabled},
		"off-flag": {State: StateDisabled},
		"all-in":   {State: StateRollout, RolloutPercent: 100},
		"none-in":  {State: StateRollout, RolloutPercent: 0},
	})
	svc := NewStaticService(registry)

	tests := []struct {
		flag Flag
		want bool
	}{
		{"on-flag", true},
		{"off-flag", false},
		{"all-in", true},
		{"none-in", false},
		{"unknown", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.flag), func(t *testing.T) {
			result := svc.IsEnabled(context.Background(), tt.flag)
			if result.Kind != KindBool {
				t.Fatalf("Kind = %v, want bool", result.Kind)
			}
			if result.Bool != tt.want {
				t.Errorf("IsEnabled(%s) = %v, want %v", tt.flag, result.Bool, tt.want)
			}
		})
	}
}
