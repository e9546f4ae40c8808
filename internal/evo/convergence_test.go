package evo

import (
	"math"
	"testing"
)

func TestConvergenceTracker_BasicConvergence(t *testing.T) {
	config := ConvergenceConfig{
		Enabled:   true,
		Patience:  3,
		Threshold: 0.01,
	}
	tracker := NewConvergenceTracker(config)

	if tracker.Best() != math.Inf(-1) {
		t.Errorf("Expected initial best to be -Inf, got %v", tracker.Best())
	}

	if tracker.Update(10) {
		t.Error("Should not converge on first update")
	}

	// 20% gain resets the stale counter
	if tracker.Update(12) {
		t.Error("Should not converge after improvement")
	}
	if tracker.StaleCount() != 0 {
		t.Errorf("Expected stale count 0 after improvement, got %v", tracker.StaleCount())
	}

	// Gains below 1% of 12 count as stale
	for i, f := range []float64{12.05, 12.06} {
		if tracker.Update(f) {
			t.Errorf("Should not converge yet (%d/3)", i+1)
		}
	}
	if tracker.StaleCount() != 2 {
		t.Errorf("Expected stale count 2, got %v", tracker.StaleCount())
	}

	if !tracker.Update(12.07) {
		t.Error("Should converge once patience is exhausted")
	}
	if tracker.Best() != 12.07 {
		t.Errorf("Expected best 12.07, got %v", tracker.Best())
	}
}

func TestConvergenceTracker_ImprovementResetsStaleCount(t *testing.T) {
	tracker := NewConvergenceTracker(ConvergenceConfig{Enabled: true, Patience: 2, Threshold: 0.05})

	tracker.Update(100)
	tracker.Update(101)
	if tracker.StaleCount() != 1 {
		t.Errorf("Expected stale count 1, got %v", tracker.StaleCount())
	}

	tracker.Update(106)
	if tracker.StaleCount() != 0 {
		t.Errorf("Expected stale count reset to 0, got %v", tracker.StaleCount())
	}
}

func TestConvergenceTracker_RegressionIsStale(t *testing.T) {
	tracker := NewConvergenceTracker(ConvergenceConfig{Enabled: true, Patience: 5, Threshold: 0.01})

	tracker.Update(50)
	tracker.Update(40)
	if tracker.StaleCount() != 1 {
		t.Errorf("Expected stale count 1 after regression, got %v", tracker.StaleCount())
	}
	if tracker.Best() != 50 {
		t.Errorf("Expected best to stay 50, got %v", tracker.Best())
	}
}

func TestConvergenceTracker_ZeroBaseline(t *testing.T) {
	tracker := NewConvergenceTracker(ConvergenceConfig{Enabled: true, Patience: 1, Threshold: 0.5})

	tracker.Update(0)
	if tracker.Update(0.001) {
		t.Error("Any gain over a zero baseline should count as progress")
	}
	if !tracker.Update(0.001) {
		t.Error("Expected convergence with patience 1")
	}
}

func TestConvergenceTracker_Disabled(t *testing.T) {
	tracker := NewConvergenceTracker(DisabledConvergenceConfig())

	for i := 0; i < 100; i++ {
		if tracker.Update(1) {
			t.Fatal("Disabled tracker should never report convergence")
		}
	}
	if len(tracker.History()) != 0 {
		t.Errorf("Disabled tracker should not record history, got %d entries", len(tracker.History()))
	}
}

func TestConvergenceTracker_Reset(t *testing.T) {
	tracker := NewConvergenceTracker(DefaultConvergenceConfig())
	tracker.Update(1)
	tracker.Update(1)

	tracker.Reset()
	if tracker.StaleCount() != 0 || len(tracker.History()) != 0 {
		t.Errorf("Reset should clear state, got stale=%d history=%d", tracker.StaleCount(), len(tracker.History()))
	}
	if tracker.Best() != math.Inf(-1) {
		t.Errorf("Reset should clear best, got %v", tracker.Best())
	}
}

func TestStateString(t *testing.T) {
	cases := map[State]string{
		StateNew:      "new",
		StateRanked:   "ranked",
		StateTerminal: "terminal",
		State(42):     "state(42)",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}
