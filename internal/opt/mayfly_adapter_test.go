package opt

import (
	"math"
	"testing"
)

// Shifted sphere: minimum at (1, -2, 3)
func shiftedSphere(x []float64) float64 {
	centre := []float64{1, -2, 3}
	var sum float64
	for i, v := range x {
		d := v - centre[i]
		sum += d * d
	}
	return sum
}

func TestMayflyAdapterOnShiftedSphere(t *testing.T) {
	optimizer := NewMayfly(100, 20, 42)

	bounds := []Bound{
		{Name: "x", Lower: -10, Upper: 10},
		{Name: "y", Lower: -5, Upper: 0},
		{Name: "z", Lower: 0, Upper: 20},
	}
	best, cost, err := optimizer.Minimize(shiftedSphere, bounds)
	if err != nil {
		t.Fatalf("Minimize failed: %v", err)
	}

	if len(best) != len(bounds) {
		t.Fatalf("Expected %d parameters, got %d", len(bounds), len(best))
	}
	if cost > 0.5 {
		t.Errorf("Expected cost near 0, got %f", cost)
	}
	for i, v := range best {
		if v < bounds[i].Lower || v > bounds[i].Upper {
			t.Errorf("Parameter %d = %f outside [%f, %f]", i, v, bounds[i].Lower, bounds[i].Upper)
		}
	}
	if math.Abs(best[0]-1) > 1 {
		t.Errorf("Parameter x = %f, expected near 1", best[0])
	}
}

func TestMayflyAdapterDeterministic(t *testing.T) {
	bounds := []Bound{{Lower: -5, Upper: 5}, {Lower: -5, Upper: 5}, {Lower: -5, Upper: 5}}

	_, cost1, err := NewMayfly(50, 20, 123).Minimize(shiftedSphere, bounds)
	if err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	_, cost2, err := NewMayfly(50, 20, 123).Minimize(shiftedSphere, bounds)
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}

	if cost1 != cost2 {
		t.Errorf("Non-deterministic: cost1=%f, cost2=%f", cost1, cost2)
	}
}

func TestMayflyAdapterRejectsBadInput(t *testing.T) {
	m := NewMayfly(10, 20, 1)

	if _, _, err := m.Minimize(nil, []Bound{{Lower: 0, Upper: 1}}); err == nil {
		t.Error("Expected error for nil objective")
	}
	if _, _, err := m.Minimize(shiftedSphere, nil); err == nil {
		t.Error("Expected error for empty bounds")
	}
	if _, _, err := m.Minimize(shiftedSphere, []Bound{{Lower: 1, Upper: 1}}); err == nil {
		t.Error("Expected error for empty interval")
	}
	if _, _, err := NewMayfly(0, 20, 1).Minimize(shiftedSphere, []Bound{{Lower: 0, Upper: 1}}); err == nil {
		t.Error("Expected error for zero iterations")
	}
}

func TestNewMayflyRaisesSmallPopulation(t *testing.T) {
	if m := NewMayfly(10, 5, 1); m.popSize != MinMayflyPopulation {
		t.Errorf("Expected population %d, got %d", MinMayflyPopulation, m.popSize)
	}
}

func TestScaleClamps(t *testing.T) {
	got := scale([]float64{-0.5, 0.5, 1.5}, []Bound{{Lower: 0, Upper: 10}, {Lower: -2, Upper: 2}, {Lower: 1, Upper: 3}})
	want := []float64{0, 0, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("scale[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}
