package tsclust

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestHeterogeneitySingletons(t *testing.T) {
	y := mat.NewDense(3, 3, []float64{
		1, 4, 7,
		2, 5, 8,
		3, 6, 9,
	})
	if got := Heterogeneity([]int{0, 1, 2}, 3, y); got != 0 {
		t.Errorf("all-singleton heterogeneity = %v, want 0", got)
	}
}

func TestHeterogeneityIdenticalSeries(t *testing.T) {
	y := mat.NewDense(3, 2, []float64{
		1, 1,
		2, 2,
		3, 3,
	})
	if got := Heterogeneity([]int{0, 0}, 1, y); got != 0 {
		t.Errorf("identical-series heterogeneity = %v, want 0", got)
	}
}

func TestHeterogeneityManual(t *testing.T) {
	// Group 0 = {col 0, col 1} with squared distance 2² + 2² = 8, size 2
	// so the group contributes 2/(2-1) · 8 = 16. Column 2 is a singleton.
	y := mat.NewDense(2, 3, []float64{
		0, 2, 10,
		0, 2, 10,
	})
	got := Heterogeneity([]int{0, 0, 1}, 2, y)
	if math.Abs(got-16) > 1e-12 {
		t.Errorf("heterogeneity = %v, want 16", got)
	}
}

func TestHeterogeneityThreeMemberGroup(t *testing.T) {
	// One group of three columns at 0, 1, 3 (constant in time, T = 1).
	// Pairwise squared distances: 1, 9, 4; sum 14; weight 2/(3-1) = 1.
	y := mat.NewDense(1, 3, []float64{0, 1, 3})
	got := Heterogeneity([]int{0, 0, 0}, 1, y)
	if math.Abs(got-14) > 1e-12 {
		t.Errorf("heterogeneity = %v, want 14", got)
	}
}

func TestHeterogeneityTighterIsLower(t *testing.T) {
	tight := mat.NewDense(2, 2, []float64{
		0, 0.1,
		0, 0.1,
	})
	loose := mat.NewDense(2, 2, []float64{
		0, 5,
		0, 5,
	})
	groups := []int{0, 0}
	if Heterogeneity(groups, 1, tight) >= Heterogeneity(groups, 1, loose) {
		t.Error("tighter cluster should score lower heterogeneity")
	}
}
