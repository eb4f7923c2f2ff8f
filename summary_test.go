package tsclust

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestBestPartition(t *testing.T) {
	// Similarity says series 0 and 1 always co-cluster, series 2 never joins.
	sim := mat.NewSymDense(3, nil)
	sim.SetSym(0, 0, 1)
	sim.SetSym(1, 1, 1)
	sim.SetSym(2, 2, 1)
	sim.SetSym(0, 1, 1)
	sim.SetSym(0, 2, 0)
	sim.SetSym(1, 2, 0)

	groups := [][]int{
		{0, 1, 2},    // all singletons
		{0, 0, 1},    // matches the similarity exactly
		{0, 0, 0},    // everything merged
	}
	if got := bestPartition(groups, sim); got != 1 {
		t.Errorf("bestPartition = %d, want 1", got)
	}
}

func TestBestPartitionTieBreaksEarliest(t *testing.T) {
	sim := mat.NewSymDense(2, nil)
	sim.SetSym(0, 0, 1)
	sim.SetSym(1, 1, 1)
	sim.SetSym(0, 1, 0.5)

	// Both saved partitions are equidistant from the similarity matrix.
	groups := [][]int{
		{0, 0},
		{0, 1},
	}
	if got := bestPartition(groups, sim); got != 0 {
		t.Errorf("bestPartition = %d, want 0 (earliest on tie)", got)
	}
}
