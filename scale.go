package tsclust

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ScaledData is the output of ScaleSeries: the observation matrix with every
// column mapped into [0,1], plus the original indices of any columns that had
// to be dropped because they were constant over time.
type ScaledData struct {
	// Data is T×n with each column scaled to the unit interval. Column c
	// corresponds to input column c after skipping the Removed columns.
	Data *mat.Dense

	// Removed lists input column indices dropped for having zero range.
	// Empty when every series survived.
	Removed []int
}

// ScaleSeries maps each column of raw into [0,1] via
//
//	x' = 1 + (x - max)/(max - min)
//
// so the column minimum lands on 0 and the maximum on 1. Columns with zero
// range cannot be scaled and are removed; their indices are reported in
// ScaledData.Removed. Returns an error if no series remain.
func ScaleSeries(raw *mat.Dense) (*ScaledData, error) {
	T, n := raw.Dims()
	if T == 0 || n == 0 {
		return nil, fmt.Errorf("tsclust: empty data matrix (%d×%d)", T, n)
	}

	col := make([]float64, T)
	var kept, removed []int
	for j := 0; j < n; j++ {
		mat.Col(col, j, raw)
		if floats.Max(col) == floats.Min(col) {
			removed = append(removed, j)
			continue
		}
		kept = append(kept, j)
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("tsclust: all %d series are constant in time", n)
	}

	out := mat.NewDense(T, len(kept), nil)
	for c, j := range kept {
		mat.Col(col, j, raw)
		mx := floats.Max(col)
		rng := mx - floats.Min(col)
		for t := 0; t < T; t++ {
			out.Set(t, c, 1+(col[t]-mx)/rng)
		}
	}
	return &ScaledData{Data: out, Removed: removed}, nil
}
