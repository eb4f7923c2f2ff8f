package tsclust

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Heterogeneity scores a partition by within-cluster dispersion: for each
// group with more than one member it sums the squared Euclidean distances
// over all unordered member pairs, weights the group total by 2/(size-1),
// and adds the groups up. Singleton groups contribute nothing, so the
// all-singleton partition scores 0. Lower is tighter.
func Heterogeneity(groups []int, numGroups int, y *mat.Dense) float64 {
	T, n := y.Dims()

	members := make([][]int, numGroups)
	for i := 0; i < n; i++ {
		g := groups[i]
		members[g] = append(members[g], i)
	}

	ci := make([]float64, T)
	cj := make([]float64, T)
	total := 0.0
	for _, cc := range members {
		if len(cc) < 2 {
			continue
		}
		sum := 0.0
		for i1 := 1; i1 < len(cc); i1++ {
			mat.Col(ci, cc[i1], y)
			for i2 := 0; i2 < i1; i2++ {
				mat.Col(cj, cc[i2], y)
				d := floats.Distance(ci, cj, 2)
				sum += d * d
			}
		}
		total += 2 / float64(len(cc)-1) * sum
	}
	return total
}
