package tsclust

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// bestPartition selects, among the saved partitions, the one whose induced
// co-clustering indicator matrix has minimum Frobenius distance to the
// normalized similarity matrix. Ties break toward the earliest iteration.
// The indicator matrix is reconstructed from the stored group labels: entry
// (i,j) is 1 when series i and j share a group (diagonal included).
func bestPartition(groups [][]int, sim *mat.SymDense) int {
	n := sim.SymmetricDim()
	best := 0
	bestDist := -1.0

	for k, gn := range groups {
		dist := 0.0
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				ind := 0.0
				if gn[i] == gn[j] {
					ind = 1
				}
				diff := ind - sim.At(i, j)
				dist += diff * diff
			}
		}
		if bestDist < 0 || dist < bestDist {
			bestDist = dist
			best = k
		}
	}
	return best
}

// summarize turns the finished chain into a Result: normalize the similarity
// counts, pick the saved partition closest to them, and score it.
func (s *sampler) summarize(scaled *ScaledData) (*Result, error) {
	simNorm := mat.NewSymDense(s.n, nil)
	for i := 0; i < s.n; i++ {
		for j := i; j < s.n; j++ {
			simNorm.SetSym(i, j, s.sim.At(i, j)/float64(s.saved))
		}
	}

	best := bestPartition(s.trace.Groups, simNorm)
	groups := s.trace.Groups[best]
	numGroups := s.trace.NumGroups[best]

	res := &Result{
		Groups:          groups,
		NumGroups:       numGroups,
		Heterogeneity:   Heterogeneity(groups, numGroups, s.y),
		LPML:            math.NaN(),
		Similarity:      simNorm,
		SavedIterations: s.saved,
		AcceptRateRho:   float64(s.accRho) / float64(s.cfg.MaxIter),
		AcceptRateA:     float64(s.accA) / float64(s.cfg.MaxIter),
		AcceptRateB:     float64(s.accB) / float64(s.cfg.MaxIter),
		Removed:         scaled.Removed,
		Scaled:          s.y,
		Trace:           s.trace,
	}
	if s.cfg.IndLPML {
		res.LPML = s.lpml.logPseudoMarginal()
	}
	return res, nil
}
