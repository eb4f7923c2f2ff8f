package tsclust

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// accelerate is the Rao-Blackwellization step: after the membership sweep it
// repartitions all n series, then jointly redraws each cluster's shared
// beta*/theta* from the exact posterior given every current member, replacing
// member-specific noise with the cluster's pooled evidence. When the
// iteration is due for saving it also increments the co-clustering counts.
func (s *sampler) accelerate(iter int) error {
	d, T := s.des.D, s.T

	row0 := make([]float64, s.n)
	mat.Row(row0, 0, s.gamma)
	part := PartitionValues(row0)

	// Member lists per cluster.
	members := make([][]int, part.M)
	for i, g := range part.Groups {
		members[g] = append(members[g], i)
	}

	saving := s.shouldSave(iter)

	for j := 0; j < part.M; j++ {
		cc := members[j]
		rep := part.Reps[j]

		var betaStar, thetaStar []float64
		if d > 0 {
			betaStar = s.betaOf(rep)
			thetaStar = s.thetaOf(rep)
		}

		// Precision-weighted sufficient statistics across members. The
		// member noise covariances are diagonal, so the pooled precision is
		// wsum·I.
		wsum := 0.0
		aux1 := make([]float64, T) // drives the theta* draw
		var aux2 []float64         // drives the beta* draw
		if d > 0 {
			aux2 = make([]float64, T)
		}
		r1 := make([]float64, T)
		for _, c := range cc {
			w := 1 / s.sig2eps[c]
			wsum += w

			copy(r1, s.ycols[c])
			if s.des.P > 0 {
				floats.Sub(r1, s.zAlpha(c))
			}
			if d > 0 {
				// r2 shares the unclustered part of r1 before the clustered
				// signal is subtracted.
				for t := 0; t < T; t++ {
					aux2[t] += w * (r1[t] - thetaStar[t])
				}
				xb := mulVec(s.des.X, betaStar, T)
				floats.Sub(r1, xb)
			}
			for t := 0; t < T; t++ {
				aux1[t] += w * r1[t]
			}
		}

		// beta* | members ~ N(Sb·X'·aux2, Sb), Sb = (wsum·X'X + Σbeta⁻¹)⁻¹.
		var betaDraw []float64
		if d > 0 {
			prec := mat.NewSymDense(d, nil)
			for ri := 0; ri < d; ri++ {
				for ci := ri; ci < d; ci++ {
					prec.SetSym(ri, ci, wsum*s.xtx.At(ri, ci))
				}
			}
			for k := 0; k < d; k++ {
				prec.SetSym(k, k, prec.At(k, k)+1/s.sig2beta[k])
			}
			cov, _, err := spdInverse(prec, "acceleration beta precision")
			if err != nil {
				return err
			}
			mu := symMulVec(cov, mulVecT(s.des.X, aux2, d))
			betaDraw, err = drawMVN(mu, cov, s.src, "acceleration beta")
			if err != nil {
				return err
			}
		}

		// theta* | members ~ N(St·aux1, St), St = (wsum·I + R⁻¹)⁻¹.
		prec := addToDiag(s.rinv, wsum)
		cov, _, err := spdInverse(prec, "acceleration theta precision")
		if err != nil {
			return err
		}
		mu := symMulVec(cov, aux1)
		thetaDraw, err := drawMVN(mu, cov, s.src, "acceleration theta")
		if err != nil {
			return err
		}

		for _, c := range cc {
			for k := 0; k < d; k++ {
				s.gamma.Set(k, c, betaDraw[k])
			}
			for t := 0; t < T; t++ {
				s.gamma.Set(d+t, c, thetaDraw[t])
			}
		}

		if saving {
			s.recordSimilarity(cc)
		}
	}

	// The variance and MH steps read the partition recomputed from the second
	// gamma coordinate; the first coordinate drove the membership sweep above.
	// After acceleration every member shares its cluster's whole gamma column,
	// so both coordinates induce the same grouping.
	row1 := make([]float64, s.n)
	mat.Row(row1, 1, s.gamma)
	s.part = PartitionValues(row1)
	return nil
}

// recordSimilarity bumps the pairwise co-clustering counts for one cluster's
// member list. Off-diagonal pairs are counted once per saved iteration in
// both triangles; diagonal entries once, so after normalization the diagonal
// is exactly 1.
func (s *sampler) recordSimilarity(cc []int) {
	for i1 := 0; i1 < len(cc); i1++ {
		s.sim.SetSym(cc[i1], cc[i1], s.sim.At(cc[i1], cc[i1])+1)
		for i2 := i1 + 1; i2 < len(cc); i2++ {
			s.sim.SetSym(cc[i1], cc[i2], s.sim.At(cc[i1], cc[i2])+1)
		}
	}
}
