package tsclust

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// updateMembership performs the single-site Gibbs sweep over cluster
// assignments. Series are visited in index order and each update sees the
// already-updated values of earlier series; this in-place, order-dependent
// semantics is what makes the sweep a valid single-site Gibbs kernel and must
// not be parallelized.
func (s *sampler) updateMembership() error {
	for i := 0; i < s.n; i++ {
		if err := s.updateMembershipOf(i); err != nil {
			return err
		}
	}
	return nil
}

// updateMembershipOf reassigns series i via the generalized Pólya urn:
// weight (nstar[j] - a)·density for each existing cluster j among the other
// n-1 series, weight (b + a·mi)·marginal density for a new cluster.
func (s *sampler) updateMembershipOf(i int) error {
	d, T := s.des.D, s.T
	cv := s.covs[i]
	sig2 := s.sig2eps[i]
	y := s.ycols[i]

	// Partition the remaining series by the first gamma coordinate.
	rest := make([]float64, 0, s.n-1)
	for j := 0; j < s.n; j++ {
		if j != i {
			rest = append(rest, s.gamma.At(0, j))
		}
	}
	part := PartitionValues(rest)
	mi := part.M

	// Map representatives back to original series columns.
	reps := make([]int, mi)
	for j, r := range part.Reps {
		if r >= i {
			r++
		}
		reps[j] = r
	}

	if mi == 0 {
		// Single remaining series: the urn degenerates to the new-cluster
		// option with probability one.
		return s.drawNewCluster(i, cv)
	}

	// Mean contribution of the unclustered covariates (zero vector for the
	// all-clustered shape).
	base := s.zAlpha(i)

	// Log densities: existing clusters use the diagonal noise covariance
	// around the cluster's shared signal; the new-cluster option uses the
	// marginal covariance W.
	logDens := make([]float64, mi+1)
	mean := make([]float64, T)
	for j := 0; j < mi; j++ {
		copy(mean, base)
		if d > 0 {
			xb := mulVec(s.des.X, s.betaOf(reps[j]), T)
			floats.Add(mean, xb)
		}
		for t := 0; t < T; t++ {
			mean[t] += s.gamma.At(d+t, reps[j])
		}
		logDens[j] = logProbDiagNormal(y, mean, sig2)
	}
	marginalMean := base
	if s.des.Kind == ModelOnlyClustered {
		marginalMean = make([]float64, T)
	}
	l0, err := logProbMVN(y, marginalMean, cv.W, "marginal residual")
	if err != nil {
		return err
	}
	logDens[mi] = l0

	// Urn prefactors.
	pre := make([]float64, mi+1)
	for j := 0; j < mi; j++ {
		pre[j] = float64(part.Counts[j]) - s.a
	}
	pre[mi] = s.b + s.a*float64(mi)

	weights := make([]float64, mi+1)
	den := 0.0
	for j := range weights {
		weights[j] = pre[j] * math.Exp(logDens[j])
		den += weights[j]
	}
	if den == 0 {
		// Every raw density underflowed. Recompute in log space and convert
		// through a second-order Taylor expansion of the exponential around
		// the smallest log weight; the polynomial 1+x+x²/2 is increasing for
		// x >= 0, so relative ordering survives and the normalizer is
		// strictly positive.
		lw := make([]float64, mi+1)
		for j := range lw {
			lw[j] = math.Log(pre[j]) + logDens[j]
		}
		shift := floats.Min(lw)
		den = 0
		for j := range weights {
			x := lw[j] - shift
			weights[j] = 1 + x + x*x/2
			den += weights[j]
		}
	}
	floats.Scale(1/den, weights)

	pick := int(distuv.NewCategorical(weights, s.src).Rand())
	if pick == mi {
		return s.drawNewCluster(i, cv)
	}

	// Join an existing cluster: copy its representative column verbatim so
	// the next sweep's partition sees an exact duplicate.
	src := reps[pick]
	for r := 0; r < d+T; r++ {
		s.gamma.Set(r, i, s.gamma.At(r, src))
	}
	return nil
}

// drawNewCluster samples a fresh gamma_i from its exact conditional
// posterior given the data of series i alone (the removed-series
// conditional), conditioning on the current alpha_i and, for the theta draw,
// the series' own current beta_i.
func (s *sampler) drawNewCluster(i int, cv *seriesCov) error {
	d, T := s.des.D, s.T
	sig2 := s.sig2eps[i]
	y := s.ycols[i]
	base := s.zAlpha(i)

	var beta0 []float64
	if d > 0 {
		// beta0 ~ N(V·X'Q⁻¹(y - Z·alpha_i), V)
		resid := make([]float64, T)
		floats.SubTo(resid, y, base)
		qr := symMulVec(cv.Qinv, resid)
		xtqr := mulVecT(s.des.X, qr, d)
		mu := symMulVec(cv.V, xtqr)
		var err error
		beta0, err = drawMVN(mu, cv.V, s.src, "new-cluster beta")
		if err != nil {
			return err
		}
	}

	// theta0 ~ N(S·(y - Z·alpha_i - X·beta_i)/sig2, S) with
	// S = (I/sig2 + R⁻¹)⁻¹.
	resid := make([]float64, T)
	floats.SubTo(resid, y, base)
	if d > 0 {
		xb := mulVec(s.des.X, s.betaOf(i), T)
		floats.Sub(resid, xb)
	}
	prec := addToDiag(s.rinv, 1/sig2)
	cov, _, err := spdInverse(prec, "new-cluster theta precision")
	if err != nil {
		return err
	}
	floats.Scale(1/sig2, resid)
	mu := symMulVec(cov, resid)
	theta0, err := drawMVN(mu, cov, s.src, "new-cluster theta")
	if err != nil {
		return err
	}

	for k := 0; k < d; k++ {
		s.gamma.Set(k, i, beta0[k])
	}
	for t := 0; t < T; t++ {
		s.gamma.Set(d+t, i, theta0[t])
	}
	return nil
}

// mulVecT returns mᵀ·x as a fresh slice of length want.
func mulVecT(m *mat.Dense, x []float64, want int) []float64 {
	out := make([]float64, want)
	var v mat.VecDense
	v.MulVec(m.T(), mat.NewVecDense(len(x), x))
	for i := 0; i < want; i++ {
		out[i] = v.AtVec(i)
	}
	return out
}
