package tsclust

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// updateNoiseVariance draws each series' noise variance from its
// inverse-gamma conditional using the squared residuals against the current
// fitted mean. The residuals are independent across series given the shared
// state, so assembly fans out across workers; the draws stay sequential.
func (s *sampler) updateNoiseVariance() {
	d, T := s.des.D, s.T
	ssq := make([]float64, s.n)
	parallelRange(s.n, s.cfg.Workers, func(start, end int) {
		resid := make([]float64, T)
		for i := start; i < end; i++ {
			copy(resid, s.ycols[i])
			if s.des.P > 0 {
				floats.Sub(resid, s.zAlpha(i))
			}
			if d > 0 {
				floats.Sub(resid, mulVec(s.des.X, s.betaOf(i), T))
			}
			for t := 0; t < T; t++ {
				r := resid[t] - s.gamma.At(d+t, i)
				ssq[i] += r * r
			}
		}
	})
	shape := s.cfg.C0Eps + float64(T)/2
	for i := 0; i < s.n; i++ {
		s.sig2eps[i] = distuv.InverseGamma{
			Alpha: shape,
			Beta:  s.cfg.C1Eps + ssq[i]/2,
			Src:   s.src,
		}.Rand()
	}
}

// updateAlphaVariance draws the diagonal prior variances of alpha
// componentwise from their inverse-gamma conditionals.
func (s *sampler) updateAlphaVariance() {
	shape := s.cfg.C0Alpha + float64(s.n)/2
	for k := 0; k < s.des.P; k++ {
		ssq := 0.0
		for i := 0; i < s.n; i++ {
			v := s.alpha.At(k, i)
			ssq += v * v
		}
		s.sig2alpha[k] = distuv.InverseGamma{
			Alpha: shape,
			Beta:  s.cfg.C1Alpha + ssq,
			Src:   s.src,
		}.Rand()
	}
}

// updateBetaVariance draws the diagonal prior variances of beta from
// inverse-gamma conditionals built on the cluster-representative beta values
// (one draw per current cluster) and tiles them cyclically over the d slots
// when the cluster count is smaller than the covariate dimension.
func (s *sampler) updateBetaVariance() {
	m := s.part.M
	shape := s.cfg.C0Beta + float64(m)/2
	draws := make([]float64, m)
	for j := 0; j < m; j++ {
		bs := s.betaOf(s.part.Reps[j])
		ssq := floats.Dot(bs, bs)
		draws[j] = distuv.InverseGamma{
			Alpha: shape,
			Beta:  s.cfg.C1Beta + ssq/2,
			Src:   s.src,
		}.Rand()
	}
	cyclicFill(s.sig2beta, draws)
}

// cyclicFill fills dst from src, wrapping: dst[k] = src[k mod len(src)].
// The wrap point is len(dst) mod len(src).
func cyclicFill(dst, src []float64) {
	for k := range dst {
		dst[k] = src[k%len(src)]
	}
}

// updateThetaVariance draws the AR(1) marginal variance from its
// inverse-gamma conditional, with rate built from the quadratic form of the
// cluster-representative theta values against P⁻¹.
func (s *sampler) updateThetaVariance() error {
	m := s.part.M
	s1 := 0.0
	for j := 0; j < m; j++ {
		qf, err := quadFormSolve(s.cholCorr, s.thetaOf(s.part.Reps[j]))
		if err != nil {
			return err
		}
		s1 += qf
	}
	s.sig2the = distuv.InverseGamma{
		Alpha: float64(m*s.T) / 2,
		Beta:  s1 / 2,
		Src:   s.src,
	}.Rand()
	return nil
}

// updateRho is the Metropolis-Hastings step for the AR(1) correlation:
// propose rho' ~ Uniform(-1,1) and accept with probability
// min(1, exp(q)) where q trades the log-determinant change of P against the
// quadratic-form change and a Jacobian correction.
func (s *sampler) updateRho() error {
	rhoMH := distuv.Uniform{Min: -1, Max: 1, Src: s.src}.Rand()
	corrMH := arCorrelation(rhoMH, s.T)
	cholMH, err := spdFactorize(corrMH, "proposed AR(1) correlation matrix")
	if err != nil {
		return err
	}

	m := s.part.M
	diff := 0.0
	for j := 0; j < m; j++ {
		theta := s.thetaOf(s.part.Reps[j])
		qfNew, err := quadFormSolve(cholMH, theta)
		if err != nil {
			return err
		}
		qfOld, err := quadFormSolve(s.cholCorr, theta)
		if err != nil {
			return err
		}
		diff += qfNew - qfOld
	}

	q := -float64(m)*(cholMH.LogDet()-s.cholCorr.LogDet())/2 -
		diff/(2*s.sig2the) +
		(math.Log1p(rhoMH*rhoMH)-math.Log1p(s.rho*s.rho))/2 -
		math.Log(1-rhoMH*rhoMH) + math.Log(1-s.rho*s.rho)

	if math.Log(s.unif.Rand()) <= math.Min(0, q) {
		s.rho = rhoMH
		s.corr = corrMH
		s.cholCorr = cholMH
		inv, _, err := spdInverse(corrMH, "accepted AR(1) correlation matrix")
		if err != nil {
			return err
		}
		s.corrInv = inv
		s.accRho++
	}
	return nil
}

// discountProposal is the mixed discrete/continuous proposal of the a-step:
// either exactly zero or a continuous value, never conflated through float
// comparison.
type discountProposal struct {
	zero  bool
	value float64
}

// proposeDiscount draws from the a-step proposal. When b is negative the
// proposal must keep a+b positive, so only the continuous branch is
// available, on (-b, 1); otherwise a fair coin picks the point mass at zero
// or a uniform draw on (0,1).
func (s *sampler) proposeDiscount() discountProposal {
	if s.b < 0 {
		return discountProposal{value: distuv.Uniform{Min: -s.b, Max: 1, Src: s.src}.Rand()}
	}
	if s.unif.Rand() <= 0.5 {
		return discountProposal{zero: true}
	}
	return discountProposal{value: s.unif.Rand()}
}

// discountPriorLog is the log prior density of the discount parameter: a
// point mass at zero with weight pia mixed with a Beta(q0a, q1a) density.
// A value of exactly zero only ever arises by explicit assignment from the
// zero branch of the proposal.
func (s *sampler) discountPriorLog(x float64) float64 {
	if x == 0 {
		return math.Log(s.cfg.PiA)
	}
	beta := distuv.Beta{Alpha: s.cfg.Q0A, Beta: s.cfg.Q1A}
	return math.Log(1-s.cfg.PiA) + beta.LogProb(x)
}

// updateDiscount is the Metropolis-Hastings step for the Pitman-Yor discount
// parameter a, with acceptance ratio built from gamma-function terms over the
// current cluster sizes.
func (s *sampler) updateDiscount() {
	prop := s.proposeDiscount()
	aMH := prop.value

	// Restore validity directly if the state ever degenerates to a+b <= 0.
	if s.a+s.b <= 0 {
		s.a = aMH
		return
	}

	m := s.part.M
	nstar := s.part.Counts
	quot := 0.0
	for j := 0; j < m-1; j++ {
		quot += math.Log(s.b+float64(j+1)*aMH) + lgamma(float64(nstar[j])-aMH) - lgamma(1-aMH) -
			math.Log(s.b+float64(j+1)*s.a) - lgamma(float64(nstar[j])-s.a) + lgamma(1-s.a)
	}
	last := float64(nstar[m-1])
	quot += lgamma(last-aMH) - lgamma(1-aMH) - lgamma(last-s.a) + lgamma(1-s.a)
	quot += s.discountPriorLog(aMH) - s.discountPriorLog(s.a)

	if math.Log(s.unif.Rand()) <= math.Min(0, quot) {
		s.a = aMH
		s.accA++
	}
}

// updateStrength is the Metropolis-Hastings step for the Pitman-Yor strength
// parameter b, with a Gamma proposal shifted by a so the invariant b > -a
// holds after every accepted move.
func (s *sampler) updateStrength() {
	y1 := distuv.Gamma{Alpha: 1, Beta: 0.1, Src: s.src}.Rand()
	bMH := y1 - s.a

	if s.a+s.b <= 0 {
		s.b = bMH
		return
	}

	m := s.part.M
	n := float64(s.n)
	quot := 0.0
	for j := 0; j < m-1; j++ {
		quot += math.Log(bMH+float64(j+1)*s.a) - math.Log(s.b+float64(j+1)*s.a)
	}
	quot += lgamma(bMH+1) - lgamma(bMH+n) - lgamma(s.b+1) + lgamma(s.b+n)

	prior := distuv.Gamma{Alpha: s.cfg.Q0B, Beta: 1 / s.cfg.Q1B}
	quot += prior.LogProb(y1) - prior.LogProb(s.a+s.b)
	quot -= 0.1 * (s.b - bMH)

	if math.Log(s.unif.Rand()) <= math.Min(0, quot) {
		s.b = bMH
		s.accB++
	}
}

// lgamma is math.Lgamma without the sign; every argument here is positive.
func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}
