package tsclust

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Trace holds one row per saved iteration of the chain. All slices have the
// same length (the number of saved iterations) and are read-only once
// sampling ends.
type Trace struct {
	// Groups[k][i] is the group of series i at saved iteration k.
	Groups [][]int
	// NumGroups[k] is the number of clusters at saved iteration k.
	NumGroups []int

	Sig2Eps [][]float64
	Sig2The []float64
	Rho     []float64
	A       []float64
	B       []float64

	// Sig2Alpha is nil when the model has no unclustered covariates;
	// Sig2Beta is nil when it has no clustered covariates.
	Sig2Alpha [][]float64
	Sig2Beta  [][]float64
}

// sampler is the full state of the Markov chain: the latent matrices, the
// hyperparameters, the AR(1) covariance pieces, and the accumulators that the
// acceleration step writes into. One sampler owns one chain; nothing here is
// safe for concurrent use.
type sampler struct {
	cfg Config
	des *Design

	y     *mat.Dense  // T×n scaled observations, immutable
	ycols [][]float64 // column views copied out once
	T, n  int

	src  rand.Source
	unif distuv.Uniform // one variate per MH accept/reject decision

	alpha *mat.Dense // P×n per-series unclustered coefficients, nil when P == 0
	gamma *mat.Dense // (D+T)×n stacked beta (rows 0..D) and theta (rows D..D+T)

	sig2eps   []float64 // per-series noise variance
	sig2alpha []float64 // nil when P == 0
	sig2beta  []float64 // nil when D == 0
	sig2the   float64
	rho       float64
	a, b      float64

	corr     *mat.SymDense // AR(1) correlation matrix P(rho)
	cholCorr *mat.Cholesky
	corrInv  *mat.SymDense
	r        *mat.SymDense // sig2the · P
	rinv     *mat.SymDense

	// covs is refreshed once per iteration: its entries are constant across
	// the alpha and membership steps of a single sweep.
	covs []*seriesCov

	// xtx caches X'X, fixed for the run; nil when D == 0.
	xtx *mat.SymDense

	// part is the partition recomputed at the end of the acceleration step
	// (from gamma row 1); the variance and MH steps read it.
	part Partition

	sim      *mat.SymDense // pairwise co-clustering counts over saved iterations
	trace    *Trace
	capacity int // CL = floor((maxiter-burnin)/thinning)
	saved    int

	accRho, accA, accB int

	lpml *lpmlAccum
}

func newSampler(y *mat.Dense, des *Design, cfg Config) (*sampler, error) {
	T, n := y.Dims()
	s := &sampler{
		cfg:  cfg,
		des:  des,
		y:    y,
		T:    T,
		n:    n,
		src:  rand.NewPCG(cfg.Seed, cfg.Seed+1),
		covs: make([]*seriesCov, n),
		sim:  mat.NewSymDense(n, nil),
	}
	s.unif = distuv.Uniform{Min: 0, Max: 1, Src: s.src}

	s.ycols = make([][]float64, n)
	for i := 0; i < n; i++ {
		col := make([]float64, T)
		mat.Col(col, i, y)
		s.ycols[i] = col
	}

	s.capacity = (cfg.MaxIter - cfg.Burnin) / cfg.Thinning
	if s.capacity < 1 {
		return nil, fmt.Errorf("tsclust: no iterations would be saved (maxiter=%d burnin=%d thinning=%d)",
			cfg.MaxIter, cfg.Burnin, cfg.Thinning)
	}
	s.trace = &Trace{
		Groups:    make([][]int, 0, s.capacity),
		NumGroups: make([]int, 0, s.capacity),
		Sig2Eps:   make([][]float64, 0, s.capacity),
		Sig2The:   make([]float64, 0, s.capacity),
		Rho:       make([]float64, 0, s.capacity),
		A:         make([]float64, 0, s.capacity),
		B:         make([]float64, 0, s.capacity),
	}
	if des.P > 0 {
		s.trace.Sig2Alpha = make([][]float64, 0, s.capacity)
	}
	if des.D > 0 {
		s.trace.Sig2Beta = make([][]float64, 0, s.capacity)
	}
	if cfg.IndLPML {
		s.lpml = newLPMLAccum((cfg.MaxIter-cfg.Burnin)/10, n)
	}

	if des.D > 0 {
		var xtx mat.Dense
		xtx.Mul(des.X.T(), des.X)
		s.xtx = symmetrize(&xtx)
	}

	if err := s.initState(); err != nil {
		return nil, err
	}
	return s, nil
}

// initState draws the initial parameter values from their priors.
func (s *sampler) initState() error {
	s.sig2eps = make([]float64, s.n)
	for i := range s.sig2eps {
		s.sig2eps[i] = 1
	}
	s.sig2the = 1
	s.rho = 0
	s.a = s.cfg.A
	s.b = s.cfg.B

	s.corr = arCorrelation(s.rho, s.T)
	var err error
	s.corrInv, s.cholCorr, err = spdInverse(s.corr, "AR(1) correlation matrix")
	if err != nil {
		return err
	}
	s.updateR()

	if s.des.P > 0 {
		s.sig2alpha = make([]float64, s.des.P)
		for k := range s.sig2alpha {
			s.sig2alpha[k] = 1
		}
		s.alpha = mat.NewDense(s.des.P, s.n, nil)
		for i := 0; i < s.n; i++ {
			for k := 0; k < s.des.P; k++ {
				s.alpha.Set(k, i, distuv.Normal{Mu: 0, Sigma: 1, Src: s.src}.Rand())
			}
		}
	}

	d := s.des.D
	s.gamma = mat.NewDense(d+s.T, s.n, nil)
	if d > 0 {
		s.sig2beta = make([]float64, d)
		for k := range s.sig2beta {
			s.sig2beta[k] = 1
		}
		for i := 0; i < s.n; i++ {
			for k := 0; k < d; k++ {
				s.gamma.Set(k, i, distuv.Normal{Mu: 0, Sigma: 1, Src: s.src}.Rand())
			}
		}
	}

	zeros := make([]float64, s.T)
	for i := 0; i < s.n; i++ {
		theta, err := drawMVN(zeros, s.r, s.src, "initial theta")
		if err != nil {
			return err
		}
		for t := 0; t < s.T; t++ {
			s.gamma.Set(d+t, i, theta[t])
		}
	}
	return nil
}

// updateR recomputes R = sig2the·P and its inverse from the current
// correlation matrix and AR(1) variance.
func (s *sampler) updateR() {
	T := s.T
	if s.r == nil {
		s.r = mat.NewSymDense(T, nil)
		s.rinv = mat.NewSymDense(T, nil)
	}
	for i := 0; i < T; i++ {
		for j := i; j < T; j++ {
			s.r.SetSym(i, j, s.sig2the*s.corr.At(i, j))
			s.rinv.SetSym(i, j, s.corrInv.At(i, j)/s.sig2the)
		}
	}
}

// refreshCovs rebuilds the per-series covariance pieces for the current
// sig2eps, R and sig2beta. The entries are independent of each other, so the
// assembly fans out across workers; no randomness is involved.
func (s *sampler) refreshCovs() error {
	var invSig2Beta []float64
	if s.des.D > 0 {
		invSig2Beta = invDiag(s.sig2beta)
	}
	errs := make([]error, s.n)
	parallelRange(s.n, s.cfg.Workers, func(start, end int) {
		for i := start; i < end; i++ {
			cv, err := newSeriesCov(s.sig2eps[i], s.r, s.des.X, invSig2Beta)
			if err != nil {
				errs[i] = fmt.Errorf("series %d: %w", i, err)
				continue
			}
			s.covs[i] = cv
		}
	})
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// run executes the full Gibbs/Metropolis-Hastings loop.
func (s *sampler) run() error {
	for iter := 0; iter < s.cfg.MaxIter; iter++ {
		if err := s.refreshCovs(); err != nil {
			return err
		}
		if s.des.P > 0 {
			if err := s.updateAlpha(); err != nil {
				return err
			}
		}
		if err := s.updateMembership(); err != nil {
			return err
		}
		if err := s.accelerate(iter); err != nil {
			return err
		}
		s.updateNoiseVariance()
		if s.des.P > 0 {
			s.updateAlphaVariance()
		}
		if s.des.D > 0 {
			s.updateBetaVariance()
		}
		if err := s.updateThetaVariance(); err != nil {
			return err
		}
		if err := s.updateRho(); err != nil {
			return err
		}
		s.updateR()
		if s.cfg.PriorA {
			s.updateDiscount()
		}
		if s.cfg.PriorB {
			s.updateStrength()
		}
		s.checkpoint(iter)
		if s.cfg.IndLPML {
			if err := s.accumulateLPML(iter); err != nil {
				return err
			}
		}
		if s.cfg.Progress != nil && (iter+1)%progressEvery == 0 {
			s.cfg.Progress(iter+1, s.cfg.MaxIter)
		}
	}
	return nil
}

// progressEvery is how often the Progress callback fires, in iterations.
const progressEvery = 50

// shouldSave reports whether this iteration's state belongs in the trace:
// past burn-in, aligned with the thinning interval, and within the
// preallocated trace capacity.
func (s *sampler) shouldSave(iter int) bool {
	return iter >= s.cfg.Burnin && iter%s.cfg.Thinning == 0 && s.saved < s.capacity
}

// updateAlpha draws each series' unclustered coefficients from their Gaussian
// conditional posterior: precision Z'W⁻¹Z + Σalpha⁻¹, mean Valpha·Z'W⁻¹y.
// The posterior assembly is deterministic and fans out across workers; the
// draws themselves stay sequential on the sampler goroutine.
func (s *sampler) updateAlpha() error {
	type alphaPost struct {
		cov *mat.SymDense
		mu  []float64
	}
	posts := make([]alphaPost, s.n)
	errs := make([]error, s.n)
	z := s.des.Z
	invSig2Alpha := invDiag(s.sig2alpha)

	parallelRange(s.n, s.cfg.Workers, func(start, end int) {
		for i := start; i < end; i++ {
			cv := s.covs[i]

			var wz mat.Dense // T×p
			wz.Mul(cv.Winv, z)
			var ztwz mat.Dense // p×p
			ztwz.Mul(z.T(), &wz)
			prec := symmetrize(&ztwz)
			for k := 0; k < s.des.P; k++ {
				prec.SetSym(k, k, prec.At(k, k)+invSig2Alpha[k])
			}
			valpha, _, err := spdInverse(prec, "alpha posterior precision")
			if err != nil {
				errs[i] = fmt.Errorf("series %d: %w", i, err)
				continue
			}

			wy := symMulVec(cv.Winv, s.ycols[i])
			var ztwy mat.VecDense
			ztwy.MulVec(z.T(), mat.NewVecDense(s.T, wy))
			rhs := make([]float64, s.des.P)
			for k := range rhs {
				rhs[k] = ztwy.AtVec(k)
			}
			posts[i] = alphaPost{cov: valpha, mu: symMulVec(valpha, rhs)}
		}
	})
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	for i := 0; i < s.n; i++ {
		draw, err := drawMVN(posts[i].mu, posts[i].cov, s.src, "alpha posterior")
		if err != nil {
			return err
		}
		for k := 0; k < s.des.P; k++ {
			s.alpha.Set(k, i, draw[k])
		}
	}
	return nil
}

// checkpoint appends the current partition and hyperparameters to the trace.
func (s *sampler) checkpoint(iter int) {
	if !s.shouldSave(iter) {
		return
	}
	s.saved++

	gn := make([]int, s.n)
	copy(gn, s.part.Groups)
	s.trace.Groups = append(s.trace.Groups, gn)
	s.trace.NumGroups = append(s.trace.NumGroups, s.part.M)

	eps := make([]float64, s.n)
	copy(eps, s.sig2eps)
	s.trace.Sig2Eps = append(s.trace.Sig2Eps, eps)
	s.trace.Sig2The = append(s.trace.Sig2The, s.sig2the)
	s.trace.Rho = append(s.trace.Rho, s.rho)
	s.trace.A = append(s.trace.A, s.a)
	s.trace.B = append(s.trace.B, s.b)

	if s.des.P > 0 {
		sa := make([]float64, s.des.P)
		copy(sa, s.sig2alpha)
		s.trace.Sig2Alpha = append(s.trace.Sig2Alpha, sa)
	}
	if s.des.D > 0 {
		sb := make([]float64, s.des.D)
		copy(sb, s.sig2beta)
		s.trace.Sig2Beta = append(s.trace.Sig2Beta, sb)
	}
}

// gammaColumn copies column i of gamma.
func (s *sampler) gammaColumn(i int) []float64 {
	out := make([]float64, s.des.D+s.T)
	mat.Col(out, i, s.gamma)
	return out
}

// thetaOf extracts the theta block (rows D..D+T) of a gamma column.
func (s *sampler) thetaOf(col int) []float64 {
	out := make([]float64, s.T)
	for t := 0; t < s.T; t++ {
		out[t] = s.gamma.At(s.des.D+t, col)
	}
	return out
}

// betaOf extracts the beta block (rows 0..D) of a gamma column.
func (s *sampler) betaOf(col int) []float64 {
	out := make([]float64, s.des.D)
	for k := 0; k < s.des.D; k++ {
		out[k] = s.gamma.At(k, col)
	}
	return out
}

// alphaOf copies column i of alpha; nil when the model has no unclustered
// covariates.
func (s *sampler) alphaOf(i int) []float64 {
	if s.alpha == nil {
		return nil
	}
	out := make([]float64, s.des.P)
	mat.Col(out, i, s.alpha)
	return out
}

// zAlpha returns Z·alpha_i, the unclustered mean contribution of series i,
// or a zero vector when the model has no unclustered covariates.
func (s *sampler) zAlpha(i int) []float64 {
	if s.alpha == nil {
		return make([]float64, s.T)
	}
	return mulVec(s.des.Z, s.alphaOf(i), s.T)
}
