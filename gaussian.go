package tsclust

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// seriesCov holds the covariance pieces of one series that are fixed across a
// whole Gibbs sweep: they depend on sig2eps[i], R and sig2beta, none of which
// change between the alpha step and the membership step.
//
//	Q    = sig2eps[i]·I + R            (residual covariance given gamma_i)
//	V    = (X'Q⁻¹X + Σbeta⁻¹)⁻¹        (beta conditional covariance, nil if d = 0)
//	Winv = Q⁻¹ + Q⁻¹XVX'Q⁻¹           (clustered-component correction; Q⁻¹ if d = 0)
//	W    = Winv⁻¹
type seriesCov struct {
	Q    *mat.SymDense
	Qinv *mat.SymDense
	V    *mat.SymDense
	W    *mat.SymDense
	Winv *mat.SymDense
}

// symmetrize copies a numerically near-symmetric product into a SymDense,
// averaging the off-diagonal pairs.
func symmetrize(m *mat.Dense) *mat.SymDense {
	r, _ := m.Dims()
	s := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		s.SetSym(i, i, m.At(i, i))
		for j := i + 1; j < r; j++ {
			s.SetSym(i, j, 0.5*(m.At(i, j)+m.At(j, i)))
		}
	}
	return s
}

// addToDiag returns s with v added to every diagonal entry.
func addToDiag(s *mat.SymDense, v float64) *mat.SymDense {
	n := s.SymmetricDim()
	out := mat.NewSymDense(n, nil)
	out.CopySym(s)
	for i := 0; i < n; i++ {
		out.SetSym(i, i, s.At(i, i)+v)
	}
	return out
}

// diagSym builds a diagonal SymDense from the given entries.
func diagSym(d []float64) *mat.SymDense {
	s := mat.NewSymDense(len(d), nil)
	for i, v := range d {
		s.SetSym(i, i, v)
	}
	return s
}

// invDiag returns the elementwise reciprocals of d.
func invDiag(d []float64) []float64 {
	out := make([]float64, len(d))
	for i, v := range d {
		out[i] = 1 / v
	}
	return out
}

// newSeriesCov assembles the per-series covariance pieces. x is nil when the
// model has no clustered covariates; invSig2Beta holds 1/sig2beta otherwise.
func newSeriesCov(sig2 float64, r *mat.SymDense, x *mat.Dense, invSig2Beta []float64) (*seriesCov, error) {
	q := addToDiag(r, sig2)
	qinv, _, err := spdInverse(q, "residual covariance Q")
	if err != nil {
		return nil, err
	}
	cv := &seriesCov{Q: q, Qinv: qinv}

	if x == nil {
		cv.W, cv.Winv = q, qinv
		return cv, nil
	}

	// V = (X'Q⁻¹X + Σbeta⁻¹)⁻¹
	T, d := x.Dims()
	var qx mat.Dense // T×d
	qx.Mul(qinv, x)
	var xtqx mat.Dense // d×d
	xtqx.Mul(x.T(), &qx)
	vinv := symmetrize(&xtqx)
	for i := 0; i < d; i++ {
		vinv.SetSym(i, i, vinv.At(i, i)+invSig2Beta[i])
	}
	v, _, err := spdInverse(vinv, "beta precision V⁻¹")
	if err != nil {
		return nil, err
	}
	cv.V = v

	// Winv = Q⁻¹ + Q⁻¹XVX'Q⁻¹
	var qxv mat.Dense // T×d
	qxv.Mul(&qx, v)
	var corr mat.Dense // T×T
	corr.Mul(&qxv, qx.T())
	winv := mat.NewSymDense(T, nil)
	cs := symmetrize(&corr)
	for i := 0; i < T; i++ {
		for j := i; j < T; j++ {
			winv.SetSym(i, j, qinv.At(i, j)+cs.At(i, j))
		}
	}
	cv.Winv = winv
	w, _, err := spdInverse(winv, "marginal precision W⁻¹")
	if err != nil {
		return nil, err
	}
	cv.W = w
	return cv, nil
}

// drawMVN samples one vector from N(mu, sigma). A covariance that cannot be
// factorized aborts the run.
func drawMVN(mu []float64, sigma mat.Symmetric, src rand.Source, what string) ([]float64, error) {
	normal, ok := distmv.NewNormal(mu, sigma, src)
	if !ok {
		return nil, fmt.Errorf("tsclust: %s covariance is not positive definite", what)
	}
	return normal.Rand(nil), nil
}

// logProbMVN evaluates the multivariate normal log density of y under
// N(mu, sigma).
func logProbMVN(y, mu []float64, sigma mat.Symmetric, what string) (float64, error) {
	normal, ok := distmv.NewNormal(mu, sigma, nil)
	if !ok {
		return 0, fmt.Errorf("tsclust: %s covariance is not positive definite", what)
	}
	return normal.LogProb(y), nil
}

// logProbDiagNormal is the log density of y under N(mu, sig2·I), in closed
// form. The diagonal case is on the innermost membership loop; going through
// a T×T factorization for it would dominate the runtime.
func logProbDiagNormal(y, mu []float64, sig2 float64) float64 {
	T := len(y)
	ssq := 0.0
	for t := range y {
		r := y[t] - mu[t]
		ssq += r * r
	}
	return -0.5*float64(T)*math.Log(2*math.Pi*sig2) - ssq/(2*sig2)
}

// mulVec returns m·x as a fresh slice; m may be nil for a zero contribution
// of length want.
func mulVec(m *mat.Dense, x []float64, want int) []float64 {
	out := make([]float64, want)
	if m == nil {
		return out
	}
	var v mat.VecDense
	v.MulVec(m, mat.NewVecDense(len(x), x))
	for i := 0; i < want; i++ {
		out[i] = v.AtVec(i)
	}
	return out
}

// symMulVec returns s·x as a fresh slice.
func symMulVec(s mat.Symmetric, x []float64) []float64 {
	n := len(x)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		acc := 0.0
		for j := 0; j < n; j++ {
			acc += s.At(i, j) * x[j]
		}
		out[i] = acc
	}
	return out
}
