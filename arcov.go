package tsclust

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// arCorrelation builds the T×T AR(1) correlation matrix P with entries
// P[j][k] = rho^|j-k|. P is positive definite for rho in (-1,1).
func arCorrelation(rho float64, T int) *mat.SymDense {
	// Powers of rho up to T-1; pow[0] = 1 even when rho = 0.
	pow := make([]float64, T)
	pow[0] = 1
	for i := 1; i < T; i++ {
		pow[i] = pow[i-1] * rho
	}
	p := mat.NewSymDense(T, nil)
	for j := 0; j < T; j++ {
		for k := j; k < T; k++ {
			p.SetSym(j, k, pow[k-j])
		}
	}
	return p
}

// spdFactorize returns the Cholesky factorization of s, or an error when s is
// not positive definite. A failed factorization is a fatal numerical error
// (degenerate covariance), never a silently wrong draw.
func spdFactorize(s mat.Symmetric, what string) (*mat.Cholesky, error) {
	var ch mat.Cholesky
	if !ch.Factorize(s) {
		return nil, fmt.Errorf("tsclust: %s is not positive definite", what)
	}
	return &ch, nil
}

// spdInverse inverts a symmetric positive definite matrix via its Cholesky
// factorization.
func spdInverse(s mat.Symmetric, what string) (*mat.SymDense, *mat.Cholesky, error) {
	ch, err := spdFactorize(s, what)
	if err != nil {
		return nil, nil, err
	}
	var inv mat.SymDense
	if err := ch.InverseTo(&inv); err != nil {
		return nil, nil, fmt.Errorf("tsclust: inverting %s: %w", what, err)
	}
	return &inv, ch, nil
}

// quadFormSolve returns x' S⁻¹ x using the Cholesky factorization of S.
func quadFormSolve(ch *mat.Cholesky, x []float64) (float64, error) {
	var z mat.VecDense
	if err := ch.SolveVecTo(&z, mat.NewVecDense(len(x), x)); err != nil {
		return 0, fmt.Errorf("tsclust: quadratic form solve: %w", err)
	}
	total := 0.0
	for i := range x {
		total += x[i] * z.AtVec(i)
	}
	return total, nil
}

// quadFormSym returns x' S x for a symmetric S.
func quadFormSym(s mat.Symmetric, x []float64) float64 {
	n := len(x)
	total := 0.0
	for i := 0; i < n; i++ {
		row := 0.0
		for j := 0; j < n; j++ {
			row += s.At(i, j) * x[j]
		}
		total += x[i] * row
	}
	return total
}
