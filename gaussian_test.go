package tsclust

import (
	"math"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestNewSeriesCovNoClusteredCovariates(t *testing.T) {
	r := arCorrelation(0.4, 5)
	cv, err := newSeriesCov(0.5, r, nil, nil)
	if err != nil {
		t.Fatalf("newSeriesCov: %v", err)
	}

	// Without clustered covariates the marginal covariance is Q itself.
	if cv.W != cv.Q || cv.Winv != cv.Qinv {
		t.Error("expected W = Q and Winv = Qinv when x is nil")
	}
	if cv.V != nil {
		t.Error("V should be nil when x is nil")
	}
	for i := 0; i < 5; i++ {
		want := r.At(i, i) + 0.5
		if math.Abs(cv.Q.At(i, i)-want) > 1e-12 {
			t.Errorf("Q diagonal entry %d = %v, want %v", i, cv.Q.At(i, i), want)
		}
	}
}

func TestNewSeriesCovConsistency(t *testing.T) {
	const T, d = 6, 2
	r := arCorrelation(0.3, T)
	x := mat.NewDense(T, d, nil)
	for i := 0; i < T; i++ {
		x.Set(i, 0, 1)
		x.Set(i, 1, float64(i+1))
	}
	invSig2Beta := []float64{1, 0.5}

	cv, err := newSeriesCov(1, r, x, invSig2Beta)
	if err != nil {
		t.Fatalf("newSeriesCov: %v", err)
	}

	checkInverse := func(name string, a, b mat.Symmetric) {
		t.Helper()
		var prod mat.Dense
		prod.Mul(a, b)
		n, _ := prod.Dims()
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				want := 0.0
				if i == j {
					want = 1
				}
				if math.Abs(prod.At(i, j)-want) > 1e-9 {
					t.Errorf("%s entry (%d,%d) = %v, want %v", name, i, j, prod.At(i, j), want)
				}
			}
		}
	}
	checkInverse("Q·Qinv", cv.Q, cv.Qinv)
	checkInverse("W·Winv", cv.W, cv.Winv)

	// V⁻¹ = X'Q⁻¹X + diag(invSig2Beta).
	var qx, xtqx mat.Dense
	qx.Mul(cv.Qinv, x)
	xtqx.Mul(x.T(), &qx)
	vinv := symmetrize(&xtqx)
	for i := 0; i < d; i++ {
		vinv.SetSym(i, i, vinv.At(i, i)+invSig2Beta[i])
	}
	checkInverse("V·V⁻¹", cv.V, vinv)
}

func TestLogProbDiagNormal(t *testing.T) {
	y := []float64{0.1, -0.4, 1.2, 0.7}
	mu := []float64{0, 0.1, 1.0, 0.5}
	sig2 := 0.3

	got := logProbDiagNormal(y, mu, sig2)
	want, err := logProbMVN(y, mu, diagSym([]float64{sig2, sig2, sig2, sig2}), "diag check")
	if err != nil {
		t.Fatalf("logProbMVN: %v", err)
	}
	if math.Abs(got-want) > 1e-10 {
		t.Errorf("logProbDiagNormal = %v, logProbMVN = %v", got, want)
	}
}

func TestDrawMVNDeterministic(t *testing.T) {
	mu := []float64{1, 2, 3}
	sigma := arCorrelation(0.5, 3)

	d1, err := drawMVN(mu, sigma, rand.NewPCG(7, 8), "test")
	if err != nil {
		t.Fatalf("drawMVN: %v", err)
	}
	d2, err := drawMVN(mu, sigma, rand.NewPCG(7, 8), "test")
	if err != nil {
		t.Fatalf("drawMVN: %v", err)
	}
	for i := range d1 {
		if d1[i] != d2[i] {
			t.Errorf("draws differ at %d: %v vs %v", i, d1[i], d2[i])
		}
	}
}

func TestDrawMVNNotPD(t *testing.T) {
	sigma := mat.NewSymDense(2, []float64{1, 1, 1, 1})
	if _, err := drawMVN([]float64{0, 0}, sigma, rand.NewPCG(1, 2), "degenerate"); err == nil {
		t.Error("expected error for a non-positive-definite covariance, got nil")
	}
}

func TestMulVec(t *testing.T) {
	zero := mulVec(nil, nil, 3)
	if len(zero) != 3 || zero[0] != 0 || zero[1] != 0 || zero[2] != 0 {
		t.Errorf("mulVec(nil) = %v, want zeros of length 3", zero)
	}

	m := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	got := mulVec(m, []float64{1, 1}, 2)
	if got[0] != 3 || got[1] != 7 {
		t.Errorf("mulVec = %v, want [3 7]", got)
	}
}

func TestSymMulVec(t *testing.T) {
	s := mat.NewSymDense(2, []float64{2, 1, 1, 3})
	got := symMulVec(s, []float64{1, 2})
	if got[0] != 4 || got[1] != 7 {
		t.Errorf("symMulVec = %v, want [4 7]", got)
	}
}
