package tsclust

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ModelKind identifies which covariates participate in clustering. The three
// shapes are mutually exclusive and each Design carries only the matrices
// relevant to it, so code can switch on the kind instead of re-deriving it
// from matrix dimensions.
type ModelKind int

const (
	// ModelOnlyUnclustered: no clustered covariates (d = 0). Every design
	// column lives in Z and only the AR(1) effects theta drive clustering.
	ModelOnlyUnclustered ModelKind = iota

	// ModelOnlyClustered: no unclustered covariates (p = 0). Every design
	// column lives in X and is clustered along with theta.
	ModelOnlyClustered

	// ModelBoth: some columns are clustered (X) and some are not (Z).
	ModelBoth
)

// Design holds the fixed design matrices for one run. Z carries the
// covariates excluded from clustering, X the covariates included in it.
// Either matrix may be nil when its dimension is zero.
type Design struct {
	Kind ModelKind
	P    int        // number of unclustered covariates (columns of Z)
	D    int        // number of clustered covariates (columns of X)
	Z    *mat.Dense // T×P, nil when P == 0
	X    *mat.Dense // T×D, nil when D == 0
}

// DesignMatrices builds the level/trend/seasonal design matrices for monthly
// series of length T. The full covariate set is a level column, deg
// polynomial trend columns (t, t², …) and 11 monthly indicator columns (the
// twelfth month is the zero row, avoiding singularity). The three flags
// choose which blocks go into X (clustered) versus Z (unclustered): a raised
// flag moves that block into X. Only period-12 (monthly) data is supported.
func DesignMatrices(level, trend, seasonality bool, deg, T int) (*Design, error) {
	if deg < 1 {
		return nil, fmt.Errorf("tsclust: deg must be a positive integer, got %d", deg)
	}
	if T < 12 {
		return nil, fmt.Errorf("tsclust: need at least 12 monthly observations, got %d", T)
	}

	// Full covariate matrix M: column 0 is the level, columns 1..deg the
	// polynomial trend, columns deg+1..deg+11 the monthly indicators.
	cols := 1 + deg + 11
	m := mat.NewDense(T, cols, nil)
	for t := 0; t < T; t++ {
		m.Set(t, 0, 1)
		for i := 1; i <= deg; i++ {
			m.Set(t, i, math.Pow(float64(t+1), float64(i)))
		}
		if month := t % 12; month < 11 {
			m.Set(t, deg+1+month, 1)
		}
	}

	levelCols := []int{0}
	trendCols := seqInts(1, deg)
	seasonCols := seqInts(deg+1, 11)

	var xCols, zCols []int
	pick := func(on bool, block []int) {
		if on {
			xCols = append(xCols, block...)
		} else {
			zCols = append(zCols, block...)
		}
	}
	pick(level, levelCols)
	pick(trend, trendCols)
	pick(seasonality, seasonCols)

	des := &Design{P: len(zCols), D: len(xCols)}
	switch {
	case des.D == 0:
		des.Kind = ModelOnlyUnclustered
	case des.P == 0:
		des.Kind = ModelOnlyClustered
	default:
		des.Kind = ModelBoth
	}
	if des.P > 0 {
		des.Z = selectColumns(m, zCols)
	}
	if des.D > 0 {
		des.X = selectColumns(m, xCols)
	}
	return des, nil
}

// seqInts returns [start, start+1, ..., start+count-1].
func seqInts(start, count int) []int {
	s := make([]int, count)
	for i := range s {
		s[i] = start + i
	}
	return s
}

// selectColumns copies the given columns of m, in order, into a new matrix.
func selectColumns(m *mat.Dense, cols []int) *mat.Dense {
	r, _ := m.Dims()
	out := mat.NewDense(r, len(cols), nil)
	for j, c := range cols {
		for i := 0; i < r; i++ {
			out.Set(i, j, m.At(i, c))
		}
	}
	return out
}
