package tsclust

import (
	"math"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestScaleSeries(t *testing.T) {
	// Two columns with different ranges.
	raw := mat.NewDense(4, 2, []float64{
		10, -2,
		20, 0,
		30, 2,
		40, 6,
	})
	scaled, err := ScaleSeries(raw)
	if err != nil {
		t.Fatalf("ScaleSeries: %v", err)
	}
	if len(scaled.Removed) != 0 {
		t.Errorf("Removed = %v, want none", scaled.Removed)
	}

	T, n := scaled.Data.Dims()
	if T != 4 || n != 2 {
		t.Fatalf("scaled dims = %d×%d, want 4×2", T, n)
	}

	col := make([]float64, T)
	for j := 0; j < n; j++ {
		mat.Col(col, j, scaled.Data)
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, v := range col {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		if lo != 0 || hi != 1 {
			t.Errorf("column %d range [%v, %v], want [0, 1]", j, lo, hi)
		}
	}

	// Column 0 is linear, so scaling preserves equal spacing.
	want := []float64{0, 1.0 / 3, 2.0 / 3, 1}
	mat.Col(col, 0, scaled.Data)
	for i := range want {
		if math.Abs(col[i]-want[i]) > 1e-12 {
			t.Errorf("column 0 entry %d = %v, want %v", i, col[i], want[i])
		}
	}
}

func TestScaleSeriesRemovesConstant(t *testing.T) {
	raw := mat.NewDense(3, 3, []float64{
		1, 7, 2,
		2, 7, 4,
		3, 7, 6,
	})
	scaled, err := ScaleSeries(raw)
	if err != nil {
		t.Fatalf("ScaleSeries: %v", err)
	}
	if !reflect.DeepEqual(scaled.Removed, []int{1}) {
		t.Errorf("Removed = %v, want [1]", scaled.Removed)
	}
	if _, n := scaled.Data.Dims(); n != 2 {
		t.Errorf("kept %d columns, want 2", n)
	}
}

func TestScaleSeriesAllConstant(t *testing.T) {
	raw := mat.NewDense(3, 2, []float64{
		5, 9,
		5, 9,
		5, 9,
	})
	if _, err := ScaleSeries(raw); err == nil {
		t.Error("expected error for all-constant data, got nil")
	}
}
