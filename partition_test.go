package tsclust

import (
	"reflect"
	"testing"
)

func TestPartitionValues(t *testing.T) {
	tests := []struct {
		name   string
		v      []float64
		reps   []int
		counts []int
		groups []int
	}{
		{
			name:   "all distinct",
			v:      []float64{3, 1, 2},
			reps:   []int{0, 1, 2},
			counts: []int{1, 1, 1},
			groups: []int{0, 1, 2},
		},
		{
			name:   "all equal",
			v:      []float64{5, 5, 5, 5},
			reps:   []int{0},
			counts: []int{4},
			groups: []int{0, 0, 0, 0},
		},
		{
			name:   "interleaved",
			v:      []float64{1, 2, 1, 3, 2, 1},
			reps:   []int{0, 1, 3},
			counts: []int{3, 2, 1},
			groups: []int{0, 1, 0, 2, 1, 0},
		},
		{
			name:   "single element",
			v:      []float64{7},
			reps:   []int{0},
			counts: []int{1},
			groups: []int{0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PartitionValues(tt.v)
			if !reflect.DeepEqual(p.Reps, tt.reps) {
				t.Errorf("Reps = %v, want %v", p.Reps, tt.reps)
			}
			if !reflect.DeepEqual(p.Counts, tt.counts) {
				t.Errorf("Counts = %v, want %v", p.Counts, tt.counts)
			}
			if !reflect.DeepEqual(p.Groups, tt.groups) {
				t.Errorf("Groups = %v, want %v", p.Groups, tt.groups)
			}
			if p.M != len(tt.reps) {
				t.Errorf("M = %d, want %d", p.M, len(tt.reps))
			}
		})
	}
}

func TestPartitionValuesEmpty(t *testing.T) {
	p := PartitionValues(nil)
	if p.M != 0 {
		t.Errorf("M = %d, want 0", p.M)
	}
	if len(p.Reps) != 0 || len(p.Counts) != 0 || len(p.Groups) != 0 {
		t.Errorf("expected empty partition, got %+v", p)
	}
}

// Each index must map back to a representative carrying its exact value, the
// counts must sum to the input length, and the representatives' own values
// must be pairwise distinct.
func TestPartitionValuesInvariants(t *testing.T) {
	v := []float64{0.5, 0.25, 0.5, 0.125, 0.25, 0.5, 0.0625, 0.125}
	p := PartitionValues(v)

	total := 0
	for _, c := range p.Counts {
		total += c
	}
	if total != len(v) {
		t.Errorf("counts sum to %d, want %d", total, len(v))
	}

	for k := range v {
		rep := p.Reps[p.Groups[k]]
		if v[k] != v[rep] {
			t.Errorf("index %d: value %v differs from representative %d value %v", k, v[k], rep, v[rep])
		}
	}

	for i := 0; i < p.M; i++ {
		for j := i + 1; j < p.M; j++ {
			if v[p.Reps[i]] == v[p.Reps[j]] {
				t.Errorf("representatives %d and %d carry the same value %v", p.Reps[i], p.Reps[j], v[p.Reps[i]])
			}
		}
	}

	// A representative always belongs to its own group.
	for g, rep := range p.Reps {
		if p.Groups[rep] != g {
			t.Errorf("representative %d assigned to group %d, want %d", rep, p.Groups[rep], g)
		}
	}
}

// Re-applying the partition to the vector of representative values must give
// the identity partition.
func TestPartitionValuesIdentityOnReps(t *testing.T) {
	v := []float64{2, 7, 2, 5, 7, 2}
	p := PartitionValues(v)

	repVals := make([]float64, p.M)
	for g, rep := range p.Reps {
		repVals[g] = v[rep]
	}
	id := PartitionValues(repVals)
	if id.M != p.M {
		t.Fatalf("identity partition has %d groups, want %d", id.M, p.M)
	}
	for g := 0; g < id.M; g++ {
		if id.Reps[g] != g || id.Counts[g] != 1 || id.Groups[g] != g {
			t.Errorf("group %d: got rep %d count %d label %d, want identity",
				g, id.Reps[g], id.Counts[g], id.Groups[g])
		}
	}
}

// Concatenating representative values with duplicates reproduces the cluster
// structure with counts matching the multiplicities.
func TestPartitionValuesRoundTrip(t *testing.T) {
	repVals := []float64{0.25, 0.75, 0.5}
	mult := []int{3, 1, 2}

	var v []float64
	for g, m := range mult {
		for k := 0; k < m; k++ {
			v = append(v, repVals[g])
		}
	}
	p := PartitionValues(v)
	if p.M != len(repVals) {
		t.Fatalf("M = %d, want %d", p.M, len(repVals))
	}
	if !reflect.DeepEqual(p.Counts, mult) {
		t.Errorf("Counts = %v, want %v", p.Counts, mult)
	}
	for g, rep := range p.Reps {
		if v[rep] != repVals[g] {
			t.Errorf("group %d representative value = %v, want %v", g, v[rep], repVals[g])
		}
	}
}
