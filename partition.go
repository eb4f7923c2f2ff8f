package tsclust

// Partition describes the distinct values of a vector in first-occurrence
// order. It is the backbone of every Gibbs sweep: cluster membership is read
// off the first row of the latent gamma matrix by grouping exactly equal
// entries. Equality is exact (bit-for-bit); duplicate values only ever arise
// when a series copies a cluster representative verbatim, never from
// independent arithmetic.
type Partition struct {
	// Reps holds the index of the first occurrence of each distinct value,
	// in scan order.
	Reps []int

	// Counts holds the number of occurrences of each representative's value.
	// Counts[g] is the size of group g; the counts sum to the input length.
	Counts []int

	// M is the number of distinct values, len(Reps).
	M int

	// Groups maps each input index to the position of its representative in
	// Reps, so v[k] == v[Reps[Groups[k]]] for every k.
	Groups []int
}

// PartitionValues scans v left to right. An entry not yet matched becomes a
// new representative; every later entry exactly equal to it is marked matched
// and assigned the representative's group. The scan stops early once every
// remaining entry has been matched. O(len(v)²) worst case.
func PartitionValues(v []float64) Partition {
	n := len(v)
	p := Partition{Groups: make([]int, n)}
	matched := make([]bool, n)
	remaining := n

	for j := 0; j < n && remaining > 0; j++ {
		if matched[j] {
			continue
		}
		g := p.M
		p.Reps = append(p.Reps, j)
		p.Counts = append(p.Counts, 1)
		p.Groups[j] = g
		p.M++
		matched[j] = true
		remaining--

		for k := j + 1; k < n; k++ {
			if !matched[k] && v[k] == v[j] {
				matched[k] = true
				remaining--
				p.Counts[g]++
				p.Groups[k] = g
			}
		}
	}
	return p
}
