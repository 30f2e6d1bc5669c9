package aligner

// partitionIter enumerates the ways of cutting n items into k non-empty
// contiguous groups, in the lexicographic order of the cut positions.
type partitionIter struct {
	n, k    int
	cuts    []int
	started bool
	done    bool
}

func newPartitionIter(n, k int) *partitionIter {
	it := &partitionIter{n: n, k: k}
	if k <= 0 || n <= 0 || k > n {
		it.done = true
		return it
	}
	it.cuts = make([]int, k-1)
	for i := range it.cuts {
		it.cuts[i] = i + 1
	}
	return it
}

// Next advances to the next partition and reports whether one exists.
func (it *partitionIter) Next() bool {
	if it.done {
		return false
	}
	if !it.started {
		it.started = true
		return true
	}
	r := len(it.cuts)
	// Highest position whose cut can still move right.
	i := r - 1
	for i >= 0 && it.cuts[i] == it.n-r+i {
		i--
	}
	if i < 0 {
		it.done = true
		return false
	}
	it.cuts[i]++
	for j := i + 1; j < r; j++ {
		it.cuts[j] = it.cuts[j-1] + 1
	}
	return true
}

// Lengths returns the group sizes of the current partition.
func (it *partitionIter) Lengths() []int {
	lengths := make([]int, 0, it.k)
	start := 0
	for _, c := range it.cuts {
		lengths = append(lengths, c-start)
		start = c
	}
	return append(lengths, it.n-start)
}

// Groups slices items by the current partition.
func (it *partitionIter) Groups(items []string) [][]string {
	groups := make([][]string, 0, it.k)
	start := 0
	for _, c := range it.cuts {
		groups = append(groups, items[start:c])
		start = c
	}
	return append(groups, items[start:])
}

// binomialExceeds reports whether C(n, r) is greater than limit without
// overflowing.
func binomialExceeds(n, r, limit int) bool {
	if r < 0 || r > n {
		return false
	}
	if r > n-r {
		r = n - r
	}
	c := 1
	for i := 1; i <= r; i++ {
		// c * (n-r+i) / i stays integral at every step.
		next := c * (n - r + i) / i
		if next > limit {
			return true
		}
		c = next
	}
	return c > limit
}
