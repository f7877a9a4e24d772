package textbuf

import "math/bits"

// fenwick is a binary indexed tree over non-negative weights.
// It answers prefix sums and "which element contains offset x" in O(log N).
type fenwick struct {
	tree []int // 1-indexed
}

// build rebuilds the tree from weights in O(N).
func (f *fenwick) build(weights []int) {
	n := len(weights)
	if cap(f.tree) >= n+1 {
		f.tree = f.tree[:n+1]
		clear(f.tree)
	} else {
		f.tree = make([]int, n+1)
	}
	for i, w := range weights {
		f.tree[i+1] += w
		if j := (i + 1) + lowbit(i+1); j <= n {
			f.tree[j] += f.tree[i+1]
		}
	}
}

func lowbit(i int) int {
	return i & -i
}

func (f *fenwick) size() int {
	return len(f.tree) - 1
}

// add adds delta to the weight at index i (0-based).
func (f *fenwick) add(i, delta int) {
	for j := i + 1; j < len(f.tree); j += lowbit(j) {
		f.tree[j] += delta
	}
}

// prefix returns the sum of the first n weights.
func (f *fenwick) prefix(n int) int {
	sum := 0
	for j := n; j > 0; j -= lowbit(j) {
		sum += f.tree[j]
	}
	return sum
}

// search returns the largest n such that prefix(n) <= target.
// With strictly positive weights this is the 0-based index of the element
// containing target.
func (f *fenwick) search(target int) int {
	n := f.size()
	if n == 0 {
		return 0
	}
	pos := 0
	for step := 1 << (bits.Len(uint(n)) - 1); step > 0; step >>= 1 {
		next := pos + step
		if next <= n && f.tree[next] <= target {
			pos = next
			target -= f.tree[next]
		}
	}
	return pos
}
