package layout

import "math/bits"

// HeightTree is a Fenwick tree over paragraph heights. Heights start as
// estimates and are replaced by calculated values as paragraphs are laid
// out, so vertical positions stay O(log N) without laying out the whole
// document.
type HeightTree struct {
	tree       []float64 // 1-based Fenwick array
	heights    []float64
	calculated []bool
}

// NewHeightTree creates a tree over the given estimated heights.
func NewHeightTree(estimates []float64) *HeightTree {
	h := &HeightTree{}
	h.Reset(estimates)
	return h
}

// Reset rebuilds the tree from estimated heights in O(N).
func (h *HeightTree) Reset(estimates []float64) {
	n := len(estimates)
	h.heights = append(h.heights[:0], estimates...)
	h.calculated = make([]bool, n)
	h.tree = make([]float64, n+1)
	copy(h.tree[1:], estimates)
	for i := 1; i <= n; i++ {
		if j := i + i&-i; j <= n {
			h.tree[j] += h.tree[i]
		}
	}
}

// Len returns the number of paragraphs.
func (h *HeightTree) Len() int {
	return len(h.heights)
}

// Height returns the height of paragraph i.
func (h *HeightTree) Height(i int) float64 {
	return h.heights[i]
}

// IsCalculated reports whether paragraph i's height came from a layout.
func (h *HeightTree) IsCalculated(i int) bool {
	return h.calculated[i]
}

// Set records the calculated height of paragraph i.
func (h *HeightTree) Set(i int, height float64) {
	h.calculated[i] = true
	delta := height - h.heights[i]
	h.heights[i] = height
	if delta == 0 {
		return
	}
	for j := i + 1; j < len(h.tree); j += j & -j {
		h.tree[j] += delta
	}
}

// Estimate replaces the height of paragraph i with an estimate.
func (h *HeightTree) Estimate(i int, height float64) {
	h.Set(i, height)
	h.calculated[i] = false
}

// Prefix returns the total height of paragraphs [0, i), which is the Y
// position of paragraph i.
func (h *HeightTree) Prefix(i int) float64 {
	i = min(i, len(h.heights))
	var sum float64
	for ; i > 0; i -= i & -i {
		sum += h.tree[i]
	}
	return sum
}

// Total returns the document height.
func (h *HeightTree) Total() float64 {
	return h.Prefix(len(h.heights))
}

// Find returns the paragraph containing vertical position y, clamped to
// the first and last paragraph.
func (h *HeightTree) Find(y float64) int {
	n := len(h.heights)
	if n == 0 || y < 0 {
		return 0
	}
	// Largest pos with Prefix(pos) <= y.
	pos, rem := 0, y
	for step := 1 << (bits.Len(uint(n)) - 1); step > 0; step >>= 1 {
		if next := pos + step; next <= n && h.tree[next] <= rem {
			pos = next
			rem -= h.tree[next]
		}
	}
	return min(pos, n-1)
}

// CalculatedCount returns how many heights came from real layouts.
func (h *HeightTree) CalculatedCount() int {
	c := 0
	for _, ok := range h.calculated {
		if ok {
			c++
		}
	}
	return c
}
