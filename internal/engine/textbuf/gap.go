package textbuf

// minGap is the gap reserved when the buffer has to grow.
const minGap = 32

// gapBuffer holds the runes of one paragraph with a movable gap at the
// last edit position.
type gapBuffer struct {
	data     []rune
	gapStart int
	gapEnd   int
}

func newGapBuffer(rs []rune) gapBuffer {
	data := make([]rune, len(rs)+minGap)
	copy(data, rs)
	return gapBuffer{
		data:     data,
		gapStart: len(rs),
		gapEnd:   len(data),
	}
}

// Len returns the number of runes stored.
func (g *gapBuffer) Len() int {
	return len(g.data) - (g.gapEnd - g.gapStart)
}

// At returns the rune at logical index i.
func (g *gapBuffer) At(i int) rune {
	if i < g.gapStart {
		return g.data[i]
	}
	return g.data[i+g.gapEnd-g.gapStart]
}

// moveGap places the gap so that it starts at logical index pos.
func (g *gapBuffer) moveGap(pos int) {
	switch {
	case pos < g.gapStart:
		n := g.gapStart - pos
		copy(g.data[g.gapEnd-n:g.gapEnd], g.data[pos:g.gapStart])
		g.gapStart -= n
		g.gapEnd -= n
	case pos > g.gapStart:
		n := pos - g.gapStart
		copy(g.data[g.gapStart:g.gapStart+n], g.data[g.gapEnd:g.gapEnd+n])
		g.gapStart += n
		g.gapEnd += n
	}
}

// grow ensures the gap can hold at least n runes.
func (g *gapBuffer) grow(n int) {
	if g.gapEnd-g.gapStart >= n {
		return
	}
	size := len(g.data)*2 + n
	if size < minGap {
		size = minGap
	}
	data := make([]rune, size)
	copy(data, g.data[:g.gapStart])
	tail := len(g.data) - g.gapEnd
	copy(data[size-tail:], g.data[g.gapEnd:])
	g.gapEnd = size - tail
	g.data = data
}

// Insert places rs at logical index pos.
func (g *gapBuffer) Insert(pos int, rs []rune) {
	if len(rs) == 0 {
		return
	}
	g.moveGap(pos)
	g.grow(len(rs))
	copy(g.data[g.gapStart:], rs)
	g.gapStart += len(rs)
}

// Delete removes n runes starting at logical index pos.
func (g *gapBuffer) Delete(pos, n int) {
	if n <= 0 {
		return
	}
	g.moveGap(pos)
	g.gapEnd += n
}

// Slice returns a copy of the runes in [start, end).
func (g *gapBuffer) Slice(start, end int) []rune {
	if start >= end {
		return nil
	}
	out := make([]rune, 0, end-start)
	return g.appendRange(out, start, end)
}

// appendRange appends the runes in [start, end) to dst.
func (g *gapBuffer) appendRange(dst []rune, start, end int) []rune {
	if start < g.gapStart {
		stop := min(end, g.gapStart)
		dst = append(dst, g.data[start:stop]...)
		start = stop
	}
	if start < end {
		off := g.gapEnd - g.gapStart
		dst = append(dst, g.data[start+off:end+off]...)
	}
	return dst
}

// Runes returns a copy of the full content.
func (g *gapBuffer) Runes() []rune {
	return g.Slice(0, g.Len())
}
