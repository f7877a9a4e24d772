package layout

import (
	"github.com/mattn/go-runewidth"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/dshills/folio/internal/renderer/style"
)

// Metrics measures text. It stands in for the host's font and shaping
// facilities; the layout engine treats it as opaque.
type Metrics interface {
	// Advances returns the advance width of every rune of text set in st.
	Advances(st style.Resolved, text []rune) []float64
	// LineMetrics returns the ascent and descent of a line set in st.
	LineMetrics(st style.Resolved) (ascent, descent float64)
}

// MonospaceMetrics measures text in terminal cells. Wide runes take two
// cells, combining marks none, and every line is one cell tall.
type MonospaceMetrics struct {
	cond *runewidth.Condition
}

// NewMonospaceMetrics creates cell metrics. eastAsian selects the East Asian
// ambiguous-width convention.
func NewMonospaceMetrics(eastAsian bool) *MonospaceMetrics {
	c := runewidth.NewCondition()
	c.EastAsianWidth = eastAsian
	return &MonospaceMetrics{cond: c}
}

// Advances implements Metrics.
func (m *MonospaceMetrics) Advances(_ style.Resolved, text []rune) []float64 {
	out := make([]float64, len(text))
	for i, r := range text {
		out[i] = float64(m.cond.RuneWidth(r))
	}
	return out
}

// LineMetrics implements Metrics.
func (m *MonospaceMetrics) LineMetrics(style.Resolved) (float64, float64) {
	return 1, 0
}

// FaceMetrics measures text with a font.Face, scaling the face from its
// design size to the resolved point size. Bold and italic variants are
// optional; the regular face is used when a variant is missing.
type FaceMetrics struct {
	Regular    font.Face
	Bold       font.Face
	Italic     font.Face
	BoldItalic font.Face

	// DesignSize is the point size the faces were created at.
	DesignSize float64
}

// NewBasicFaceMetrics returns metrics over the 7x13 bitmap face bundled
// with x/image, treated as a 13pt design.
func NewBasicFaceMetrics() *FaceMetrics {
	return &FaceMetrics{Regular: basicfont.Face7x13, DesignSize: 13}
}

func (m *FaceMetrics) face(st style.Resolved) font.Face {
	var f font.Face
	switch {
	case st.Bold && st.Italic:
		f = m.BoldItalic
	case st.Bold:
		f = m.Bold
	case st.Italic:
		f = m.Italic
	}
	if f == nil {
		f = m.Regular
	}
	return f
}

func (m *FaceMetrics) scale(st style.Resolved) float64 {
	if m.DesignSize <= 0 || st.FontSize <= 0 {
		return 1
	}
	s := st.FontSize / m.DesignSize
	if st.Subscript || st.Superscript {
		s *= 0.7
	}
	return s
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

// Advances implements Metrics.
func (m *FaceMetrics) Advances(st style.Resolved, text []rune) []float64 {
	f, s := m.face(st), m.scale(st)
	fallback, ok := f.GlyphAdvance('?')
	if !ok {
		fallback = f.Metrics().Height / 2
	}
	out := make([]float64, len(text))
	for i, r := range text {
		if runewidth.RuneWidth(r) == 0 && r != '\t' {
			continue
		}
		adv, ok := f.GlyphAdvance(r)
		if !ok {
			adv = fallback
		}
		out[i] = fixedToFloat(adv) * s
	}
	return out
}

// LineMetrics implements Metrics.
func (m *FaceMetrics) LineMetrics(st style.Resolved) (float64, float64) {
	fm := m.face(st).Metrics()
	s := m.scale(st)
	return fixedToFloat(fm.Ascent) * s, fixedToFloat(fm.Descent) * s
}
