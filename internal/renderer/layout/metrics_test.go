package layout

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/folio/internal/renderer/style"
)

func TestMonospaceMetrics(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		eastAsian bool
		want      []float64
	}{
		{"ascii", "ab", false, []float64{1, 1}},
		{"wide", "日a", false, []float64{2, 1}},
		{"combining", "e\u0301", false, []float64{1, 0}},
		{"ambiguous narrow", "α", false, []float64{1}},
		{"ambiguous wide", "α", true, []float64{2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMonospaceMetrics(tt.eastAsian)
			got := m.Advances(style.Resolved{}, []rune(tt.text))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Advances() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFaceMetrics(t *testing.T) {
	m := NewBasicFaceMetrics()

	st := style.Resolved{FontSize: 13}
	if got := m.Advances(st, []rune("ab")); got[0] != 7 || got[1] != 7 {
		t.Errorf("Advances() at design size = %v, want [7 7]", got)
	}
	st.FontSize = 26
	if got := m.Advances(st, []rune("a")); got[0] != 14 {
		t.Errorf("Advances() at 26pt = %v, want [14]", got)
	}
	asc, desc := m.LineMetrics(st)
	if asc != 22 || desc != 4 {
		t.Errorf("LineMetrics() = %v, %v; want 22, 4", asc, desc)
	}

	st.FontSize = 13
	st.Superscript = true
	if got := m.Advances(st, []rune("a")); math.Abs(got[0]-4.9) > 1e-9 {
		t.Errorf("superscript advance = %v, want 4.9", got[0])
	}

	// Bold falls back to the regular face.
	st = style.Resolved{FontSize: 13, Bold: true}
	if got := m.Advances(st, []rune("\u0301")); got[0] != 0 {
		t.Errorf("combining mark advance = %v, want 0", got[0])
	}
}
