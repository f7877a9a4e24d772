package format

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var styleComparer = cmp.Comparer(func(a, b InlineStyle) bool { return a.Equal(b) })

func bold() InlineStyle   { return Empty().WithBold(true) }
func italic() InlineStyle { return Empty().WithItalic(true) }

func TestInlineStyleAtScenario(t *testing.T) {
	// "Hello World" with bold over "Hello".
	l := NewLayer(11)
	if err := l.SetInlineStyle(0, 5, bold()); err != nil {
		t.Fatalf("SetInlineStyle: %v", err)
	}

	st, err := l.InlineStyleAt(2)
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := st.Flag(AttrBold); !ok || !v {
		t.Errorf("InlineStyleAt(2) = %v, want bold", st)
	}

	st, err = l.InlineStyleAt(7)
	if err != nil {
		t.Fatal(err)
	}
	if !st.IsEmpty() {
		t.Errorf("InlineStyleAt(7) = %v, want empty", st)
	}
}

func TestInsertAtRunEndDoesNotExtend(t *testing.T) {
	l := NewLayer(11)
	_ = l.SetInlineStyle(0, 5, bold())
	if err := l.AdjustForInsert(5, 3); err != nil {
		t.Fatal(err)
	}
	want := []Run{{Start: 0, End: 5, Style: bold()}}
	if diff := cmp.Diff(want, l.Runs(), styleComparer); diff != "" {
		t.Errorf("runs mismatch (-want +got):\n%s", diff)
	}
	if l.Len() != 14 {
		t.Errorf("Len() = %d, want 14", l.Len())
	}
}

func TestInsertInsideRunExtends(t *testing.T) {
	l := NewLayer(10)
	_ = l.SetInlineStyle(2, 6, bold())
	_ = l.AdjustForInsert(4, 3)
	want := []Run{{Start: 2, End: 9, Style: bold()}}
	if diff := cmp.Diff(want, l.Runs(), styleComparer); diff != "" {
		t.Errorf("runs mismatch (-want +got):\n%s", diff)
	}

	_ = l.AdjustForInsert(2, 1)
	want = []Run{{Start: 3, End: 10, Style: bold()}}
	if diff := cmp.Diff(want, l.Runs(), styleComparer); diff != "" {
		t.Errorf("insert at run start should shift (-want +got):\n%s", diff)
	}
}

func TestCoalesceAdjacentApplies(t *testing.T) {
	l := NewLayer(20)
	_ = l.SetInlineStyle(0, 5, bold())
	_ = l.SetInlineStyle(5, 10, bold())

	want := []Run{{Start: 0, End: 10, Style: bold()}}
	if diff := cmp.Diff(want, l.Runs(), styleComparer); diff != "" {
		t.Errorf("runs mismatch (-want +got):\n%s", diff)
	}
}

func TestSetInlineStyleSplitsAndMerges(t *testing.T) {
	l := NewLayer(10)
	_ = l.SetInlineStyle(0, 10, bold())
	_ = l.SetInlineStyle(3, 6, italic())

	both := bold().WithItalic(true)
	want := []Run{
		{Start: 0, End: 3, Style: bold()},
		{Start: 3, End: 6, Style: both},
		{Start: 6, End: 10, Style: bold()},
	}
	if diff := cmp.Diff(want, l.Runs(), styleComparer); diff != "" {
		t.Errorf("runs mismatch (-want +got):\n%s", diff)
	}

	// Turning italic back off restores equal neighbours, which must merge.
	_ = l.ClearAttributes(3, 6, AttrItalic)
	want = []Run{{Start: 0, End: 10, Style: bold()}}
	if diff := cmp.Diff(want, l.Runs(), styleComparer); diff != "" {
		t.Errorf("after clear (-want +got):\n%s", diff)
	}
}

func TestExplicitFalseIsAnOverride(t *testing.T) {
	l := NewLayer(4)
	_ = l.SetInlineStyle(0, 4, bold())
	_ = l.SetInlineStyle(0, 2, Empty().WithBold(false))

	st, _ := l.InlineStyleAt(0)
	if v, ok := st.Flag(AttrBold); !ok || v {
		t.Errorf("InlineStyleAt(0) = %v, want bold=false", st)
	}
	if l.Count() != 2 {
		t.Errorf("Count() = %d, want 2", l.Count())
	}
}

func TestClear(t *testing.T) {
	l := NewLayer(10)
	_ = l.SetInlineStyle(0, 10, bold())
	if err := l.Clear(2, 8); err != nil {
		t.Fatal(err)
	}
	want := []Run{
		{Start: 0, End: 2, Style: bold()},
		{Start: 8, End: 10, Style: bold()},
	}
	if diff := cmp.Diff(want, l.Runs(), styleComparer); diff != "" {
		t.Errorf("runs mismatch (-want +got):\n%s", diff)
	}

	has, err := l.HasOverrides(2, 8)
	if err != nil || has {
		t.Errorf("HasOverrides(2,8) = %v, %v, want false", has, err)
	}
	has, _ = l.HasOverrides(1, 3)
	if !has {
		t.Error("HasOverrides(1,3) = false, want true")
	}
}

func TestOutOfRange(t *testing.T) {
	l := NewLayer(5)
	if err := l.SetInlineStyle(3, 6, bold()); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("SetInlineStyle past end error = %v", err)
	}
	if _, err := l.InlineStyleAt(5); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("InlineStyleAt(5) error = %v", err)
	}
	if err := l.Clear(-1, 2); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Clear(-1,2) error = %v", err)
	}
	// Overlapping applies are the normal case, never an error.
	if err := l.SetInlineStyle(0, 5, bold()); err != nil {
		t.Error(err)
	}
	if err := l.SetInlineStyle(1, 4, italic()); err != nil {
		t.Error(err)
	}
}

func TestAdjustForErase(t *testing.T) {
	tests := []struct {
		name     string
		pos, n   int
		want     []Run
		wantLen  int
		setup    []Run
		totalLen int
	}{
		{
			name:     "inside removed",
			setup:    []Run{{Start: 3, End: 5, Style: bold()}},
			totalLen: 10, pos: 2, n: 4,
			want:    nil,
			wantLen: 6,
		},
		{
			name:     "straddling truncated",
			setup:    []Run{{Start: 0, End: 4, Style: bold()}, {Start: 6, End: 10, Style: italic()}},
			totalLen: 10, pos: 2, n: 6,
			want:    []Run{{Start: 0, End: 2, Style: bold()}, {Start: 2, End: 4, Style: italic()}},
			wantLen: 4,
		},
		{
			name:     "after shifted",
			setup:    []Run{{Start: 8, End: 10, Style: bold()}},
			totalLen: 10, pos: 0, n: 3,
			want:    []Run{{Start: 5, End: 7, Style: bold()}},
			wantLen: 7,
		},
		{
			name:     "neighbours coalesce",
			setup:    []Run{{Start: 0, End: 2, Style: bold()}, {Start: 5, End: 8, Style: bold()}},
			totalLen: 8, pos: 2, n: 3,
			want:    []Run{{Start: 0, End: 5, Style: bold()}},
			wantLen: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLayer(tt.totalLen)
			for _, r := range tt.setup {
				_ = l.SetInlineStyle(r.Start, r.End, r.Style)
			}
			if err := l.AdjustForErase(tt.pos, tt.n); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, l.Runs(), styleComparer, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("runs mismatch (-want +got):\n%s", diff)
			}
			if l.Len() != tt.wantLen {
				t.Errorf("Len() = %d, want %d", l.Len(), tt.wantLen)
			}
		})
	}
}

func TestRestoreIsInverseOfRunsIn(t *testing.T) {
	l := NewLayer(20)
	_ = l.SetInlineStyle(0, 8, bold())
	_ = l.SetInlineStyle(4, 12, italic())
	_ = l.SetInlineStyle(15, 18, Empty().WithForeground(RGB(200, 0, 0)))
	before := l.Runs()

	saved, err := l.RunsIn(3, 16)
	if err != nil {
		t.Fatal(err)
	}
	_ = l.SetInlineStyle(3, 16, Empty().WithUnderline(true).WithFontSize(18))
	if err := l.Restore(3, 16, saved); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(before, l.Runs(), styleComparer); diff != "" {
		t.Errorf("restore mismatch (-want +got):\n%s", diff)
	}
}

func TestInsertThenEraseRestoresRuns(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	styles := []InlineStyle{bold(), italic(), bold().WithItalic(true), Empty().WithFontFamily("Georgia")}

	for iter := 0; iter < 300; iter++ {
		l := NewLayer(40)
		for k := 0; k < 6; k++ {
			s := rng.Intn(40)
			e := s + rng.Intn(40-s+1)
			_ = l.SetInlineStyle(s, e, styles[rng.Intn(len(styles))])
		}
		before := l.Runs()

		pos := rng.Intn(41)
		n := rng.Intn(5) + 1
		if err := l.AdjustForInsert(pos, n); err != nil {
			t.Fatal(err)
		}
		if err := l.AdjustForErase(pos, n); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(before, l.Runs(), styleComparer); diff != "" {
			t.Fatalf("iteration %d insert/erase at %d+%d (-want +got):\n%s", iter, pos, n, diff)
		}
	}
}

func TestRunsStayCoalesced(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	styles := []InlineStyle{bold(), italic(), Empty().WithBold(false)}
	l := NewLayer(60)
	for iter := 0; iter < 400; iter++ {
		s := rng.Intn(60)
		e := s + rng.Intn(60-s+1)
		switch rng.Intn(3) {
		case 0:
			_ = l.SetInlineStyle(s, e, styles[rng.Intn(len(styles))])
		case 1:
			_ = l.ClearAttributes(s, e, AttrItalic)
		default:
			_ = l.Clear(s, e)
		}
		runs := l.Runs()
		for i, r := range runs {
			if r.Start >= r.End || r.Style.IsEmpty() {
				t.Fatalf("invalid run %v", r)
			}
			if i > 0 {
				prev := runs[i-1]
				if prev.End > r.Start {
					t.Fatalf("overlap %v %v", prev, r)
				}
				if prev.End == r.Start && prev.Style.Equal(r.Style) {
					t.Fatalf("uncoalesced %v %v", prev, r)
				}
			}
		}
	}
}

func TestAttributeIntervals(t *testing.T) {
	l := NewLayer(10)
	_ = l.SetInlineStyle(0, 6, bold())
	_ = l.SetInlineStyle(3, 9, italic())

	got := l.AttributeIntervals(AttrBold)
	want := []Run{{Start: 0, End: 6, Style: bold()}}
	if diff := cmp.Diff(want, got, styleComparer); diff != "" {
		t.Errorf("bold intervals (-want +got):\n%s", diff)
	}
	got = l.AttributeIntervals(AttrItalic)
	want = []Run{{Start: 3, End: 9, Style: italic()}}
	if diff := cmp.Diff(want, got, styleComparer); diff != "" {
		t.Errorf("italic intervals (-want +got):\n%s", diff)
	}
}

func TestSegments(t *testing.T) {
	l := NewLayer(10)
	_ = l.SetInlineStyle(2, 4, bold())
	segs, err := l.Segments(0, 10)
	if err != nil {
		t.Fatal(err)
	}
	want := []Run{{Start: 0, End: 2}, {Start: 2, End: 4, Style: bold()}, {Start: 4, End: 10}}
	if diff := cmp.Diff(want, segs, styleComparer); diff != "" {
		t.Errorf("segments (-want +got):\n%s", diff)
	}
}
