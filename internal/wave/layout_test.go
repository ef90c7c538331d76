package wave

import "testing"

func TestLayoutOneHourAtDefaultZoom(t *testing.T) {
	l := NewLayout()
	l.SetDuration(3_600_000)
	if got := l.TimePerLine(); got != 30000 {
		t.Fatalf("timePerLine = %d, want 30000", got)
	}
	if got := l.TotalLines(); got != 120 {
		t.Fatalf("totalLines = %d, want 120", got)
	}
}

func TestLayoutPartitionIsContiguous(t *testing.T) {
	durations := []int64{1, 4999, 5000, 29999, 30000, 30001, 3_600_000, 21_600_123}
	zooms := []float64{0.1, 0.5, 1.0, 1.5, 3.0, 10.0}
	for _, d := range durations {
		for _, z := range zooms {
			l := NewLayout()
			l.SetZoom(z)
			l.SetDuration(d)
			tpl := l.TimePerLine()
			if tpl < minTimePerLine {
				t.Fatalf("d=%d z=%v: timePerLine %d below floor", d, z, tpl)
			}
			n := l.TotalLines()
			wantLines := int((d + tpl - 1) / tpl)
			if n != wantLines {
				t.Fatalf("d=%d z=%v: totalLines = %d, want ceil = %d", d, z, n, wantLines)
			}
			var prevEnd int64
			for i := 0; i < n; i++ {
				start, end := l.LineRange(i)
				if start != int64(i)*tpl {
					t.Fatalf("d=%d z=%v line %d: start = %d, want %d", d, z, i, start, int64(i)*tpl)
				}
				if start != prevEnd {
					t.Fatalf("d=%d z=%v line %d: gap, start %d after end %d", d, z, i, start, prevEnd)
				}
				if end <= start {
					t.Fatalf("d=%d z=%v line %d: empty range [%d,%d)", d, z, i, start, end)
				}
				prevEnd = end
			}
			if prevEnd != d {
				t.Fatalf("d=%d z=%v: last line ends at %d, want %d", d, z, prevEnd, d)
			}
		}
	}
}

func TestLayoutZoomClampAndFloor(t *testing.T) {
	l := NewLayout()
	l.SetDuration(600_000)
	for i := 0; i < 20; i++ {
		l.ZoomIn()
	}
	if got := l.Zoom(); got != ZoomMax {
		t.Fatalf("zoom after many zoom-ins = %v, want clamp at %v", got, ZoomMax)
	}
	if got := l.TimePerLine(); got != minTimePerLine {
		t.Fatalf("timePerLine at max zoom = %d, want floor %d", got, minTimePerLine)
	}
	for i := 0; i < 40; i++ {
		l.ZoomOut()
	}
	if got := l.Zoom(); got != ZoomMin {
		t.Fatalf("zoom after many zoom-outs = %v, want clamp at %v", got, ZoomMin)
	}
	if got := l.TimePerLine(); got != int64(baseTimePerLine/ZoomMin) {
		t.Fatalf("timePerLine at min zoom = %d, want %d", got, int64(baseTimePerLine/ZoomMin))
	}
}

func TestLayoutEpochBumpsOnRecompute(t *testing.T) {
	l := NewLayout()
	e0 := l.Epoch()
	l.SetDuration(100_000)
	if l.Epoch() == e0 {
		t.Fatalf("epoch unchanged after SetDuration")
	}
	e1 := l.Epoch()
	l.ZoomIn()
	if l.Epoch() <= e1 {
		t.Fatalf("epoch = %d after zoom, want > %d", l.Epoch(), e1)
	}
}

func TestLayoutVisibleRange(t *testing.T) {
	l := NewLayout()
	l.SetDuration(3_600_000) // 120 lines
	tests := []struct {
		scroll, viewport    int
		wantFirst, wantLast int
	}{
		{0, 10, 0, 10},      // top: lookahead below only
		{5, 10, 4, 15},      // middle: one line margin both sides
		{115, 10, 114, 119}, // bottom: clamped to last line
		{0, 200, 0, 119},    // viewport larger than content
	}
	for _, tt := range tests {
		first, last := l.VisibleRange(tt.scroll, tt.viewport)
		if first != tt.wantFirst || last != tt.wantLast {
			t.Errorf("VisibleRange(%d,%d) = [%d,%d], want [%d,%d]",
				tt.scroll, tt.viewport, first, last, tt.wantFirst, tt.wantLast)
		}
	}
}

func TestLayoutLineAt(t *testing.T) {
	l := NewLayout()
	l.SetDuration(95_000) // 4 lines of 30s, last one 5s
	tests := []struct {
		ms   int64
		want int
	}{
		{0, 0}, {29_999, 0}, {30_000, 1}, {90_000, 3}, {94_999, 3}, {500_000, 3}, {-5, 0},
	}
	for _, tt := range tests {
		if got := l.LineAt(tt.ms); got != tt.want {
			t.Errorf("LineAt(%d) = %d, want %d", tt.ms, got, tt.want)
		}
	}
}

func TestFormatMs(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "00:00"},
		{999, "00:00"},
		{1000, "00:01"},
		{65_000, "01:05"},
		{3_599_000, "59:59"},
		{3_600_000, "01:00:00"},
		{21_600_500, "06:00:00"},
		{-1, "00:00"},
	}
	for _, tt := range tests {
		if got := FormatMs(tt.ms); got != tt.want {
			t.Errorf("FormatMs(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}
