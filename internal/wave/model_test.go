package wave

import (
	"testing"
	"time"
)

func newTestModel(t *testing.T) (*Model, chan int) {
	t.Helper()
	ready := make(chan int, 64)
	m := NewModel(&rampReader{}, 1, func(line int) { ready <- line })
	t.Cleanup(m.Close)
	return m, ready
}

func TestModelLineViewLabels(t *testing.T) {
	m, _ := newTestModel(t)
	m.SetSource(3_600_000)
	v := m.Line(119, 100)
	if v.StartMs != 3_570_000 || v.EndMs != 3_600_000 {
		t.Fatalf("line 119 range = [%d,%d), want [3570000,3600000)", v.StartMs, v.EndMs)
	}
	if v.StartLabel != "59:30" || v.EndLabel != "01:00:00" {
		t.Fatalf("labels = %q/%q, want 59:30/01:00:00", v.StartLabel, v.EndLabel)
	}
}

func TestModelPlaceholderThenData(t *testing.T) {
	m, ready := newTestModel(t)
	m.SetSource(60_000)
	v := m.Line(0, 50)
	if len(v.Mins) != 0 {
		t.Fatalf("first query should be a pending placeholder, got %d points", len(v.Mins))
	}
	waitReady(t, ready, 0)
	v = m.Line(0, 50)
	if len(v.Mins) != 50 {
		t.Fatalf("envelope length after decode = %d, want 50", len(v.Mins))
	}
}

func TestModelZoomInvalidatesEnvelopes(t *testing.T) {
	m, ready := newTestModel(t)
	m.SetSource(120_000)
	m.Line(0, 10)
	waitReady(t, ready, 0)

	m.ZoomIn() // 30s lines -> 20s lines; old envelopes are stale
	v := m.Line(0, 10)
	if len(v.Mins) != 0 {
		t.Fatalf("stale envelope rendered after zoom change")
	}
	if v.EndMs != 20_000 {
		t.Fatalf("line 0 end after zoom-in = %d, want 20000", v.EndMs)
	}
	waitReady(t, ready, 0)
	v = m.Line(0, 10)
	if len(v.Mins) != 10 {
		t.Fatalf("fresh envelope missing after zoom change")
	}
}

func TestModelVisibleLines(t *testing.T) {
	m, _ := newTestModel(t)
	m.SetSource(3_600_000)
	views := m.VisibleLines(5, 10, 100)
	if len(views) != 12 {
		t.Fatalf("visible views = %d, want 12 (10 + margin)", len(views))
	}
	if views[0].Index != 4 || views[len(views)-1].Index != 15 {
		t.Fatalf("visible range = [%d,%d], want [4,15]", views[0].Index, views[len(views)-1].Index)
	}
}

func TestModelNoSource(t *testing.T) {
	m, _ := newTestModel(t)
	if got := m.TotalLines(); got != 0 {
		t.Fatalf("totalLines with no source = %d, want 0", got)
	}
	if got := m.LineAt(1000); got != -1 {
		t.Fatalf("LineAt with no source = %d, want -1", got)
	}
	if views := m.VisibleLines(0, 10, 100); views != nil {
		t.Fatalf("visible views with no source = %d, want none", len(views))
	}
	// Give any stray worker a moment; nothing should have been scheduled.
	time.Sleep(10 * time.Millisecond)
}
