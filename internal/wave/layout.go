package wave

// Zoom and line sizing constants. At zoom 1.0 each line spans 30 seconds;
// zooming in shortens lines down to a 5 second floor.
const (
	baseTimePerLine = 30000 // ms per line at zoom 1.0
	minTimePerLine  = 5000  // ms floor regardless of zoom

	ZoomMin  = 0.1
	ZoomMax  = 10.0
	ZoomStep = 1.5
)

// Layout partitions a source's timeline into contiguous fixed-duration lines
// for a given zoom factor. Every recomputation (new duration or zoom change)
// bumps a monotonic epoch used to invalidate cached envelopes.
//
// Layout is not safe for concurrent use; Model serializes access to it.
type Layout struct {
	durationMs  int64
	zoom        float64
	timePerLine int64
	totalLines  int
	epoch       uint64
}

func NewLayout() *Layout {
	return &Layout{zoom: 1.0}
}

// SetDuration installs a new total duration and recomputes the line grid.
func (l *Layout) SetDuration(ms int64) {
	if ms < 0 {
		ms = 0
	}
	l.durationMs = ms
	l.recompute()
}

// SetZoom clamps z to [ZoomMin, ZoomMax] and recomputes the line grid.
func (l *Layout) SetZoom(z float64) {
	if z < ZoomMin {
		z = ZoomMin
	}
	if z > ZoomMax {
		z = ZoomMax
	}
	l.zoom = z
	l.recompute()
}

func (l *Layout) ZoomIn()  { l.SetZoom(l.zoom * ZoomStep) }
func (l *Layout) ZoomOut() { l.SetZoom(l.zoom / ZoomStep) }

func (l *Layout) recompute() {
	l.timePerLine = int64(baseTimePerLine / l.zoom)
	if l.timePerLine < minTimePerLine {
		l.timePerLine = minTimePerLine
	}
	l.totalLines = int((l.durationMs + l.timePerLine - 1) / l.timePerLine)
	l.epoch++
}

func (l *Layout) DurationMs() int64  { return l.durationMs }
func (l *Layout) Zoom() float64      { return l.zoom }
func (l *Layout) TimePerLine() int64 { return l.timePerLine }
func (l *Layout) TotalLines() int    { return l.totalLines }

// Epoch returns the current layout generation. Envelopes computed under an
// older epoch are stale and must not be rendered.
func (l *Layout) Epoch() uint64 { return l.epoch }

// LineRange returns the half-open [start, end) window of line i in ms.
// The last line is cut short at the total duration.
func (l *Layout) LineRange(i int) (startMs, endMs int64) {
	if i < 0 || i >= l.totalLines {
		return 0, 0
	}
	startMs = int64(i) * l.timePerLine
	endMs = startMs + l.timePerLine
	if endMs > l.durationMs {
		endMs = l.durationMs
	}
	return startMs, endMs
}

// LineAt returns the index of the line containing the given position, or -1
// when the layout is empty. Positions past the end map to the last line.
func (l *Layout) LineAt(ms int64) int {
	if l.totalLines == 0 || l.timePerLine == 0 {
		return -1
	}
	if ms < 0 {
		ms = 0
	}
	i := int(ms / l.timePerLine)
	if i >= l.totalLines {
		i = l.totalLines - 1
	}
	return i
}

// VisibleRange maps a scroll offset and viewport extent, both in whole-line
// units, to the inclusive [first, last] line range to draw. The range is
// expanded by one line of lookahead on each side and clamped to the grid;
// an empty layout yields (0, -1).
func (l *Layout) VisibleRange(scrollLines, viewportLines int) (first, last int) {
	if l.totalLines == 0 {
		return 0, -1
	}
	first = scrollLines - 1
	if first < 0 {
		first = 0
	}
	last = scrollLines + viewportLines
	if last > l.totalLines-1 {
		last = l.totalLines - 1
	}
	if first > last {
		first = last
	}
	return first, last
}
