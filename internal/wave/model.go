package wave

import "sync"

// LineView is the render contract for one waveform line. Mins and Maxs are
// empty while the envelope decode is still pending; the consumer draws a flat
// placeholder and picks the data up on a later query.
type LineView struct {
	Index      int
	StartMs    int64
	EndMs      int64
	StartLabel string
	EndLabel   string
	Mins       []float64
	Maxs       []float64
}

// Model is the render-agnostic waveform state: the line layout plus the
// epoch-tagged envelope cache over a PCM window reader. A view consumes
// LineViews and owns every pixel concern itself.
type Model struct {
	mu     sync.Mutex
	layout *Layout
	cache  *Cache
}

// NewModel builds a model over reader. onReady is forwarded to the cache and
// fires when a background envelope decode lands.
func NewModel(reader WindowReader, workers int, onReady func(line int)) *Model {
	m := &Model{
		layout: NewLayout(),
		cache:  NewCache(reader, workers, onReady),
	}
	m.cache.SetEpoch(m.layout.Epoch())
	return m
}

func (m *Model) Close() { m.cache.Close() }

// SetSource resets the layout for a freshly loaded source. All cached
// envelopes become stale.
func (m *Model) SetSource(durationMs int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.layout.SetDuration(durationMs)
	m.cache.SetEpoch(m.layout.Epoch())
}

func (m *Model) ZoomIn() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.layout.ZoomIn()
	m.cache.SetEpoch(m.layout.Epoch())
}

func (m *Model) ZoomOut() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.layout.ZoomOut()
	m.cache.SetEpoch(m.layout.Epoch())
}

func (m *Model) SetZoom(z float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.layout.SetZoom(z)
	m.cache.SetEpoch(m.layout.Epoch())
}

func (m *Model) Zoom() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.layout.Zoom()
}

func (m *Model) TotalLines() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.layout.TotalLines()
}

func (m *Model) TimePerLine() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.layout.TimePerLine()
}

func (m *Model) DurationMs() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.layout.DurationMs()
}

// LineAt returns the index of the line containing ms, or -1 with no source.
func (m *Model) LineAt(ms int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.layout.LineAt(ms)
}

// Line returns the view of a single line at the given envelope resolution.
func (m *Model) Line(index, resolution int) LineView {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lineLocked(index, resolution)
}

// VisibleLines returns views for the lines covering a viewport given in
// whole-line scroll units, with one line of lookahead on each side.
func (m *Model) VisibleLines(scrollLines, viewportLines, resolution int) []LineView {
	m.mu.Lock()
	defer m.mu.Unlock()
	first, last := m.layout.VisibleRange(scrollLines, viewportLines)
	if last < first {
		return nil
	}
	views := make([]LineView, 0, last-first+1)
	for i := first; i <= last; i++ {
		views = append(views, m.lineLocked(i, resolution))
	}
	return views
}

func (m *Model) lineLocked(index, resolution int) LineView {
	startMs, endMs := m.layout.LineRange(index)
	v := LineView{
		Index:      index,
		StartMs:    startMs,
		EndMs:      endMs,
		StartLabel: FormatMs(startMs),
		EndLabel:   FormatMs(endMs),
	}
	env, ok := m.cache.Get(index, resolution, startMs, endMs)
	if ok {
		v.Mins = env.Mins
		v.Maxs = env.Maxs
	}
	return v
}
