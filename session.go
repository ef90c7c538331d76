// Package audinux is the core of a long-form audio player: it loads a
// track, virtualizes its waveform into zoomable envelope lines, keeps
// named markers in a JSON sidecar next to the audio file, runs an A-B
// loop, and polls the playback engine so a UI only has to draw.
package audinux

import (
	"path/filepath"
	"sync"

	"github.com/audinux/audinux/internal/config"
	"github.com/audinux/audinux/internal/engine"
	"github.com/audinux/audinux/internal/marker"
	"github.com/audinux/audinux/internal/media"
	"github.com/audinux/audinux/internal/wave"
)

// Marker is a named position in the current track.
type Marker = marker.Marker

// LineView is one waveform line ready to draw.
type LineView = wave.LineView

// Engine is the playback backend the session drives. The default backend
// streams through the system audio driver; tests substitute their own.
type Engine interface {
	Play()
	Pause()
	Stop() error
	IsPlaying() bool
	PositionMs() int64
	DurationMs() int64
	Seek(ms int64)
	SetRate(factor float64)
	Rate() float64
	SetVolume(percent int)
	Volume() int
}

// EngineFactory builds an Engine over a canonical PCM file.
type EngineFactory func(pcmPath string) (Engine, error)

// SessionEvent carries session state changes from Events().
type SessionEvent struct {
	Kind       int
	PositionMs int64 // EventPlayhead, EventLoopSeek
	Line       int   // EventLineReady, EventPlayhead
	PrevLine   int   // EventPlayhead: line the playhead left
}

const (
	// EventPlayhead fires on the fast poll cadence while a track is loaded.
	// Line and PrevLine bound the repaint when the playhead crosses lines.
	EventPlayhead int = iota
	// EventLoopSeek fires when the loop controller jumped the playhead;
	// PositionMs is the loop start it jumped to.
	EventLoopSeek
	// EventLineReady fires when a background decode finished Line.
	EventLineReady
	// EventTrackLoaded fires after Load commits a new source.
	EventTrackLoaded
)

type SessionOption func(*sessionConfig)

type sessionConfig struct {
	settingsPath string
	factory      EngineFactory
	waveWorkers  int
}

func defaultSessionConfig() sessionConfig {
	path, err := config.DefaultPath()
	if err != nil {
		path = ""
	}
	return sessionConfig{
		settingsPath: path,
		factory: func(pcmPath string) (Engine, error) {
			return engine.NewPlayer(pcmPath)
		},
		waveWorkers: 2,
	}
}

// WithSettingsPath overrides where zoom, rate, and volume are persisted.
// An empty path disables persistence.
func WithSettingsPath(path string) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.settingsPath = path
	}
}

// WithEngineFactory overrides the playback backend.
func WithEngineFactory(f EngineFactory) SessionOption {
	return func(cfg *sessionConfig) {
		cfg.factory = f
	}
}

// WithWaveWorkers sets how many goroutines decode waveform lines.
func WithWaveWorkers(n int) SessionOption {
	return func(cfg *sessionConfig) {
		if n > 0 {
			cfg.waveWorkers = n
		}
	}
}

// TrackInfo describes the loaded source.
type TrackInfo struct {
	Path       string
	Title      string
	Artist     string
	DurationMs int64
}

// PlayheadState is a snapshot for the transport readout.
type PlayheadState struct {
	PositionMs    int64
	DurationMs    int64
	Playing       bool
	Rate          float64
	Volume        int
	PositionLabel string
	DurationLabel string
}

// Session ties the engine, waveform model, markers, loop, and playlist
// together behind one mutex, the way a UI wants to talk to them.
type Session struct {
	mu           sync.Mutex
	settingsPath string
	settings     config.Settings
	newEngine    EngineFactory
	waveWorkers  int

	source   *media.Source
	reader   *media.Reader
	eng      Engine
	model    *wave.Model
	markers  *marker.Store
	loop     loopController
	poll     *poller
	playlist Playlist
	lastLine int

	eventCh   chan SessionEvent
	eventChMu sync.Mutex
}

// NewSession builds an idle session. Call Load to bring in a track.
func NewSession(opts ...SessionOption) *Session {
	cfg := defaultSessionConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	s := &Session{
		settingsPath: cfg.settingsPath,
		settings:     config.Load(cfg.settingsPath),
		newEngine:    cfg.factory,
		waveWorkers:  cfg.waveWorkers,
		markers:      marker.NewStore(),
		lastLine:     -1,
	}
	s.poll = &poller{onPlayhead: s.tickPlayhead, onControl: s.tickControl}
	return s
}

// Load opens a track and replaces the current one. Nothing visible changes
// until every piece is ready: on failure the previous track keeps playing.
func (s *Session) Load(path string) error {
	src, err := media.Open(path)
	if err != nil {
		return err
	}
	reader, err := media.OpenReader(src.PCMPath)
	if err != nil {
		return err
	}
	eng, err := s.newEngine(src.PCMPath)
	if err != nil {
		reader.Close()
		return err
	}

	s.mu.Lock()
	s.teardownLocked()
	s.source = src
	s.reader = reader
	s.eng = eng
	s.model = wave.NewModel(reader, s.waveWorkers, s.onLineReady)
	s.model.SetSource(src.DurationMs)
	s.model.SetZoom(s.settings.Zoom)
	eng.SetRate(s.settings.Rate)
	eng.SetVolume(s.settings.Volume)
	s.markers.Load(src.Path)
	s.loop.Clear()
	s.lastLine = -1
	s.settings.LastDir = filepath.Dir(src.Path)
	s.saveSettingsLocked()
	s.mu.Unlock()

	s.poll.start()
	s.sendEvent(SessionEvent{Kind: EventTrackLoaded})
	return nil
}

// teardownLocked releases the current source. Callers hold s.mu.
func (s *Session) teardownLocked() {
	if s.eng != nil {
		_ = s.eng.Stop()
		s.eng = nil
	}
	if s.model != nil {
		s.model.Close()
		s.model = nil
	}
	if s.reader != nil {
		_ = s.reader.Close()
		s.reader = nil
	}
	s.source = nil
}

// Close stops playback and releases everything.
func (s *Session) Close() {
	s.poll.halt()
	s.mu.Lock()
	s.teardownLocked()
	s.mu.Unlock()
}

// Track returns metadata for the loaded source.
func (s *Session) Track() (TrackInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source == nil {
		return TrackInfo{}, false
	}
	return TrackInfo{
		Path:       s.source.Path,
		Title:      s.source.Title,
		Artist:     s.source.Artist,
		DurationMs: s.source.DurationMs,
	}, true
}

func (s *Session) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.eng != nil {
		s.eng.Play()
	}
}

func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.eng != nil {
		s.eng.Pause()
	}
}

// Toggle plays when paused and pauses when playing.
func (s *Session) Toggle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.eng == nil {
		return
	}
	if s.eng.IsPlaying() {
		s.eng.Pause()
	} else {
		s.eng.Play()
	}
}

// Stop halts playback and unloads the track. Markers stay on disk.
func (s *Session) Stop() {
	s.poll.halt()
	s.mu.Lock()
	s.teardownLocked()
	s.loop.Clear()
	s.lastLine = -1
	s.mu.Unlock()
}

// SeekMs jumps to an absolute position.
func (s *Session) SeekMs(ms int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.eng != nil {
		s.eng.Seek(ms)
	}
}

// SeekBy nudges the playhead by a signed delta.
func (s *Session) SeekBy(deltaMs int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.eng == nil {
		return
	}
	pos := s.eng.PositionMs() + deltaMs
	if pos < 0 {
		pos = 0
	}
	s.eng.Seek(pos)
}

// Playhead snapshots the transport state.
func (s *Session) Playhead() PlayheadState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.eng == nil {
		return PlayheadState{
			Rate:          s.settings.Rate,
			Volume:        s.settings.Volume,
			PositionLabel: wave.FormatMs(0),
			DurationLabel: wave.FormatMs(0),
		}
	}
	pos, dur := s.eng.PositionMs(), s.eng.DurationMs()
	return PlayheadState{
		PositionMs:    pos,
		DurationMs:    dur,
		Playing:       s.eng.IsPlaying(),
		Rate:          s.eng.Rate(),
		Volume:        s.eng.Volume(),
		PositionLabel: wave.FormatMs(pos),
		DurationLabel: wave.FormatMs(dur),
	}
}

func (s *Session) ZoomIn()  { s.zoom(func(m *wave.Model) { m.ZoomIn() }) }
func (s *Session) ZoomOut() { s.zoom(func(m *wave.Model) { m.ZoomOut() }) }

// SetZoom sets the zoom factor, clamped to the supported range.
func (s *Session) SetZoom(z float64) {
	s.zoom(func(m *wave.Model) { m.SetZoom(z) })
}

func (s *Session) zoom(apply func(*wave.Model)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil {
		return
	}
	apply(s.model)
	s.settings.Zoom = s.model.Zoom()
	s.saveSettingsLocked()
}

func (s *Session) Zoom() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil {
		return s.settings.Zoom
	}
	return s.model.Zoom()
}

// SetRate sets the playback rate, clamped by the engine.
func (s *Session) SetRate(factor float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.eng == nil {
		return
	}
	s.eng.SetRate(factor)
	s.settings.Rate = s.eng.Rate()
	s.saveSettingsLocked()
}

// NudgeRate adjusts the rate by a signed step.
func (s *Session) NudgeRate(delta float64) {
	s.mu.Lock()
	cur := s.settings.Rate
	if s.eng != nil {
		cur = s.eng.Rate()
	}
	s.mu.Unlock()
	s.SetRate(cur + delta)
}

func (s *Session) SetVolume(percent int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.eng == nil {
		return
	}
	s.eng.SetVolume(percent)
	s.settings.Volume = s.eng.Volume()
	s.saveSettingsLocked()
}

// AddMarker drops a named marker at the current playhead and persists the
// sidecar. An empty name gets a default.
func (s *Session) AddMarker(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.eng == nil {
		return nil
	}
	if name == "" {
		name = "Marker"
	}
	return s.markers.Add(s.eng.PositionMs(), name)
}

// AddMarkerAt drops a named marker at an explicit position.
func (s *Session) AddMarkerAt(ms int64, name string) error {
	if name == "" {
		name = "Marker"
	}
	return s.markers.Add(ms, name)
}

func (s *Session) Markers() []Marker { return s.markers.List() }

func (s *Session) ClearMarkers() error { return s.markers.Clear() }

// JumpToNextMarker seeks to the first marker strictly after the playhead.
func (s *Session) JumpToNextMarker() bool {
	return s.jumpMarker(s.markers.NearestAfter)
}

// JumpToPrevMarker seeks to the last marker strictly before the playhead.
func (s *Session) JumpToPrevMarker() bool {
	return s.jumpMarker(s.markers.NearestBefore)
}

func (s *Session) jumpMarker(pick func(int64) (Marker, bool)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.eng == nil {
		return false
	}
	m, ok := pick(s.eng.PositionMs())
	if !ok {
		return false
	}
	s.eng.Seek(m.Ms)
	return true
}

// LoopBetween installs an A-B loop between two positions, typically two
// marker positions. The points may arrive in either order; an identical
// pair is rejected and the current loop state is left alone.
func (s *Session) LoopBetween(aMs, bMs int64) error {
	if aMs == bMs {
		return ErrLoopMarkersEqual
	}
	if aMs > bMs {
		aMs, bMs = bMs, aMs
	}
	s.loop.Set(aMs, bMs)
	return nil
}

func (s *Session) ClearLoop() { s.loop.Clear() }

func (s *Session) Loop() (LoopRegion, bool) { return s.loop.Region() }

// VisibleLines returns the waveform lines for a viewport, with lookahead.
// Lines still decoding come back with empty envelopes.
func (s *Session) VisibleLines(scrollLines, viewportLines, resolution int) []LineView {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil {
		return nil
	}
	return s.model.VisibleLines(scrollLines, viewportLines, resolution)
}

// Line returns a single waveform line.
func (s *Session) Line(index, resolution int) (LineView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil {
		return LineView{}, false
	}
	return s.model.Line(index, resolution), true
}

func (s *Session) TotalLines() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil {
		return 0
	}
	return s.model.TotalLines()
}

func (s *Session) TimePerLine() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil {
		return 0
	}
	return s.model.TimePerLine()
}

// LineAt maps a position to its line index.
func (s *Session) LineAt(ms int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model == nil {
		return 0
	}
	return s.model.LineAt(ms)
}

// Playlist exposes the track queue.
func (s *Session) Playlist() *Playlist { return &s.playlist }

// NextTrack loads the next queued track, if any.
func (s *Session) NextTrack() error {
	path, ok := s.playlist.Next()
	if !ok {
		return nil
	}
	return s.Load(path)
}

// PrevTrack loads the previous queued track, if any.
func (s *Session) PrevTrack() error {
	path, ok := s.playlist.Prev()
	if !ok {
		return nil
	}
	return s.Load(path)
}

// LastDir returns the directory of the most recently loaded track.
func (s *Session) LastDir() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.LastDir
}

// Events returns a buffered channel of session events. Only the most
// recent channel receives them; slow receivers drop events rather than
// stalling the poller.
func (s *Session) Events() <-chan SessionEvent {
	ch := make(chan SessionEvent, 16)
	s.eventChMu.Lock()
	s.eventCh = ch
	s.eventChMu.Unlock()
	return ch
}

func (s *Session) sendEvent(ev SessionEvent) {
	s.eventChMu.Lock()
	ch := s.eventCh
	s.eventChMu.Unlock()
	if ch != nil {
		select {
		case ch <- ev:
		default:
		}
	}
}

// tickPlayhead runs on the fast poll cadence.
func (s *Session) tickPlayhead() {
	s.mu.Lock()
	if s.eng == nil || s.model == nil {
		s.mu.Unlock()
		return
	}
	pos := s.eng.PositionMs()
	line := s.model.LineAt(pos)
	prev := s.lastLine
	s.lastLine = line
	s.mu.Unlock()
	s.sendEvent(SessionEvent{Kind: EventPlayhead, PositionMs: pos, Line: line, PrevLine: prev})
}

// tickControl runs on the slow cadence: loop evaluation, then anything
// else that only needs a coarse clock.
func (s *Session) tickControl() {
	s.mu.Lock()
	eng := s.eng
	s.mu.Unlock()
	if eng == nil {
		return
	}
	if target, jump := s.loop.Evaluate(eng.PositionMs()); jump {
		eng.Seek(target)
		s.sendEvent(SessionEvent{Kind: EventLoopSeek, PositionMs: target})
	}
}

// onLineReady is called from cache workers when a line envelope lands.
func (s *Session) onLineReady(line int) {
	s.sendEvent(SessionEvent{Kind: EventLineReady, Line: line})
}

func (s *Session) saveSettingsLocked() {
	if s.settingsPath == "" {
		return
	}
	_ = config.Save(s.settingsPath, s.settings)
}
