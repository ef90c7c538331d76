package audinux

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/audinux/audinux/internal/config"
	"github.com/audinux/audinux/internal/marker"
)

// fakeEngine records what the session asks of it. Positions are set by the
// test instead of advancing in real time.
type fakeEngine struct {
	mu      sync.Mutex
	playing bool
	stopped bool
	pos     int64
	dur     int64
	rate    float64
	volume  int
	seeks   []int64
}

func (e *fakeEngine) Play()  { e.mu.Lock(); e.playing = true; e.mu.Unlock() }
func (e *fakeEngine) Pause() { e.mu.Lock(); e.playing = false; e.mu.Unlock() }

func (e *fakeEngine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playing = false
	e.stopped = true
	return nil
}

func (e *fakeEngine) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

func (e *fakeEngine) PositionMs() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pos
}

func (e *fakeEngine) DurationMs() int64 { return e.dur }

func (e *fakeEngine) Seek(ms int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pos = ms
	e.seeks = append(e.seeks, ms)
}

func (e *fakeEngine) SetRate(f float64) { e.mu.Lock(); e.rate = f; e.mu.Unlock() }

func (e *fakeEngine) Rate() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rate
}

func (e *fakeEngine) SetVolume(v int) { e.mu.Lock(); e.volume = v; e.mu.Unlock() }

func (e *fakeEngine) Volume() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

func (e *fakeEngine) setPos(ms int64) { e.mu.Lock(); e.pos = ms; e.mu.Unlock() }

// writeTrack writes a 48kHz mono 16-bit WAV, which the media layer serves
// without transcoding.
func writeTrack(t *testing.T, dir, name string, seconds int) string {
	t.Helper()
	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	if err != nil {
		t.Fatal(err)
	}
	frames := 48000 * seconds
	enc := wav.NewEncoder(f, 48000, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 48000},
		SourceBitDepth: 16,
		Data:           make([]int, frames),
	}
	for i := 0; i < frames; i++ {
		buf.Data[i] = i % 1000
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return p
}

// newTestSession wires a session to a fake engine and a throwaway
// settings file.
func newTestSession(t *testing.T) (*Session, *fakeEngine) {
	t.Helper()
	eng := &fakeEngine{}
	s := NewSession(
		WithSettingsPath(filepath.Join(t.TempDir(), "settings.json")),
		WithEngineFactory(func(pcmPath string) (Engine, error) {
			eng.dur = 1000
			return eng, nil
		}),
	)
	t.Cleanup(s.Close)
	return s, eng
}

func TestSessionLoadCommitsTrack(t *testing.T) {
	s, eng := newTestSession(t)
	path := writeTrack(t, t.TempDir(), "song.wav", 1)
	if err := s.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	info, ok := s.Track()
	if !ok {
		t.Fatal("Track after Load should report true")
	}
	if info.DurationMs != 1000 {
		t.Fatalf("DurationMs = %d, want 1000", info.DurationMs)
	}
	if info.Title != "song" {
		t.Fatalf("Title = %q, want song", info.Title)
	}
	if s.TotalLines() != 1 {
		t.Fatalf("TotalLines = %d, want 1", s.TotalLines())
	}
	// Persisted defaults are pushed into the engine on load.
	if eng.Rate() != 1.0 || eng.Volume() != 100 {
		t.Fatalf("engine rate/volume = %v/%d, want 1.0/100", eng.Rate(), eng.Volume())
	}
	if s.LastDir() != filepath.Dir(path) {
		t.Fatalf("LastDir = %q, want %q", s.LastDir(), filepath.Dir(path))
	}
}

func TestSessionLoadFailureKeepsCurrent(t *testing.T) {
	s, eng := newTestSession(t)
	path := writeTrack(t, t.TempDir(), "song.wav", 1)
	if err := s.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.Load(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Fatal("Load of a missing file should fail")
	}
	if eng.stopped {
		t.Fatal("failed Load must not stop the current engine")
	}
	if info, ok := s.Track(); !ok || info.Path == "" {
		t.Fatal("failed Load must keep the current track")
	}
}

func TestSessionToggle(t *testing.T) {
	s, eng := newTestSession(t)
	if err := s.Load(writeTrack(t, t.TempDir(), "song.wav", 1)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	s.Toggle()
	if !eng.IsPlaying() {
		t.Fatal("Toggle from paused should play")
	}
	s.Toggle()
	if eng.IsPlaying() {
		t.Fatal("Toggle from playing should pause")
	}
}

func TestSessionSeekByClampsAtZero(t *testing.T) {
	s, eng := newTestSession(t)
	if err := s.Load(writeTrack(t, t.TempDir(), "song.wav", 1)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	eng.setPos(200)
	s.SeekBy(-500)
	if got := eng.PositionMs(); got != 0 {
		t.Fatalf("position after SeekBy(-500) = %d, want 0", got)
	}
}

func TestSessionMarkersRoundTrip(t *testing.T) {
	s, eng := newTestSession(t)
	dir := t.TempDir()
	path := writeTrack(t, dir, "song.wav", 1)
	if err := s.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	eng.setPos(250)
	if err := s.AddMarker("verse"); err != nil {
		t.Fatalf("AddMarker: %v", err)
	}
	if err := s.AddMarkerAt(700, ""); err != nil {
		t.Fatalf("AddMarkerAt: %v", err)
	}
	got := s.Markers()
	if len(got) != 2 || got[0].Ms != 250 || got[1].Ms != 700 {
		t.Fatalf("Markers = %v, want positions 250, 700", got)
	}
	if got[1].Name != "Marker" {
		t.Fatalf("default name = %q, want Marker", got[1].Name)
	}
	if _, err := os.Stat(marker.SidecarPath(path)); err != nil {
		t.Fatalf("sidecar not written: %v", err)
	}
}

func TestSessionMarkerNavigation(t *testing.T) {
	s, eng := newTestSession(t)
	if err := s.Load(writeTrack(t, t.TempDir(), "song.wav", 1)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.AddMarkerAt(300, "a"); err != nil {
		t.Fatal(err)
	}
	if err := s.AddMarkerAt(600, "b"); err != nil {
		t.Fatal(err)
	}
	eng.setPos(300)
	if !s.JumpToNextMarker() {
		t.Fatal("JumpToNextMarker should find the marker at 600")
	}
	if got := eng.PositionMs(); got != 600 {
		t.Fatalf("position = %d, want 600", got)
	}
	if !s.JumpToPrevMarker() {
		t.Fatal("JumpToPrevMarker should find the marker at 300")
	}
	if got := eng.PositionMs(); got != 300 {
		t.Fatalf("position = %d, want 300", got)
	}
	// Strict bounds: nothing before the first marker.
	eng.setPos(300)
	if s.JumpToPrevMarker() {
		t.Fatal("no marker strictly before 300")
	}
}

func TestSessionLoopSeekEvent(t *testing.T) {
	s, eng := newTestSession(t)
	if err := s.Load(writeTrack(t, t.TempDir(), "song.wav", 1)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	events := s.Events()
	if err := s.LoopBetween(100, 400); err != nil {
		t.Fatalf("LoopBetween: %v", err)
	}
	eng.setPos(400)
	s.tickControl()
	if got := eng.PositionMs(); got != 100 {
		t.Fatalf("position after loop tick = %d, want 100", got)
	}
	deadline := time.After(time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Kind == EventLoopSeek {
				if ev.PositionMs != 100 {
					t.Fatalf("loop event position = %d, want 100", ev.PositionMs)
				}
				return
			}
		case <-deadline:
			t.Fatal("no EventLoopSeek received")
		}
	}
}

func TestSessionLoopBeforeEndDoesNotSeek(t *testing.T) {
	s, eng := newTestSession(t)
	if err := s.Load(writeTrack(t, t.TempDir(), "song.wav", 1)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.LoopBetween(100, 400); err != nil {
		t.Fatalf("LoopBetween: %v", err)
	}
	eng.setPos(399)
	s.tickControl()
	if got := eng.PositionMs(); got != 399 {
		t.Fatalf("position = %d, want 399 (no jump)", got)
	}
}

func TestSessionLoopRejectsEqualMarkers(t *testing.T) {
	s, _ := newTestSession(t)
	if err := s.LoopBetween(200, 800); err != nil {
		t.Fatalf("LoopBetween: %v", err)
	}
	if err := s.LoopBetween(500, 500); !errors.Is(err, ErrLoopMarkersEqual) {
		t.Fatalf("LoopBetween(500, 500) = %v, want ErrLoopMarkersEqual", err)
	}
	// The rejected request must not disturb the installed loop.
	r, ok := s.Loop()
	if !ok || r.StartMs != 200 || r.EndMs != 800 {
		t.Fatalf("Loop after rejection = %+v, %v, want {200 800}, true", r, ok)
	}
}

func TestSessionLoopAcceptsInvertedOrder(t *testing.T) {
	s, _ := newTestSession(t)
	if err := s.LoopBetween(800, 200); err != nil {
		t.Fatalf("LoopBetween: %v", err)
	}
	r, ok := s.Loop()
	if !ok || r.StartMs != 200 || r.EndMs != 800 {
		t.Fatalf("Loop = %+v, %v, want {200 800}, true", r, ok)
	}
}

func TestSessionZoomPersists(t *testing.T) {
	settingsPath := filepath.Join(t.TempDir(), "settings.json")
	eng := &fakeEngine{}
	s := NewSession(
		WithSettingsPath(settingsPath),
		WithEngineFactory(func(string) (Engine, error) { return eng, nil }),
	)
	defer s.Close()
	if err := s.Load(writeTrack(t, t.TempDir(), "song.wav", 1)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	s.ZoomIn()
	want := s.Zoom()
	if got := config.Load(settingsPath).Zoom; got != want {
		t.Fatalf("persisted zoom = %v, want %v", got, want)
	}
}

func TestSessionPlayheadLabels(t *testing.T) {
	s, eng := newTestSession(t)
	if err := s.Load(writeTrack(t, t.TempDir(), "song.wav", 1)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	eng.setPos(500)
	ph := s.Playhead()
	if ph.PositionLabel != "00:00" {
		t.Fatalf("PositionLabel = %q, want 00:00", ph.PositionLabel)
	}
	if ph.DurationLabel != "00:01" {
		t.Fatalf("DurationLabel = %q, want 00:01", ph.DurationLabel)
	}
}

func TestSessionTrackSwitchResetsMarkersAndLoop(t *testing.T) {
	s, _ := newTestSession(t)
	dir := t.TempDir()
	a := writeTrack(t, dir, "a.wav", 1)
	b := writeTrack(t, dir, "b.wav", 1)
	if err := s.Load(a); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.AddMarkerAt(100, "x"); err != nil {
		t.Fatal(err)
	}
	if err := s.LoopBetween(0, 500); err != nil {
		t.Fatal(err)
	}
	if err := s.Load(b); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := s.Markers(); len(got) != 0 {
		t.Fatalf("markers after switch = %v, want none", got)
	}
	if _, ok := s.Loop(); ok {
		t.Fatal("loop must be cleared on track switch")
	}
}

func TestSessionPlaylistAdvance(t *testing.T) {
	s, _ := newTestSession(t)
	dir := t.TempDir()
	a := writeTrack(t, dir, "a.wav", 1)
	b := writeTrack(t, dir, "b.wav", 1)
	s.Playlist().Queue(a, b)
	if err := s.Load(a); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := s.NextTrack(); err != nil {
		t.Fatalf("NextTrack: %v", err)
	}
	info, ok := s.Track()
	if !ok || info.Path != b {
		t.Fatalf("current track = %q, want %q", info.Path, b)
	}
	// At the end of the queue NextTrack is a no-op.
	if err := s.NextTrack(); err != nil {
		t.Fatalf("NextTrack at end: %v", err)
	}
	if info, _ := s.Track(); info.Path != b {
		t.Fatalf("track changed at end of queue: %q", info.Path)
	}
}
