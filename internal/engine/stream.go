package engine

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/audinux/audinux/internal/media"
)

// The driver context is mono-instanced per process and fixed at 48kHz; the
// source walks its own file at whatever rate it was encoded with and the
// stream resamples on the way out.
const (
	outputRate    = 48000
	bytesPerFrame = 8 // stereo float32
	chunkFrames   = 32768
)

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
)

func sharedAudioContext() *ebitaudio.Context {
	audioContextOnce.Do(func() {
		audioContext = ebitaudio.NewContext(outputRate)
	})
	return audioContext
}

// pcmSource adapts a window reader into the float32 stereo stream the audio
// driver consumes. It keeps a fractional cursor in source frames and steps
// it by rate*(srcRate/outputRate) per output frame, linearly interpolating
// between neighbours, which yields both resampling and time-stretch-free
// rate control. Past the end it emits silence instead of EOF so the driver
// stays open for a later seek.
type pcmSource struct {
	mu         sync.Mutex
	r          *media.Reader
	pos        float64
	step       float64 // srcRate / outputRate
	rate       float64
	chunk      []float64
	chunkStart int64
}

func newPCMSource(r *media.Reader) *pcmSource {
	return &pcmSource{
		r:    r,
		step: float64(r.SampleRate()) / outputRate,
		rate: 1.0,
	}
}

func (s *pcmSource) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	frames := len(p) / bytesPerFrame
	if frames == 0 {
		return 0, nil
	}
	advance := s.step * s.rate
	for i := 0; i < frames; i++ {
		v := float32(s.sampleAt(s.pos))
		bits := math.Float32bits(v)
		binary.LittleEndian.PutUint32(p[i*bytesPerFrame:], bits)
		binary.LittleEndian.PutUint32(p[i*bytesPerFrame+4:], bits)
		s.pos += advance
	}
	return frames * bytesPerFrame, nil
}

// sampleAt interpolates the source at a fractional frame index, reading
// through a sliding chunk so the driver never touches the disk more than
// once per chunkFrames frames.
func (s *pcmSource) sampleAt(pos float64) float64 {
	if pos < 0 {
		return 0
	}
	i := int64(pos)
	frac := pos - float64(i)
	s0 := s.frame(i)
	if frac == 0 {
		return s0
	}
	s1 := s.frame(i + 1)
	return s0 + (s1-s0)*frac
}

func (s *pcmSource) frame(i int64) float64 {
	if i >= s.r.Frames() {
		return 0
	}
	if i < s.chunkStart || i >= s.chunkStart+int64(len(s.chunk)) {
		s.chunk = s.r.ReadFrames(i, chunkFrames)
		s.chunkStart = i
		if len(s.chunk) == 0 {
			return 0
		}
	}
	return s.chunk[i-s.chunkStart]
}

func (s *pcmSource) positionMs() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.r.SampleRate() == 0 {
		return 0
	}
	return int64(s.pos) * 1000 / int64(s.r.SampleRate())
}

func (s *pcmSource) setPositionMs(ms int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pos = float64(ms) * float64(s.r.SampleRate()) / 1000
}

func (s *pcmSource) setRate(f float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rate = f
}

var _ Engine = (*Player)(nil)

// Player implements Engine on top of the shared audio context, streaming a
// canonical PCM file through a pcmSource.
type Player struct {
	mu         sync.Mutex
	src        *pcmSource
	reader     *media.Reader
	player     *ebitaudio.Player
	durationMs int64
	rate       float64
	volume     int
}

// NewPlayer opens the canonical PCM file and prepares a paused driver
// positioned at zero.
func NewPlayer(pcmPath string) (*Player, error) {
	r, err := media.OpenReader(pcmPath)
	if err != nil {
		return nil, err
	}
	src := newPCMSource(r)
	pl, err := sharedAudioContext().NewPlayerF32(src)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("create audio player: %w", err)
	}
	return &Player{
		src:        src,
		reader:     r,
		player:     pl,
		durationMs: r.DurationMs(),
		rate:       1.0,
		volume:     100,
	}, nil
}

func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.player != nil {
		p.player.Play()
	}
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.player != nil {
		p.player.Pause()
	}
}

// Stop tears the driver down and releases the file. The player cannot be
// reused afterwards; the session builds a fresh one per source.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.player == nil {
		return nil
	}
	p.player.Pause()
	err := p.player.Close()
	p.player = nil
	if cerr := p.reader.Close(); err == nil {
		err = cerr
	}
	return err
}

func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.player != nil && p.player.IsPlaying()
}

// PositionMs reports the source-frame cursor in ms. It tracks the decode
// side of the driver buffer, which is close enough for the coarse polling
// the core does.
func (p *Player) PositionMs() int64 {
	ms := p.src.positionMs()
	p.mu.Lock()
	defer p.mu.Unlock()
	if ms > p.durationMs {
		ms = p.durationMs
	}
	return ms
}

func (p *Player) DurationMs() int64 { return p.durationMs }

// Seek jumps to an absolute position, clamped to [0, duration-1].
func (p *Player) Seek(ms int64) {
	p.src.setPositionMs(clampSeek(ms, p.durationMs))
}

func (p *Player) SetRate(factor float64) {
	factor = clampRate(factor)
	p.mu.Lock()
	p.rate = factor
	p.mu.Unlock()
	p.src.setRate(factor)
}

func (p *Player) Rate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rate
}

func (p *Player) SetVolume(percent int) {
	percent = clampVolume(percent)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = percent
	if p.player != nil {
		p.player.SetVolume(float64(percent) / 100)
	}
}

func (p *Player) Volume() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}
