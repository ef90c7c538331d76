package media

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"
)

// ErrUnsupportedPCM reports a canonical file that is not mono 16-bit PCM.
var ErrUnsupportedPCM = errors.New("pcm file is not mono 16-bit wav")

// Reader serves bounded mono sample windows from a canonical WAV file.
// Every read is an absolute ReadAt over exactly the requested byte range, so
// the cost of a window is independent of the file length. Reads are safe for
// concurrent use.
type Reader struct {
	f          *os.File
	sampleRate int
	dataStart  int64
	frames     int64
}

// OpenReader validates the canonical file and locates its PCM data range.
func OpenReader(pcmPath string) (*Reader, error) {
	f, err := os.Open(pcmPath)
	if err != nil {
		return nil, err
	}
	d := wav.NewDecoder(f)
	d.ReadInfo()
	if !d.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("%s: not a wav file", pcmPath)
	}
	if d.NumChans != 1 || d.BitDepth != 16 {
		f.Close()
		return nil, fmt.Errorf("%s (%d ch, %d bit): %w", pcmPath, d.NumChans, d.BitDepth, ErrUnsupportedPCM)
	}
	if err := d.FwdToPCM(); err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: locate pcm chunk: %w", pcmPath, err)
	}
	dataStart, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Reader{
		f:          f,
		sampleRate: int(d.SampleRate),
		dataStart:  dataStart,
		frames:     d.PCMLen() / 2,
	}, nil
}

func (r *Reader) Close() error { return r.f.Close() }

func (r *Reader) SampleRate() int { return r.sampleRate }

func (r *Reader) Frames() int64 { return r.frames }

func (r *Reader) DurationMs() int64 {
	if r.sampleRate == 0 {
		return 0
	}
	return r.frames * 1000 / int64(r.sampleRate)
}

// ReadFrames returns up to n mono samples normalized to [-1, 1] starting at
// an absolute frame index. Out-of-range requests are clamped; a failed read
// yields an empty slice.
func (r *Reader) ReadFrames(start, n int64) []float64 {
	if start < 0 {
		n += start
		start = 0
	}
	if start >= r.frames || n <= 0 {
		return nil
	}
	if start+n > r.frames {
		n = r.frames - start
	}
	raw := make([]byte, n*2)
	read, err := r.f.ReadAt(raw, r.dataStart+start*2)
	if err != nil && err != io.EOF {
		return nil
	}
	raw = raw[:read&^1]
	out := make([]float64, len(raw)/2)
	for i := range out {
		s := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		out[i] = float64(s) / 32768
	}
	return out
}

// ReadWindow returns the mono samples of the half-open window
// [startMs, endMs). An empty or failed window yields an empty slice, never
// an error; the waveform cache treats that as a blank line.
func (r *Reader) ReadWindow(startMs, endMs int64) []float64 {
	if endMs <= startMs || r.sampleRate == 0 {
		return nil
	}
	startFrame := startMs * int64(r.sampleRate) / 1000
	endFrame := endMs * int64(r.sampleRate) / 1000
	return r.ReadFrames(startFrame, endFrame-startFrame)
}
