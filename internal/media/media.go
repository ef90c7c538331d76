// Package media turns an audio file into something the waveform core and the
// playback engine can consume: a canonical mono 16-bit PCM rendition plus
// display metadata, read strictly window-by-window so multi-hour sources are
// never materialized in memory.
package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// Source describes a loaded audio file. Immutable once opened; a new file
// load builds a new Source.
type Source struct {
	Path       string
	Title      string
	Artist     string
	DurationMs int64
	SampleRate int

	// PCMPath locates the canonical mono 16-bit WAV the window reader and
	// the engine stream from. It equals Path when the input already has
	// that shape.
	PCMPath string
}

// Open prepares a source for playback and waveform display. On error no
// state is committed and nothing is left behind except a possibly partial
// transcode temp file that a later attempt overwrites.
func Open(path string) (*Source, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", path, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}

	pcmPath, err := preparePCM(abs)
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", path, err)
	}
	r, err := OpenReader(pcmPath)
	if err != nil {
		return nil, fmt.Errorf("open pcm for %q: %w", path, err)
	}
	defer r.Close()

	src := &Source{
		Path:       abs,
		DurationMs: r.DurationMs(),
		SampleRate: r.SampleRate(),
		PCMPath:    pcmPath,
	}
	src.Title, src.Artist = readTags(abs)
	if src.Title == "" {
		base := filepath.Base(abs)
		src.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return src, nil
}

// readTags pulls display metadata; tag failures are not load failures.
func readTags(path string) (title, artist string) {
	f, err := os.Open(path)
	if err != nil {
		return "", ""
	}
	defer f.Close()
	meta, err := tag.ReadFrom(f)
	if err != nil {
		return "", ""
	}
	return meta.Title(), meta.Artist()
}
