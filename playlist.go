package audinux

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

var playableExts = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".flac": true,
	".ogg":  true,
	".m4a":  true,
	".aac":  true,
}

// IsPlayable reports whether a file name has a supported audio extension.
func IsPlayable(name string) bool {
	return playableExts[strings.ToLower(filepath.Ext(name))]
}

// Playlist is an ordered queue of audio file paths with a cursor. The
// cursor stops at the ends rather than wrapping.
type Playlist struct {
	mu      sync.Mutex
	entries []string
	index   int
}

// Queue appends paths, skipping anything without a playable extension.
func (pl *Playlist) Queue(paths ...string) {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	for _, p := range paths {
		if IsPlayable(p) {
			pl.entries = append(pl.entries, p)
		}
	}
}

// QueueDir appends every playable file directly inside dir, sorted by name.
func (pl *Playlist) QueueDir(dir string) error {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var found []string
	for _, e := range ents {
		if e.IsDir() || !IsPlayable(e.Name()) {
			continue
		}
		found = append(found, filepath.Join(dir, e.Name()))
	}
	sort.Strings(found)
	pl.mu.Lock()
	pl.entries = append(pl.entries, found...)
	pl.mu.Unlock()
	return nil
}

func (pl *Playlist) Len() int {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return len(pl.entries)
}

// Entries returns a copy of the queue.
func (pl *Playlist) Entries() []string {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	out := make([]string, len(pl.entries))
	copy(out, pl.entries)
	return out
}

// Current returns the path under the cursor.
func (pl *Playlist) Current() (string, bool) {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	if len(pl.entries) == 0 {
		return "", false
	}
	return pl.entries[pl.index], true
}

// Select moves the cursor to i and returns the path there.
func (pl *Playlist) Select(i int) (string, bool) {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	if i < 0 || i >= len(pl.entries) {
		return "", false
	}
	pl.index = i
	return pl.entries[i], true
}

// Index returns the cursor position.
func (pl *Playlist) Index() int {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return pl.index
}

// Next advances the cursor. At the last entry it stays put and reports
// false.
func (pl *Playlist) Next() (string, bool) {
	return pl.shift(1)
}

// Prev moves the cursor back. At the first entry it stays put and reports
// false.
func (pl *Playlist) Prev() (string, bool) {
	return pl.shift(-1)
}

func (pl *Playlist) shift(d int) (string, bool) {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	i := pl.index + d
	if i < 0 || i >= len(pl.entries) {
		return "", false
	}
	pl.index = i
	return pl.entries[i], true
}

// Clear drops all entries and resets the cursor.
func (pl *Playlist) Clear() {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	pl.entries = nil
	pl.index = 0
}
