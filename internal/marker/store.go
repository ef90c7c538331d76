// Package marker keeps named timestamps for an audio source, persisted in a
// JSON sidecar file next to the audio file.
package marker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// SidecarSuffix is appended to the audio path to locate the sidecar file.
const SidecarSuffix = ".markers.json"

// SidecarPath derives the marker file path for an audio file.
func SidecarPath(audioPath string) string {
	return audioPath + SidecarSuffix
}

// Marker is a named position on the timeline. Neither names nor positions
// are required to be unique.
type Marker struct {
	Name string `json:"name"`
	Ms   int64  `json:"ms"`
}

// Store holds the markers of the active audio source, always sorted
// ascending by position. Every mutation persists before returning, so the
// sidecar never trails the in-memory state by more than one operation.
// Persistence failures are reported, never raised: loading falls back to an
// empty set and saving returns the error for the caller to surface.
type Store struct {
	mu        sync.Mutex
	audioPath string
	markers   []Marker
}

func NewStore() *Store {
	return &Store{}
}

// Load switches the store to a new audio source, discarding any in-memory
// markers and restoring the source's sidecar. A missing or malformed sidecar
// yields an empty set.
func (s *Store) Load(audioPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audioPath = audioPath
	s.markers = nil

	data, err := os.ReadFile(SidecarPath(audioPath))
	if err != nil {
		return
	}
	var loaded []Marker
	if err := json.Unmarshal(data, &loaded); err != nil {
		return
	}
	s.markers = loaded
	s.sortLocked()
}

// Save persists the current markers for the active source. The sidecar is
// written to a temp file and renamed into place so a failed write cannot
// destroy a previously valid file.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *Store) saveLocked() error {
	if s.audioPath == "" {
		return fmt.Errorf("no audio source loaded")
	}
	list := s.markers
	if list == nil {
		list = []Marker{}
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("encode markers: %w", err)
	}
	path := SidecarPath(s.audioPath)
	tmp, err := os.CreateTemp(filepath.Dir(path), ".markers-*")
	if err != nil {
		return fmt.Errorf("write markers: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write markers: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write markers: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write markers: %w", err)
	}
	return nil
}

// Add inserts a marker, keeps the set sorted and persists immediately.
// The returned error reports a failed save; the marker is kept in memory
// either way.
func (s *Store) Add(ms int64, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers = append(s.markers, Marker{Name: name, Ms: ms})
	s.sortLocked()
	return s.saveLocked()
}

// Clear removes all markers for the active source and persists the empty set.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers = s.markers[:0]
	return s.saveLocked()
}

// List returns a copy of the markers, sorted ascending by position.
func (s *Store) List() []Marker {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Marker, len(s.markers))
	copy(out, s.markers)
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.markers)
}

// NearestBefore returns the greatest marker strictly before ms.
func (s *Store) NearestBefore(ms int64) (Marker, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.markers) - 1; i >= 0; i-- {
		if s.markers[i].Ms < ms {
			return s.markers[i], true
		}
	}
	return Marker{}, false
}

// NearestAfter returns the least marker strictly after ms.
func (s *Store) NearestAfter(ms int64) (Marker, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.markers {
		if m.Ms > ms {
			return m, true
		}
	}
	return Marker{}, false
}

func (s *Store) sortLocked() {
	sort.SliceStable(s.markers, func(i, j int) bool {
		return s.markers[i].Ms < s.markers[j].Ms
	})
}
