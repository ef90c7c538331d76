// Package config persists the handful of knobs worth remembering between
// runs: zoom, playback rate, volume, and the directory last browsed.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Settings is the on-disk shape. Zero values are never written; Load fills
// defaults for anything missing or out of range.
type Settings struct {
	Zoom    float64 `json:"zoom"`
	Rate    float64 `json:"rate"`
	Volume  int     `json:"volume"`
	LastDir string  `json:"last_dir,omitempty"`
}

// Defaults returns the settings a fresh install starts with.
func Defaults() Settings {
	return Settings{Zoom: 1.0, Rate: 1.0, Volume: 100}
}

// DefaultPath returns the per-user settings location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "audinux", "settings.json"), nil
}

// Load reads settings from path. A missing or unreadable file yields
// defaults without error; only values inside their valid ranges are taken.
func Load(path string) Settings {
	s := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	var raw Settings
	if err := json.Unmarshal(data, &raw); err != nil {
		return s
	}
	if raw.Zoom >= 0.1 && raw.Zoom <= 10.0 {
		s.Zoom = raw.Zoom
	}
	if raw.Rate >= 0.25 && raw.Rate <= 4.0 {
		s.Rate = raw.Rate
	}
	if raw.Volume >= 0 && raw.Volume <= 100 {
		s.Volume = raw.Volume
	}
	if raw.LastDir != "" {
		if fi, err := os.Stat(raw.LastDir); err == nil && fi.IsDir() {
			s.LastDir = raw.LastDir
		}
	}
	return s
}

// Save writes settings atomically, creating parent directories as needed.
func Save(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".settings-*")
	if err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}
