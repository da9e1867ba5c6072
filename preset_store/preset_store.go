// Package preset_store persists the named settings presets as one JSON file.
package preset_store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"ausettings/game_settings"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/afero"
)

const (
	DefaultCount = 10
	FileName     = "ausettings.json"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Preset is one named slot; Settings is nil until something is captured into it
type Preset struct {
	Name     string                  `json:"name"`
	Settings *game_settings.Snapshot `json:"game_settings"`
}

type document struct {
	Presets []Preset `json:"game_settings_list"`
}

type Store struct {
	fs    afero.Fs
	path  string
	count int
	log   *logger.Logger
}

// New returns a store for the file at path holding at least count presets
func New(fs afero.Fs, path string, count int) *Store {
	if count <= 0 {
		count = DefaultCount
	}
	return &Store{
		fs:    fs,
		path:  path,
		count: count,
		log:   logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "preset-store")),
	}
}

// DefaultPath is ausettings.json in the per-user data directory of the
// net.prgrssv.ausettings application, or the working directory when there is none
func DefaultPath() string {
	dir := dataDir(runtime.GOOS, os.Getenv)
	if dir == "" {
		return FileName
	}
	return filepath.Join(dir, FileName)
}

// dataDir follows the platform conventions for application data:
// %APPDATA%\prgrssv\ausettings\data on Windows,
// ~/Library/Application Support/net.prgrssv.ausettings on macOS and
// $XDG_DATA_HOME/ausettings (default ~/.local/share) elsewhere
func dataDir(goos string, getenv func(string) string) string {
	switch goos {
	case "windows":
		if appData := getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "prgrssv", "ausettings", "data")
		}
		return ""
	case "darwin", "ios":
		if home := getenv("HOME"); home != "" {
			return filepath.Join(home, "Library", "Application Support", "net.prgrssv.ausettings")
		}
		return ""
	}

	if xdg := getenv("XDG_DATA_HOME"); filepath.IsAbs(xdg) {
		return filepath.Join(xdg, "ausettings")
	}
	if home := getenv("HOME"); home != "" {
		return filepath.Join(home, ".local", "share", "ausettings")
	}
	return ""
}

func (s *Store) Path() string { return s.path }

// Defaults returns count empty presets named "Settings 1" onwards
func Defaults(count int) []Preset {
	presets := make([]Preset, count)
	for i := range presets {
		presets[i].Name = fmt.Sprintf("Settings %d", i+1)
	}
	return presets
}

// Load reads the preset list. A missing or undecodable file yields the
// defaults; a short list is padded with default slots.
func (s *Store) Load() ([]Preset, error) {
	raw, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Defaults(s.count), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read presets: %w", err)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		s.log.Warn("Preset file ", s.path, " is corrupt, using defaults: ", err)
		return Defaults(s.count), nil
	}

	presets := doc.Presets
	if len(presets) < s.count {
		presets = append(presets, Defaults(s.count)[len(presets):]...)
	}
	return presets, nil
}

// Save writes the whole list, creating parent directories as needed
func (s *Store) Save(presets []Preset) error {
	data, err := json.MarshalIndent(document{Presets: presets}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal presets: %w", err)
	}

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create preset directory: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write presets: %w", err)
	}

	s.log.Debugln("Saved", len(presets), "presets to", s.path)
	return nil
}
