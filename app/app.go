// Package app exposes the operations a front end dispatches: listing and
// renaming presets, capturing the live settings into a preset and applying a
// preset to the running game. Failures are typed; no text is produced for users.
package app

import (
	"errors"
	"fmt"
	"sync"

	"ausettings/game_settings"
	"ausettings/preset_store"
	"ausettings/supervisor"
)

var (
	ErrPresetIndex = errors.New("preset index out of range")
	ErrNoSnapshot  = errors.New("preset holds no settings")
)

// Engine is the live side; supervisor.Supervisor implements it
type Engine interface {
	Status() supervisor.Status
	ReadSnapshot() (game_settings.Snapshot, error)
	WriteSnapshot(s game_settings.Snapshot) error
}

// PresetStore loads and saves the preset list as a whole
type PresetStore interface {
	Load() ([]preset_store.Preset, error)
	Save(presets []preset_store.Preset) error
}

type App struct {
	engine Engine
	store  PresetStore

	// serializes load-modify-save cycles
	mu sync.Mutex
}

func New(engine Engine, store PresetStore) *App {
	return &App{engine: engine, store: store}
}

func (a *App) Status() supervisor.Status {
	return a.engine.Status()
}

func (a *App) ListPresets() ([]preset_store.Preset, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.store.Load()
}

func (a *App) RenamePreset(index int, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	presets, err := a.load(index)
	if err != nil {
		return err
	}
	presets[index].Name = name
	return a.store.Save(presets)
}

// CaptureInto reads the live settings and stores them in preset index
func (a *App) CaptureInto(index int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	presets, err := a.load(index)
	if err != nil {
		return err
	}

	snap, err := a.engine.ReadSnapshot()
	if err != nil {
		return err
	}

	presets[index].Settings = &snap
	return a.store.Save(presets)
}

// ApplyFrom writes the settings stored in preset index to the live process
func (a *App) ApplyFrom(index int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	presets, err := a.load(index)
	if err != nil {
		return err
	}

	snap := presets[index].Settings
	if snap == nil {
		return fmt.Errorf("%w: preset %d (%s)", ErrNoSnapshot, index, presets[index].Name)
	}
	return a.engine.WriteSnapshot(*snap)
}

func (a *App) load(index int) ([]preset_store.Preset, error) {
	presets, err := a.store.Load()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(presets) {
		return nil, fmt.Errorf("%w: %d of %d", ErrPresetIndex, index, len(presets))
	}
	return presets, nil
}
