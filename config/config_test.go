package config

import (
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "Among Us.exe", cfg.ProcessName)
	assert.Equal(t, "GameAssembly.dll", cfg.ModuleName)
	assert.Equal(t, []uint32{0x5C, 0x04}, cfg.Capture().Chain.Relative)
}

func TestLoadFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/ausettings.yaml", []byte(`
poll_interval: 250ms
catalog_retry_interval: 1m
allow_uncontrollable: true
backend: image
image_dir: /var/lib/ausettings/image
`), 0o644))

	cfg, err := LoadFile(fs, "/etc/ausettings.yaml")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, time.Minute, cfg.CatalogRetryInterval)
	assert.Equal(t, BackendImage, cfg.Backend)
	assert.True(t, cfg.Capture().AllowUncontrollable)
	assert.Equal(t, "Among Us.exe", cfg.ProcessName)

	opts := cfg.Supervisor(nil)
	assert.Equal(t, 250*time.Millisecond, opts.PollInterval)
	assert.True(t, opts.Capture.AllowUncontrollable)
}

func TestLoadFileErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := LoadFile(fs, "/missing.yaml")
	assert.Error(t, err)

	require.NoError(t, afero.WriteFile(fs, "/typo.yaml", []byte("pol_interval: 1s\n"), 0o644))
	_, err = LoadFile(fs, "/typo.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"poll interval":   func(c *Config) { c.PollInterval = 0 },
		"fetch timeout":   func(c *Config) { c.FetchTimeout = -time.Second },
		"retry interval":  func(c *Config) { c.CatalogRetryInterval = -1 },
		"unknown backend": func(c *Config) { c.Backend = "ptrace" },
		"image dir":       func(c *Config) { c.Backend = BackendImage },
		"preset count":    func(c *Config) { c.PresetCount = 0 },
		"process name":    func(c *Config) { c.ProcessName = "" },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.True(t, errors.Is(cfg.Validate(), ErrInvalidConfig))
		})
	}
}
