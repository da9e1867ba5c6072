// Package config holds the runtime settings of ausettings. Values come from
// Default, are overridden by an optional YAML file and then by command-line
// flags.
package config

import (
	"errors"
	"fmt"
	"time"

	"ausettings/capture"
	"ausettings/offset_catalog"
	"ausettings/pointer_chain"
	"ausettings/preset_store"
	"ausettings/supervisor"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	BackendOS    = "os"
	BackendImage = "image"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	ProcessName          string        `yaml:"process_name"`
	ModuleName           string        `yaml:"module_name"`
	CatalogURL           string        `yaml:"catalog_url"`
	FetchTimeout         time.Duration `yaml:"fetch_timeout"`
	PollInterval         time.Duration `yaml:"poll_interval"`
	CatalogRetryInterval time.Duration `yaml:"catalog_retry_interval"`
	StatusBuffer         int           `yaml:"status_buffer"`
	AllowUncontrollable  bool          `yaml:"allow_uncontrollable"`
	Backend              string        `yaml:"backend"`
	ImageDir             string        `yaml:"image_dir"`
	PresetPath           string        `yaml:"preset_path"`
	PresetCount          int           `yaml:"preset_count"`
	MetricsListen        string        `yaml:"metrics_listen"`
}

func Default() Config {
	return Config{
		ProcessName:  capture.DefaultProcessName,
		ModuleName:   capture.DefaultModuleName,
		CatalogURL:   offset_catalog.DefaultURL,
		FetchTimeout: 10 * time.Second,
		PollInterval: supervisor.DefaultPollInterval,
		StatusBuffer: supervisor.DefaultStatusBuffer,
		Backend:      BackendOS,
		PresetPath:   preset_store.DefaultPath(),
		PresetCount:  preset_store.DefaultCount,
	}
}

// LoadFile applies the YAML file at path on top of Default. Unknown keys are
// rejected so typos do not silently fall back to defaults.
func LoadFile(fs afero.Fs, path string) (Config, error) {
	cfg := Default()

	f, err := fs.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.ProcessName == "":
		return fmt.Errorf("%w: process_name is empty", ErrInvalidConfig)
	case c.ModuleName == "":
		return fmt.Errorf("%w: module_name is empty", ErrInvalidConfig)
	case c.FetchTimeout <= 0:
		return fmt.Errorf("%w: fetch_timeout must be positive", ErrInvalidConfig)
	case c.PollInterval <= 0:
		return fmt.Errorf("%w: poll_interval must be positive", ErrInvalidConfig)
	case c.CatalogRetryInterval < 0:
		return fmt.Errorf("%w: catalog_retry_interval must not be negative", ErrInvalidConfig)
	case c.StatusBuffer <= 0:
		return fmt.Errorf("%w: status_buffer must be positive", ErrInvalidConfig)
	case c.PresetCount <= 0:
		return fmt.Errorf("%w: preset_count must be positive", ErrInvalidConfig)
	case c.PresetPath == "":
		return fmt.Errorf("%w: preset_path is empty", ErrInvalidConfig)
	}

	switch c.Backend {
	case BackendOS:
		if c.CatalogURL == "" {
			return fmt.Errorf("%w: catalog_url is empty", ErrInvalidConfig)
		}
	case BackendImage:
		if c.ImageDir == "" {
			return fmt.Errorf("%w: image backend needs image_dir", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Backend)
	}
	return nil
}

func (c Config) Capture() capture.Config {
	return capture.Config{
		ProcessName:         c.ProcessName,
		ModuleName:          c.ModuleName,
		Chain:               pointer_chain.Default,
		AllowUncontrollable: c.AllowUncontrollable,
	}
}

func (c Config) Supervisor(reg prometheus.Registerer) supervisor.Options {
	return supervisor.Options{
		Capture:              c.Capture(),
		PollInterval:         c.PollInterval,
		CatalogRetryInterval: c.CatalogRetryInterval,
		StatusBuffer:         c.StatusBuffer,
		Registerer:           reg,
	}
}
