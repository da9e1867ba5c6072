package main

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"ausettings/app"
	"ausettings/config"
	"ausettings/fingerprint"
	"ausettings/offset_catalog"
	"ausettings/preset_store"
	"ausettings/process"
	"ausettings/process_blob"
	"ausettings/supervisor"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/afero"
)

// offlineCatalogName is looked up in the image directory before the network
const offlineCatalogName = "offsets.json"

type engine struct {
	sup      *supervisor.Supervisor
	app      *app.App
	registry *prometheus.Registry

	cancel context.CancelFunc
	done   chan error
}

func newStore(cfg config.Config) *preset_store.Store {
	return preset_store.New(afero.NewOsFs(), cfg.PresetPath, cfg.PresetCount)
}

func newSources(cfg config.Config) (process.Finder, supervisor.CatalogSource, error) {
	fs := afero.NewOsFs()
	var source supervisor.CatalogSource = offset_catalog.NewFetcher(cfg.CatalogURL, cfg.FetchTimeout)

	if cfg.Backend == config.BackendImage {
		img, err := process_blob.LoadImage(fs, cfg.ImageDir)
		if err != nil {
			return nil, nil, err
		}

		offline := filepath.Join(cfg.ImageDir, offlineCatalogName)
		if _, err := fs.Stat(offline); err == nil {
			source = offset_catalog.NewFileSource(fs, offline)
		}
		return process_blob.NewFinder(img), source, nil
	}

	finder, err := osFinder()
	if err != nil {
		return nil, nil, err
	}
	return finder, source, nil
}

// startEngine builds the supervisor and runs it in the background
func startEngine(ctx context.Context, cfg config.Config) (*engine, error) {
	finder, source, err := newSources(cfg)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	sup := supervisor.New(finder, fingerprint.NewHasher(afero.NewOsFs()), source, cfg.Supervisor(reg))

	ctx, cancel := context.WithCancel(ctx)
	e := &engine{
		sup:      sup,
		app:      app.New(sup, newStore(cfg)),
		registry: reg,
		cancel:   cancel,
		done:     make(chan error, 1),
	}
	go func() { e.done <- sup.Run(ctx) }()
	return e, nil
}

// waitCaptured blocks until a session is installed, ctx ends or timeout passes
func (e *engine) waitCaptured(ctx context.Context, timeout time.Duration) error {
	updates, unsubscribe := e.sup.Subscribe()
	defer unsubscribe()
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var last supervisor.Status
	for {
		select {
		case st, ok := <-updates:
			if !ok {
				return supervisor.ErrNotCaptured
			}
			if st.ProcessCaptured {
				return nil
			}
			last = st
		case <-timer.C:
			if !last.OffsetCatalogReady {
				return supervisor.ErrCatalogNotReady
			}
			return supervisor.ErrNotCaptured
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// stop cancels the background activities and waits for the session release
func (e *engine) stop() error {
	e.cancel()
	err := <-e.done
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
