package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"ausettings/app"
	"ausettings/config"
	"ausettings/game_settings"
	"ausettings/hexdump"
	"ausettings/preset_store"
	"ausettings/table"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// withCapture runs fn once the game is captured, then shuts the engine down
func withCapture(ctx context.Context, cfg config.Config, fn func(e *engine) error) error {
	e, err := startEngine(ctx, cfg)
	if err != nil {
		return err
	}

	err = e.waitCaptured(ctx, flags.wait)
	if err == nil {
		err = fn(e)
	}
	return errors.Join(err, e.stop())
}

func runStatus(ctx context.Context, cfg config.Config) error {
	e, err := startEngine(ctx, cfg)
	if err != nil {
		return err
	}

	// not being captured is a valid answer here
	_ = e.waitCaptured(ctx, flags.wait)
	st := e.sup.Status()
	if err := e.stop(); err != nil {
		return err
	}

	fmt.Println("Offset catalog ready:", yesNo(st.OffsetCatalogReady))
	fmt.Println("Process captured:    ", yesNo(st.ProcessCaptured))
	return nil
}

func yesNo(b bool) string {
	if b {
		return color.GreenString("yes")
	}
	return color.RedString("no")
}

func printPresets(presets []preset_store.Preset) error {
	tbl := table.New(
		table.ColumnSpec{Header: "#", RightAlign: true},
		table.ColumnSpec{Header: "Name"},
		table.ColumnSpec{Header: "Stored", BlankValue: "empty", FormatFunc: func(v string) string {
			if v == "empty" {
				return color.HiBlackString(v)
			}
			return color.GreenString(v)
		}},
	)
	for i, p := range presets {
		stored := ""
		if p.Settings != nil {
			stored = "yes"
		}
		tbl.AddRow(strconv.Itoa(i+1), p.Name, stored)
	}
	return tbl.Render(os.Stdout)
}

func runList(cfg config.Config) error {
	presets, err := newStore(cfg).Load()
	if err != nil {
		return err
	}
	return printPresets(presets)
}

func runRename(cfg config.Config, index int, name string) error {
	// renaming needs no live game
	a := app.New(nil, newStore(cfg))
	if err := a.RenamePreset(index, name); err != nil {
		return err
	}
	fmt.Printf("Preset %d renamed to %q\n", index+1, name)
	return nil
}

func runCapture(ctx context.Context, cfg config.Config, index int) error {
	return withCapture(ctx, cfg, func(e *engine) error {
		if err := e.app.CaptureInto(index); err != nil {
			return err
		}
		fmt.Printf("Lobby settings stored in preset %d\n", index+1)
		return nil
	})
}

func runApply(ctx context.Context, cfg config.Config, index int) error {
	return withCapture(ctx, cfg, func(e *engine) error {
		if err := e.app.ApplyFrom(index); err != nil {
			return err
		}
		fmt.Printf("Preset %d applied to the lobby\n", index+1)
		return nil
	})
}

func printSnapshot(s game_settings.Snapshot) error {
	tbl := table.New(
		table.ColumnSpec{Header: "Field"},
		table.ColumnSpec{Header: "Offset", RightAlign: true},
		table.ColumnSpec{Header: "Kind"},
		table.ColumnSpec{Header: "Value", RightAlign: true},
		table.ColumnSpec{Header: "Note", BlankValue: " "},
	)
	for _, f := range game_settings.Fields() {
		note := ""
		if f.Uncontrollable {
			note = "read only"
		}
		tbl.AddRow(f.Name, fmt.Sprintf("0x%02X", f.Offset), f.Kind.String(), fmt.Sprint(f.Value(&s)), note)
	}
	return tbl.Render(os.Stdout)
}

func runShow(ctx context.Context, cfg config.Config) error {
	return withCapture(ctx, cfg, func(e *engine) error {
		snap, err := e.sup.ReadSnapshot()
		if err != nil {
			return err
		}
		return printSnapshot(snap)
	})
}

func runInspect(ctx context.Context, cfg config.Config) error {
	return withCapture(ctx, cfg, func(e *engine) error {
		in, err := e.sup.Inspect()
		fmt.Printf("PID:         %d\n", in.PID)
		fmt.Printf("Module base: %s\n", in.ModuleBase.ToString())
		fmt.Printf("Base offset: 0x%X\n", in.BaseOffset)
		for i, hop := range in.Hops {
			fmt.Printf("Hop %d:       %s\n", i, hop)
		}
		if err != nil {
			return err
		}

		fmt.Printf("Object:      %s (%s)\n\n", in.StructBase.ToString(), humanize.IBytes(uint64(len(in.Raw))))
		opts := hexdump.DefaultOptions()
		opts.StartOffset = uint64(in.StructBase)
		hexdump.DumpToWriter(os.Stdout, in.Raw, opts)
		return nil
	})
}

func runWatch(ctx context.Context, cfg config.Config) error {
	e, err := startEngine(ctx, cfg)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		updates, unsubscribe := e.sup.Subscribe()
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return nil
			case st, ok := <-updates:
				if !ok {
					return nil
				}
				fmt.Printf("%s  catalog ready: %s, process captured: %s\n",
					time.Now().Format(time.TimeOnly), yesNo(st.OffsetCatalogReady), yesNo(st.ProcessCaptured))
			}
		}
	})

	if cfg.MetricsListen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{}))
		srv := &http.Server{
			Addr:              cfg.MetricsListen,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	return errors.Join(g.Wait(), e.stop())
}
