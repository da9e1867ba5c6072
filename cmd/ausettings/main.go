package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"ausettings/config"

	"github.com/spf13/afero"
	"gopkg.in/alecthomas/kingpin.v2"
)

var flags struct {
	configFile          string
	backend             string
	imageDir            string
	presetPath          string
	catalogURL          string
	pollInterval        time.Duration
	allowUncontrollable bool
	wait                time.Duration
	metricsListen       string
}

func main() {
	app := kingpin.New(filepath.Base(os.Args[0]), "Capture and restore Among Us lobby settings in a running game.").UsageWriter(os.Stdout)
	app.HelpFlag.Short('h')
	app.Flag("config", "YAML configuration file.").Short('c').StringVar(&flags.configFile)
	app.Flag("backend", "Process backend: os or image.").StringVar(&flags.backend)
	app.Flag("image-dir", "Directory holding image.yaml for the image backend.").StringVar(&flags.imageDir)
	app.Flag("presets", "Preset file path.").StringVar(&flags.presetPath)
	app.Flag("catalog-url", "Offset catalog URL.").StringVar(&flags.catalogURL)
	app.Flag("poll-interval", "Liveness polling interval.").DurationVar(&flags.pollInterval)
	app.Flag("allow-uncontrollable", "Also write map and impostor count.").BoolVar(&flags.allowUncontrollable)
	app.Flag("wait", "How long to wait for the game to be captured.").Default("15s").DurationVar(&flags.wait)

	statusCmd := app.Command("status", "Report whether the catalog is loaded and the game is captured.")
	listCmd := app.Command("list", "List presets.")

	renameCmd := app.Command("rename", "Rename a preset.")
	renameIndex := renameCmd.Arg("preset", "Preset number, starting at 1.").Required().Int()
	renameName := renameCmd.Arg("name", "New name.").Required().String()

	captureCmd := app.Command("capture", "Store the live lobby settings in a preset.")
	captureIndex := captureCmd.Arg("preset", "Preset number, starting at 1.").Required().Int()

	applyCmd := app.Command("apply", "Write a preset into the live lobby.")
	applyIndex := applyCmd.Arg("preset", "Preset number, starting at 1.").Required().Int()

	showCmd := app.Command("show", "Print the live lobby settings.")

	inspectCmd := app.Command("inspect", "Show how the settings object is located, with a dump of its bytes.")

	watchCmd := app.Command("watch", "Keep the game captured and print every status change.")
	watchCmd.Flag("metrics-listen", "Serve Prometheus metrics on this address.").StringVar(&flags.metricsListen)

	parsedCmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg, err := loadConfig()
	if err != nil {
		os.Exit(checkError(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch parsedCmd {
	case statusCmd.FullCommand():
		err = runStatus(ctx, cfg)
	case listCmd.FullCommand():
		err = runList(cfg)
	case renameCmd.FullCommand():
		err = runRename(cfg, *renameIndex-1, *renameName)
	case captureCmd.FullCommand():
		err = runCapture(ctx, cfg, *captureIndex-1)
	case applyCmd.FullCommand():
		err = runApply(ctx, cfg, *applyIndex-1)
	case showCmd.FullCommand():
		err = runShow(ctx, cfg)
	case inspectCmd.FullCommand():
		err = runInspect(ctx, cfg)
	case watchCmd.FullCommand():
		err = runWatch(ctx, cfg)
	}

	cancel()
	os.Exit(checkError(err))
}

// loadConfig layers the config file and then explicit flags over the defaults
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if flags.configFile != "" {
		var err error
		if cfg, err = config.LoadFile(afero.NewOsFs(), flags.configFile); err != nil {
			return cfg, err
		}
	}

	if flags.backend != "" {
		cfg.Backend = flags.backend
	}
	if flags.imageDir != "" {
		cfg.ImageDir = flags.imageDir
	}
	if flags.presetPath != "" {
		cfg.PresetPath = flags.presetPath
	}
	if flags.catalogURL != "" {
		cfg.CatalogURL = flags.catalogURL
	}
	if flags.pollInterval > 0 {
		cfg.PollInterval = flags.pollInterval
	}
	if flags.allowUncontrollable {
		cfg.AllowUncontrollable = true
	}
	if flags.metricsListen != "" {
		cfg.MetricsListen = flags.metricsListen
	}

	return cfg, cfg.Validate()
}

func checkError(err error) int {
	if err == nil {
		return 0
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	return 1
}
