package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/voxr/voxr"
	"github.com/voxr/voxr/rt/app"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "YAML config file")
	seed := flag.Int64("seed", 0, "terrain seed")
	gridWidth := flag.Int("grid", 0, "chunks per side of the streamed window (odd)")
	workers := flag.Int("workers", 0, "background chunk generation workers")
	savePath := flag.String("save", "", "world file used by Ctrl+S / Ctrl+O")
	storePath := flag.String("store", "", "LevelDB directory for evicted edits")
	compress := flag.Bool("compress", false, "zstd-compress saved worlds")
	gravity := flag.Bool("gravity", false, "start with gravity enabled")
	debug := flag.Bool("debug", false, "debug logging")
	fontPath := flag.String("font", "", "OpenType font for the HUD")
	fontSize := flag.Float64("font-size", 24, "HUD font size in pixels")
	flag.Parse()

	cfg, err := voxr.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Only flags given on the command line override the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "seed":
			cfg.World.Seed = *seed
		case "grid":
			cfg.World.GridWidth = *gridWidth
		case "workers":
			cfg.World.Workers = *workers
		case "save":
			cfg.Save.Path = *savePath
		case "store":
			cfg.Store.Path = *storePath
		case "compress":
			cfg.Save.Compress = *compress
		case "gravity":
			cfg.Physics.Enabled = *gravity
		case "debug":
			cfg.Debug = *debug
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := voxr.NewDefaultLogger("voxr", cfg.Debug)

	if err := glfw.Init(); err != nil {
		log.Errorf("glfw init: %v", err)
		os.Exit(1)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title, nil, nil)
	if err != nil {
		log.Errorf("create window: %v", err)
		os.Exit(1)
	}
	defer window.Destroy()

	a := app.NewApp(window, log, app.Options{FontPath: *fontPath, FontSize: *fontSize})
	defer a.Close()
	if err := a.Init(cfg); err != nil {
		log.Errorf("init: %v", err)
		return
	}
	a.Run()
}
