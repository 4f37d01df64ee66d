package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/particles/config"
	"github.com/pthm-cable/particles/game"
)

// shutdownSignals end the run loop.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	mode := flag.String("mode", "", "Simulation mode: free, fireball, water, cloth, chain (empty = use config)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = use config, time-based if unset there too)")
	workers := flag.Int("workers", 0, "Compute workers (0 = GOMAXPROCS)")
	maxFrames := flag.Int("max-frames", 0, "Stop after N frames (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation frames per update call (higher = faster headless runs)")
	watch := flag.Bool("watch", false, "Reload runtime parameters when the config file changes")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *mode != "" {
		cfg.Simulation.Mode = *mode
		if err := cfg.Refresh(); err != nil {
			slog.Error("invalid mode", "mode", *mode, "error", err)
			os.Exit(1)
		}
	}

	opts := game.Options{
		Seed:           *seed,
		Workers:        *workers,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		OutputDir:      *outputDir,
		Headless:       *headless,
		StepsPerUpdate: *stepsPerUpdate,
	}

	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer stop()

	if *headless {
		// Headless mode - pure CPU simulation, no raylib needed
		g, err := game.NewGameWithOptions(cfg, opts)
		if err != nil {
			slog.Error("failed to start", "error", err)
			os.Exit(1)
		}
		defer g.Unload()
		startWatch(ctx, *watch, *configPath, *mode, g)

		slog.Info("starting headless simulation",
			"mode", cfg.Simulation.Mode,
			"seed", *seed,
			"max_frames", *maxFrames,
			"steps_per_update", *stepsPerUpdate,
		)

		for ctx.Err() == nil {
			g.UpdateHeadless()

			if *maxFrames > 0 && int(g.Frames()) >= *maxFrames {
				slog.Info("max frames reached", "frame", g.Frames())
				return
			}
		}
		slog.Info("interrupted", "frame", g.Frames())
		return
	}

	// Graphical mode
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Particles")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g, err := game.NewGameWithOptions(cfg, opts)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer g.Unload()
	startWatch(ctx, *watch, *configPath, *mode, g)

	for !rl.WindowShouldClose() && ctx.Err() == nil {
		g.Update()
		g.Draw()

		if *maxFrames > 0 && int(g.Frames()) >= *maxFrames {
			break
		}
	}
}

// startWatch hot-reloads the config file into g when enabled. A -mode
// override stays in force across reloads.
func startWatch(ctx context.Context, enabled bool, path, mode string, g *game.Game) {
	if !enabled {
		return
	}
	if path == "" {
		slog.Warn("-watch needs -config, ignoring")
		return
	}
	go func() {
		onChange := func(cfg *config.Config) {
			if mode != "" {
				cfg.Simulation.Mode = mode
				if err := cfg.Refresh(); err != nil {
					slog.Warn("config reload rejected", "error", err)
					return
				}
			}
			g.RequestReload(cfg)
		}
		if err := config.Watch(ctx, path, onChange); err != nil {
			slog.Error("config watch stopped", "error", err)
		}
	}()
}
