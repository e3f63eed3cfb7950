package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pthm-cable/gridlife/config"
	"github.com/pthm-cable/gridlife/game"
	"github.com/pthm-cable/gridlife/server"
	"github.com/pthm-cable/gridlife/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	lineageDB := flag.String("lineage-db", "", "SQLite file for the births ledger (empty = disabled)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = until extinction)")
	serve := flag.Bool("serve", false, "Serve the simulation over WebSocket instead of running headless")
	addr := flag.String("addr", "", "Listen address for -serve (empty = use config)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := game.Options{
		Seed:      *seed,
		LogStats:  *logStats,
		OutputDir: *outputDir,
	}
	if *lineageDB != "" {
		store, err := telemetry.NewLineageStore(ctx, *lineageDB)
		if err != nil {
			slog.Error("failed to open lineage store", "error", err)
			os.Exit(1)
		}
		defer store.Close()
		opts.Lineage = store
	}

	sim, err := game.NewSimulation(opts)
	if err != nil {
		slog.Error("failed to create simulation", "error", err)
		os.Exit(1)
	}
	defer sim.Close()

	if *serve {
		listen := cfg.Server.Addr
		if *addr != "" {
			listen = *addr
		}
		runner := game.NewRunner(sim, cfg.Server.TicksPerSecond)
		srv := server.New(runner, cfg)
		if err := srv.ListenAndServe(ctx, listen); err != nil {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
		return
	}

	runHeadless(ctx, sim, cfg, *maxTicks)
}

// runHeadless steps a single run until extinction, max ticks, or interrupt.
func runHeadless(ctx context.Context, sim *game.Simulation, cfg *config.Config, maxTicks int) {
	sim.StartNew(cfg)
	slog.Info("starting headless simulation", "run_id", sim.RunID(), "max_ticks", maxTicks)

	for {
		if ctx.Err() != nil {
			slog.Info("interrupted", "tick", sim.Tick())
			return
		}

		sim.Step()

		if sim.Extinct() {
			slog.Info("run ended", "reason", "extinct", "tick", sim.Tick())
			return
		}
		if maxTicks > 0 && sim.Tick() >= maxTicks {
			slog.Info("max ticks reached", "tick", sim.Tick(), "population", sim.AliveCount())
			return
		}
	}
}
