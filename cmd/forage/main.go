// Command forage runs the grid foraging simulation.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/talgya/forage/internal/agents"
	"github.com/talgya/forage/internal/api"
	"github.com/talgya/forage/internal/engine"
	"github.com/talgya/forage/internal/food"
	"github.com/talgya/forage/internal/persistence"
	"github.com/talgya/forage/internal/world"
)

func main() {
	cfg := loadConfig()
	slog.SetDefault(newLogger(cfg.LogLevel))

	slog.Info("forage starting",
		"seed", cfg.Seed,
		"size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"agents", cfg.Agents,
		"food", cfg.Food,
	)

	// ── World ─────────────────────────────────────────────────────────
	sim := buildSimulation(cfg)

	// ── Run journal ───────────────────────────────────────────────────
	var db *persistence.DB
	var runID string
	if cfg.DBPath != "" {
		if err := ensureDataDir(cfg.DBPath); err != nil {
			slog.Warn("failed to create data directory", "error", err)
		}
		var err error
		db, err = persistence.Open(cfg.DBPath)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		runID, err = db.BeginRun(cfg.Seed, cfg.Width, cfg.Height, cfg.Agents, cfg.Food)
		if err != nil {
			slog.Error("failed to start run", "error", err)
			os.Exit(1)
		}
		sim.Journaled = true
		slog.Info("run journal opened", "path", cfg.DBPath, "run", runID)
	}

	flush := func() {
		if db == nil {
			return
		}
		if err := db.SaveEvents(runID, sim.DrainEvents()); err != nil {
			slog.Error("journal write failed", "error", err)
		}
	}

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine()
	eng.SetSpeed(cfg.Speed)
	eng.MaxTicks = cfg.Ticks
	eng.RegrowEvery = cfg.RegrowEvery

	eng.OnTick = sim.TickAgents
	eng.OnDecay = sim.DecayHealth
	eng.OnRegrow = sim.RegrowFood
	eng.OnReport = func(tick uint64) {
		sim.Report(tick, eng)
		flush()
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	var apiServer *api.Server
	if cfg.Port > 0 {
		if cfg.AdminKey == "" {
			slog.Warn("FORAGE_ADMIN_KEY not set, admin POST endpoints will be disabled")
		}
		apiServer = &api.Server{
			Sim:      sim,
			Eng:      eng,
			DB:       db,
			RunID:    runID,
			Port:     cfg.Port,
			AdminKey: cfg.AdminKey,
		}
		apiServer.Start()
		fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.Port)
	}

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		eng.Stop()
	}()

	fmt.Println("Starting simulation... (Ctrl+C to stop)")
	eng.Run()

	if apiServer != nil {
		apiServer.Close()
	}

	snap := sim.Snapshot()
	flush()
	if db != nil {
		if err := db.FinishRun(runID, snap.Tick, snap.Stats); err != nil {
			slog.Error("final journal write failed", "error", err)
		}
	}

	fmt.Printf("\nStopped at tick %s (%s): %d alive, %s meals, %d starved.\n",
		humanize.Comma(int64(snap.Tick)),
		engine.SimTime(snap.Tick, eng.Interval),
		snap.Stats.Alive,
		humanize.Comma(int64(snap.Stats.Meals)),
		snap.Stats.Deaths,
	)
	if cfg.Width <= 80 {
		for _, row := range sim.Render() {
			fmt.Println(row)
		}
	}
}

// newLogger logs text to terminals and JSON everywhere else.
func newLogger(level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	fd := os.Stdout.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

// ensureDataDir creates the directory holding the journal file.
func ensureDataDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return nil
}

// buildSimulation generates the map and populates it with agents and food.
func buildSimulation(cfg config) *engine.Simulation {
	gen := world.DefaultGenConfig()
	gen.Seed = cfg.Seed
	gen.Width = cfg.Width
	gen.Height = cfg.Height
	grid := world.Generate(gen)

	for t, c := range world.TerrainCounts(grid) {
		slog.Info("terrain", "type", world.TerrainName(t), "count", c)
	}

	agentCfg := agents.DefaultConfig()
	agentSpawner := agents.NewSpawner(cfg.Seed, agentCfg.MaxHealth)
	population := agentSpawner.SpawnPopulation(grid, cfg.Agents, 0)

	registry := food.NewRegistry()
	foodSpawner := food.NewSpawner(cfg.Seed)
	scattered := foodSpawner.Scatter(grid, registry, cfg.Food)

	if len(population) < cfg.Agents || len(scattered) < cfg.Food {
		slog.Warn("grid too small for requested population",
			"agents", len(population), "food", len(scattered), "open", grid.OpenCount())
	}

	sim := engine.NewSimulation(grid, population, registry, agentCfg)
	sim.AgentSpawner = agentSpawner
	sim.FoodSpawner = foodSpawner
	sim.RegrowCount = cfg.Regrow

	slog.Info("world ready",
		"agents", len(population),
		"food", len(scattered),
		"open_nodes", grid.OpenCount(),
	)
	return sim
}
