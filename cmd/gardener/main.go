// Command gardener runs the food keeper for a forage world.
// It observes world state over the API, triages food supply per diet,
// and drops food via the admin endpoint when foragers run short.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/talgya/forage/internal/gardener"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Configuration from environment.
	apiURL := envOrDefault("FORAGE_API_URL", "http://localhost:8080")
	adminKey := os.Getenv("FORAGE_ADMIN_KEY")
	interval := cycleInterval(envIntOrDefault("GARDENER_INTERVAL", 10))
	maxDrops := envIntOrDefault("GARDENER_MAX_DROPS", 8)

	if adminKey == "" {
		slog.Error("FORAGE_ADMIN_KEY is required")
		os.Exit(1)
	}

	slog.Info("gardener starting",
		"api_url", apiURL,
		"interval", interval,
		"max_drops", maxDrops,
	)

	observer := gardener.NewObserver(apiURL)
	actor := gardener.NewActor(apiURL, adminKey)

	slog.Info("waiting for forage API...")
	waitForAPI(apiURL)

	runCycle(observer, actor, maxDrops)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			runCycle(observer, actor, maxDrops)
		case sig := <-sigCh:
			slog.Info("received signal, shutting down", "signal", sig)
			fmt.Println("Gardener stopped.")
			return
		}
	}
}

// runCycle executes one observe → triage → act cycle.
func runCycle(observer *gardener.Observer, actor *gardener.Actor, maxDrops int) {
	snap, err := observer.Observe()
	if err != nil {
		slog.Error("observation failed", "error", err)
		return
	}

	health := gardener.Triage(snap)
	attrs := []any{"tick", snap.Status.Tick, "alive", snap.Status.Stats.Alive, "crisis", health.CrisisLevel}
	for _, d := range gardener.Diets {
		attrs = append(attrs, d, fmt.Sprintf("%d/%d", health.Diets[d].Food, health.Diets[d].Agents))
	}
	slog.Info("observation complete", attrs...)

	if health.CrisisLevel == gardener.LevelHealthy {
		return
	}

	placed := 0
	for _, d := range gardener.Plan(snap, health, maxDrops) {
		f, err := actor.Act(d)
		if err != nil {
			slog.Warn("drop failed", "kind", d.Kind, "x", d.X, "y", d.Y, "error", err)
			continue
		}
		placed++
		slog.Debug("food dropped", "id", f.ID, "kind", f.Kind, "x", d.X, "y", d.Y)
	}
	slog.Info("gardener cycle complete", "placed", placed)
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

const defaultInterval = 10 * time.Second

// cycleInterval converts GARDENER_INTERVAL seconds to a ticker period.
// Non-positive values fall back to the default.
func cycleInterval(sec int) time.Duration {
	if sec <= 0 {
		slog.Warn("ignoring non-positive GARDENER_INTERVAL", "value", sec, "default", defaultInterval)
		return defaultInterval
	}
	return time.Duration(sec) * time.Second
}

// waitForAPI polls the status endpoint with exponential backoff until it
// responds. Exits after 5 minutes if the API never becomes ready.
func waitForAPI(apiURL string) {
	backoff := 2 * time.Second
	maxBackoff := 30 * time.Second
	deadline := time.Now().Add(5 * time.Minute)

	for {
		resp, err := http.Get(apiURL + "/api/v1/status")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				slog.Info("forage API is ready")
				return
			}
		}
		if time.Now().After(deadline) {
			slog.Error("forage API did not become ready within 5 minutes")
			os.Exit(1)
		}
		slog.Info("forage not ready, retrying...", "backoff", backoff)
		time.Sleep(backoff)
		backoff = min(backoff*2, maxBackoff)
	}
}
