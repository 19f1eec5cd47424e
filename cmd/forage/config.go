package main

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// config is the host configuration, read from FORAGE_* environment variables.
type config struct {
	Seed        int64
	Width       int
	Height      int
	Agents      int
	Food        int
	Ticks       uint64  // 0 = run until interrupted
	Speed       float64 // 1 = real time
	Regrow      int     // Food items added per regrowth round
	RegrowEvery uint64
	DBPath      string // Empty disables the run journal
	Port        int    // 0 disables the HTTP API
	AdminKey    string
	LogLevel    slog.Level
}

func loadConfig() config {
	return config{
		Seed:        int64(envIntOrDefault("FORAGE_SEED", 42)),
		Width:       envPositiveOrDefault("FORAGE_WIDTH", 32),
		Height:      envPositiveOrDefault("FORAGE_HEIGHT", 24),
		Agents:      envIntOrDefault("FORAGE_AGENTS", 12),
		Food:        envIntOrDefault("FORAGE_FOOD", 40),
		Ticks:       uint64(max(envIntOrDefault("FORAGE_TICKS", 0), 0)),
		Speed:       envFloatOrDefault("FORAGE_SPEED", 1),
		Regrow:      envIntOrDefault("FORAGE_REGROW", 4),
		RegrowEvery: uint64(max(envIntOrDefault("FORAGE_REGROW_EVERY", 200), 0)),
		DBPath:      envOrDefault("FORAGE_DB", "data/forage.db"),
		Port:        envIntOrDefault("FORAGE_PORT", 8080),
		AdminKey:    os.Getenv("FORAGE_ADMIN_KEY"),
		LogLevel:    parseLevel(os.Getenv("FORAGE_LOG_LEVEL")),
	}
}

func envOrDefault(key, defaultVal string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		slog.Warn("ignoring malformed integer", "key", key, "value", v)
	}
	return defaultVal
}

// envPositiveOrDefault is envIntOrDefault for values that must be at least 1.
func envPositiveOrDefault(key string, defaultVal int) int {
	n := envIntOrDefault(key, defaultVal)
	if n <= 0 {
		slog.Warn("ignoring non-positive value", "key", key, "value", n, "default", defaultVal)
		return defaultVal
	}
	return n
}

func envFloatOrDefault(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		slog.Warn("ignoring malformed number", "key", key, "value", v)
	}
	return defaultVal
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
