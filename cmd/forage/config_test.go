package main

import (
	"log/slog"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"FORAGE_SEED", "FORAGE_WIDTH", "FORAGE_TICKS", "FORAGE_SPEED", "FORAGE_PORT", "FORAGE_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	cfg := loadConfig()
	if cfg.Seed != 42 || cfg.Width != 32 || cfg.Ticks != 0 || cfg.Speed != 1 || cfg.Port != 8080 {
		t.Errorf("Unexpected defaults: %+v", cfg)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("Expected info level, got %v", cfg.LogLevel)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("FORAGE_SEED", "7")
	t.Setenv("FORAGE_AGENTS", "3")
	t.Setenv("FORAGE_TICKS", "500")
	t.Setenv("FORAGE_SPEED", "2.5")
	t.Setenv("FORAGE_DB", "")
	t.Setenv("FORAGE_PORT", "0")
	t.Setenv("FORAGE_LOG_LEVEL", "DEBUG")

	cfg := loadConfig()
	if cfg.Seed != 7 || cfg.Agents != 3 || cfg.Ticks != 500 || cfg.Speed != 2.5 {
		t.Errorf("Unexpected overrides: %+v", cfg)
	}
	if cfg.DBPath != "" {
		t.Errorf("Expected empty FORAGE_DB to disable the journal, got %q", cfg.DBPath)
	}
	if cfg.Port != 0 || cfg.LogLevel != slog.LevelDebug {
		t.Errorf("Unexpected port/level: %d %v", cfg.Port, cfg.LogLevel)
	}
}

func TestMalformedIntegerFallsBack(t *testing.T) {
	t.Setenv("FORAGE_WIDTH", "wide")
	t.Setenv("FORAGE_TICKS", "-5")
	cfg := loadConfig()
	if cfg.Width != 32 {
		t.Errorf("Expected default width, got %d", cfg.Width)
	}
	if cfg.Ticks != 0 {
		t.Errorf("Expected negative ticks clamped to 0, got %d", cfg.Ticks)
	}
}

func TestNonPositiveSizeFallsBack(t *testing.T) {
	t.Setenv("FORAGE_WIDTH", "-5")
	t.Setenv("FORAGE_HEIGHT", "0")
	cfg := loadConfig()
	if cfg.Width != 32 || cfg.Height != 24 {
		t.Errorf("Expected default 32x24, got %dx%d", cfg.Width, cfg.Height)
	}

	t.Setenv("FORAGE_WIDTH", "5")
	t.Setenv("FORAGE_HEIGHT", "1")
	cfg = loadConfig()
	if cfg.Width != 5 || cfg.Height != 1 {
		t.Errorf("Expected 5x1, got %dx%d", cfg.Width, cfg.Height)
	}
}
