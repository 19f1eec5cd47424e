package main

import (
	"testing"
	"time"
)

func TestCycleInterval(t *testing.T) {
	tests := []struct {
		sec  int
		want time.Duration
	}{
		{30, 30 * time.Second},
		{1, time.Second},
		{0, defaultInterval},
		{-4, defaultInterval},
	}
	for _, tt := range tests {
		if got := cycleInterval(tt.sec); got != tt.want {
			t.Errorf("cycleInterval(%d): Expected %v, got %v", tt.sec, tt.want, got)
		}
	}
}

func TestIntervalFromEnv(t *testing.T) {
	t.Setenv("GARDENER_INTERVAL", "-1")
	if got := cycleInterval(envIntOrDefault("GARDENER_INTERVAL", 10)); got <= 0 {
		t.Errorf("Expected a positive ticker period, got %v", got)
	}
}
