// Package engine provides the tick-based simulation loop and the host
// environment the foragers run in.
package engine

import (
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

// Default tick schedule at 20 ticks per simulated second.
const (
	DefaultInterval    = 50 * time.Millisecond
	DefaultDecayEvery  = 40   // 2 sim-seconds: one health point
	DefaultReportEvery = 1200 // 1 sim-minute
)

// Engine drives the simulation forward.
type Engine struct {
	Tick     uint64        // Current tick counter (monotonic, never resets)
	Interval time.Duration // Simulated time per tick; also the real-time pacing at speed 1
	MaxTicks uint64        // Stop after this tick (0 = run until Stop)

	DecayEvery  uint64 // Ticks between health decay rounds
	ReportEvery uint64 // Ticks between reports (0 = never)
	RegrowEvery uint64 // Ticks between food regrowth (0 = never)

	// Callbacks for each tick layer, populated during setup.
	OnTick   func(tick uint64, dt float64) // Every tick
	OnDecay  func(tick uint64)             // Every DecayEvery ticks
	OnReport func(tick uint64)             // Every ReportEvery ticks
	OnRegrow func(tick uint64)             // Every RegrowEvery ticks

	running atomic.Bool
	speed   atomic.Uint64 // float64 bits; 1.0 = real-time, 0 = paused
}

// NewEngine creates a simulation engine with default settings.
func NewEngine() *Engine {
	e := &Engine{
		Interval:    DefaultInterval,
		DecayEvery:  DefaultDecayEvery,
		ReportEvery: DefaultReportEvery,
	}
	e.SetSpeed(1.0)
	return e
}

// Speed returns the pacing multiplier. Safe to call while Run is active.
func (e *Engine) Speed() float64 {
	return math.Float64frombits(e.speed.Load())
}

// SetSpeed sets the pacing multiplier. Safe to call while Run is active.
func (e *Engine) SetSpeed(v float64) {
	e.speed.Store(math.Float64bits(v))
}

// Running reports whether Run is active.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Run starts the simulation loop. Blocks until Stop() is called or MaxTicks
// is reached.
func (e *Engine) Run() {
	e.running.Store(true)
	slog.Info("simulation engine started", "tick", e.Tick, "speed", e.Speed(), "max_ticks", e.MaxTicks)

	for e.running.Load() {
		if e.MaxTicks > 0 && e.Tick >= e.MaxTicks {
			break
		}
		speed := e.Speed()
		if speed <= 0 {
			// Paused: sleep briefly and check again.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()

		e.step()

		// Sleep for the remainder of the tick interval, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}

	e.running.Store(false)
	slog.Info("simulation engine stopped", "tick", humanize.Comma(int64(e.Tick)))
}

// Stop halts the simulation loop.
func (e *Engine) Stop() {
	e.running.Store(false)
}

// Advance runs n ticks synchronously without pacing.
func (e *Engine) Advance(n uint64) {
	for i := uint64(0); i < n; i++ {
		e.step()
	}
}

// step advances the simulation by one tick.
func (e *Engine) step() {
	e.Tick++

	if e.OnTick != nil {
		e.OnTick(e.Tick, e.Interval.Seconds())
	}

	if e.DecayEvery > 0 && e.Tick%e.DecayEvery == 0 && e.OnDecay != nil {
		e.OnDecay(e.Tick)
	}

	if e.RegrowEvery > 0 && e.Tick%e.RegrowEvery == 0 && e.OnRegrow != nil {
		e.OnRegrow(e.Tick)
	}

	if e.ReportEvery > 0 && e.Tick%e.ReportEvery == 0 && e.OnReport != nil {
		e.OnReport(e.Tick)
	}
}

// SimTime returns a human-readable simulated time for a tick number.
func SimTime(tick uint64, interval time.Duration) string {
	d := time.Duration(tick) * interval
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := d.Seconds() - float64(h*3600+m*60)
	return fmt.Sprintf("%d:%02d:%05.2f", h, m, s)
}
