// Simulation ties the grid, foragers and food together and acts as their host.
package engine

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/talgya/forage/internal/agents"
	"github.com/talgya/forage/internal/food"
	"github.com/talgya/forage/internal/world"
)

// MaxEvents bounds the recent-events buffer.
const MaxEvents = 1000

// MaxPending bounds events awaiting a journal drain. Past it the oldest
// MaxEvents are dropped at once.
const MaxPending = 10 * MaxEvents

// Simulation holds the complete world state and wires systems together.
// Mutating methods take the write lock; Snapshot takes the read lock, so
// observers may read while the engine loop runs.
type Simulation struct {
	mu sync.RWMutex

	Grid       *world.Grid
	Agents     []*agents.Agent // Step order: spawn order
	AgentIndex map[agents.AgentID]*agents.Agent
	Food       *food.Registry
	Controller *agents.Controller
	Events     []Event // Recent events, bounded by MaxEvents
	LastTick   uint64  // Most recent tick processed

	// Spawners for dynamic food and agents.
	AgentSpawner *agents.Spawner
	FoodSpawner  *food.Spawner

	// Food items added per regrowth round.
	RegrowCount int

	// Journaled keeps events for DrainEvents. Off when no journal is attached.
	Journaled bool

	Stats SimStats

	pending []Event // Events not yet drained to the journal
}

// Event is a notable occurrence in the world.
type Event struct {
	Tick        uint64 `json:"tick" db:"tick"`
	Description string `json:"description" db:"description"`
	Category    string `json:"category" db:"category"` // "eat", "death", "spawn", "repair"
}

// SimStats tracks aggregate world statistics.
type SimStats struct {
	Alive      int `json:"alive"`
	Carnivores int `json:"carnivores"`
	Herbivores int `json:"herbivores"`
	Deaths     int `json:"deaths"`
	Meals      int `json:"meals"`
	FoodLive   int `json:"food_live"`
	FoodMeat   int `json:"food_meat"`
	FoodVeg    int `json:"food_vegetation"`
	FoodSpawns int `json:"food_spawns"`
	Replans    int `json:"replans"`
	Repairs    int `json:"repairs"` // Claim conflicts resolved by the auditor
}

// NewSimulation creates a Simulation from generated components.
func NewSimulation(g *world.Grid, ag []*agents.Agent, r *food.Registry, cfg agents.Config) *Simulation {
	index := make(map[agents.AgentID]*agents.Agent, len(ag))
	for _, a := range ag {
		index[a.ID] = a
	}

	sim := &Simulation{
		Grid:       g,
		Agents:     ag,
		AgentIndex: index,
		Food:       r,
	}
	sim.Controller = agents.NewController(g, r, sim, cfg)
	sim.updateStats()
	return sim
}

// CurrentTick returns the most recently processed tick number.
func (s *Simulation) CurrentTick() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastTick
}

// TickAgents steps every live agent once, in spawn order, then audits claims.
func (s *Simulation) TickAgents(tick uint64, dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.LastTick = tick
	for _, a := range s.Agents {
		if !a.Alive {
			continue
		}
		act := s.Controller.Step(a, dt)
		if act.Replan != agents.ReplanNone && act.Replan != agents.ReplanStart && act.Replan != agents.ReplanPathDone {
			s.Stats.Replans++
		}
	}

	s.auditClaims(tick)
	s.updateStats()
}

// DecayHealth applies one health decay round and removes the dead.
func (s *Simulation) DecayHealth(tick uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.LastTick = tick
	for _, a := range s.Agents {
		s.Controller.DecreaseHealth(a)
	}
	s.pruneDead()
	s.updateStats()
}

// pruneDead drops dead agents from the step order and index.
func (s *Simulation) pruneDead() {
	live := s.Agents[:0]
	for _, a := range s.Agents {
		if a.Alive {
			live = append(live, a)
			continue
		}
		delete(s.AgentIndex, a.ID)
	}
	clear(s.Agents[len(live):])
	s.Agents = live
}

// MoveToward implements agents.Host with straight-line motion.
func (s *Simulation) MoveToward(a *agents.Agent, target world.Vec2, maxDist float64) float64 {
	var remaining float64
	a.Position, remaining = a.Position.MoveToward(target, maxDist)
	return remaining
}

// Destroy implements agents.Host. Called with the lock held.
func (s *Simulation) Destroy(o world.Occupant) {
	switch o.Kind {
	case world.OccupantAgent:
		s.Stats.Deaths++
		s.recordEvent("death", fmt.Sprintf("agent %d starved", o.ID))
	case world.OccupantFood:
		s.Stats.Meals++
		s.recordEvent("eat", fmt.Sprintf("food %d consumed", o.ID))
	}
}

// SpawnFood places a new food item of kind k at c.
func (s *Simulation) SpawnFood(k food.Kind, c world.Coord) (*food.Food, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FoodSpawner == nil {
		return nil, fmt.Errorf("spawn food: no spawner configured")
	}
	f, err := s.FoodSpawner.Spawn(s.Grid, s.Food, k, c)
	if err != nil {
		return nil, err
	}
	s.Stats.FoodSpawns++
	s.recordEvent("spawn", fmt.Sprintf("%s %d appeared at (%d,%d)", f.Kind, f.ID, c.X, c.Y))
	s.updateStats()
	return f, nil
}

// RegrowFood scatters RegrowCount new food items on free nodes.
func (s *Simulation) RegrowFood(tick uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FoodSpawner == nil || s.RegrowCount <= 0 {
		return
	}
	spawned := s.FoodSpawner.Scatter(s.Grid, s.Food, s.RegrowCount)
	s.Stats.FoodSpawns += len(spawned)
	if len(spawned) > 0 {
		s.recordEvent("spawn", fmt.Sprintf("%d food regrew", len(spawned)))
	}
	s.updateStats()
}

// Report logs a summary of the world.
func (s *Simulation) Report(tick uint64, e *Engine) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slog.Info("report",
		"tick", humanize.Comma(int64(tick)),
		"time", SimTime(tick, e.Interval),
		"alive", s.Stats.Alive,
		"carnivores", s.Stats.Carnivores,
		"herbivores", s.Stats.Herbivores,
		"deaths", s.Stats.Deaths,
		"meals", humanize.Comma(int64(s.Stats.Meals)),
		"food_live", s.Stats.FoodLive,
		"replans", humanize.Comma(int64(s.Stats.Replans)),
	)
}

// DrainEvents returns the events recorded since the last drain.
func (s *Simulation) DrainEvents() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.pending
	s.pending = nil
	return out
}

// RecentEvents returns up to limit of the most recent events, oldest first.
func (s *Simulation) RecentEvents(limit int) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := 0
	if limit > 0 && len(s.Events) > limit {
		start = len(s.Events) - limit
	}
	return append([]Event(nil), s.Events[start:]...)
}

func (s *Simulation) recordEvent(category, desc string) {
	e := Event{Tick: s.LastTick, Description: desc, Category: category}
	s.Events = append(s.Events, e)
	if len(s.Events) > MaxEvents {
		s.Events = s.Events[len(s.Events)-MaxEvents:]
	}
	if !s.Journaled {
		return
	}
	s.pending = append(s.pending, e)
	if len(s.pending) > MaxPending {
		dropped := len(s.pending) - MaxPending + MaxEvents
		s.pending = append(s.pending[:0], s.pending[dropped:]...)
		slog.Warn("journal lagging, events dropped", "dropped", dropped)
	}
}

func (s *Simulation) updateStats() {
	alive, carn, herb := 0, 0, 0
	for _, a := range s.Agents {
		if !a.Alive {
			continue
		}
		alive++
		if a.Diet == agents.DietCarnivore {
			carn++
		} else {
			herb++
		}
	}
	s.Stats.Alive = alive
	s.Stats.Carnivores = carn
	s.Stats.Herbivores = herb
	s.Stats.FoodLive = s.Food.Len()
	s.Stats.FoodMeat = s.Food.CountKind(food.KindMeat)
	s.Stats.FoodVeg = s.Food.CountKind(food.KindVegetation)
}
