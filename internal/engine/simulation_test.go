package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/talgya/forage/internal/agents"
	"github.com/talgya/forage/internal/food"
	"github.com/talgya/forage/internal/world"
)

func newTestSim(t *testing.T, g *world.Grid) (*Simulation, *Engine) {
	t.Helper()
	cfg := agents.DefaultConfig()
	sim := NewSimulation(g, nil, food.NewRegistry(), cfg)
	sim.AgentSpawner = agents.NewSpawner(1, cfg.MaxHealth)
	sim.FoodSpawner = food.NewSpawner(1)

	eng := NewEngine()
	eng.OnTick = sim.TickAgents
	eng.OnDecay = sim.DecayHealth
	eng.OnRegrow = sim.RegrowFood
	return sim, eng
}

func addAgent(t *testing.T, sim *Simulation, diet agents.Diet, x, y int) *agents.Agent {
	t.Helper()
	a, err := sim.AgentSpawner.Spawn(sim.Grid, diet, world.Coord{X: x, Y: y}, 0)
	if err != nil {
		t.Fatalf("spawn agent: %v", err)
	}
	sim.Agents = append(sim.Agents, a)
	sim.AgentIndex[a.ID] = a
	return a
}

func TestSimulationForagesAndRecordsMeal(t *testing.T) {
	sim, eng := newTestSim(t, world.NewGrid(5, 5))
	sim.Journaled = true
	a := addAgent(t, sim, agents.DietCarnivore, 0, 0)
	meat, err := sim.SpawnFood(food.KindMeat, world.Coord{X: 4, Y: 4})
	if err != nil {
		t.Fatalf("SpawnFood failed: %v", err)
	}

	eng.Advance(200)

	if !meat.Eaten {
		t.Fatal("Expected meat eaten")
	}
	if sim.Stats.Meals != 1 || a.Meals != 1 {
		t.Errorf("Expected one meal, got stats=%d agent=%d", sim.Stats.Meals, a.Meals)
	}
	if sim.Stats.FoodLive != 0 {
		t.Errorf("Expected no live food, got %d", sim.Stats.FoodLive)
	}

	var eats int
	for _, e := range sim.DrainEvents() {
		if e.Category == "eat" {
			eats++
		}
	}
	if eats != 1 {
		t.Errorf("Expected one eat event, got %d", eats)
	}
	if len(sim.DrainEvents()) != 0 {
		t.Error("Expected drained events to be cleared")
	}
}

func TestStarvationRemovesAgent(t *testing.T) {
	sim, eng := newTestSim(t, world.NewGrid(3, 3))
	a := addAgent(t, sim, agents.DietHerbivore, 1, 1)

	maxHealth := agents.DefaultConfig().MaxHealth
	eng.Advance(eng.DecayEvery*uint64(maxHealth) - 1)
	if !a.Alive {
		t.Fatalf("agent died before health reached 0 (health %d)", a.Health)
	}

	eng.Advance(1)
	if a.Alive {
		t.Fatal("Expected agent dead once health reached 0")
	}
	if sim.Stats.Deaths != 1 || sim.Stats.Alive != 0 || len(sim.Agents) != 0 {
		t.Errorf("Expected one death and no agents, got deaths=%d alive=%d len=%d",
			sim.Stats.Deaths, sim.Stats.Alive, len(sim.Agents))
	}
	if _, ok := sim.AgentIndex[a.ID]; ok {
		t.Error("Expected dead agent removed from index")
	}
	if sim.Grid.OccupantAt(world.Coord{X: 1, Y: 1}) != world.Empty {
		t.Error("Expected dead agent's node released")
	}
}

// TestInvariantsHoldOnGeneratedWorld runs a crowded world and checks, after
// every tick, that no node has two claimants, that each food is eaten at most
// once, and that health only rises on a meal and only to the maximum.
func TestInvariantsHoldOnGeneratedWorld(t *testing.T) {
	cfg := world.DefaultGenConfig()
	cfg.Seed = 3
	cfg.Width, cfg.Height = 16, 12
	g := world.Generate(cfg)

	sim, eng := newTestSim(t, g)
	maxHealth := agents.DefaultConfig().MaxHealth
	for _, a := range sim.AgentSpawner.SpawnPopulation(g, 14, 0) {
		sim.Agents = append(sim.Agents, a)
		sim.AgentIndex[a.ID] = a
	}
	sim.FoodSpawner.Scatter(g, sim.Food, 30)
	sim.RegrowCount = 2
	eng.RegrowEvery = 60

	seen := make(map[food.ID]*food.Food)
	type record struct {
		health, meals int
	}
	prev := make(map[agents.AgentID]record)
	all := append([]*agents.Agent(nil), sim.Agents...)

	for tick := 0; tick < 2000; tick++ {
		for _, f := range sim.Food.Live() {
			seen[f.ID] = f
		}
		eng.Advance(1)

		holder := make(map[world.Coord]agents.AgentID)
		for _, a := range sim.Agents {
			for _, c := range a.Claims(nil) {
				if other, ok := holder[c]; ok {
					t.Fatalf("tick %d: node %v claimed by %d and %d", eng.Tick, c, other, a.ID)
				}
				holder[c] = a.ID
				if occ := g.OccupantAt(c); occ != a.ID.Occupant() {
					t.Fatalf("tick %d: agent %d claims %v but node shows %v", eng.Tick, a.ID, c, occ)
				}
			}
		}

		for _, a := range all {
			p, ok := prev[a.ID]
			if ok {
				switch {
				case a.Meals > p.meals:
					// Decay may land in the same tick as the meal.
					if a.Alive && a.Health < maxHealth-1 {
						t.Fatalf("tick %d: agent %d ate but health is %d", eng.Tick, a.ID, a.Health)
					}
				case a.Health > p.health:
					t.Fatalf("tick %d: agent %d health rose %d -> %d without a meal", eng.Tick, a.ID, p.health, a.Health)
				}
			}
			if a.Alive != (a.Health > 0) {
				t.Fatalf("tick %d: agent %d alive=%v with health %d", eng.Tick, a.ID, a.Alive, a.Health)
			}
			prev[a.ID] = record{health: a.Health, meals: a.Meals}
		}
	}

	eaten, meals := 0, 0
	for _, f := range seen {
		if f.Eaten {
			eaten++
			if _, live := sim.Food.Get(f.ID); live {
				t.Errorf("food %d eaten but still registered", f.ID)
			}
		}
	}
	for _, a := range all {
		meals += a.Meals
	}
	if eaten != sim.Stats.Meals || meals != sim.Stats.Meals {
		t.Errorf("Expected eaten food (%d), agent meals (%d) and stats (%d) to agree", eaten, meals, sim.Stats.Meals)
	}
	if sim.Stats.Repairs != 0 {
		t.Errorf("Expected no claim repairs, got %d", sim.Stats.Repairs)
	}
}

func TestAuditRepairsConflict(t *testing.T) {
	sim, _ := newTestSim(t, world.NewGrid(4, 1))
	a := addAgent(t, sim, agents.DietCarnivore, 0, 0)
	b := addAgent(t, sim, agents.DietCarnivore, 2, 0)

	// Corrupt b so it claims a's node.
	b.LastNode = a.LastNode
	sim.auditClaims(1)
	sim.auditClaims(2)

	if sim.Stats.Repairs != 1 {
		t.Fatalf("Expected one repair across two audits, got %d", sim.Stats.Repairs)
	}
	if b.LastNode != (world.Coord{X: 1, Y: 0}) {
		t.Errorf("Expected loser moved to nearest free node (1,0), got %v", b.LastNode)
	}
	if sim.Grid.OccupantAt(b.LastNode) != b.ID.Occupant() {
		t.Errorf("Expected loser to hold its new node, got %v", sim.Grid.OccupantAt(b.LastNode))
	}
	if b.Position != world.WorldPos(b.LastNode) {
		t.Errorf("Expected loser position snapped to %v, got %v", world.WorldPos(b.LastNode), b.Position)
	}
	if sim.Grid.OccupantAt(a.LastNode) != a.ID.Occupant() {
		t.Errorf("Expected lower id %d to keep the node, got %v", a.ID, sim.Grid.OccupantAt(a.LastNode))
	}
	if b.State != agents.StateIdle {
		t.Errorf("Expected loser replanned to idle, got %v", b.State)
	}
}

func TestPendingEventsBounded(t *testing.T) {
	run := func(journaled bool) int {
		sim, eng := newTestSim(t, world.NewGrid(10, 10))
		sim.Journaled = journaled
		sim.RegrowCount = 5
		eng.RegrowEvery = 5
		for i := 0; i < 10; i++ {
			addAgent(t, sim, sim.AgentSpawner.RandomDiet(), i, i)
		}
		eng.Advance(50000)

		if len(sim.Events) > MaxEvents {
			t.Errorf("Expected at most %d recent events, got %d", MaxEvents, len(sim.Events))
		}
		return len(sim.pending)
	}

	if n := run(false); n != 0 {
		t.Errorf("Expected no pending events without a journal, got %d", n)
	}
	if n := run(true); n == 0 || n > MaxPending {
		t.Errorf("Expected 1..%d pending events with an undrained journal, got %d", MaxPending, n)
	}

	sim, _ := newTestSim(t, world.NewGrid(2, 2))
	sim.Journaled = true
	for i := 0; i <= MaxPending; i++ {
		sim.LastTick = uint64(i)
		sim.recordEvent("test", "event")
	}
	if len(sim.pending) != MaxPending-MaxEvents {
		t.Fatalf("Expected %d pending after overflow, got %d", MaxPending-MaxEvents, len(sim.pending))
	}
	if first := sim.pending[0].Tick; first != MaxEvents+1 {
		t.Errorf("Expected oldest kept event at tick %d, got %d", MaxEvents+1, first)
	}
}

func TestSnapshotAndRender(t *testing.T) {
	g, err := world.ParseLayout([]string{
		"..#",
		"...",
	})
	if err != nil {
		t.Fatalf("ParseLayout failed: %v", err)
	}
	sim, _ := newTestSim(t, g)
	addAgent(t, sim, agents.DietHerbivore, 0, 0)
	if _, err := sim.SpawnFood(food.KindVegetation, world.Coord{X: 2, Y: 1}); err != nil {
		t.Fatalf("SpawnFood failed: %v", err)
	}
	if _, err := sim.SpawnFood(food.KindMeat, world.Coord{X: 2, Y: 0}); err == nil {
		t.Error("Expected spawn on a wall to fail")
	}

	snap := sim.Snapshot()
	if len(snap.Agents) != 1 || snap.Agents[0].Diet != "herbivore" {
		t.Errorf("Expected one herbivore, got %+v", snap.Agents)
	}
	if len(snap.Food) != 1 || snap.Food[0].Kind != "vegetation" {
		t.Errorf("Expected one vegetation, got %+v", snap.Food)
	}

	got := strings.Join(sim.Render(), "\n")
	want := "H.#\n..v"
	if got != want {
		t.Errorf("Expected render\n%s\ngot\n%s", want, got)
	}
}

func TestSimTime(t *testing.T) {
	if got := SimTime(1200, 50*time.Millisecond); got != "0:01:00.00" {
		t.Errorf("Expected 0:01:00.00, got %s", got)
	}
	if got := SimTime(30, 50*time.Millisecond); got != "0:00:01.50" {
		t.Errorf("Expected 0:00:01.50, got %s", got)
	}
}

func TestEngineStopsAtMaxTicks(t *testing.T) {
	eng := NewEngine()
	eng.Interval = time.Millisecond
	eng.SetSpeed(1000)
	eng.MaxTicks = 25
	ticks := 0
	eng.OnTick = func(uint64, float64) { ticks++ }

	eng.Run()

	if ticks != 25 || eng.Tick != 25 {
		t.Errorf("Expected 25 ticks, got %d (engine %d)", ticks, eng.Tick)
	}
	if eng.Running() {
		t.Error("Expected engine stopped")
	}
}
