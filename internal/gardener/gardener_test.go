package gardener

import (
	"net/http/httptest"
	"testing"

	"github.com/talgya/forage/internal/agents"
	"github.com/talgya/forage/internal/api"
	"github.com/talgya/forage/internal/engine"
	"github.com/talgya/forage/internal/food"
	"github.com/talgya/forage/internal/world"
)

func TestTriageLevels(t *testing.T) {
	snap := &WorldSnapshot{
		Agents: []AgentInfo{
			{ID: 1, Diet: "carnivore", Health: 30},
			{ID: 2, Diet: "carnivore", Health: 10},
			{ID: 3, Diet: "herbivore", Health: 50},
		},
		Food: []FoodInfo{
			{ID: 1, Kind: "vegetation"},
			{ID: 2, Kind: "vegetation"},
		},
	}

	h := Triage(snap)
	if h.CrisisLevel != LevelCritical {
		t.Errorf("Expected CRITICAL with no meat, got %s", h.CrisisLevel)
	}
	carn := h.Diets["carnivore"]
	if carn.Agents != 2 || carn.Food != 0 || carn.Hungriest.ID != 2 {
		t.Errorf("Unexpected carnivore health: %+v", carn)
	}
	if herb := h.Diets["herbivore"]; herb.Ratio() != 2 {
		t.Errorf("Expected herbivore ratio 2, got %v", herb.Ratio())
	}

	snap.Food = append(snap.Food, FoodInfo{ID: 3, Kind: "meat"})
	if got := Triage(snap).CrisisLevel; got != LevelWatch {
		t.Errorf("Expected WATCH at half a meal per carnivore, got %s", got)
	}

	snap.Food = append(snap.Food, FoodInfo{ID: 4, Kind: "meat"})
	if got := Triage(snap).CrisisLevel; got != LevelHealthy {
		t.Errorf("Expected HEALTHY, got %s", got)
	}
}

func TestPlanDropsNearHungriest(t *testing.T) {
	snap := &WorldSnapshot{
		Agents: []AgentInfo{
			{ID: 1, Diet: "carnivore", Health: 5, Node: Coord{X: 0, Y: 0}},
			{ID: 2, Diet: "carnivore", Health: 40, Node: Coord{X: 3, Y: 2}},
		},
		Grid: GridInfo{Width: 4, Height: 3, Rows: []string{
			"C#..",
			"..#.",
			"...C",
		}},
	}

	drops := Plan(snap, Triage(snap), 10)
	want := []Drop{
		{Kind: "meat", X: 0, Y: 1},
		{Kind: "meat", X: 1, Y: 1},
	}
	if len(drops) != len(want) {
		t.Fatalf("Expected %d drops, got %+v", len(want), drops)
	}
	for i := range want {
		if drops[i] != want[i] {
			t.Errorf("drop %d: expected %+v, got %+v", i, want[i], drops[i])
		}
	}

	if capped := Plan(snap, Triage(snap), 1); len(capped) != 1 {
		t.Errorf("Expected drops capped at 1, got %d", len(capped))
	}
}

func TestObserveAndAct(t *testing.T) {
	g, err := world.ParseLayout([]string{
		".....",
		".###.",
		".....",
	})
	if err != nil {
		t.Fatalf("ParseLayout failed: %v", err)
	}
	cfg := agents.DefaultConfig()
	sp := agents.NewSpawner(1, cfg.MaxHealth)
	herb, err := sp.Spawn(g, agents.DietHerbivore, world.Coord{X: 0, Y: 0}, 0)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	sim := engine.NewSimulation(g, []*agents.Agent{herb}, food.NewRegistry(), cfg)
	sim.FoodSpawner = food.NewSpawner(1)

	srv := &api.Server{Sim: sim, Eng: engine.NewEngine(), AdminKey: "k"}
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	snap, err := NewObserver(ts.URL).Observe()
	if err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	if len(snap.Agents) != 1 || snap.Grid.Rows[1] != ".###." {
		t.Fatalf("Unexpected snapshot: %+v", snap)
	}

	h := Triage(snap)
	if h.CrisisLevel != LevelCritical {
		t.Errorf("Expected CRITICAL, got %s", h.CrisisLevel)
	}
	drops := Plan(snap, h, 5)
	if len(drops) != 1 || drops[0] != (Drop{Kind: "vegetation", X: 1, Y: 0}) {
		t.Fatalf("Unexpected plan: %+v", drops)
	}

	actor := NewActor(ts.URL, "k")
	placed, err := actor.Act(drops[0])
	if err != nil {
		t.Fatalf("Act failed: %v", err)
	}
	if placed.Kind != "vegetation" || placed.Position != (Coord{X: 1, Y: 0}) {
		t.Errorf("Unexpected placed food: %+v", placed)
	}
	if f, ok := sim.Food.At(world.Coord{X: 1, Y: 0}); !ok || f.Kind != food.KindVegetation {
		t.Error("Expected vegetation registered at (1,0)")
	}

	if _, err := actor.Act(drops[0]); err == nil {
		t.Error("Expected second drop on an occupied node to fail")
	}
	if _, err := NewActor(ts.URL, "wrong").Act(Drop{Kind: "meat", X: 4, Y: 2}); err == nil {
		t.Error("Expected bad admin key to fail")
	}
}
