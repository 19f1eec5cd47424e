package engine

import (
	"strings"

	"github.com/talgya/forage/internal/agents"
	"github.com/talgya/forage/internal/food"
	"github.com/talgya/forage/internal/world"
)

// AgentView is a read-only copy of an agent's observable state.
type AgentView struct {
	ID       agents.AgentID `json:"id"`
	Diet     string         `json:"diet"`
	State    string         `json:"state"`
	Health   int            `json:"health"`
	Position world.Vec2     `json:"position"`
	Node     world.Coord    `json:"node"`
	Goal     food.ID        `json:"goal,omitempty"`
	PathLen  int            `json:"path_len"`
	Meals    int            `json:"meals"`
}

// FoodView is a read-only copy of a food item.
type FoodView struct {
	ID       food.ID     `json:"id"`
	Kind     string      `json:"kind"`
	Position world.Coord `json:"position"`
}

// Snapshot is a consistent copy of the world taken between ticks.
type Snapshot struct {
	Tick   uint64      `json:"tick"`
	Stats  SimStats    `json:"stats"`
	Agents []AgentView `json:"agents"`
	Food   []FoodView  `json:"food"`
}

// Snapshot copies the observable world state.
func (s *Simulation) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Tick:   s.LastTick,
		Stats:  s.Stats,
		Agents: make([]AgentView, 0, len(s.Agents)),
		Food:   make([]FoodView, 0, s.Food.Len()),
	}
	for _, a := range s.Agents {
		if !a.Alive {
			continue
		}
		snap.Agents = append(snap.Agents, AgentView{
			ID:       a.ID,
			Diet:     a.Diet.String(),
			State:    a.State.String(),
			Health:   a.Health,
			Position: a.Position,
			Node:     a.LastNode,
			Goal:     a.Goal,
			PathLen:  len(a.Path),
			Meals:    a.Meals,
		})
	}
	for _, f := range s.Food.Live() {
		snap.Food = append(snap.Food, FoodView{ID: f.ID, Kind: f.Kind.String(), Position: f.Position})
	}
	return snap
}

// Agent returns a copy of one live agent's state.
func (s *Simulation) Agent(id agents.AgentID) (AgentView, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.AgentIndex[id]
	if !ok || !a.Alive {
		return AgentView{}, false
	}
	return AgentView{
		ID:       a.ID,
		Diet:     a.Diet.String(),
		State:    a.State.String(),
		Health:   a.Health,
		Position: a.Position,
		Node:     a.LastNode,
		Goal:     a.Goal,
		PathLen:  len(a.Path),
		Meals:    a.Meals,
	}, true
}

// Render draws the grid as ASCII rows: '#' wall, 'C'/'H' carnivore/herbivore,
// 'm'/'v' meat/vegetation, '.' open.
func (s *Simulation) Render() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]string, s.Grid.Height)
	var b strings.Builder
	for y := 0; y < s.Grid.Height; y++ {
		b.Reset()
		for x := 0; x < s.Grid.Width; x++ {
			n := s.Grid.Get(world.Coord{X: x, Y: y})
			b.WriteByte(s.glyph(n))
		}
		rows[y] = b.String()
	}
	return rows
}

func (s *Simulation) glyph(n *world.Node) byte {
	if !n.Walkable() {
		return '#'
	}
	switch n.Occupant.Kind {
	case world.OccupantAgent:
		if a, ok := s.AgentIndex[agents.AgentID(n.Occupant.ID)]; ok && a.Diet == agents.DietHerbivore {
			return 'H'
		}
		return 'C'
	case world.OccupantFood:
		if f, ok := s.Food.Get(food.ID(n.Occupant.ID)); ok && f.Kind == food.KindVegetation {
			return 'v'
		}
		return 'm'
	}
	return '.'
}
