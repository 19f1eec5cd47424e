// Agent spawning. IDs come from an explicit allocator owned by the spawner.
package agents

import (
	"fmt"
	"math/rand"

	"github.com/talgya/forage/internal/world"
)

// Spawner creates agents for the simulation.
type Spawner struct {
	rng       *rand.Rand
	nextID    AgentID
	maxHealth int
}

// NewSpawner creates an agent spawner with the given seed. Agents start
// with maxHealth.
func NewSpawner(seed int64, maxHealth int) *Spawner {
	return &Spawner{
		rng:       rand.New(rand.NewSource(seed + 300)),
		nextID:    1,
		maxHealth: maxHealth,
	}
}

// SetNextID sets the next agent ID to be issued.
func (s *Spawner) SetNextID(id AgentID) {
	s.nextID = id
}

// RandomDiet picks a diet uniformly.
func (s *Spawner) RandomDiet() Diet {
	return Diet(s.rng.Intn(NumDiets))
}

// Spawn creates an agent with the given diet standing on c and claims the
// node for it. The node must be open and empty.
func (s *Spawner) Spawn(g *world.Grid, diet Diet, c world.Coord, tick uint64) (*Agent, error) {
	n := g.Get(c)
	if n == nil || !n.Walkable() {
		return nil, fmt.Errorf("spawn agent at %v: not an open node", c)
	}
	if n.Occupant != world.Empty {
		return nil, fmt.Errorf("spawn agent at %v: node occupied by %v", c, n.Occupant)
	}

	id := s.nextID
	s.nextID++
	g.Claim(c, uint64(id))

	return &Agent{
		ID:       id,
		Diet:     diet,
		Health:   s.maxHealth,
		Position: world.WorldPos(c),
		LastNode: c,
		State:    StateIdle,
		BornTick: tick,
		Alive:    true,
	}, nil
}

// SpawnPopulation creates up to count agents of random diet on random empty
// open nodes.
func (s *Spawner) SpawnPopulation(g *world.Grid, count int, tick uint64) []*Agent {
	free := make([]world.Coord, 0, g.Size())
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.Walkable() && n.Occupant == world.Empty {
			free = append(free, n.Coord)
		}
	}
	s.rng.Shuffle(len(free), func(i, j int) {
		free[i], free[j] = free[j], free[i]
	})

	agents := make([]*Agent, 0, count)
	for _, c := range free {
		if len(agents) >= count {
			break
		}
		a, err := s.Spawn(g, s.RandomDiet(), c, tick)
		if err != nil {
			continue
		}
		agents = append(agents, a)
	}
	return agents
}
