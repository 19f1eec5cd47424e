package food

import (
	"fmt"
	"math/rand"

	"github.com/talgya/forage/internal/world"
)

// Spawner creates food items with unique ids.
type Spawner struct {
	rng    *rand.Rand
	nextID ID
}

// NewSpawner creates a food spawner with the given seed.
func NewSpawner(seed int64) *Spawner {
	return &Spawner{
		rng:    rand.New(rand.NewSource(seed + 200)),
		nextID: 1,
	}
}

// NextID returns the id the next spawned food will receive.
func (s *Spawner) NextID() ID {
	return s.nextID
}

// RandomKind picks a food kind uniformly.
func (s *Spawner) RandomKind() Kind {
	return Kind(s.rng.Intn(NumKinds))
}

// Spawn creates a food of kind k at c, registers it and places it on the grid.
// The node must be open and empty.
func (s *Spawner) Spawn(g *world.Grid, r *Registry, k Kind, c world.Coord) (*Food, error) {
	n := g.Get(c)
	if n == nil || !n.Walkable() {
		return nil, fmt.Errorf("spawn food at %v: not an open node", c)
	}
	if n.Occupant != world.Empty {
		return nil, fmt.Errorf("spawn food at %v: node occupied by %v", c, n.Occupant)
	}

	f := &Food{ID: s.nextID, Kind: k, Position: c}
	if err := r.Add(f); err != nil {
		return nil, fmt.Errorf("spawn food: %w", err)
	}
	s.nextID++
	g.Place(c, f.Occupant())
	return f, nil
}

// Scatter spawns up to count food items of random kinds on random empty
// open nodes and returns them. Fewer are returned if the grid fills up.
func (s *Spawner) Scatter(g *world.Grid, r *Registry, count int) []*Food {
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

	spawned := make([]*Food, 0, count)
	for _, c := range free {
		if len(spawned) >= count {
			break
		}
		f, err := s.Spawn(g, r, s.RandomKind(), c)
		if err != nil {
			continue
		}
		spawned = append(spawned, f)
	}
	return spawned
}
