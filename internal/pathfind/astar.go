// Package pathfind implements A* search over the grid lattice.
//
// Search state (g, h, f, parent) lives in a Search context rather than on
// grid nodes, so one context can be reused run after run by the same owner.
// A Search is not safe for concurrent use.
package pathfind

import (
	"errors"
	"fmt"
	"math"

	"github.com/talgya/forage/internal/world"
)

// ErrUnreachable is returned when the open set empties before the goal is reached.
var ErrUnreachable = errors.New("pathfind: goal unreachable")

// Passable reports whether the searching agent may enter a node right now.
type Passable func(c world.Coord) bool

const (
	stateOpen uint8 = iota + 1
	stateClosed
)

// Search holds reusable per-node scratch fields for A*.
type Search struct {
	g      []float64
	h      []float64
	f      []float64
	parent []int32
	state  []uint8
	stamp  []uint32 // Scratch fields are valid only where stamp == gen
	gen    uint32

	open []int         // Insertion-ordered open list
	nbuf []world.Coord // Neighbor scratch

	// Expanded counts nodes moved to the closed set by the last FindPath.
	Expanded int
}

// NewSearch creates a search context for grids with the given node count.
func NewSearch(size int) *Search {
	s := &Search{}
	s.resize(size)
	return s
}

func (s *Search) resize(size int) {
	s.g = make([]float64, size)
	s.h = make([]float64, size)
	s.f = make([]float64, size)
	s.parent = make([]int32, size)
	s.state = make([]uint8, size)
	s.stamp = make([]uint32, size)
	s.gen = 0
}

// begin starts a new generation, invalidating all scratch fields.
func (s *Search) begin(size int) {
	if len(s.stamp) != size {
		s.resize(size)
	}
	s.gen++
	if s.gen == 0 {
		clear(s.stamp)
		s.gen = 1
	}
	s.open = s.open[:0]
	s.Expanded = 0
}

func (s *Search) touched(i int) bool {
	return s.stamp[i] == s.gen
}

func (s *Search) touch(i int) {
	s.stamp[i] = s.gen
	s.state[i] = 0
	s.parent[i] = -1
}

// FindPath runs A* from start to goal. The returned path excludes start and
// ends with goal; it is empty when start == goal. Nodes for which passable
// returns false are treated as walls for this run. Ties on f go to the node
// that entered the open list first, which together with the fixed neighbor
// order makes the result deterministic for a given grid snapshot.
func (s *Search) FindPath(g *world.Grid, start, goal world.Coord, passable Passable) ([]world.Coord, error) {
	if !g.InBounds(start) || !g.InBounds(goal) {
		return nil, fmt.Errorf("find path %v -> %v: out of bounds: %w", start, goal, ErrUnreachable)
	}

	s.begin(g.Size())

	si := g.Index(start)
	gi := g.Index(goal)

	s.touch(si)
	s.g[si] = 0
	s.h[si] = g.Heuristic(start, goal)
	s.f[si] = s.h[si]
	s.state[si] = stateOpen
	s.open = append(s.open, si)

	for len(s.open) > 0 {
		// Strict < keeps the first-encountered minimum.
		best := -1
		lowest := math.Inf(1)
		for pos, idx := range s.open {
			if s.f[idx] < lowest {
				lowest = s.f[idx]
				best = pos
			}
		}
		if best < 0 {
			// Every open f is +Inf; take the oldest entry.
			best = 0
		}

		cur := s.open[best]
		s.open = append(s.open[:best], s.open[best+1:]...)
		s.state[cur] = stateClosed
		s.Expanded++

		if cur == gi {
			return s.reconstruct(g, gi), nil
		}

		curCoord := g.Nodes[cur].Coord
		s.nbuf = g.Neighbors(s.nbuf[:0], curCoord)
		for _, nc := range s.nbuf {
			ni := g.Index(nc)
			if s.touched(ni) && s.state[ni] == stateClosed {
				continue
			}
			if !g.Nodes[ni].Walkable() || (passable != nil && !passable(nc)) {
				continue
			}

			possibleG := s.g[cur] + g.TraversalCost(nc)
			improved := false

			if !s.touched(ni) || s.state[ni] != stateOpen {
				s.touch(ni)
				s.state[ni] = stateOpen
				s.open = append(s.open, ni)
				s.h[ni] = g.Heuristic(nc, goal)
				improved = true
			} else if possibleG < s.g[ni] {
				improved = true
			}

			if improved {
				s.parent[ni] = int32(cur)
				s.g[ni] = possibleG
				s.f[ni] = s.g[ni] + s.h[ni]
			}
		}
	}

	return nil, ErrUnreachable
}

// reconstruct walks parent links back from the goal. Start is excluded.
func (s *Search) reconstruct(g *world.Grid, goal int) []world.Coord {
	var path []world.Coord
	for i := goal; s.parent[i] >= 0; i = int(s.parent[i]) {
		path = append(path, g.Nodes[i].Coord)
	}
	for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
		path[l], path[r] = path[r], path[l]
	}
	return path
}

// Cost returns the g value of c from the last successful run, or +Inf if c
// was not reached.
func (s *Search) Cost(g *world.Grid, c world.Coord) float64 {
	if !g.InBounds(c) {
		return math.Inf(1)
	}
	i := g.Index(c)
	if len(s.stamp) != g.Size() || !s.touched(i) {
		return math.Inf(1)
	}
	return s.g[i]
}

// FindPath is a convenience wrapper that allocates a fresh Search.
func FindPath(g *world.Grid, start, goal world.Coord, passable Passable) ([]world.Coord, error) {
	return NewSearch(g.Size()).FindPath(g, start, goal, passable)
}
