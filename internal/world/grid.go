package world

import "fmt"

// Terrain classifies a node. Fixed after map generation.
type Terrain uint8

const (
	TerrainOpen Terrain = iota
	TerrainWall
)

// OccupantKind tags what, if anything, stands on a node.
type OccupantKind uint8

const (
	OccupantNone OccupantKind = iota
	OccupantAgent
	OccupantFood
)

// Occupant is the tagged occupancy slot of a node: Empty, Agent(id) or Food(id).
type Occupant struct {
	Kind OccupantKind `json:"kind"`
	ID   uint64       `json:"id,omitempty"`
}

// Empty is the zero occupant.
var Empty = Occupant{}

// AgentOccupant returns the occupant tag for an agent.
func AgentOccupant(id uint64) Occupant {
	return Occupant{Kind: OccupantAgent, ID: id}
}

// FoodOccupant returns the occupant tag for a food item.
func FoodOccupant(id uint64) Occupant {
	return Occupant{Kind: OccupantFood, ID: id}
}

// IsAgent reports whether the occupant is an agent.
func (o Occupant) IsAgent() bool { return o.Kind == OccupantAgent }

// IsFood reports whether the occupant is a food item.
func (o Occupant) IsFood() bool { return o.Kind == OccupantFood }

func (o Occupant) String() string {
	switch o.Kind {
	case OccupantAgent:
		return fmt.Sprintf("agent#%d", o.ID)
	case OccupantFood:
		return fmt.Sprintf("food#%d", o.ID)
	default:
		return "empty"
	}
}

// Node is a single cell of the lattice.
type Node struct {
	Coord    Coord    `json:"coord"`
	Terrain  Terrain  `json:"terrain"`
	Occupant Occupant `json:"occupant"`
}

// Walkable reports whether the node's terrain can ever be entered.
func (n *Node) Walkable() bool {
	return n.Terrain != TerrainWall
}

// Grid is a fixed-size arena of nodes addressed by (x, y).
type Grid struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Nodes  []Node `json:"-"` // Row-major: index = y*Width + x
}

// NewGrid creates an all-open grid.
func NewGrid(width, height int) *Grid {
	g := &Grid{
		Width:  width,
		Height: height,
		Nodes:  make([]Node, width*height),
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g.Nodes[y*width+x].Coord = Coord{X: x, Y: y}
		}
	}
	return g
}

// InBounds returns true if the coordinate lies on the grid.
func (g *Grid) InBounds(c Coord) bool {
	return c.X >= 0 && c.X < g.Width && c.Y >= 0 && c.Y < g.Height
}

// Index returns the arena index of c. The caller must check bounds.
func (g *Grid) Index(c Coord) int {
	return c.Y*g.Width + c.X
}

// Get returns the node at c, or nil if out of bounds.
func (g *Grid) Get(c Coord) *Node {
	if !g.InBounds(c) {
		return nil
	}
	return &g.Nodes[g.Index(c)]
}

// Size returns the number of nodes.
func (g *Grid) Size() int {
	return len(g.Nodes)
}

// SetWall marks c as a wall. Only valid during map generation.
func (g *Grid) SetWall(c Coord) {
	if n := g.Get(c); n != nil {
		n.Terrain = TerrainWall
	}
}

// Neighbors appends the in-bounds neighbors of c to dst in North, East,
// South, West order and returns the extended slice. Walls are included;
// traversability is the caller's decision.
func (g *Grid) Neighbors(dst []Coord, c Coord) []Coord {
	for _, d := range NeighborDirections {
		n := c.Add(d)
		if g.InBounds(n) {
			dst = append(dst, n)
		}
	}
	return dst
}

// TraversalCost returns the cost of stepping onto c.
// Every open node costs the same; walls are never traversed.
func (g *Grid) TraversalCost(c Coord) float64 {
	return 1
}

// Heuristic estimates the remaining cost between a and b.
// Euclidean distance: admissible for 4-way movement.
func (g *Grid) Heuristic(a, b Coord) float64 {
	return Distance(a, b)
}

// OccupantAt returns the occupant of c (Empty when out of bounds).
func (g *Grid) OccupantAt(c Coord) Occupant {
	if n := g.Get(c); n != nil {
		return n.Occupant
	}
	return Empty
}

// Place sets the occupant of c unconditionally. Used for food placement
// and spawning; agents go through Claim.
func (g *Grid) Place(c Coord, o Occupant) {
	if n := g.Get(c); n != nil {
		n.Occupant = o
	}
}

// Claim marks c as held by the agent. Fails if the node is a wall, out of
// bounds, or held by a different agent. A food occupant is displaced.
func (g *Grid) Claim(c Coord, agentID uint64) bool {
	n := g.Get(c)
	if n == nil || !n.Walkable() {
		return false
	}
	if n.Occupant.IsAgent() && n.Occupant.ID != agentID {
		return false
	}
	n.Occupant = AgentOccupant(agentID)
	return true
}

// Release drops the agent's claim on c and puts restore back in the slot
// (Empty, or the food that still lies there). No-op if the agent does not
// hold c.
func (g *Grid) Release(c Coord, agentID uint64, restore Occupant) {
	n := g.Get(c)
	if n == nil {
		return
	}
	if n.Occupant.IsAgent() && n.Occupant.ID == agentID {
		n.Occupant = restore
	}
}

// OpenCount returns the number of non-wall nodes.
func (g *Grid) OpenCount() int {
	count := 0
	for i := range g.Nodes {
		if g.Nodes[i].Walkable() {
			count++
		}
	}
	return count
}

// String returns a summary of the grid.
func (g *Grid) String() string {
	return fmt.Sprintf("Grid(%dx%d, open=%d)", g.Width, g.Height, g.OpenCount())
}
