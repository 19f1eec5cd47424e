// Package world provides the grid lattice, terrain, occupancy, and map generation.
// Uses integer (x, y) coordinates with y growing southward.
package world

import "math"

// Coord identifies a grid node.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Neighbor offsets in expansion order: North, East, South, West.
// The order decides which of several equal-cost paths the search returns.
var NeighborDirections = [4]Coord{
	{X: 0, Y: -1},
	{X: 1, Y: 0},
	{X: 0, Y: 1},
	{X: -1, Y: 0},
}

// Add returns the coordinate offset by d.
func (c Coord) Add(d Coord) Coord {
	return Coord{X: c.X + d.X, Y: c.Y + d.Y}
}

// Distance returns the Euclidean distance between two grid coordinates.
func Distance(a, b Coord) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// Vec2 is a continuous world-space position.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist returns the straight-line distance between two world positions.
func (v Vec2) Dist(o Vec2) float64 {
	return math.Hypot(o.X-v.X, o.Y-v.Y)
}

// MoveToward steps v toward target by at most maxDist and returns the new
// position along with the distance still remaining to target.
func (v Vec2) MoveToward(target Vec2, maxDist float64) (Vec2, float64) {
	d := v.Dist(target)
	if d <= maxDist || d == 0 {
		return target, 0
	}
	t := maxDist / d
	next := Vec2{X: v.X + (target.X-v.X)*t, Y: v.Y + (target.Y-v.Y)*t}
	return next, d - maxDist
}

// CellSize is the number of world units per grid cell.
const CellSize = 100.0

// WorldPos returns the world-space position of a grid coordinate.
func WorldPos(c Coord) Vec2 {
	return Vec2{X: float64(c.X) * CellSize, Y: float64(c.Y) * CellSize}
}

// CoordOf returns the grid coordinate containing a world position.
func CoordOf(p Vec2) Coord {
	return Coord{X: int(math.Floor(p.X / CellSize)), Y: int(math.Floor(p.Y / CellSize))}
}
