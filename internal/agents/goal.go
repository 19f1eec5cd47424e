package agents

import (
	"math"

	"github.com/talgya/forage/internal/food"
	"github.com/talgya/forage/internal/world"
)

// SelectGoal returns the straight-line nearest live food the agent eats whose
// node is not held by any agent, or nil. Ties go to the earliest entry in the
// registry. The distance is a cheap estimate: the chosen food is not
// necessarily the one with the shortest path.
func SelectGoal(a *Agent, r *food.Registry, g *world.Grid) *food.Food {
	var best *food.Food
	minCost := math.Inf(1)
	want := a.Diet.Prefers()

	for _, f := range r.Live() {
		if f.Eaten || f.Kind != want {
			continue
		}
		if g.OccupantAt(f.Position).IsAgent() {
			continue
		}
		cost := EstimateTravelCost(a, f)
		if cost < minCost {
			minCost = cost
			best = f
		}
	}
	return best
}

// EstimateTravelCost is the Euclidean distance in grid units between the
// agent's current position and the food.
func EstimateTravelCost(a *Agent, f *food.Food) float64 {
	return a.Position.Dist(world.WorldPos(f.Position)) / world.CellSize
}
