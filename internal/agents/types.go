// Package agents provides the forager data model, goal selection, and the
// per-step controller that drives pathing, movement and node claims.
package agents

import (
	"fmt"

	"github.com/talgya/forage/internal/food"
	"github.com/talgya/forage/internal/world"
)

// AgentID is a unique identifier for an agent.
type AgentID uint64

// Occupant returns the grid occupant tag for this agent id.
func (id AgentID) Occupant() world.Occupant {
	return world.AgentOccupant(uint64(id))
}

// Diet determines which food kind an agent eats. Fixed at creation.
type Diet uint8

const (
	DietCarnivore Diet = iota
	DietHerbivore
)

// NumDiets is the number of diets.
const NumDiets = 2

// Prefers returns the food kind the diet eats.
func (d Diet) Prefers() food.Kind {
	switch d {
	case DietHerbivore:
		return food.KindVegetation
	default:
		return food.KindMeat
	}
}

func (d Diet) String() string {
	switch d {
	case DietCarnivore:
		return "carnivore"
	case DietHerbivore:
		return "herbivore"
	default:
		return fmt.Sprintf("diet(%d)", uint8(d))
	}
}

// State is the controller state of an agent.
type State uint8

const (
	StateIdle       State = iota // No goal, no path
	StateSeeking                 // Goal chosen, path computed
	StateMoving                  // Advancing along the path
	StateReplanning              // Path invalidated; new plan takes effect next step
	StateDead                    // Terminal
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSeeking:
		return "seeking"
	case StateMoving:
		return "moving"
	case StateReplanning:
		return "replanning"
	case StateDead:
		return "dead"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Agent is a forager on the grid.
type Agent struct {
	ID     AgentID `json:"id"`
	Diet   Diet    `json:"diet"`
	Health int     `json:"health"`

	// Location
	Position world.Vec2    `json:"position"`  // Continuous world position
	LastNode world.Coord   `json:"last_node"` // Node the agent legitimately holds
	Path     []world.Coord `json:"path"`      // Remaining steps; empty = needs a goal

	// Committed is true while Path[0] is claimed ahead of arrival.
	Committed bool `json:"committed"`

	Goal    food.ID `json:"goal,omitempty"` // food.None when no goal
	State   State   `json:"state"`
	Started bool    `json:"started"`

	// Metadata
	Meals    int    `json:"meals"`
	BornTick uint64 `json:"born_tick"`
	Alive    bool   `json:"alive"`
}

// Claims appends the nodes the agent currently holds to dst.
func (a *Agent) Claims(dst []world.Coord) []world.Coord {
	if !a.Alive {
		return dst
	}
	dst = append(dst, a.LastNode)
	if a.Committed && len(a.Path) > 0 && a.Path[0] != a.LastNode {
		dst = append(dst, a.Path[0])
	}
	return dst
}
