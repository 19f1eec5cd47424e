// Per-step forager state machine.
// Each step an agent validates its plan, replans when the world changed
// under it, claims its next node, and moves toward it.
package agents

import (
	"errors"
	"log/slog"

	"github.com/talgya/forage/internal/food"
	"github.com/talgya/forage/internal/pathfind"
	"github.com/talgya/forage/internal/world"
)

// Host is the environment the controller acts through.
type Host interface {
	// MoveToward moves the agent toward target by at most maxDist world
	// units and returns the distance still remaining.
	MoveToward(a *Agent, target world.Vec2, maxDist float64) float64
	// Destroy removes an agent or food from the simulation.
	Destroy(o world.Occupant)
}

// Config holds controller tuning.
type Config struct {
	MaxHealth int     // Health restored on eating; agents spawn with it
	MoveSpeed float64 // World units per second
	Tolerance float64 // Arrival distance in world units
}

// DefaultConfig returns the standard forager tuning.
func DefaultConfig() Config {
	return Config{
		MaxHealth: 50,
		MoveSpeed: 100,
		Tolerance: 20,
	}
}

// ActionKind is the disposition of one step.
type ActionKind uint8

const (
	ActionIdle   ActionKind = iota // Nothing to walk toward
	ActionMove                     // Moved toward the next node
	ActionArrive                   // Reached the next node
	ActionWait                     // Replanned instead of moving
	ActionDead                     // Agent is dead
)

// ReplanCause records why a step replanned.
type ReplanCause uint8

const (
	ReplanNone        ReplanCause = iota
	ReplanStart                   // First step
	ReplanPathDone                // Path exhausted (goal reached, or no plan)
	ReplanGoalLost                // Goal eaten or removed by someone else
	ReplanBlocked                 // Next node not available
	ReplanFoodInWay               // Next node holds edible food that is not the goal
)

func (c ReplanCause) String() string {
	switch c {
	case ReplanStart:
		return "start"
	case ReplanPathDone:
		return "path_done"
	case ReplanGoalLost:
		return "goal_lost"
	case ReplanBlocked:
		return "blocked"
	case ReplanFoodInWay:
		return "food_in_way"
	default:
		return "none"
	}
}

// Action is what one step did.
type Action struct {
	AgentID AgentID
	Kind    ActionKind
	Ate     food.ID     // Food consumed this step, food.None otherwise
	Replan  ReplanCause // Why the agent replanned, ReplanNone if it did not
}

// Controller steps agents against a shared grid and food registry.
// It is not safe for concurrent use; agents are stepped one at a time.
type Controller struct {
	Grid   *world.Grid
	Food   *food.Registry
	Host   Host
	Config Config

	search *pathfind.Search
}

// NewController creates a controller over the given world.
func NewController(g *world.Grid, r *food.Registry, host Host, cfg Config) *Controller {
	return &Controller{
		Grid:   g,
		Food:   r,
		Host:   host,
		Config: cfg,
		search: pathfind.NewSearch(g.Size()),
	}
}

// Step runs one step of the agent's state machine. dt is in seconds.
func (c *Controller) Step(a *Agent, dt float64) Action {
	act := Action{AgentID: a.ID, Kind: ActionIdle}
	if !a.Alive {
		act.Kind = ActionDead
		return act
	}

	switch {
	case !a.Started:
		if !c.start(a) {
			act.Kind = ActionWait
			return act
		}
		c.Replan(a)
		act.Replan = ReplanStart
	case len(a.Path) == 0:
		act.Ate = c.Eat(a)
		c.Replan(a)
		act.Replan = ReplanPathDone
	case !c.goalValid(a):
		c.Replan(a)
		act.Replan = ReplanGoalLost
	}

	if len(a.Path) == 0 {
		return act
	}

	next := a.Path[0]
	if !c.CheckNodeAvailability(a, next) {
		c.replanAndWait(a, &act, ReplanBlocked)
		return act
	}
	if f, ok := c.Food.At(next); ok && f.ID != a.Goal && f.Kind == a.Diet.Prefers() {
		c.replanAndWait(a, &act, ReplanFoodInWay)
		return act
	}

	c.advance(a, dt, &act)
	return act
}

// start takes hold of the node under the agent.
func (c *Controller) start(a *Agent) bool {
	a.LastNode = world.CoordOf(a.Position)
	if !c.Grid.Claim(a.LastNode, uint64(a.ID)) {
		slog.Warn("start node held by another agent", "agent", a.ID, "node", a.LastNode,
			"holder", c.Grid.OccupantAt(a.LastNode))
		return false
	}
	a.Started = true
	return true
}

func (c *Controller) replanAndWait(a *Agent, act *Action, cause ReplanCause) {
	c.Replan(a)
	act.Kind = ActionWait
	act.Replan = cause
	if len(a.Path) > 0 {
		a.State = StateReplanning
	}
	slog.Debug("agent replanned", "agent", a.ID, "cause", cause, "goal", a.Goal, "path", len(a.Path))
}

// advance claims the next node, moves toward it, and pops it on arrival.
func (c *Controller) advance(a *Agent, dt float64, act *Action) {
	next := a.Path[0]
	id := uint64(a.ID)

	// Claim before moving so no one else is routed onto the node meanwhile.
	if !c.Grid.Claim(next, id) {
		c.replanAndWait(a, act, ReplanBlocked)
		return
	}
	a.Committed = true
	a.State = StateMoving
	act.Kind = ActionMove

	target := world.WorldPos(next)
	remaining := c.Host.MoveToward(a, target, c.Config.MoveSpeed*dt)
	if remaining > c.Config.Tolerance {
		return
	}

	a.Position = target
	if a.LastNode != next {
		c.Grid.Release(a.LastNode, id, c.Food.Occupant(a.LastNode))
	}
	a.LastNode = next
	a.Path = a.Path[1:]
	a.Committed = false
	act.Kind = ActionArrive
}

// Replan drops the current path and goal, releases any node claimed ahead of
// arrival, then selects a new goal and searches a path to it from LastNode.
// The agent ends Idle when no goal qualifies or the goal is unreachable.
func (c *Controller) Replan(a *Agent) {
	c.releaseCommitted(a)
	a.Path = nil
	a.Goal = food.None

	f := SelectGoal(a, c.Food, c.Grid)
	if f == nil {
		a.State = StateIdle
		return
	}

	path, err := c.search.FindPath(c.Grid, a.LastNode, f.Position, func(n world.Coord) bool {
		return c.CheckNodeAvailability(a, n)
	})
	if err != nil {
		if !errors.Is(err, pathfind.ErrUnreachable) {
			slog.Warn("path search failed", "agent", a.ID, "error", err)
		}
		a.State = StateIdle
		return
	}

	a.Goal = f.ID
	a.Path = path
	a.State = StateSeeking
}

func (c *Controller) releaseCommitted(a *Agent) {
	if a.Committed && len(a.Path) > 0 && a.Path[0] != a.LastNode {
		next := a.Path[0]
		c.Grid.Release(next, uint64(a.ID), c.Food.Occupant(next))
	}
	a.Committed = false
}

// goalValid reports whether the held goal is still live and uneaten.
func (c *Controller) goalValid(a *Agent) bool {
	if a.Goal == food.None {
		return false
	}
	f, ok := c.Food.Get(a.Goal)
	return ok && !f.Eaten
}

// CheckNodeAvailability reports whether the agent may enter n: it must not
// be a wall, held by another agent, or hold food the agent does not eat.
func (c *Controller) CheckNodeAvailability(a *Agent, n world.Coord) bool {
	node := c.Grid.Get(n)
	if node == nil || !node.Walkable() {
		return false
	}
	occ := node.Occupant
	switch occ.Kind {
	case world.OccupantAgent:
		if AgentID(occ.ID) != a.ID {
			return false
		}
	case world.OccupantFood:
		if f, ok := c.Food.Get(food.ID(occ.ID)); ok && f.Kind != a.Diet.Prefers() {
			return false
		}
	}
	return true
}

// Eat consumes the agent's goal if the agent stands on it. Health is
// restored, the food leaves the registry and is destroyed. Returns the
// eaten food's id, or food.None.
func (c *Controller) Eat(a *Agent) food.ID {
	if a.Goal == food.None {
		return food.None
	}
	f, ok := c.Food.Get(a.Goal)
	if !ok || f.Eaten {
		a.Goal = food.None
		return food.None
	}
	if f.Position != a.LastNode {
		return food.None
	}

	a.Health = c.Config.MaxHealth
	a.Meals++
	c.Food.Remove(f.ID)
	f.Eaten = true
	a.Goal = food.None
	slog.Debug("agent ate", "agent", a.ID, "food", f.ID, "kind", f.Kind, "node", f.Position)
	c.Host.Destroy(f.Occupant())
	return f.ID
}

// DecreaseHealth applies one decay tick. Returns true if the agent died.
func (c *Controller) DecreaseHealth(a *Agent) bool {
	if !a.Alive {
		return false
	}
	a.Health--
	if a.Health > 0 {
		return false
	}
	c.kill(a)
	return true
}

// kill makes the agent dead, frees its claims and asks the host to destroy it.
func (c *Controller) kill(a *Agent) {
	c.releaseCommitted(a)
	c.Grid.Release(a.LastNode, uint64(a.ID), c.Food.Occupant(a.LastNode))
	a.Path = nil
	a.Goal = food.None
	a.Alive = false
	a.State = StateDead
	c.Host.Destroy(a.ID.Occupant())
}
