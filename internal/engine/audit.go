package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/forage/internal/agents"
	"github.com/talgya/forage/internal/world"
)

// auditClaims verifies that no node is held by two live agents. Claiming is
// exclusive by construction, so a conflict means a bug; it is repaired by
// giving the node to the lower id and forcing the other agent to replan.
// A loser standing on the node is moved to the nearest free node first.
func (s *Simulation) auditClaims(tick uint64) {
	holder := make(map[world.Coord]*agents.Agent, len(s.Agents)*2)
	var buf []world.Coord

	for _, a := range s.Agents {
		if !a.Alive {
			continue
		}
		buf = a.Claims(buf[:0])
		for _, c := range buf {
			other, ok := holder[c]
			if !ok {
				holder[c] = a
				continue
			}

			winner, loser := other, a
			if a.ID < other.ID {
				winner, loser = a, other
			}
			holder[c] = winner
			s.Grid.Place(c, winner.ID.Occupant())
			if loser.LastNode == c {
				s.relocate(loser)
			}
			s.Controller.Replan(loser)
			s.Stats.Repairs++
			s.recordEvent("repair", fmt.Sprintf("node (%d,%d) held by agents %d and %d", c.X, c.Y, winner.ID, loser.ID))
			slog.Warn("claim conflict repaired", "tick", tick, "node", c, "winner", winner.ID, "loser", loser.ID)
		}
	}
}

// relocate moves a onto the nearest empty open node, breadth-first from its
// LastNode in neighbor order. The agent stays put if none is free.
func (s *Simulation) relocate(a *agents.Agent) {
	start := a.LastNode
	seen := map[world.Coord]bool{start: true}
	queue := []world.Coord{start}
	var nbuf []world.Coord

	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c != start && s.Grid.OccupantAt(c) == world.Empty && s.Grid.Claim(c, uint64(a.ID)) {
			a.LastNode = c
			a.Position = world.WorldPos(c)
			return
		}
		nbuf = s.Grid.Neighbors(nbuf[:0], c)
		for _, n := range nbuf {
			if !seen[n] && s.Grid.Get(n).Walkable() {
				seen[n] = true
				queue = append(queue, n)
			}
		}
	}
	slog.Warn("no free node to relocate agent", "agent", a.ID, "node", start)
}
