package gardener

// Crisis levels, most severe first.
const (
	LevelCritical = "CRITICAL" // a diet has foragers and no food at all
	LevelWarning  = "WARNING"
	LevelWatch    = "WATCH"
	LevelHealthy  = "HEALTHY"
)

// Diets in the order the keeper serves them.
var Diets = []string{"carnivore", "herbivore"}

// FoodFor returns the food kind a diet eats.
func FoodFor(diet string) string {
	if diet == "carnivore" {
		return "meat"
	}
	return "vegetation"
}

// DietHealth is the food supply for one diet.
type DietHealth struct {
	Agents    int
	Food      int
	Hungriest *AgentInfo // lowest health forager, nil when none
}

// Ratio returns food items per forager (0 with no foragers).
func (d *DietHealth) Ratio() float64 {
	if d.Agents == 0 {
		return 0
	}
	return float64(d.Food) / float64(d.Agents)
}

// WorldHealth holds derived diagnostic signals computed from a WorldSnapshot.
type WorldHealth struct {
	Diets       map[string]*DietHealth
	CrisisLevel string
}

// Triage computes per-diet food supply from the snapshot's data.
func Triage(snap *WorldSnapshot) *WorldHealth {
	h := &WorldHealth{Diets: make(map[string]*DietHealth, len(Diets))}
	for _, d := range Diets {
		h.Diets[d] = &DietHealth{}
	}

	for i := range snap.Agents {
		a := &snap.Agents[i]
		dh, ok := h.Diets[a.Diet]
		if !ok {
			continue
		}
		dh.Agents++
		if dh.Hungriest == nil || a.Health < dh.Hungriest.Health {
			dh.Hungriest = a
		}
	}
	for _, f := range snap.Food {
		for _, d := range Diets {
			if FoodFor(d) == f.Kind {
				h.Diets[d].Food++
			}
		}
	}

	h.CrisisLevel = LevelHealthy
	for _, d := range Diets {
		dh := h.Diets[d]
		if dh.Agents == 0 {
			continue
		}
		switch r := dh.Ratio(); {
		case r == 0:
			h.CrisisLevel = LevelCritical
		case r < 0.5 && h.CrisisLevel != LevelCritical:
			h.CrisisLevel = LevelWarning
		case r < 1 && h.CrisisLevel == LevelHealthy:
			h.CrisisLevel = LevelWatch
		}
	}
	return h
}

// Plan returns up to maxDrops drops that bring each diet to one food item
// per forager. Drops land on the free nodes closest (by walking distance) to
// the diet's hungriest forager.
func Plan(snap *WorldSnapshot, h *WorldHealth, maxDrops int) []Drop {
	var drops []Drop
	used := make(map[Coord]bool)

	for _, d := range Diets {
		dh := h.Diets[d]
		need := dh.Agents - dh.Food
		if need <= 0 || dh.Hungriest == nil {
			continue
		}
		need = min(need, maxDrops-len(drops))
		if need <= 0 {
			break
		}
		for _, c := range nearestFree(snap.Grid, dh.Hungriest.Node, need, used) {
			used[c] = true
			drops = append(drops, Drop{Kind: FoodFor(d), X: c.X, Y: c.Y})
		}
	}
	return drops
}

// nearestFree walks the rendered grid breadth-first from start and returns
// up to n free ('.') nodes not in used, nearest first.
func nearestFree(g GridInfo, start Coord, n int, used map[Coord]bool) []Coord {
	at := func(c Coord) byte {
		if c.Y < 0 || c.Y >= len(g.Rows) || c.X < 0 || c.X >= len(g.Rows[c.Y]) {
			return '#'
		}
		return g.Rows[c.Y][c.X]
	}
	if at(start) == '#' {
		return nil
	}

	dirs := [4]Coord{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}
	seen := map[Coord]bool{start: true}
	queue := []Coord{start}
	var out []Coord

	for len(queue) > 0 && len(out) < n {
		c := queue[0]
		queue = queue[1:]
		if at(c) == '.' && !used[c] {
			out = append(out, c)
		}
		for _, d := range dirs {
			next := Coord{X: c.X + d.X, Y: c.Y + d.Y}
			if seen[next] || at(next) == '#' {
				continue
			}
			seen[next] = true
			queue = append(queue, next)
		}
	}
	return out
}
