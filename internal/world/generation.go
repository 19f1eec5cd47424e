// World generation using layered simplex noise.
// Noise above the wall level becomes wall; enclosed pockets are sealed so
// every open node belongs to one connected region.
package world

import (
	"fmt"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds map generation parameters.
type GenConfig struct {
	Width     int     // Grid width in nodes
	Height    int     // Grid height in nodes
	Seed      int64   // Random seed (0 = random)
	WallLevel float64 // Noise threshold above which a node is a wall (0.0–1.0)
	Frequency float64 // Base noise frequency; lower values give larger wall blobs
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:     32,
		Height:    24,
		Seed:      0,
		WallLevel: 0.68,
		Frequency: 0.15,
	}
}

// SmallTestConfig returns a tiny map for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Width:     10,
		Height:    10,
		Seed:      42,
		WallLevel: 0.72,
		Frequency: 0.2,
	}
}

// Generate creates a grid with noise-derived walls.
func Generate(cfg GenConfig) *Grid {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	noise := opensimplex.NewNormalized(seed)
	g := NewGrid(cfg.Width, cfg.Height)

	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			v := octaveNoise(noise, float64(x), float64(y), 3, cfg.Frequency, 0.5)
			if v > cfg.WallLevel {
				g.SetWall(Coord{X: x, Y: y})
			}
		}
	}

	// Post-pass: keep only the largest open region.
	sealPockets(g)

	return g
}

// sealPockets turns every open node outside the largest connected open
// region into wall.
func sealPockets(g *Grid) {
	region := make([]int, g.Size()) // 0 = unvisited, otherwise region id
	sizes := []int{0}
	var stack, buf []Coord

	for i := range g.Nodes {
		if region[i] != 0 || !g.Nodes[i].Walkable() {
			continue
		}
		id := len(sizes)
		sizes = append(sizes, 0)
		stack = append(stack[:0], g.Nodes[i].Coord)
		region[i] = id
		for len(stack) > 0 {
			c := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			sizes[id]++
			buf = g.Neighbors(buf[:0], c)
			for _, n := range buf {
				idx := g.Index(n)
				if region[idx] == 0 && g.Nodes[idx].Walkable() {
					region[idx] = id
					stack = append(stack, n)
				}
			}
		}
	}

	largest := 0
	for id, size := range sizes {
		if size > sizes[largest] {
			largest = id
		}
	}
	for i := range g.Nodes {
		if region[i] != 0 && region[i] != largest {
			g.Nodes[i].Terrain = TerrainWall
		}
	}
}

// ParseLayout builds a grid from ASCII rows: '#' is wall, anything else open.
// All rows must have the same length.
func ParseLayout(rows []string) (*Grid, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("parse layout: no rows")
	}
	width := len(rows[0])
	g := NewGrid(width, len(rows))
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("parse layout: row %d has width %d, want %d", y, len(row), width)
		}
		for x, ch := range row {
			if ch == '#' {
				g.SetWall(Coord{X: x, Y: y})
			}
		}
	}
	return g, nil
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// TerrainCounts returns a summary of terrain type distribution.
func TerrainCounts(g *Grid) map[Terrain]int {
	counts := make(map[Terrain]int)
	for i := range g.Nodes {
		counts[g.Nodes[i].Terrain]++
	}
	return counts
}

// TerrainName returns a human-readable name for a terrain type.
func TerrainName(t Terrain) string {
	switch t {
	case TerrainOpen:
		return "Open"
	case TerrainWall:
		return "Wall"
	default:
		return "Unknown"
	}
}
