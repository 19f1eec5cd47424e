// Package gardener implements the food keeper: a steward process that
// observes a running world via the API, triages food supply per diet, and
// drops food through the admin endpoint when foragers run short.
package gardener

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// WorldSnapshot holds all data collected during an observation cycle.
type WorldSnapshot struct {
	Status WorldStatus `json:"status"`
	Agents []AgentInfo `json:"agents"`
	Food   []FoodInfo  `json:"food"`
	Grid   GridInfo    `json:"grid"`
}

// WorldStatus mirrors GET /api/v1/status.
type WorldStatus struct {
	Name    string  `json:"name"`
	RunID   string  `json:"run_id"`
	Tick    uint64  `json:"tick"`
	SimTime string  `json:"sim_time"`
	Speed   float64 `json:"speed"`
	Running bool    `json:"running"`
	Stats   struct {
		Alive      int `json:"alive"`
		Carnivores int `json:"carnivores"`
		Herbivores int `json:"herbivores"`
		Deaths     int `json:"deaths"`
		Meals      int `json:"meals"`
		FoodLive   int `json:"food_live"`
	} `json:"stats"`
}

// Coord is a grid node as the API reports it.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// AgentInfo mirrors items from GET /api/v1/agents.
type AgentInfo struct {
	ID     uint64 `json:"id"`
	Diet   string `json:"diet"`
	State  string `json:"state"`
	Health int    `json:"health"`
	Node   Coord  `json:"node"`
}

// FoodInfo mirrors items from GET /api/v1/food.
type FoodInfo struct {
	ID       uint64 `json:"id"`
	Kind     string `json:"kind"`
	Position Coord  `json:"position"`
}

// GridInfo mirrors GET /api/v1/grid.
type GridInfo struct {
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Rows   []string `json:"rows"`
}

// Observer fetches world state from the API.
type Observer struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewObserver creates an Observer targeting the given API base URL.
func NewObserver(baseURL string) *Observer {
	return &Observer{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Observe fetches the four observation endpoints and returns a WorldSnapshot.
func (o *Observer) Observe() (*WorldSnapshot, error) {
	snap := &WorldSnapshot{}

	if err := o.fetchJSON("/api/v1/status", &snap.Status); err != nil {
		return nil, fmt.Errorf("fetch status: %w", err)
	}
	if err := o.fetchJSON("/api/v1/agents", &snap.Agents); err != nil {
		return nil, fmt.Errorf("fetch agents: %w", err)
	}
	if err := o.fetchJSON("/api/v1/food", &snap.Food); err != nil {
		return nil, fmt.Errorf("fetch food: %w", err)
	}
	if err := o.fetchJSON("/api/v1/grid", &snap.Grid); err != nil {
		return nil, fmt.Errorf("fetch grid: %w", err)
	}

	return snap, nil
}

// fetchJSON GETs a path and decodes the JSON response into target.
func (o *Observer) fetchJSON(path string, target any) error {
	resp, err := o.HTTPClient.Get(o.BaseURL + path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("GET %s returned %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
