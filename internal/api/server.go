// Package api provides the HTTP API for observing the foraging world.
// GET endpoints are public read-only observation.
// POST endpoints require a bearer token.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/forage/internal/agents"
	"github.com/talgya/forage/internal/engine"
	"github.com/talgya/forage/internal/food"
	"github.com/talgya/forage/internal/persistence"
	"github.com/talgya/forage/internal/world"
)

const (
	maxStreamConns        = 4
	defaultStreamInterval = 500 * time.Millisecond
	defaultEventLimit     = 100
)

// Server serves the world state over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine
	DB       *persistence.DB // Optional run journal
	RunID    string
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	// Time between snapshots pushed to stream clients.
	StreamInterval time.Duration

	streamConns  int32
	upgrader     websocket.Upgrader
	spawnLimiter *RateLimiter
	httpServer   *http.Server
}

// Handler builds the request router.
func (s *Server) Handler() http.Handler {
	streamLimiter := NewRateLimiter(10, time.Minute)
	s.spawnLimiter = NewRateLimiter(60, time.Minute)

	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/agents", s.handleAgents)
	mux.HandleFunc("/api/v1/agent/", s.handleAgentDetail)
	mux.HandleFunc("/api/v1/food", s.adminOnly(s.handleFood))
	mux.HandleFunc("/api/v1/grid", s.handleGrid)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/runs", s.handleRuns)
	mux.HandleFunc("/api/v1/stream", RateLimitMiddleware(streamLimiter, s.handleStream))

	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))

	return mux
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Close stops the HTTP server. Stream connections are hijacked, so they end
// on their next write.
func (s *Server) Close() error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Close()
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no FORAGE_ADMIN_KEY set)", http.StatusForbidden)
				return
			}
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != s.AdminKey {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.Sim.Snapshot()
	writeJSON(w, map[string]any{
		"name":     "forage",
		"run_id":   s.RunID,
		"tick":     snap.Tick,
		"sim_time": engine.SimTime(snap.Tick, s.Eng.Interval),
		"speed":    s.Eng.Speed(),
		"running":  s.Eng.Running(),
		"width":    s.Sim.Grid.Width,
		"height":   s.Sim.Grid.Height,
		"stats":    snap.Stats,
	})
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	snap := s.Sim.Snapshot()
	list := snap.Agents
	if diet := r.URL.Query().Get("diet"); diet != "" {
		filtered := list[:0]
		for _, a := range list {
			if a.Diet == diet {
				filtered = append(filtered, a)
			}
		}
		list = filtered
	}
	writeJSON(w, list)
}

func (s *Server) handleAgentDetail(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/v1/agent/")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		http.Error(w, "invalid agent id", http.StatusBadRequest)
		return
	}
	a, ok := s.Sim.Agent(agents.AgentID(id))
	if !ok {
		http.Error(w, "agent not found", http.StatusNotFound)
		return
	}
	writeJSON(w, a)
}

// handleFood lists live food on GET and places a new item on POST.
func (s *Server) handleFood(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, s.Sim.Snapshot().Food)
	case http.MethodPost:
		if ip := clientIP(r); !s.spawnLimiter.Allow(ip) {
			w.Header().Set("Retry-After", strconv.Itoa(s.spawnLimiter.RetryAfter(ip)))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		var req struct {
			Kind string `json:"kind"`
			X    int    `json:"x"`
			Y    int    `json:"y"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		kind, ok := food.ParseKind(req.Kind)
		if !ok {
			http.Error(w, "kind must be meat or vegetation", http.StatusBadRequest)
			return
		}
		f, err := s.Sim.SpawnFood(kind, world.Coord{X: req.X, Y: req.Y})
		if err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		slog.Info("food placed", "id", f.ID, "kind", f.Kind, "x", req.X, "y", req.Y)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, engine.FoodView{ID: f.ID, Kind: f.Kind.String(), Position: f.Position})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"width":  s.Sim.Grid.Width,
		"height": s.Sim.Grid.Height,
		"rows":   s.Sim.Render(),
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}
	writeJSON(w, s.Sim.RecentEvents(limit))
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "no run journal configured", http.StatusNotFound)
		return
	}
	runs, err := s.DB.ListRuns(20)
	if err != nil {
		slog.Error("list runs", "error", err)
		http.Error(w, "journal read failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, runs)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

// handleStream upgrades to a WebSocket and pushes a snapshot every
// StreamInterval until the client goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	current := atomic.AddInt32(&s.streamConns, 1)
	defer atomic.AddInt32(&s.streamConns, -1)
	if current > maxStreamConns {
		http.Error(w, "too many stream connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("stream upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// Clients only send close frames; drain them so the read side notices.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	interval := s.StreamInterval
	if interval <= 0 {
		interval = defaultStreamInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("stream client connected", "remote", clientIP(r))
	var lastTick uint64
	first := true
	for {
		snap := s.Sim.Snapshot()
		if first || snap.Tick != lastTick {
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(snap); err != nil {
				slog.Info("stream client dropped", "error", err)
				return
			}
			lastTick, first = snap.Tick, false
		}

		select {
		case <-ticker.C:
		case <-done:
			slog.Info("stream client disconnected")
			return
		case <-r.Context().Done():
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
