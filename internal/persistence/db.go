// Package persistence provides a SQLite run journal: one row per simulation
// run plus its notable events. Journals are written for later inspection and
// are never loaded back into a simulation.
package persistence

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/forage/internal/engine"
)

// DB wraps a SQLite connection for the run journal.
type DB struct {
	conn *sqlx.DB
}

// Run is one journaled simulation run.
type Run struct {
	ID         string `db:"id" json:"id"`
	Seed       int64  `db:"seed" json:"seed"`
	Width      int    `db:"width" json:"width"`
	Height     int    `db:"height" json:"height"`
	Agents     int    `db:"agents" json:"agents"`
	Food       int    `db:"food" json:"food"`
	StartedAt  int64  `db:"started_at" json:"started_at"` // Unix seconds
	EndedAt    int64  `db:"ended_at" json:"ended_at"`     // Unix seconds, 0 while running
	Ticks      uint64 `db:"ticks" json:"ticks"`
	Meals      int    `db:"meals" json:"meals"`
	Deaths     int    `db:"deaths" json:"deaths"`
	Survivors  int    `db:"survivors" json:"survivors"`
	Replans    int    `db:"replans" json:"replans"`
	Repairs    int    `db:"repairs" json:"repairs"`
	FoodSpawns int    `db:"food_spawns" json:"food_spawns"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		agents INTEGER NOT NULL,
		food INTEGER NOT NULL,
		started_at INTEGER NOT NULL,
		ended_at INTEGER NOT NULL DEFAULT 0,
		ticks INTEGER NOT NULL DEFAULT 0,
		meals INTEGER NOT NULL DEFAULT 0,
		deaths INTEGER NOT NULL DEFAULT 0,
		survivors INTEGER NOT NULL DEFAULT 0,
		replans INTEGER NOT NULL DEFAULT 0,
		repairs INTEGER NOT NULL DEFAULT 0,
		food_spawns INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_run_tick ON events(run_id, tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// BeginRun records the start of a run and returns its id.
func (db *DB) BeginRun(seed int64, width, height, agents, food int) (string, error) {
	id := uuid.NewString()
	_, err := db.conn.Exec(`INSERT INTO runs
		(id, seed, width, height, agents, food, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, seed, width, height, agents, food, time.Now().Unix(),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// SaveEvents appends events to a run.
func (db *DB) SaveEvents(runID string, events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex("INSERT INTO events (run_id, tick, description, category) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.Exec(runID, e.Tick, e.Description, e.Category); err != nil {
			return fmt.Errorf("insert event at tick %d: %w", e.Tick, err)
		}
	}

	return tx.Commit()
}

// FinishRun stores the final tick and statistics of a run.
func (db *DB) FinishRun(runID string, tick uint64, stats engine.SimStats) error {
	res, err := db.conn.Exec(`UPDATE runs SET
		ended_at = ?, ticks = ?, meals = ?, deaths = ?, survivors = ?,
		replans = ?, repairs = ?, food_spawns = ?
		WHERE id = ?`,
		time.Now().Unix(), tick, stats.Meals, stats.Deaths, stats.Alive,
		stats.Replans, stats.Repairs, stats.FoodSpawns, runID,
	)
	if err != nil {
		return fmt.Errorf("update run %s: %w", runID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update run %s: no such run", runID)
	}
	slog.Info("run journaled", "run", runID, "ticks", tick, "meals", stats.Meals, "deaths", stats.Deaths)
	return nil
}

// GetRun returns one run.
func (db *DB) GetRun(runID string) (Run, error) {
	var run Run
	err := db.conn.Get(&run, "SELECT * FROM runs WHERE id = ?", runID)
	return run, err
}

// ListRuns returns the most recently started runs.
func (db *DB) ListRuns(limit int) ([]Run, error) {
	var runs []Run
	err := db.conn.Select(&runs, "SELECT * FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?", limit)
	return runs, err
}

// RecentEvents returns the most recent N events of a run, newest first.
func (db *DB) RecentEvents(runID string, limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		"SELECT tick, description, category FROM events WHERE run_id = ? ORDER BY id DESC LIMIT ?",
		runID, limit,
	)
	return events, err
}
