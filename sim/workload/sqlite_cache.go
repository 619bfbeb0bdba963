package workload

import (
	"database/sql"
	"encoding/json"
	"fmt"

	// Pure-Go SQLite driver, registered as "sqlite".
	_ "github.com/glebarez/go-sqlite"

	"github.com/taegyunkim/denarii/sim"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS trace_meta (
	key   TEXT    NOT NULL,
	run   INTEGER NOT NULL,
	ticks INTEGER NOT NULL,
	PRIMARY KEY (key, run)
);
CREATE TABLE IF NOT EXISTS traces (
	key               TEXT    NOT NULL,
	run               INTEGER NOT NULL,
	tick              INTEGER NOT NULL,
	id                INTEGER NOT NULL,
	required_progress REAL    NOT NULL,
	demand            TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS traces_key_run ON traces (key, run, tick, id);
`

// SQLiteCache stores traces in a SQLite database, one row per arrival.
// Demand vectors are stored as JSON arrays.
type SQLiteCache struct {
	*sql.DB
}

// NewSQLiteCache opens (or creates) the database at path.
func NewSQLiteCache(path string) (*SQLiteCache, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite trace cache requires a database path")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening trace database: %w", err)
	}
	// One writer at a time; SQLite serializes anyway.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating trace tables: %w", err)
	}
	return &SQLiteCache{DB: db}, nil
}

// Load reads every run stored under key. A key without all MaxRuns runs is a miss.
func (c *SQLiteCache) Load(key TraceKey) ([]Trace, bool, error) {
	k := key.String()

	rows, err := c.Query(`SELECT run, ticks FROM trace_meta WHERE key = ? ORDER BY run`, k)
	if err != nil {
		return nil, false, fmt.Errorf("querying trace metadata: %w", err)
	}
	var traces []Trace
	for rows.Next() {
		var run, ticks int
		if err := rows.Scan(&run, &ticks); err != nil {
			rows.Close()
			return nil, false, fmt.Errorf("scanning trace metadata: %w", err)
		}
		if run != len(traces) {
			rows.Close()
			return nil, false, nil
		}
		traces = append(traces, make(Trace, ticks))
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("reading trace metadata: %w", err)
	}
	if len(traces) < MaxRuns {
		return nil, false, nil
	}

	rows, err = c.Query(`SELECT run, tick, id, required_progress, demand FROM traces
		WHERE key = ? ORDER BY run, tick, id`, k)
	if err != nil {
		return nil, false, fmt.Errorf("querying traces: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			run, tick  int
			a          sim.Arrival
			demandJSON string
		)
		if err := rows.Scan(&run, &tick, &a.ID, &a.RequiredProgress, &demandJSON); err != nil {
			return nil, false, fmt.Errorf("scanning trace row: %w", err)
		}
		if run >= len(traces) || tick >= len(traces[run]) {
			return nil, false, fmt.Errorf("trace row run %d tick %d outside stored bounds", run, tick)
		}
		if err := json.Unmarshal([]byte(demandJSON), &a.Demand); err != nil {
			return nil, false, fmt.Errorf("decoding demand of arrival %d: %w", a.ID, err)
		}
		traces[run][tick] = append(traces[run][tick], a)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("reading traces: %w", err)
	}
	return traces, true, nil
}

// Store replaces everything stored under key within one transaction.
func (c *SQLiteCache) Store(key TraceKey, traces []Trace) (err error) {
	k := key.String()
	tx, err := c.Begin()
	if err != nil {
		return fmt.Errorf("beginning trace transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.Exec(`DELETE FROM traces WHERE key = ?`, k); err != nil {
		return fmt.Errorf("clearing traces: %w", err)
	}
	if _, err = tx.Exec(`DELETE FROM trace_meta WHERE key = ?`, k); err != nil {
		return fmt.Errorf("clearing trace metadata: %w", err)
	}

	metaStmt, err := tx.Prepare(`INSERT INTO trace_meta (key, run, ticks) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing metadata insert: %w", err)
	}
	defer metaStmt.Close()
	rowStmt, err := tx.Prepare(`INSERT INTO traces (key, run, tick, id, required_progress, demand)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing trace insert: %w", err)
	}
	defer rowStmt.Close()

	for run, tr := range traces {
		if _, err = metaStmt.Exec(k, run, len(tr)); err != nil {
			return fmt.Errorf("inserting metadata for run %d: %w", run, err)
		}
		for tick, group := range tr {
			for _, a := range group {
				demandJSON, err := json.Marshal(a.Demand)
				if err != nil {
					return fmt.Errorf("encoding demand of arrival %d: %w", a.ID, err)
				}
				if _, err := rowStmt.Exec(k, run, tick, a.ID, a.RequiredProgress, string(demandJSON)); err != nil {
					return fmt.Errorf("inserting arrival %d: %w", a.ID, err)
				}
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing traces: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (c *SQLiteCache) Close() error {
	return c.DB.Close()
}
