package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"rfq/internal"
)

const (
	RunOK     = "ok"
	RunFailed = "failed"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  inputName TEXT NOT NULL,
  inputHash TEXT NOT NULL,
  unitCount INTEGER NOT NULL DEFAULT 0,
  groupCount INTEGER NOT NULL DEFAULT 0,
  outputPath TEXT,
  status TEXT NOT NULL,
  error TEXT,
  timingsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_runs_inputHash ON runs(inputHash);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// InsertRun records one generation attempt.
func (d *DB) InsertRun(run internal.RunRow, timings map[string]float64) (int64, error) {
	timingsJSON, _ := json.Marshal(timings)
	res, err := d.conn.Exec(`
INSERT INTO runs (traceId, inputName, inputHash, unitCount, groupCount, outputPath, status, error, timingsJson)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.TraceID, run.InputName, run.InputHash, run.Units, run.Groups,
		run.OutputPath, run.Status, run.Error, string(timingsJSON),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListRuns returns the most recent runs first.
func (d *DB) ListRuns(limit int) ([]internal.RunRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.conn.Query(`
SELECT id, traceId, inputName, inputHash, unitCount, groupCount,
       COALESCE(outputPath, ''), status, COALESCE(error, ''), createdAt
FROM runs
ORDER BY id DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.RunRow
	for rows.Next() {
		var r internal.RunRow
		if err := rows.Scan(&r.ID, &r.TraceID, &r.InputName, &r.InputHash, &r.Units, &r.Groups,
			&r.OutputPath, &r.Status, &r.Error, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

// HasRun reports whether an input with this content hash was run before.
func (d *DB) HasRun(inputHash string) (bool, error) {
	var n int
	if err := d.conn.QueryRow(`SELECT COUNT(1) FROM runs WHERE inputHash = ?`, inputHash).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}
