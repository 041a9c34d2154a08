// Package monitoring records one-line request telemetry: a zerolog access
// log entry for every request, plus an optional durable ring of recent
// entries for process-restart continuity.
//
// Grounded on Compresr-ai-Context-Gateway's internal/monitoring telemetry
// tracker (structured event recording with a guarded sync.Mutex) and
// lodos2005-antimatter's internal/database (modernc.org/sqlite opened via
// database/sql, schema created on InitDB) — generalized from "request_logs
// with prompt/tokens" to "access_log with method/path/status/latency", per
// the Non-goal against body logging.
package monitoring

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
	"github.com/rs/zerolog/log"
)

// AccessLogEntry is one request's worth of telemetry.
type AccessLogEntry struct {
	Timestamp time.Time
	Method    string
	Path      string
	Status    int
	LatencyMs int64
}

// AccessLog writes a zerolog line per request and, when backed by a
// *sql.DB, a row to access_log for restart continuity. A nil db disables
// the durable ring; the zerolog line is always emitted.
type AccessLog struct {
	db *sql.DB
}

// NewAccessLog opens (or creates) the sqlite-backed ring at path. An empty
// path disables the durable ring entirely — only the zerolog line is kept.
func NewAccessLog(path string) (*AccessLog, error) {
	if path == "" {
		return &AccessLog{}, nil
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("monitoring: open access log db: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("monitoring: ping access log db: %w", err)
	}
	const schema = `
	CREATE TABLE IF NOT EXISTS access_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts DATETIME NOT NULL,
		method TEXT NOT NULL,
		path TEXT NOT NULL,
		status INTEGER NOT NULL,
		latency_ms INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_access_log_ts ON access_log(ts);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("monitoring: create access_log table: %w", err)
	}
	return &AccessLog{db: db}, nil
}

// Record emits the zerolog line and, if durable, persists the row. Persist
// failures are logged but never fail the request they describe.
func (a *AccessLog) Record(entry AccessLogEntry) {
	log.Info().
		Str("method", entry.Method).
		Str("path", entry.Path).
		Int("status", entry.Status).
		Int64("latency_ms", entry.LatencyMs).
		Msg("access")

	if a == nil || a.db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO access_log (ts, method, path, status, latency_ms) VALUES (?, ?, ?, ?, ?)`,
		entry.Timestamp, entry.Method, entry.Path, entry.Status, entry.LatencyMs)
	if err != nil {
		log.Warn().Err(err).Msg("monitoring: failed to persist access log entry")
	}
}

// Recent returns the last n entries, newest first, from the durable ring.
// Returns an empty slice (never an error) when no durable ring is
// configured.
func (a *AccessLog) Recent(ctx context.Context, n int) ([]AccessLogEntry, error) {
	if a == nil || a.db == nil {
		return nil, nil
	}
	rows, err := a.db.QueryContext(ctx,
		`SELECT ts, method, path, status, latency_ms FROM access_log ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("monitoring: query access log: %w", err)
	}
	defer rows.Close()

	var out []AccessLogEntry
	for rows.Next() {
		var e AccessLogEntry
		if err := rows.Scan(&e.Timestamp, &e.Method, &e.Path, &e.Status, &e.LatencyMs); err != nil {
			return nil, fmt.Errorf("monitoring: scan access log row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close releases the underlying database handle, if any.
func (a *AccessLog) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}
