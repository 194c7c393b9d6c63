// Package ledger records an observational history of runs and node
// executions. The ledger is metadata only: it never short-circuits a run
// by replaying a past result, it just remembers that the run happened.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure-Go sqlite3 driver
)

// Status is a run or node-run outcome.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one run_pipeline invocation's ledger row.
type Run struct {
	ID         string
	Pipeline   string
	Status     Status
	StartedAt  time.Time
	FinishedAt sql.NullTime
	Error      sql.NullString
}

// NodeRun is one node's execution within a Run.
type NodeRun struct {
	ID         string
	RunID      string
	NodeName   string
	Status     Status
	StartedAt  time.Time
	FinishedAt sql.NullTime
	Error      sql.NullString
}

// Ledger wraps a SQLite connection holding the run/node_run history.
type Ledger struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens (creating if needed) the ledger database at path and applies
// pending migrations. Use ":memory:" for an ephemeral, process-local
// ledger (useful for tests and one-off `run` invocations that don't care
// about history).
func Open(path string, logger *slog.Logger) (*Ledger, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open ledger database: %w", err)
	}
	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping ledger database: %w", err)
	}

	l := &Ledger{db: db, path: path, logger: logger}
	if err := l.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

// Close releases the underlying connection.
func (l *Ledger) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

// StartRun inserts a new running Run row and returns its id.
func (l *Ledger) StartRun(ctx context.Context, pipelineName string) (string, error) {
	id := uuid.NewString()
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (id, pipeline, status, started_at) VALUES (?, ?, ?, ?)`,
		id, pipelineName, string(StatusRunning), time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("start run: %w", err)
	}
	l.logger.Debug("ledger: run started", "run_id", id, "pipeline", pipelineName)
	return id, nil
}

// FinishRun marks runID with a terminal status and optional error message.
func (l *Ledger) FinishRun(ctx context.Context, runID string, status Status, runErr error) error {
	var errMsg sql.NullString
	if runErr != nil {
		errMsg = sql.NullString{String: runErr.Error(), Valid: true}
	}
	_, err := l.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = ?, error = ? WHERE id = ?`,
		string(status), time.Now().UTC(), errMsg, runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// StartNodeRun inserts a running NodeRun row and returns its id.
func (l *Ledger) StartNodeRun(ctx context.Context, runID, nodeName string) (string, error) {
	id := uuid.NewString()
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO node_runs (id, run_id, node_name, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, runID, nodeName, string(StatusRunning), time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("start node run: %w", err)
	}
	return id, nil
}

// FinishNodeRun marks a node-run row with a terminal status.
func (l *Ledger) FinishNodeRun(ctx context.Context, nodeRunID string, status Status, nodeErr error) error {
	var errMsg sql.NullString
	if nodeErr != nil {
		errMsg = sql.NullString{String: nodeErr.Error(), Valid: true}
	}
	_, err := l.db.ExecContext(ctx,
		`UPDATE node_runs SET status = ?, finished_at = ?, error = ? WHERE id = ?`,
		string(status), time.Now().UTC(), errMsg, nodeRunID)
	if err != nil {
		return fmt.Errorf("finish node run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first, for the `flowcraft
// history` diagnostic view.
func (l *Ledger) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, pipeline, status, started_at, finished_at, error FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Pipeline, &r.Status, &r.StartedAt, &r.FinishedAt, &r.Error); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// NodeRunsForRun returns every node-run row belonging to runID, in
// execution order.
func (l *Ledger) NodeRunsForRun(ctx context.Context, runID string) ([]NodeRun, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, run_id, node_name, status, started_at, finished_at, error FROM node_runs WHERE run_id = ? ORDER BY started_at ASC`,
		runID)
	if err != nil {
		return nil, fmt.Errorf("list node runs: %w", err)
	}
	defer rows.Close()

	var out []NodeRun
	for rows.Next() {
		var nr NodeRun
		if err := rows.Scan(&nr.ID, &nr.RunID, &nr.NodeName, &nr.Status, &nr.StartedAt, &nr.FinishedAt, &nr.Error); err != nil {
			return nil, fmt.Errorf("scan node run: %w", err)
		}
		out = append(out, nr)
	}
	return out, rows.Err()
}
