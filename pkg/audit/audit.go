// Package audit records task and agent lifecycle events in an append-only
// SQLite log next to the record stores. The log is observational: the
// record stores remain authoritative, and no store mutation is ever
// rolled back because an audit write failed.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Event types recorded by the coordination substrate.
const (
	EventTaskCreated       = "task_created"
	EventTaskClaimed       = "task_claimed"
	EventTaskCompleted     = "task_completed"
	EventTaskFailed        = "task_failed"
	EventTaskSwept         = "task_swept"
	EventAgentRegistered   = "agent_registered"
	EventAgentInactive     = "agent_inactive"
	EventEscalationCreated = "escalation_created"
	EventEscalationCapped  = "escalation_capped"
)

// schemaDDL defines the audit schema. Execute with db.Exec(schemaDDL).
const schemaDDL = `
CREATE TABLE IF NOT EXISTS events (
    id INTEGER PRIMARY KEY,
    type TEXT NOT NULL,
    source TEXT NOT NULL,
    task_id TEXT,
    agent_id TEXT,
    payload TEXT,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS events_task_idx ON events(task_id);
CREATE INDEX IF NOT EXISTS events_agent_idx ON events(agent_id);
`

// Event is one row of the audit log.
type Event struct {
	ID        int64
	Type      string
	Source    string // the agent that caused the event
	TaskID    string
	AgentID   string // the agent the event is about, when distinct from Source
	Payload   string // free-form JSON detail
	CreatedAt time.Time
}

// Log is an open audit log.
type Log struct {
	db *sql.DB

	nowFunc func() time.Time
}

// Open opens (or creates) the audit log at path with production-safe
// SQLite defaults: WAL journal mode and a 5-second busy timeout.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open audit db %s: %w", path, err)
	}

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping audit db %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode on %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout on %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init audit schema: %w", err)
	}

	return &Log{db: db, nowFunc: time.Now}, nil
}

// SetNowFunc overrides the clock. Test hook.
func (l *Log) SetNowFunc(fn func() time.Time) { l.nowFunc = fn }

// Close releases the database connection. Safe to call on a nil Log.
func (l *Log) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Record appends an event. Safe to call on a nil Log (no-op), so callers
// can treat the audit log as optional wiring.
func (l *Log) Record(ctx context.Context, ev Event) error {
	if l == nil {
		return nil
	}
	createdAt := ev.CreatedAt
	if createdAt.IsZero() {
		createdAt = l.nowFunc()
	}
	_, err := l.db.ExecContext(ctx,
		"INSERT INTO events (type, source, task_id, agent_id, payload, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		ev.Type, ev.Source, ev.TaskID, ev.AgentID, ev.Payload,
		createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record audit event: %w", err)
	}
	return nil
}
