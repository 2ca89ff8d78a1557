// Package observability records gateway events (lifecycle transitions,
// dispatched operations) in a local SQLite database.
//
// Recording is best-effort and non-blocking: a failing observability store
// logs via slog but never propagates an error into the request path.
package observability

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const schema = `
CREATE TABLE IF NOT EXISTS gateway_event_logs (
	event_id   TEXT PRIMARY KEY,
	event_type TEXT NOT NULL,
	session_id TEXT NOT NULL,
	target     TEXT NOT NULL DEFAULT '',
	method     TEXT NOT NULL DEFAULT '',
	detail     TEXT NOT NULL DEFAULT '',
	success    INTEGER NOT NULL DEFAULT 1,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_gateway_event_logs_created
	ON gateway_event_logs(created_at);
`

// Event is one recorded gateway event.
type Event struct {
	EventType string // "lifecycle" or "dispatch"
	SessionID string
	Target    string // target kind for dispatch events
	Method    string // method or signal name
	Detail    string
	Success   bool
}

// EventLogger writes gateway events and manages retention cleanup.
type EventLogger struct {
	db *sql.DB
}

// NewEventLogger creates a logger backed by the given database and applies
// the schema.
func NewEventLogger(db *sql.DB) (*EventLogger, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("observability: init schema: %w", err)
	}
	return &EventLogger{db: db}, nil
}

// LogEvent records an event. Errors are logged via slog and swallowed.
func (l *EventLogger) LogEvent(ctx context.Context, event Event) {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO gateway_event_logs (
			event_id, event_type, session_id, target, method, detail, success, created_at
		) VALUES (?,?,?,?,?,?,?,?)`,
		"evt_"+uuid.NewString(), event.EventType, event.SessionID,
		event.Target, event.Method, event.Detail, event.Success, time.Now().Unix())
	if err != nil {
		slog.Error("observability event log failed",
			"error", err, "event_type", event.EventType, "method", event.Method)
	}
}

// Lifecycle records a session lifecycle signal. Satisfies session.Recorder.
func (l *EventLogger) Lifecycle(sessionID, signal, detail string) {
	l.LogEvent(context.Background(), Event{
		EventType: "lifecycle",
		SessionID: sessionID,
		Method:    signal,
		Detail:    detail,
		Success:   true,
	})
}

// Dispatch records one dispatched operation and its outcome.
func (l *EventLogger) Dispatch(ctx context.Context, sessionID, target, method string, err error) {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	l.LogEvent(ctx, Event{
		EventType: "dispatch",
		SessionID: sessionID,
		Target:    target,
		Method:    method,
		Detail:    detail,
		Success:   err == nil,
	})
}

// Cleanup deletes events older than the retention threshold. Zero days
// means no cleanup.
func Cleanup(ctx context.Context, db *sql.DB, retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().Unix() - int64(retentionDays*86400)
	if _, err := db.ExecContext(ctx,
		`DELETE FROM gateway_event_logs WHERE created_at < ?`, cutoff); err != nil {
		return fmt.Errorf("observability: cleanup: %w", err)
	}
	return nil
}
