package observability

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLogEventAndLifecycle(t *testing.T) {
	db := setupTestDB(t)
	l, err := NewEventLogger(db)
	if err != nil {
		t.Fatal(err)
	}

	l.Lifecycle("s1", "ready", "")
	l.Dispatch(context.Background(), "s1", "chat", "archive", nil)

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM gateway_event_logs`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("rows = %d, want 2", n)
	}

	var method string
	var success int
	err = db.QueryRow(`SELECT method, success FROM gateway_event_logs
		WHERE event_type = 'lifecycle'`).Scan(&method, &success)
	if err != nil {
		t.Fatal(err)
	}
	if method != "ready" || success != 1 {
		t.Fatalf("method=%q success=%d", method, success)
	}
}

func TestDispatchRecordsFailure(t *testing.T) {
	db := setupTestDB(t)
	l, err := NewEventLogger(db)
	if err != nil {
		t.Fatal(err)
	}
	l.Dispatch(context.Background(), "s1", "chat", "archive", context.DeadlineExceeded)

	var detail string
	var success int
	if err := db.QueryRow(`SELECT detail, success FROM gateway_event_logs`).Scan(&detail, &success); err != nil {
		t.Fatal(err)
	}
	if success != 0 || detail == "" {
		t.Fatalf("detail=%q success=%d", detail, success)
	}
}

func TestCleanup(t *testing.T) {
	db := setupTestDB(t)
	l, err := NewEventLogger(db)
	if err != nil {
		t.Fatal(err)
	}
	l.Lifecycle("s1", "ready", "")

	// Age the row past the retention window.
	if _, err := db.Exec(`UPDATE gateway_event_logs SET created_at = created_at - 10*86400`); err != nil {
		t.Fatal(err)
	}
	if err := Cleanup(context.Background(), db, 7); err != nil {
		t.Fatal(err)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM gateway_event_logs`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("rows after cleanup = %d, want 0", n)
	}
}
