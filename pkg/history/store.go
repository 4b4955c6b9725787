package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS routing_events (
	id         TEXT PRIMARY KEY,
	time       INTEGER NOT NULL,
	type       TEXT NOT NULL,
	endpoint   TEXT NOT NULL DEFAULT '',
	generation INTEGER NOT NULL,
	detail     TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_routing_events_time ON routing_events(time);
`

// Store persists routing events in SQLite. It is safe for concurrent use;
// writes from the request path go through a single *sql.DB with WAL enabled
// so they never block status reads for long.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	insertStmt *sql.Stmt
	recentStmt *sql.Stmt
	pruneStmt  *sql.Stmt

	closeOnce sync.Once
}

// Open opens (creating if necessary) the event store at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database %q: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply history schema: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger.With("component", "history.store"),
	}
	if err := s.prepare(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) prepare() error {
	var err error
	s.insertStmt, err = s.db.Prepare(
		`INSERT INTO routing_events (id, time, type, endpoint, generation, detail) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	s.recentStmt, err = s.db.Prepare(
		`SELECT id, time, type, endpoint, generation, detail FROM routing_events ORDER BY time DESC, id LIMIT ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare recent statement: %w", err)
	}
	s.pruneStmt, err = s.db.Prepare(
		`DELETE FROM routing_events WHERE time < ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare prune statement: %w", err)
	}
	return nil
}

// Record persists one event. A zero ID or Time is filled in.
func (s *Store) Record(ctx context.Context, ev Event) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	_, err := s.insertStmt.ExecContext(ctx,
		ev.ID, ev.Time.UnixMilli(), string(ev.Type), ev.Endpoint, ev.Generation, ev.Detail)
	if err != nil {
		return fmt.Errorf("failed to record %s event: %w", ev.Type, err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.recentStmt.QueryContext(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var ms int64
		var typ string
		if err := rows.Scan(&ev.ID, &ms, &typ, &ev.Endpoint, &ev.Generation, &ev.Detail); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		ev.Time = time.UnixMilli(ms)
		ev.Type = EventType(typ)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Prune deletes events older than cutoff and returns the number removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.pruneStmt.ExecContext(ctx, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune events: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info("pruned routing events", "deleted", deleted, "cutoff", cutoff)
	}
	return deleted, nil
}

// Close closes the store.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		for _, stmt := range []*sql.Stmt{s.insertStmt, s.recentStmt, s.pruneStmt} {
			if stmt != nil {
				stmt.Close()
			}
		}
		err = s.db.Close()
	})
	return err
}
