// Package history persists closed notifications to a sqlite database
// so the daemon can back its "persistence" capability. Only closed,
// non-transient notifications are recorded; the live table never
// touches disk.
package history

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/fullzer4/dusty/internal/notification"
)

const (
	appName    = "dusty"
	dbFileName = "dusty.db"
)

// Entry is one recorded notification.
type Entry struct {
	ID       int64
	AppName  string
	Summary  string
	Body     string
	Urgency  notification.Urgency
	Reason   notification.CloseReason
	ClosedAt time.Time
}

// Store writes closed notifications to sqlite. Safe for concurrent use;
// database/sql serializes access.
type Store struct {
	db         *sql.DB
	maxEntries int
	log        zerolog.Logger
}

// Open creates or opens the history database at the xdg data path.
// maxEntries caps the table size; 0 means unlimited.
func Open(maxEntries int, log zerolog.Logger) (*Store, error) {
	dbPath, err := xdg.DataFile(filepath.Join(appName, dbFileName))
	if err != nil {
		return nil, fmt.Errorf("resolving history path: %w", err)
	}
	return OpenPath(dbPath, maxEntries, log)
}

// OpenPath opens the history database at an explicit path.
func OpenPath(path string, maxEntries int, log zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, maxEntries: maxEntries, log: log}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS notifications (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			app_name TEXT NOT NULL,
			summary TEXT NOT NULL,
			body TEXT NOT NULL,
			urgency INTEGER NOT NULL,
			reason INTEGER NOT NULL,
			closed_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_notifications_closed_at
			ON notifications(closed_at);
	`)
	if err != nil {
		return fmt.Errorf("initializing history schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores one closed notification and prunes the oldest rows past
// the configured cap. Implements the engine's History interface; a
// failed write must not disturb notification delivery, so errors are
// logged for the operator instead of propagated.
func (s *Store) Record(n notification.Notification, reason notification.CloseReason) {
	_, err := s.db.Exec(`
		INSERT INTO notifications (app_name, summary, body, urgency, reason, closed_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		n.AppName, n.Summary, n.Body, int(n.Urgency), int(reason), time.Now().Unix(),
	)
	if err != nil {
		s.log.Warn().Err(err).Uint32("id", n.ID).Msg("recording notification history")
		return
	}
	if s.maxEntries > 0 {
		_, err := s.db.Exec(`
			DELETE FROM notifications WHERE id NOT IN (
				SELECT id FROM notifications ORDER BY id DESC LIMIT ?
			)`, s.maxEntries)
		if err != nil {
			s.log.Warn().Err(err).Msg("pruning notification history")
		}
	}
}

// Recent returns the latest n entries, newest first.
func (s *Store) Recent(n int) ([]Entry, error) {
	rows, err := s.db.Query(`
		SELECT id, app_name, summary, body, urgency, reason, closed_at
		FROM notifications ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e        Entry
			urgency  int
			reason   int
			closedAt int64
		)
		if err := rows.Scan(&e.ID, &e.AppName, &e.Summary, &e.Body, &urgency, &reason, &closedAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		e.Urgency = notification.Urgency(urgency)
		e.Reason = notification.CloseReason(reason)
		e.ClosedAt = time.Unix(closedAt, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of stored entries.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM notifications`).Scan(&n)
	return n, err
}
