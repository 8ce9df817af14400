// Package sqlite persists holiday alert markers in a local SQLite file so a
// holiday alerts at most once per local day across restarts.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/schedule-core/internal/domain/holiday"
	_ "github.com/mattn/go-sqlite3"
)

// AlertMarkerStore implements holiday.AlertMarkerStore.
type AlertMarkerStore struct {
	db *sql.DB
}

var _ holiday.AlertMarkerStore = (*AlertMarkerStore)(nil)

// NewAlertMarkerStore opens the database at path and creates the schema.
// Use ":memory:" for an in-memory database.
func NewAlertMarkerStore(path string) (*AlertMarkerStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open alert marker database: %w", err)
	}
	// Each connection to :memory: is a separate database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &AlertMarkerStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate alert marker database: %w", err)
	}
	return store, nil
}

func (s *AlertMarkerStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS holiday_alert_markers (
		scope TEXT NOT NULL,
		holiday_id TEXT NOT NULL,
		last_alerted_date TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (scope, holiday_id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *AlertMarkerStore) Close() error {
	return s.db.Close()
}

// Claim implements holiday.AlertMarkerStore. The upsert only writes when the
// stored date differs, so the affected row count tells a fresh claim from a
// repeat.
func (s *AlertMarkerStore) Claim(ctx context.Context, scope, holidayID, date string) (bool, error) {
	query := `
		INSERT INTO holiday_alert_markers (scope, holiday_id, last_alerted_date, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (scope, holiday_id) DO UPDATE
		SET last_alerted_date = excluded.last_alerted_date, updated_at = excluded.updated_at
		WHERE holiday_alert_markers.last_alerted_date <> excluded.last_alerted_date
	`
	res, err := s.db.ExecContext(ctx, query, scope, holidayID, date, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return false, fmt.Errorf("failed to claim alert marker: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read alert marker result: %w", err)
	}
	return n == 1, nil
}

// LastAlerted implements holiday.AlertMarkerStore.
func (s *AlertMarkerStore) LastAlerted(ctx context.Context, scope, holidayID string) (string, bool, error) {
	var date string
	err := s.db.QueryRowContext(ctx,
		`SELECT last_alerted_date FROM holiday_alert_markers WHERE scope = ? AND holiday_id = ?`,
		scope, holidayID,
	).Scan(&date)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read alert marker: %w", err)
	}
	return date, true, nil
}
