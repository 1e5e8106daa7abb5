// Package storage provides SQLite-backed persistence for alert history and
// per-symbol cooldown checkpoints.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/davidhoang101/Bot-FuVol-Signal-Alert/internal/models"
)

// Storage wraps a SQLite database for all persistence operations.
type Storage struct {
	db        *sql.DB
	maxAlerts int
}

// New opens or creates the SQLite database at dbPath.
// An empty dbPath defaults to $TMPDIR/fuvol/data.db.
func New(maxAlerts int, dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = filepath.Join(os.TempDir(), "fuvol", "data.db")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}
	s := &Storage{db: db, maxAlerts: maxAlerts}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cooldowns (
			symbol        TEXT PRIMARY KEY,
			last_alert_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS alerts (
			id              TEXT PRIMARY KEY,
			symbol          TEXT NOT NULL,
			current_volume  REAL NOT NULL,
			baseline_volume REAL NOT NULL,
			spike_ratio     REAL NOT NULL,
			confirmed_at    INTEGER NOT NULL,
			created_at      INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_confirmed_at ON alerts(confirmed_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_alerts_symbol ON alerts(symbol)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveCooldowns upserts the per-symbol cooldown anchors in one transaction.
func (s *Storage) SaveCooldowns(cooldowns map[string]time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO cooldowns (symbol, last_alert_at) VALUES (?,?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare cooldown upsert: %w", err)
	}
	defer stmt.Close()

	for symbol, t := range cooldowns {
		if _, err := stmt.Exec(symbol, t.UnixNano()); err != nil {
			return fmt.Errorf("failed to save cooldown for %s: %w", symbol, err)
		}
	}
	return tx.Commit()
}

// LoadCooldowns returns all persisted per-symbol cooldown anchors.
func (s *Storage) LoadCooldowns() (map[string]time.Time, error) {
	rows, err := s.db.Query(`SELECT symbol, last_alert_at FROM cooldowns`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cooldowns: %w", err)
	}
	defer rows.Close()

	cooldowns := make(map[string]time.Time)
	for rows.Next() {
		var symbol string
		var lastAlertNano int64
		if err := rows.Scan(&symbol, &lastAlertNano); err != nil {
			return nil, fmt.Errorf("failed to scan cooldown: %w", err)
		}
		cooldowns[symbol] = time.Unix(0, lastAlertNano)
	}
	return cooldowns, rows.Err()
}

// AddAlert appends an emitted alert to the log and rotates the log down to
// the configured cap.
func (s *Storage) AddAlert(alert *models.AlertEvent) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(`
		INSERT INTO alerts
			(id, symbol, current_volume, baseline_volume, spike_ratio, confirmed_at, created_at)
		VALUES (?,?,?,?,?,?,?)`,
		uuid.NewString(), alert.Symbol,
		alert.CurrentVolume, alert.BaselineVolume, alert.SpikeRatio,
		alert.ConfirmedAt.UnixNano(), time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}

	if _, err = tx.Exec(`
		DELETE FROM alerts WHERE id NOT IN (
			SELECT id FROM alerts ORDER BY confirmed_at DESC LIMIT ?
		)`, s.maxAlerts); err != nil {
		return fmt.Errorf("failed to enforce alert cap: %w", err)
	}

	return tx.Commit()
}

// RecentAlerts returns up to k alerts, newest first.
func (s *Storage) RecentAlerts(k int) ([]models.AlertEvent, error) {
	rows, err := s.db.Query(`
		SELECT symbol, current_volume, baseline_volume, spike_ratio, confirmed_at
		FROM alerts ORDER BY confirmed_at DESC LIMIT ?`, k)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.AlertEvent
	for rows.Next() {
		var a models.AlertEvent
		var confirmedAtNano int64
		if err := rows.Scan(&a.Symbol, &a.CurrentVolume, &a.BaselineVolume, &a.SpikeRatio, &confirmedAtNano); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		a.ConfirmedAt = time.Unix(0, confirmedAtNano)
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
