package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
	path string
}

// New opens or creates the SQLite database at the given path
func New(path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("no database path given")
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys and WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	db := &DB{conn: conn, path: path}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.conn.Close()
}

// Path returns the database file path
func (d *DB) Path() string {
	return d.path
}

// migrate runs the database schema migrations
func (d *DB) migrate() error {
	// Create schema version table
	_, err := d.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	// Get current version
	var version int
	err = d.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return err
	}

	// Run migrations
	migrations := []string{
		migrationV1,
		migrationV2,
	}

	for i, migration := range migrations {
		v := i + 1
		if v <= version {
			continue
		}

		tx, err := d.conn.Begin()
		if err != nil {
			return err
		}

		if _, err := tx.Exec(migration); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration v%d failed: %w", v, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", v); err != nil {
			tx.Rollback()
			return err
		}

		if err := tx.Commit(); err != nil {
			return err
		}
	}

	return nil
}

// migrationV1 creates the device inventory and its event history
const migrationV1 = `
-- Every player that was ever built into a device
CREATE TABLE IF NOT EXISTS devices (
    id INTEGER PRIMARY KEY,
    device_id TEXT UNIQUE NOT NULL,
    name TEXT,
    class TEXT,
    protocol TEXT,
    last_path TEXT,
    first_seen TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    last_seen TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_devices_device_id ON devices(device_id);

-- Added/removed/ejected notifications, one row per notification
CREATE TABLE IF NOT EXISTS device_events (
    id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    device_id TEXT,
    object_path TEXT NOT NULL,
    event_type TEXT NOT NULL,
    details TEXT,
    timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_events_device ON device_events(device_id);
CREATE INDEX IF NOT EXISTS idx_events_time ON device_events(timestamp);
CREATE INDEX IF NOT EXISTS idx_events_session ON device_events(session_id);
`

// migrationV2 adds per-device settings
const migrationV2 = `
CREATE TABLE IF NOT EXISTS device_settings (
    device_id TEXT NOT NULL,
    key TEXT NOT NULL,
    value TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (device_id, key)
);
`

// DeviceRecord represents a device in the database
type DeviceRecord struct {
	ID        int64     `json:"-"`
	DeviceID  string    `json:"device_id"`
	Name      string    `json:"name,omitempty"`
	Class     string    `json:"class,omitempty"`
	Protocol  string    `json:"protocol,omitempty"`
	LastPath  string    `json:"last_path,omitempty"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// DeviceEvent represents one recorded notification
type DeviceEvent struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	DeviceID   string    `json:"device_id,omitempty"`
	ObjectPath string    `json:"object_path"`
	EventType  string    `json:"event_type"`
	Details    string    `json:"details,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Event types
const (
	EventAdded       = "added"
	EventSeen        = "seen"
	EventRemoved     = "removed"
	EventEjected     = "ejected"
	EventEjectFailed = "eject_failed"
)

// Device settings keys
const (
	SettingName = "name"
)

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
