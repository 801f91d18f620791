package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RecordEvent logs a device notification. ID and Timestamp are filled in
// when empty.
func (d *DB) RecordEvent(ev *DeviceEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	_, err := d.conn.Exec(`
		INSERT INTO device_events (id, session_id, device_id, object_path, event_type, details, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, ev.ID, ev.SessionID, nullString(ev.DeviceID), ev.ObjectPath, ev.EventType, nullString(ev.Details), ev.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}

	return nil
}

// EncodeDetails marshals event details, returning "" for nil or on error
func EncodeDetails(details map[string]interface{}) string {
	if details == nil {
		return ""
	}
	b, err := json.Marshal(details)
	if err != nil {
		return ""
	}
	return string(b)
}

// RecentEvents returns the most recent events across all devices
func (d *DB) RecentEvents(limit int) ([]*DeviceEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := d.conn.Query(`
		SELECT id, session_id, device_id, object_path, event_type, details, timestamp
		FROM device_events
		ORDER BY timestamp DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// DeviceEvents returns the events of one device
func (d *DB) DeviceEvents(deviceID string, limit int) ([]*DeviceEvent, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := d.conn.Query(`
		SELECT id, session_id, device_id, object_path, event_type, details, timestamp
		FROM device_events
		WHERE device_id = ?
		ORDER BY timestamp DESC
		LIMIT ?
	`, deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query device events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]*DeviceEvent, error) {
	var events []*DeviceEvent
	for rows.Next() {
		var event DeviceEvent
		var deviceID, details sql.NullString

		err := rows.Scan(
			&event.ID, &event.SessionID, &deviceID,
			&event.ObjectPath, &event.EventType, &details, &event.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		event.DeviceID = deviceID.String
		event.Details = details.String
		events = append(events, &event)
	}

	return events, rows.Err()
}
