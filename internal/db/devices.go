package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// UpsertDevice inserts or updates a device record
func (d *DB) UpsertDevice(dev *DeviceRecord) error {
	now := time.Now().UTC()

	_, err := d.conn.Exec(`
		INSERT INTO devices (device_id, name, class, protocol, last_path, first_seen, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(device_id) DO UPDATE SET
			name = COALESCE(excluded.name, name),
			class = COALESCE(excluded.class, class),
			protocol = COALESCE(excluded.protocol, protocol),
			last_path = COALESCE(excluded.last_path, last_path),
			last_seen = excluded.last_seen
	`,
		dev.DeviceID, nullString(dev.Name), nullString(dev.Class), nullString(dev.Protocol),
		nullString(dev.LastPath), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert device: %w", err)
	}

	existing, err := d.GetDevice(dev.DeviceID)
	if err != nil {
		return err
	}
	if existing != nil {
		*dev = *existing
	}
	return nil
}

// GetDevice returns a device by its id, or nil if it was never seen
func (d *DB) GetDevice(deviceID string) (*DeviceRecord, error) {
	row := d.conn.QueryRow(`
		SELECT id, device_id, name, class, protocol, last_path, first_seen, last_seen
		FROM devices WHERE device_id = ?
	`, deviceID)

	rec, err := scanDevice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}
	return rec, nil
}

// ListDevices returns every known device, most recently seen first
func (d *DB) ListDevices() ([]*DeviceRecord, error) {
	rows, err := d.conn.Query(`
		SELECT id, device_id, name, class, protocol, last_path, first_seen, last_seen
		FROM devices
		ORDER BY last_seen DESC, device_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer rows.Close()

	var devices []*DeviceRecord
	for rows.Next() {
		rec, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, rec)
	}
	return devices, rows.Err()
}

// SetDeviceSetting stores one setting for a device
func (d *DB) SetDeviceSetting(deviceID, key, value string) error {
	_, err := d.conn.Exec(`
		INSERT INTO device_settings (device_id, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(device_id, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, deviceID, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set %s for %s: %w", key, deviceID, err)
	}
	return nil
}

// DeviceSetting reads one setting; ok is false if it was never set
func (d *DB) DeviceSetting(deviceID, key string) (value string, ok bool, err error) {
	err = d.conn.QueryRow(
		"SELECT value FROM device_settings WHERE device_id = ? AND key = ?",
		deviceID, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s for %s: %w", key, deviceID, err)
	}
	return value, true, nil
}

// DeviceSettings returns every setting of a device
func (d *DB) DeviceSettings(deviceID string) (map[string]string, error) {
	rows, err := d.conn.Query("SELECT key, value FROM device_settings WHERE device_id = ?", deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		settings[k] = v
	}
	return settings, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(row rowScanner) (*DeviceRecord, error) {
	var rec DeviceRecord
	var name, class, protocol, lastPath sql.NullString

	err := row.Scan(&rec.ID, &rec.DeviceID, &name, &class, &protocol, &lastPath, &rec.FirstSeen, &rec.LastSeen)
	if err != nil {
		return nil, err
	}

	rec.Name = name.String
	rec.Class = class.String
	rec.Protocol = protocol.String
	rec.LastPath = lastPath.String
	return &rec, nil
}
