package db

import (
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sigreer/playerdock/internal/device"
)

// NameFunc resolves the "Vendor - Model" name of the device at a path
type NameFunc func(path dbus.ObjectPath) (string, error)

// Recorder stores device notifications in the database. It satisfies the
// device manager's observer interface.
type Recorder struct {
	db      *DB
	session string
	names   NameFunc

	mu    sync.Mutex
	paths map[dbus.ObjectPath]string // object path -> device id
}

// NewRecorder creates a Recorder with a fresh session id. names may be nil.
func NewRecorder(db *DB, names NameFunc) *Recorder {
	return &Recorder{
		db:      db,
		session: uuid.NewString(),
		names:   names,
		paths:   make(map[dbus.ObjectPath]string),
	}
}

// Session identifies this run in the event history
func (r *Recorder) Session() string {
	return r.session
}

func (r *Recorder) Added(dev device.Device) {
	r.mu.Lock()
	r.paths[dbus.ObjectPath(dev.BackendID())] = dev.ID()
	r.mu.Unlock()

	r.store(dev, EventAdded)
}

// Seen records a device found by a one-shot scan. Unlike Added, no removal
// is expected to follow.
func (r *Recorder) Seen(dev device.Device) {
	r.store(dev, EventSeen)
}

func (r *Recorder) store(dev device.Device, eventType string) {
	path := dbus.ObjectPath(dev.BackendID())

	rec := &DeviceRecord{
		DeviceID: dev.ID(),
		Class:    dev.ClassName(),
		Protocol: dev.Protocol(),
		LastPath: string(path),
	}
	if r.names != nil {
		name, err := r.names(path)
		if err != nil {
			log.Debug().Err(err).Str("path", string(path)).Msg("Failed to resolve device name")
		}
		rec.Name = name
	}
	if err := r.db.UpsertDevice(rec); err != nil {
		log.Warn().Err(err).Str("device", dev.ID()).Msg("Failed to store device")
	}

	r.record(dev.ID(), path, eventType, map[string]interface{}{
		"class":    dev.ClassName(),
		"protocol": dev.Protocol(),
		"icon":     dev.Icon(),
	})
}

func (r *Recorder) Removed(path dbus.ObjectPath) {
	r.mu.Lock()
	id := r.paths[path]
	delete(r.paths, path)
	r.mu.Unlock()

	r.record(id, path, EventRemoved, nil)
}

// Ejected records the outcome of an eject request
func (r *Recorder) Ejected(deviceID string, path dbus.ObjectPath, ok bool) {
	eventType := EventEjected
	if !ok {
		eventType = EventEjectFailed
	}
	r.record(deviceID, path, eventType, nil)
}

func (r *Recorder) record(deviceID string, path dbus.ObjectPath, eventType string, details map[string]interface{}) {
	err := r.db.RecordEvent(&DeviceEvent{
		SessionID:  r.session,
		DeviceID:   deviceID,
		ObjectPath: string(path),
		EventType:  eventType,
		Details:    EncodeDetails(details),
	})
	if err != nil {
		log.Warn().Err(err).Str("path", string(path)).Str("event", eventType).Msg("Failed to record event")
	}
}
