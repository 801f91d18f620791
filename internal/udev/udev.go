package udev

import (
	"errors"
	"fmt"
)

// Backend names accepted by New
const (
	BackendDatabase = "database"
	BackendLibudev  = "libudev"
)

// MediaPlayerKey is set by the media-player-info udev rules on players
const MediaPlayerKey = "ID_MEDIA_PLAYER"

var (
	// ErrDeviceNotFound means the device node could not be resolved to a udev device
	ErrDeviceNotFound = errors.New("udev device not found")

	// ErrUnavailable means the backend cannot run on this system
	ErrUnavailable = errors.New("udev backend unavailable")
)

// Source resolves a device node to udev properties
type Source interface {
	// PropertiesForDevicePath returns the property maps of the device
	// and all its parents, ordered from leaf to root. It never returns an
	// empty slice without an error.
	PropertiesForDevicePath(devPath string) ([]map[string]string, error)
}

// New returns the backend with the given name. An empty name selects the
// database backend.
func New(backend string) (Source, error) {
	switch backend {
	case "", BackendDatabase:
		db := NewDatabase()
		if err := db.Check(); err != nil {
			return nil, err
		}
		return db, nil
	case BackendLibudev:
		return newLibudev()
	default:
		return nil, fmt.Errorf("unknown udev backend %q", backend)
	}
}

// MediaPlayerID returns the first ID_MEDIA_PLAYER found walking from the
// device to its root, or "" when the device is not a media player.
func MediaPlayerID(src Source, devPath string) (string, error) {
	devs, err := src.PropertiesForDevicePath(devPath)
	if err != nil {
		return "", err
	}
	for _, props := range devs {
		if id, ok := props[MediaPlayerKey]; ok {
			return id, nil
		}
	}
	return "", nil
}
