package device

import (
	"os"
	"path/filepath"
	"sync"
)

// Base implements Device for the built-in classes
type Base struct {
	mu        sync.Mutex
	backendID string
	id        string
	class     string
	protocol  string
	icon      string
	closed    bool
}

func newBase(cls, protocol, icon string, req Request) *Base {
	return &Base{
		backendID: req.BackendID,
		id:        req.DeviceID,
		class:     cls,
		protocol:  protocol,
		icon:      icon,
	}
}

func (b *Base) BackendID() string { return b.backendID }
func (b *Base) ID() string        { return b.id }
func (b *Base) ClassName() string { return b.class }
func (b *Base) Protocol() string  { return b.protocol }

func (b *Base) Icon() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.icon
}

func (b *Base) SetIcon(icon string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.icon = icon
}

// Close marks the device as gone. Closing twice is a no-op.
func (b *Base) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Closed reports whether Close was called
func (b *Base) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// StorageDevice is a player exposed as plain USB mass storage
type StorageDevice struct {
	*Base
	Mountpoint string
}

// IPodDevice is an iPod running the Apple firmware
type IPodDevice struct {
	*Base
	Mountpoint string
}

// MTPDevice is a player speaking the Media Transfer Protocol
type MTPDevice struct {
	*Base
}

// StorageClass handles any mass storage player
var StorageClass = Class{
	Name:     "storage",
	Protocol: ProtocolStorage,
	New: func(req Request) Device {
		return &StorageDevice{
			Base:       newBase("storage", ProtocolStorage, "drive-removable-media", req),
			Mountpoint: req.Mountpoint,
		}
	},
}

// IPodClass handles iPods. A mounted iPod without an iPod_Control directory
// runs some other firmware (e.g. Rockbox) and is left to the storage class.
var IPodClass = Class{
	Name:     "ipod",
	Protocol: ProtocolIPod,
	Accepts: func(req Request) bool {
		if req.Mountpoint == "" {
			return true
		}
		info, err := os.Stat(filepath.Join(req.Mountpoint, "iPod_Control"))
		return err == nil && info.IsDir()
	},
	New: func(req Request) Device {
		return &IPodDevice{
			Base:       newBase("ipod", ProtocolIPod, "multimedia-player-apple-ipod", req),
			Mountpoint: req.Mountpoint,
		}
	},
}

// MTPClass handles MTP players
var MTPClass = Class{
	Name:     "mtp",
	Protocol: ProtocolMTP,
	New: func(req Request) Device {
		return &MTPDevice{
			Base: newBase("mtp", ProtocolMTP, "multimedia-player", req),
		}
	},
}

// DefaultClasses returns the built-in classes
func DefaultClasses() []Class {
	return []Class{StorageClass, IPodClass, MTPClass}
}
