package manager

import (
	"github.com/godbus/dbus/v5"

	"github.com/sigreer/playerdock/internal/device"
)

// Observer receives device notifications. Calls happen on the goroutine that
// processes bus events, in event order, with no manager lock held.
type Observer interface {
	Added(dev device.Device)
	Removed(path dbus.ObjectPath)
}

// EventType names a notification
type EventType string

const (
	EventAdded   EventType = "added"
	EventRemoved EventType = "removed"
)

// Event is a notification as delivered by ChanObserver. Device is nil for
// removals.
type Event struct {
	Type   EventType
	Path   dbus.ObjectPath
	Device device.Device
}

// ChanObserver forwards notifications into a channel. Sends block, so the
// channel must be drained or buffered generously.
type ChanObserver struct {
	C chan Event
}

// NewChanObserver creates a ChanObserver with the given buffer size
func NewChanObserver(buffer int) *ChanObserver {
	return &ChanObserver{C: make(chan Event, buffer)}
}

func (o *ChanObserver) Added(dev device.Device) {
	o.C <- Event{Type: EventAdded, Path: dbus.ObjectPath(dev.BackendID()), Device: dev}
}

func (o *ChanObserver) Removed(path dbus.ObjectPath) {
	o.C <- Event{Type: EventRemoved, Path: path}
}

// Funcs adapts two functions to Observer; either may be nil
type Funcs struct {
	OnAdded   func(device.Device)
	OnRemoved func(dbus.ObjectPath)
}

func (f Funcs) Added(dev device.Device) {
	if f.OnAdded != nil {
		f.OnAdded(dev)
	}
}

func (f Funcs) Removed(path dbus.ObjectPath) {
	if f.OnRemoved != nil {
		f.OnRemoved(path)
	}
}
