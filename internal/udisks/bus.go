package udisks

import (
	"context"

	"github.com/godbus/dbus/v5"
)

// SignalKind distinguishes the two ObjectManager signals we subscribe to
type SignalKind int

const (
	InterfacesAdded SignalKind = iota
	InterfacesRemoved
)

func (k SignalKind) String() string {
	switch k {
	case InterfacesAdded:
		return "InterfacesAdded"
	case InterfacesRemoved:
		return "InterfacesRemoved"
	default:
		return "unknown"
	}
}

// Signal is a decoded ObjectManager signal. Interfaces is set for
// InterfacesAdded, Removed for InterfacesRemoved.
type Signal struct {
	Kind       SignalKind
	Path       dbus.ObjectPath
	Interfaces InterfacesAndProperties
	Removed    []string
}

// Bus is the subset of the UDisks2 D-Bus API the device manager needs
type Bus interface {
	// GetManagedObjects returns every object UDisks2 currently exports
	GetManagedObjects(ctx context.Context) (ManagedObjects, error)

	// Signals delivers InterfacesAdded/InterfacesRemoved in arrival order.
	// The channel is closed when ctx is done.
	Signals(ctx context.Context) (<-chan Signal, error)

	// MountPoints fetches the live Filesystem.MountPoints of path
	MountPoints(ctx context.Context, path dbus.ObjectPath) ([]string, error)

	// Unmount calls Filesystem.Unmount on path
	Unmount(ctx context.Context, path dbus.ObjectPath) error

	// Eject calls Drive.Eject on the drive object
	Eject(ctx context.Context, drive dbus.ObjectPath) error

	Close() error
}
