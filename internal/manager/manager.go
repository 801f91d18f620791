// Package manager turns the UDisks2 object stream into media player devices.
//
// Every object path moves through these states:
//
//	Unknown -> Partial -> Ready -> Active | Rejected
//
// Partial paths carry only one of the block and filesystem interfaces. Ready
// paths carry both, and a build is attempted whenever an event arrives.
// Active paths have a device; Rejected paths were turned down by the builder
// and are tried again on the next event. Losing the block or filesystem
// interface takes a path out of Active and emits Removed.
package manager

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog/log"

	"github.com/sigreer/playerdock/internal/device"
	"github.com/sigreer/playerdock/internal/udev"
	"github.com/sigreer/playerdock/internal/udisks"
)

var (
	// ErrCollaboratorUnavailable means udev, media-player-info or the bus
	// could not be reached; device support is disabled
	ErrCollaboratorUnavailable = errors.New("device backend unavailable")

	// ErrUnknownPath means the object path is not tracked
	ErrUnknownPath = errors.New("unknown object path")
)

// ProtocolSource maps a media player id to its access protocols
type ProtocolSource interface {
	Protocols(mediaPlayerID string) []string
}

// State of one object path
type State int

const (
	StateUnknown State = iota
	StatePartial
	StateReady
	StateActive
	StateRejected
)

func (s State) String() string {
	switch s {
	case StatePartial:
		return "partial"
	case StateReady:
		return "ready"
	case StateActive:
		return "active"
	case StateRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Options are the collaborators of a Manager
type Options struct {
	Bus       udisks.Bus
	Udev      udev.Source
	Protocols ProtocolSource
	Classes   *device.Classes
}

// Manager tracks UDisks2 objects and the devices built from them
type Manager struct {
	bus       udisks.Bus
	udev      udev.Source
	protocols ProtocolSource
	classes   *device.Classes

	mu        sync.Mutex
	reg       *udisks.Registry
	devices   map[dbus.ObjectPath]device.Device
	rejected  map[dbus.ObjectPath]bool
	observers []Observer
}

// notice is a pending notification, delivered after the lock is released
type notice struct {
	typ  EventType
	path dbus.ObjectPath
	dev  device.Device
}

// New creates a Manager. The manager owns the bus and closes it on Close.
func New(opts Options) (*Manager, error) {
	switch {
	case opts.Bus == nil:
		return nil, fmt.Errorf("%w: no bus", ErrCollaboratorUnavailable)
	case opts.Udev == nil:
		return nil, fmt.Errorf("%w: no udev source", ErrCollaboratorUnavailable)
	case opts.Protocols == nil:
		return nil, fmt.Errorf("%w: no media-player-info", ErrCollaboratorUnavailable)
	}

	classes := opts.Classes
	if classes == nil {
		classes = device.NewClasses(device.DefaultClasses()...)
	}

	return &Manager{
		bus:       opts.Bus,
		udev:      opts.Udev,
		protocols: opts.Protocols,
		classes:   classes,
		reg:       udisks.NewRegistry(),
		devices:   make(map[dbus.ObjectPath]device.Device),
		rejected:  make(map[dbus.ObjectPath]bool),
	}, nil
}

// Subscribe registers an observer
func (m *Manager) Subscribe(o Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, o)
}

// Discover loads every object UDisks2 exports and emits Added for each
// device found
func (m *Manager) Discover(ctx context.Context) error {
	objects, err := m.bus.GetManagedObjects(ctx)
	if err != nil {
		return fmt.Errorf("discover: %w", err)
	}

	m.mu.Lock()
	for path, iap := range objects {
		m.reg.UpdateInterfaces(path, iap)
	}
	notices := m.checkInterfaces()
	drives, filesystems, blocks := m.reg.Counts()
	m.mu.Unlock()

	log.Debug().Int("drives", drives).Int("filesystems", filesystems).Int("blocks", blocks).Int("players", len(notices)).Msg("Discovered UDisks2 objects")

	m.dispatch(notices)
	return nil
}

// Run subscribes to bus signals, runs Discover, then applies the signals in
// delivery order until ctx is done. Signals that arrive while the snapshot is
// taken are queued and applied afterwards; replaying what the snapshot
// already covered changes nothing.
func (m *Manager) Run(ctx context.Context) error {
	signals, err := m.bus.Signals(ctx)
	if err != nil {
		return err
	}
	if err := m.Discover(ctx); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-signals:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("bus signal stream closed")
			}
			m.Handle(sig)
		}
	}
}

// Handle applies one bus signal
func (m *Manager) Handle(sig udisks.Signal) {
	switch sig.Kind {
	case udisks.InterfacesAdded:
		m.InterfacesAdded(sig.Path, sig.Interfaces)
	case udisks.InterfacesRemoved:
		m.InterfacesRemoved(sig.Path, sig.Removed)
	}
}

// InterfacesAdded records new interfaces and builds any device that became
// possible
func (m *Manager) InterfacesAdded(path dbus.ObjectPath, iap udisks.InterfacesAndProperties) {
	m.mu.Lock()
	m.reg.UpdateInterfaces(path, iap)
	notices := m.checkInterfaces()
	m.mu.Unlock()

	m.dispatch(notices)
}

// InterfacesRemoved drops the device at path if it lost its block or
// filesystem interface, then forgets the removed interfaces. Losing only the
// drive interface does not affect devices on its blocks.
func (m *Manager) InterfacesRemoved(path dbus.ObjectPath, names []string) {
	var notices []notice

	m.mu.Lock()
	if needed(names) {
		if dev, ok := m.devices[path]; ok {
			notices = append(notices, notice{typ: EventRemoved, path: path, dev: dev})
			delete(m.devices, path)
		}
		delete(m.rejected, path)
	}
	m.reg.RemoveInterfaces(path, names)
	m.mu.Unlock()

	m.dispatch(notices)
}

func needed(names []string) bool {
	for _, n := range names {
		if n == udisks.FSIface || n == udisks.BlockIface {
			return true
		}
	}
	return false
}

// checkInterfaces tries to build a device for every path that has both a
// block and a filesystem interface and no device yet. Caller holds m.mu.
func (m *Manager) checkInterfaces() []notice {
	var notices []notice
	for _, path := range m.reg.ReadyPaths() {
		// we are finished with this one
		if _, ok := m.devices[path]; ok {
			continue
		}

		block, _ := m.reg.Block(path)
		fs, _ := m.reg.Filesystem(path)

		dev, err := m.build(path, block, fs)
		switch {
		case errors.Is(err, errNotReady):
			continue
		case err != nil:
			m.rejected[path] = true
			continue
		}

		delete(m.rejected, path)
		m.devices[path] = dev
		notices = append(notices, notice{typ: EventAdded, path: path, dev: dev})
	}
	return notices
}

func (m *Manager) dispatch(notices []notice) {
	if len(notices) == 0 {
		return
	}

	m.mu.Lock()
	observers := append([]Observer(nil), m.observers...)
	m.mu.Unlock()

	for _, n := range notices {
		switch n.typ {
		case EventAdded:
			log.Info().Str("path", string(n.path)).Str("device", n.dev.ID()).Str("class", n.dev.ClassName()).Msg("Device added")
			for _, o := range observers {
				o.Added(n.dev)
			}
		case EventRemoved:
			log.Info().Str("path", string(n.path)).Str("device", n.dev.ID()).Msg("Device removed")
			for _, o := range observers {
				o.Removed(n.path)
			}
			if err := n.dev.Close(); err != nil {
				log.Warn().Err(err).Str("path", string(n.path)).Msg("Failed to close device")
			}
		}
	}
}

// State reports the state of path
func (m *Manager) State(path dbus.ObjectPath) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.devices[path]; ok {
		return StateActive
	}
	if m.rejected[path] {
		return StateRejected
	}
	_, hasBlock := m.reg.Block(path)
	_, hasFS := m.reg.Filesystem(path)
	switch {
	case hasBlock && hasFS:
		return StateReady
	case hasBlock || hasFS:
		return StatePartial
	default:
		return StateUnknown
	}
}

// Devices returns the active devices ordered by object path
func (m *Manager) Devices() []device.Device {
	m.mu.Lock()
	defer m.mu.Unlock()

	devs := make([]device.Device, 0, len(m.devices))
	for _, d := range m.devices {
		devs = append(devs, d)
	}
	sort.Slice(devs, func(i, j int) bool { return devs[i].BackendID() < devs[j].BackendID() })
	return devs
}

// Device returns the active device at path
func (m *Manager) Device(path dbus.ObjectPath) (device.Device, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.devices[path]
	return d, ok
}

// Close closes every active device and the bus. No notifications are sent.
func (m *Manager) Close() error {
	m.mu.Lock()
	for path, d := range m.devices {
		d.Close()
		delete(m.devices, path)
	}
	m.mu.Unlock()
	return m.bus.Close()
}
