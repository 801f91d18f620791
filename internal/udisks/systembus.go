package udisks

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog/log"
)

// SystemBus talks to the UDisks2 daemon over the system bus
type SystemBus struct {
	conn    *dbus.Conn
	manager dbus.BusObject
}

// ConnectSystemBus opens a private system bus connection and makes sure the
// UDisks2 name has an owner, activating the service if needed.
func ConnectSystemBus(ctx context.Context) (*SystemBus, error) {
	conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}

	var reply uint32
	err = conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.StartServiceByName", 0, BusName, uint32(0)).Store(&reply)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to activate %s: %w", BusName, err)
	}

	return &SystemBus{
		conn:    conn,
		manager: conn.Object(BusName, ManagerPath),
	}, nil
}

// GetManagedObjects calls ObjectManager.GetManagedObjects on the UDisks2 root
func (b *SystemBus) GetManagedObjects(ctx context.Context) (ManagedObjects, error) {
	var raw map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	err := b.manager.CallWithContext(ctx, ObjManIface+".GetManagedObjects", 0).Store(&raw)
	if err != nil {
		return nil, fmt.Errorf("GetManagedObjects failed: %w", err)
	}

	objects := make(ManagedObjects, len(raw))
	for path, ifaces := range raw {
		objects[path] = convertInterfaces(ifaces)
	}
	return objects, nil
}

// Signals subscribes to the ObjectManager signals of UDisks2
func (b *SystemBus) Signals(ctx context.Context) (<-chan Signal, error) {
	err := b.conn.AddMatchSignalContext(ctx,
		dbus.WithMatchObjectPath(ManagerPath),
		dbus.WithMatchInterface(ObjManIface),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", ObjManIface, err)
	}

	raw := make(chan *dbus.Signal, 16)
	b.conn.Signal(raw)

	out := make(chan Signal)
	go func() {
		defer close(out)
		defer b.conn.RemoveSignal(raw)
		for {
			select {
			case <-ctx.Done():
				return
			case s, ok := <-raw:
				if !ok {
					return
				}
				sig, ok := decodeSignal(s)
				if !ok {
					continue
				}
				select {
				case out <- sig:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// MountPoints reads Filesystem.MountPoints. The value is filled in with a
// delay after mounting so it is always fetched live.
func (b *SystemBus) MountPoints(ctx context.Context, path dbus.ObjectPath) ([]string, error) {
	var v dbus.Variant
	err := b.conn.Object(BusName, path).CallWithContext(ctx, PropIface+".Get", 0, FSIface, "MountPoints").Store(&v)
	if err != nil {
		return nil, err
	}
	raw, ok := v.Value().([][]byte)
	if !ok {
		return nil, fmt.Errorf("%w: MountPoints has type %s", ErrMissingProperty, v.Signature())
	}
	return DecodeByteStrings(raw), nil
}

// Unmount calls Filesystem.Unmount with no options
func (b *SystemBus) Unmount(ctx context.Context, path dbus.ObjectPath) error {
	return b.conn.Object(BusName, path).CallWithContext(ctx, FSIface+".Unmount", 0, map[string]dbus.Variant{}).Err
}

// Eject calls Drive.Eject with no options
func (b *SystemBus) Eject(ctx context.Context, drive dbus.ObjectPath) error {
	return b.conn.Object(BusName, drive).CallWithContext(ctx, DriveIface+".Eject", 0, map[string]dbus.Variant{}).Err
}

// Close closes the bus connection
func (b *SystemBus) Close() error {
	return b.conn.Close()
}

func decodeSignal(s *dbus.Signal) (Signal, bool) {
	if s == nil || len(s.Body) < 2 {
		return Signal{}, false
	}
	path, ok := s.Body[0].(dbus.ObjectPath)
	if !ok {
		return Signal{}, false
	}

	switch s.Name {
	case AddedSignal:
		ifaces, ok := s.Body[1].(map[string]map[string]dbus.Variant)
		if !ok {
			log.Debug().Str("path", string(path)).Msg("InterfacesAdded with unexpected body")
			return Signal{}, false
		}
		return Signal{Kind: InterfacesAdded, Path: path, Interfaces: convertInterfaces(ifaces)}, true
	case RemovedSignal:
		names, ok := s.Body[1].([]string)
		if !ok {
			log.Debug().Str("path", string(path)).Msg("InterfacesRemoved with unexpected body")
			return Signal{}, false
		}
		return Signal{Kind: InterfacesRemoved, Path: path, Removed: names}, true
	}
	return Signal{}, false
}

func convertInterfaces(raw map[string]map[string]dbus.Variant) InterfacesAndProperties {
	iap := make(InterfacesAndProperties, len(raw))
	for name, props := range raw {
		iap[name] = Properties(props)
	}
	return iap
}
