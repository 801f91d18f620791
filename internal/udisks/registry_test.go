package udisks

import (
	"reflect"
	"testing"

	"github.com/godbus/dbus/v5"
)

func samplePayload() InterfacesAndProperties {
	return InterfacesAndProperties{
		BlockIface: {
			"Device": dbus.MakeVariant([]byte("/dev/sdc\x00")),
			"Drive":  dbus.MakeVariant(dbus.ObjectPath("/drives/D1")),
		},
		FSIface:                {},
		"org.example.Unrelated": {},
	}
}

func TestRegistryUpdateIdempotent(t *testing.T) {
	path := dbus.ObjectPath("/block_devices/sdc")

	once := NewRegistry()
	once.UpdateInterfaces(path, samplePayload())

	twice := NewRegistry()
	twice.UpdateInterfaces(path, samplePayload())
	twice.UpdateInterfaces(path, samplePayload())

	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("registry differs after repeated update:\n%+v\n%+v", once, twice)
	}

	d, f, b := twice.Counts()
	if d != 0 || f != 1 || b != 1 {
		t.Fatalf("expected 0/1/1 entries, got %d/%d/%d", d, f, b)
	}
}

func TestRegistryUpdateNeverRemoves(t *testing.T) {
	path := dbus.ObjectPath("/block_devices/sdc")
	r := NewRegistry()
	r.UpdateInterfaces(path, samplePayload())
	r.UpdateInterfaces(path, InterfacesAndProperties{})

	if _, ok := r.Block(path); !ok {
		t.Fatal("block entry vanished after empty update")
	}
	if _, ok := r.Filesystem(path); !ok {
		t.Fatal("filesystem entry vanished after empty update")
	}
}

func TestRegistryRemoveInterfaces(t *testing.T) {
	path := dbus.ObjectPath("/block_devices/sdc")
	drive := dbus.ObjectPath("/drives/D1")

	r := NewRegistry()
	r.UpdateInterfaces(path, samplePayload())
	r.UpdateInterfaces(drive, InterfacesAndProperties{DriveIface: {"Id": dbus.MakeVariant("X")}})

	r.RemoveInterfaces(path, []string{FSIface, "org.example.Unrelated"})
	if _, ok := r.Filesystem(path); ok {
		t.Fatal("filesystem entry should be gone")
	}
	if _, ok := r.Block(path); !ok {
		t.Fatal("block entry should remain")
	}
	if _, ok := r.Drive(drive); !ok {
		t.Fatal("drive entry should remain")
	}

	r.RemoveInterfaces(drive, []string{DriveIface})
	if _, ok := r.Drive(drive); ok {
		t.Fatal("drive entry should be gone")
	}
}

func TestRegistryReadyPaths(t *testing.T) {
	r := NewRegistry()
	r.UpdateInterfaces("/b/sdd", samplePayload())
	r.UpdateInterfaces("/b/sdc", samplePayload())
	r.UpdateInterfaces("/b/sde", InterfacesAndProperties{BlockIface: {}})
	r.UpdateInterfaces("/b/sdf", InterfacesAndProperties{FSIface: {}})

	got := r.ReadyPaths()
	want := []dbus.ObjectPath{"/b/sdc", "/b/sdd"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ReadyPaths() = %v, want %v", got, want)
	}
}
