package device

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestByProtocolsStorageLast(t *testing.T) {
	classes := NewClasses(DefaultClasses()...)

	protocols := []string{"storage", "ipod"}
	cls, ok := classes.ByProtocols(protocols)
	if !ok || cls.Name != "ipod" {
		t.Fatalf("expected ipod to win over storage, got %q ok=%v", cls.Name, ok)
	}
	if !reflect.DeepEqual(protocols, []string{"storage", "ipod"}) {
		t.Fatalf("ByProtocols modified its argument: %v", protocols)
	}

	if _, ok := classes.ByProtocols([]string{"bluetooth"}); ok {
		t.Fatal("expected no class for unknown protocol")
	}
}

func TestCreateFallsBackToStorage(t *testing.T) {
	classes := NewClasses(StorageClass)

	dev, err := classes.Create(Request{BackendID: "/b/sdc", DeviceID: "X", Protocols: []string{"mtp"}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if dev.ClassName() != "storage" {
		t.Fatalf("expected storage class, got %q", dev.ClassName())
	}
	if dev.BackendID() != "/b/sdc" || dev.ID() != "X" {
		t.Fatalf("unexpected ids %q %q", dev.BackendID(), dev.ID())
	}
}

func TestCreateUnsupported(t *testing.T) {
	classes := NewClasses(MTPClass)
	_, err := classes.Create(Request{DeviceID: "X", Protocols: []string{"ipod"}})
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestCreateDeclinedClassFallsBack(t *testing.T) {
	mount := t.TempDir()
	classes := NewClasses(DefaultClasses()...)

	// rockboxed iPod: no iPod_Control on the mounted filesystem
	dev, err := classes.Create(Request{DeviceID: "ipod", Protocols: []string{"ipod"}, Mountpoint: mount})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if dev.ClassName() != "storage" {
		t.Fatalf("expected storage fallback, got %q", dev.ClassName())
	}

	if err := os.Mkdir(filepath.Join(mount, "iPod_Control"), 0o755); err != nil {
		t.Fatal(err)
	}
	dev, err = classes.Create(Request{DeviceID: "ipod", Protocols: []string{"ipod"}, Mountpoint: mount})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if dev.ClassName() != "ipod" {
		t.Fatalf("expected ipod class, got %q", dev.ClassName())
	}
}

func TestCreateAllDecline(t *testing.T) {
	never := func(Request) bool { return false }
	classes := NewClasses(
		Class{Name: "a", Protocol: "mtp", Accepts: never, New: MTPClass.New},
		Class{Name: "b", Protocol: "storage", Accepts: never, New: StorageClass.New},
	)
	if _, err := classes.Create(Request{Protocols: []string{"mtp"}}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestLookupAndNames(t *testing.T) {
	classes := NewClasses(DefaultClasses()...)
	if got := classes.Names(); !reflect.DeepEqual(got, []string{"ipod", "mtp", "storage"}) {
		t.Fatalf("unexpected order %v", got)
	}
	if cls, ok := classes.Lookup("mtp"); !ok || cls.Protocol != ProtocolMTP {
		t.Fatalf("Lookup(mtp) = %+v, %v", cls, ok)
	}
	if _, ok := classes.Lookup("hal"); ok {
		t.Fatal("unexpected class hal")
	}
}

func TestFilter(t *testing.T) {
	got := Filter(DefaultClasses(), []string{"storage"})
	if len(got) != 1 || got[0].Name != "storage" {
		t.Fatalf("unexpected filter result %v", got)
	}
	if len(Filter(DefaultClasses(), nil)) != 3 {
		t.Fatal("empty filter should keep every class")
	}
}

func TestBaseCloseAndIcon(t *testing.T) {
	dev := StorageClass.New(Request{DeviceID: "X"}).(*StorageDevice)
	if dev.Icon() != "drive-removable-media" {
		t.Fatalf("unexpected default icon %q", dev.Icon())
	}
	dev.SetIcon("multimedia-player")
	if dev.Icon() != "multimedia-player" {
		t.Fatalf("SetIcon had no effect: %q", dev.Icon())
	}
	if err := dev.Close(); err != nil || !dev.Closed() {
		t.Fatalf("Close() = %v, closed=%v", err, dev.Closed())
	}
}
