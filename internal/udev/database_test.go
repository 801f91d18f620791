package udev

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// fakeSystem lays out a USB media player at /sys/devices/pci0/usb1/1-1 with
// a scsi disk sdc below it.
func fakeSystem(t *testing.T) *Database {
	t.Helper()
	root := t.TempDir()
	sys := filepath.Join(root, "sys")
	data := filepath.Join(root, "data")

	usb := filepath.Join(sys, "devices", "pci0", "usb1", "1-1")
	host := filepath.Join(usb, "1-1:1.0", "host6")
	disk := filepath.Join(host, "block", "sdc")

	mkdir(t, disk)
	mkdir(t, filepath.Join(sys, "class", "block"))
	mkdir(t, filepath.Join(sys, "bus", "usb"))
	mkdir(t, data)

	write(t, filepath.Join(usb, "uevent"), "DEVTYPE=usb_device\nPRODUCT=781/74d0/100\n")
	write(t, filepath.Join(disk, "uevent"), "MAJOR=8\nMINOR=32\nDEVNAME=sdc\nDEVTYPE=disk\n")

	symlink(t, filepath.Join(sys, "bus", "usb"), filepath.Join(usb, "subsystem"))
	symlink(t, filepath.Join(sys, "class", "block"), filepath.Join(disk, "subsystem"))
	symlink(t, disk, filepath.Join(sys, "class", "block", "sdc"))

	write(t, filepath.Join(data, "b8:32"), "S:disk/by-id/usb-SanDisk\nE:ID_BUS=usb\nE:ID_MODEL=Sansa_Clip\n")
	write(t, filepath.Join(data, "+usb:1-1"), "E:ID_MEDIA_PLAYER=sandisk_sansa-clip\nE:ID_VENDOR=SanDisk\n")

	return &Database{SysRoot: sys, DataDir: data}
}

func TestDatabasePropertiesForDevicePath(t *testing.T) {
	db := fakeSystem(t)

	devs, err := db.PropertiesForDevicePath("/dev/sdc")
	if err != nil {
		t.Fatalf("PropertiesForDevicePath: %v", err)
	}
	if len(devs) != 2 {
		t.Fatalf("expected leaf and usb parent, got %d entries: %v", len(devs), devs)
	}

	leaf := devs[0]
	if leaf["DEVNAME"] != "/dev/sdc" {
		t.Fatalf("expected DEVNAME /dev/sdc, got %q", leaf["DEVNAME"])
	}
	if leaf["SUBSYSTEM"] != "block" {
		t.Fatalf("expected block subsystem, got %q", leaf["SUBSYSTEM"])
	}
	if leaf["ID_MODEL"] != "Sansa_Clip" {
		t.Fatalf("expected udev db entry merged into leaf, got %v", leaf)
	}
	if _, ok := leaf[MediaPlayerKey]; ok {
		t.Fatal("leaf should not carry the media player id")
	}

	parent := devs[1]
	if parent[MediaPlayerKey] != "sandisk_sansa-clip" {
		t.Fatalf("expected media player id on usb parent, got %v", parent)
	}
}

func TestDatabaseUnknownDevice(t *testing.T) {
	db := fakeSystem(t)
	_, err := db.PropertiesForDevicePath("/dev/sdz")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}
}

func TestMediaPlayerID(t *testing.T) {
	db := fakeSystem(t)

	id, err := MediaPlayerID(db, "/dev/sdc")
	if err != nil {
		t.Fatalf("MediaPlayerID: %v", err)
	}
	if id != "sandisk_sansa-clip" {
		t.Fatalf("expected sandisk_sansa-clip, got %q", id)
	}
}

func TestMediaPlayerIDAbsent(t *testing.T) {
	src := staticSource{{"DEVNAME": "/dev/sda"}, {"SUBSYSTEM": "pci"}}
	id, err := MediaPlayerID(src, "/dev/sda")
	if err != nil || id != "" {
		t.Fatalf("expected no id and no error, got %q, %v", id, err)
	}
}

func TestDBEntryName(t *testing.T) {
	cases := []struct {
		name      string
		props     map[string]string
		subsystem string
		sysname   string
		want      string
	}{
		{"block", map[string]string{"MAJOR": "8", "MINOR": "32"}, "block", "sdc", "b8:32"},
		{"char", map[string]string{"MAJOR": "189", "MINOR": "3"}, "usb", "1-1", "c189:3"},
		{"no_node", map[string]string{}, "usb", "1-1", "+usb:1-1"},
		{"nothing", map[string]string{}, "", "host6", ""},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := dbEntryName(c.props, c.subsystem, c.sysname); got != c.want {
				t.Fatalf("dbEntryName() = %q, want %q", got, c.want)
			}
		})
	}
}

func TestNewUnknownBackend(t *testing.T) {
	if _, err := New("hal"); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestNewLibudev(t *testing.T) {
	src, err := New(BackendLibudev)
	if err != nil {
		// no cgo, or no libudev on this host
		if !errors.Is(err, ErrUnavailable) {
			t.Fatalf("expected ErrUnavailable, got %v", err)
		}
		return
	}
	if src == nil {
		t.Fatal("expected a source")
	}
}

type staticSource []map[string]string

func (s staticSource) PropertiesForDevicePath(string) ([]map[string]string, error) {
	return s, nil
}

func mkdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func symlink(t *testing.T, target, link string) {
	t.Helper()
	if err := os.Symlink(target, link); err != nil {
		t.Fatal(err)
	}
}
