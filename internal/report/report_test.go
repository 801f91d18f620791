package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/sigreer/playerdock/internal/db"
	"github.com/sigreer/playerdock/internal/manager"
	"github.com/sigreer/playerdock/internal/mpi"
)

func TestPrintDevices(t *testing.T) {
	var buf bytes.Buffer
	PrintDevices(&buf, []Device{{
		Description: manager.Description{
			Path:        "/org/freedesktop/UDisks2/block_devices/sdc",
			BlockDevice: "/dev/sdc",
			Class:       "storage",
			Size:        2000000000,
			State:       "active",
		},
		DisplayName: "SanDisk - Sansa Clip",
	}})

	out := buf.String()
	for _, want := range []string{"SanDisk - Sansa Clip", "/dev/sdc", "2.0 GB", "(not mounted)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestPrintDevicesEmpty(t *testing.T) {
	var buf bytes.Buffer
	PrintDevices(&buf, nil)
	if !strings.Contains(buf.String(), "No media players") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestPrintEvents(t *testing.T) {
	now := time.Unix(10000, 0)
	var buf bytes.Buffer
	PrintEvents(&buf, []*db.DeviceEvent{
		{EventType: db.EventRemoved, ObjectPath: "/b/sdc", Timestamp: now.Add(-3 * time.Minute)},
	}, now)

	out := buf.String()
	if !strings.Contains(out, "3 minutes ago") || !strings.Contains(out, "removed") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestPrintDevice(t *testing.T) {
	var buf bytes.Buffer
	PrintDevice(&buf, Device{
		Description: manager.Description{
			Path:     "/org/freedesktop/UDisks2/block_devices/sdc",
			DeviceID: "X",
			Name:     "SanDisk - Sansa Clip",
			Class:    "mtp",
			Size:     2000000000,
		},
		DisplayName: "Gym player",
	})

	out := buf.String()
	for _, want := range []string{"Gym player", "SanDisk - Sansa Clip", "2.0 GB", "mtp"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Mountpoint") {
		t.Fatalf("empty fields should be skipped:\n%s", out)
	}
}

func TestPrintInventory(t *testing.T) {
	now := time.Unix(100000, 0)
	var buf bytes.Buffer
	PrintInventory(&buf, []*db.DeviceRecord{
		{DeviceID: "X", Name: "SanDisk - Sansa Clip", Class: "mtp", LastSeen: now.Add(-2 * time.Hour)},
		{DeviceID: "Y", Name: "Apple - iPod", Class: "ipod", LastSeen: now.Add(-time.Minute)},
	}, map[string]map[string]string{
		"X": {db.SettingName: "Gym player", "sync": "off"},
	}, now)

	out := buf.String()
	for _, want := range []string{"Gym player", "name=Gym player sync=off", "2 hours ago", "Apple - iPod"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "SanDisk - Sansa Clip") {
		t.Fatalf("assigned name should replace the model name:\n%s", out)
	}
}

func TestPrintPlayerInfo(t *testing.T) {
	var buf bytes.Buffer
	PrintPlayerInfo(&buf, &mpi.Info{ID: "M1", AccessProtocols: []string{"mtp", "storage"}})
	if !strings.Contains(buf.String(), "mtp, storage") {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "Vendor") {
		t.Fatalf("empty fields should be skipped:\n%s", buf.String())
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 4); got != "abc…" {
		t.Fatalf("truncate() = %q", got)
	}
	if got := truncate("abc", 4); got != "abc" {
		t.Fatalf("truncate() = %q", got)
	}
}
