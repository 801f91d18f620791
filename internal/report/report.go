package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sigreer/playerdock/internal/db"
	"github.com/sigreer/playerdock/internal/manager"
	"github.com/sigreer/playerdock/internal/mpi"
)

// Device is one row of device output
type Device struct {
	manager.Description
	// DisplayName is the user-chosen name, falling back to "Vendor - Model"
	DisplayName string `json:"display_name"`
}

// PrintJSON outputs any value as indented JSON
func PrintJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintDevices outputs one line per device
func PrintDevices(w io.Writer, devices []Device) {
	if len(devices) == 0 {
		fmt.Fprintln(w, "No media players found.")
		return
	}

	fmt.Fprintf(w, "%-28s %-10s %-8s %-10s %-9s %s\n", "NAME", "DEVICE", "CLASS", "SIZE", "STATE", "MOUNTPOINT")
	fmt.Fprintln(w, strings.Repeat("-", 90))
	for _, d := range devices {
		size := "-"
		if d.Size > 0 {
			size = humanize.Bytes(d.Size)
		}
		mount := d.Mountpoint
		if mount == "" {
			mount = "(not mounted)"
		}
		fmt.Fprintf(w, "%-28s %-10s %-8s %-10s %-9s %s\n",
			truncate(d.DisplayName, 28), d.BlockDevice, d.Class, size, d.State, mount)
	}
}

// PrintDevice outputs the details of one device
func PrintDevice(w io.Writer, d Device) {
	printField(w, "Name", d.DisplayName)
	printField(w, "Model", d.Name)
	printField(w, "Device ID", d.DeviceID)
	printField(w, "Object Path", string(d.Path))
	printField(w, "Block Device", d.BlockDevice)
	printField(w, "Mountpoint", d.Mountpoint)
	printField(w, "Label", d.Label)
	printField(w, "Serial", d.Serial)
	if d.Size > 0 {
		printField(w, "Size", humanize.Bytes(d.Size))
	}
	printField(w, "Class", d.Class)
	printField(w, "Protocol", d.Protocol)
	printField(w, "Icon", d.Icon)
	printField(w, "State", d.State)
}

// PrintEvents outputs the event history, newest first
func PrintEvents(w io.Writer, events []*db.DeviceEvent, now time.Time) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No events recorded.")
		return
	}

	fmt.Fprintf(w, "%-16s %-13s %-24s %s\n", "WHEN", "EVENT", "DEVICE", "OBJECT PATH")
	fmt.Fprintln(w, strings.Repeat("-", 90))
	for _, ev := range events {
		id := ev.DeviceID
		if id == "" {
			id = "-"
		}
		fmt.Fprintf(w, "%-16s %-13s %-24s %s\n",
			humanize.RelTime(ev.Timestamp, now, "ago", "from now"), ev.EventType, truncate(id, 24), ev.ObjectPath)
	}
}

// PrintInventory outputs every device ever recorded with its settings
func PrintInventory(w io.Writer, records []*db.DeviceRecord, settings map[string]map[string]string, now time.Time) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No devices recorded.")
		return
	}

	fmt.Fprintf(w, "%-24s %-28s %-8s %-16s %s\n", "DEVICE ID", "NAME", "CLASS", "LAST SEEN", "SETTINGS")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, rec := range records {
		name := rec.Name
		if n := settings[rec.DeviceID][db.SettingName]; n != "" {
			name = n
		}
		fmt.Fprintf(w, "%-24s %-28s %-8s %-16s %s\n",
			truncate(rec.DeviceID, 24), truncate(name, 28), rec.Class,
			humanize.RelTime(rec.LastSeen, now, "ago", "from now"), formatSettings(settings[rec.DeviceID]))
	}
}

func formatSettings(settings map[string]string) string {
	if len(settings) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + settings[k]
	}
	return strings.Join(parts, " ")
}

// PrintPlayerInfo outputs a media-player-info descriptor
func PrintPlayerInfo(w io.Writer, info *mpi.Info) {
	printField(w, "Player", info.ID)
	printField(w, "Vendor", info.Vendor)
	printField(w, "Product", info.Product)
	printField(w, "Icon", info.Icon)
	printField(w, "Protocols", strings.Join(info.AccessProtocols, ", "))
	printField(w, "Output Formats", strings.Join(info.OutputFormats, ", "))
	printField(w, "Input Formats", strings.Join(info.InputFormats, ", "))
	printField(w, "Playlists", strings.Join(info.PlaylistFormats, ", "))
	printField(w, "Audio Folders", strings.Join(info.AudioFolders, ", "))
}

// printField prints a field if value is non-empty
func printField(w io.Writer, label, value string) {
	if value != "" {
		fmt.Fprintf(w, "%-16s %s\n", label, value)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
