package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"github.com/sigreer/playerdock/internal/db"
	"github.com/sigreer/playerdock/internal/manager"
)

var ejectCmd = &cobra.Command{
	Use:   "eject <device>",
	Short: "Unmount and eject a media player",
	Long: `Unmount the filesystem of a media player and eject its drive.

The device may be given as a UDisks2 object path, a device node such as
/dev/sdc1, a device id, or the name assigned with "playerdock rename".`,
	Args: cobra.ExactArgs(1),
	Run:  runEject,
}

func runEject(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(cfg.Eject.TimeoutSeconds)*time.Second)
	defer cancel()

	m := startManager(ctx)
	defer m.Close()

	if err := m.Discover(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error querying UDisks2: %v\n", err)
		os.Exit(1)
	}

	database := openDB()
	if database != nil {
		defer database.Close()
	}

	path, deviceID, ok := resolveDevice(m, database, args[0])
	if !ok {
		fmt.Fprintf(os.Stderr, "No media player matches %q\n", args[0])
		os.Exit(1)
	}

	ejected := m.Eject(ctx, path)
	if database != nil {
		db.NewRecorder(database, m.Name).Ejected(deviceID, path, ejected)
	}
	if !ejected {
		fmt.Fprintf(os.Stderr, "Failed to eject %s\n", path)
		os.Exit(1)
	}
	fmt.Printf("Ejected %s\n", path)
}

// resolveDevice finds the active device matching ref by object path, device
// node, device id or assigned name
func resolveDevice(m *manager.Manager, database *db.DB, ref string) (dbus.ObjectPath, string, bool) {
	for _, dev := range m.Devices() {
		path := objectPath(dev.BackendID())
		if string(path) == ref || dev.ID() == ref {
			return path, dev.ID(), true
		}
		if strings.HasPrefix(ref, "/dev/") {
			if node, err := m.BlockDevice(path); err == nil && node == ref {
				return path, dev.ID(), true
			}
		}
		if database != nil {
			if name, ok, _ := database.DeviceSetting(dev.ID(), db.SettingName); ok && name == ref {
				return path, dev.ID(), true
			}
		}
	}
	return "", "", false
}

func objectPath(s string) dbus.ObjectPath {
	return dbus.ObjectPath(s)
}
