package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sigreer/playerdock/internal/db"
	"github.com/sigreer/playerdock/internal/manager"
	"github.com/sigreer/playerdock/internal/report"
)

var discoverCmd = &cobra.Command{
	Use:   "discover [device]",
	Short: "List attached media players",
	Long: `Query UDisks2 for every block device and report the ones that are
recognized media players.

A device is listed once its drive, block device and filesystem are all
known, udev tags it with ID_MEDIA_PLAYER, and one of the enabled device
classes accepts one of its access protocols.

With a device argument (object path, device node, device id or assigned
name) only that player is shown, in detail.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runDiscover,
}

func init() {
	discoverCmd.Flags().Bool("json", false, "Output as JSON")
	discoverCmd.Flags().Duration("timeout", 10*time.Second, "Bus query timeout")
}

func runDiscover(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	m := startManager(ctx)
	defer m.Close()

	database := openDB()
	if database != nil {
		defer database.Close()
		recorder := db.NewRecorder(database, m.Name)
		m.Subscribe(manager.Funcs{OnAdded: recorder.Seen})
	}

	if err := m.Discover(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error querying UDisks2: %v\n", err)
		os.Exit(1)
	}

	if len(args) == 1 {
		showDevice(ctx, m, database, args[0], jsonOutput)
		return
	}

	devices := describeAll(ctx, m, database)
	if jsonOutput {
		if err := report.PrintJSON(os.Stdout, devices); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
			os.Exit(1)
		}
		return
	}
	report.PrintDevices(os.Stdout, devices)
}

func showDevice(ctx context.Context, m *manager.Manager, database *db.DB, ref string, jsonOutput bool) {
	path, _, ok := resolveDevice(m, database, ref)
	if !ok {
		fmt.Fprintf(os.Stderr, "No media player matches %q\n", ref)
		os.Exit(1)
	}
	d, err := describe(ctx, m, database, string(path))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error describing %s: %v\n", path, err)
		os.Exit(1)
	}
	if jsonOutput {
		report.PrintJSON(os.Stdout, d)
		return
	}
	report.PrintDevice(os.Stdout, d)
}

// startManager connects the device backend or exits
func startManager(ctx context.Context) *manager.Manager {
	m, err := manager.Init(ctx, cfg)
	if err != nil {
		if errors.Is(err, manager.ErrCollaboratorUnavailable) {
			fmt.Fprintf(os.Stderr, "Device support disabled: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Error starting device backend: %v\n", err)
		}
		os.Exit(1)
	}
	return m
}

// openDB opens the history database. A database that cannot be opened
// disables history instead of failing the command.
func openDB() *db.DB {
	if cfg.Database == "" {
		return nil
	}
	database, err := db.New(cfg.Database)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.Database).Msg("Device history disabled")
		return nil
	}
	return database
}

// mustOpenDB opens the history database or exits
func mustOpenDB() *db.DB {
	database, err := db.New(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	return database
}

func describeAll(ctx context.Context, m *manager.Manager, database *db.DB) []report.Device {
	var out []report.Device
	for _, dev := range m.Devices() {
		d, err := describe(ctx, m, database, dev.BackendID())
		if err != nil {
			log.Warn().Err(err).Str("path", dev.BackendID()).Msg("Failed to describe device")
			continue
		}
		out = append(out, d)
	}
	return out
}

func describe(ctx context.Context, m *manager.Manager, database *db.DB, path string) (report.Device, error) {
	desc, err := m.Describe(ctx, objectPath(path))
	if err != nil {
		return report.Device{}, err
	}
	return report.Device{Description: desc, DisplayName: displayName(database, desc)}, nil
}

// displayName prefers the user-assigned name over "Vendor - Model"
func displayName(database *db.DB, desc manager.Description) string {
	if database != nil {
		name, ok, err := database.DeviceSetting(desc.DeviceID, db.SettingName)
		if err != nil {
			log.Debug().Err(err).Str("device", desc.DeviceID).Msg("Failed to read device name")
		}
		if ok && name != "" {
			return name
		}
	}
	return desc.Name
}
