package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sigreer/playerdock/internal/db"
	"github.com/sigreer/playerdock/internal/report"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List every media player seen so far",
	Long: `List the media players recorded in the history database, attached or
not, with the settings stored for each of them.`,
	Run: runDevices,
}

func init() {
	devicesCmd.Flags().Bool("json", false, "Output as JSON")
}

// inventoryEntry is one device of --json output
type inventoryEntry struct {
	*db.DeviceRecord
	Settings map[string]string `json:"settings,omitempty"`
}

func runDevices(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	database := mustOpenDB()
	defer database.Close()

	records, err := database.ListDevices()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing devices: %v\n", err)
		os.Exit(1)
	}

	settings := make(map[string]map[string]string, len(records))
	for _, rec := range records {
		s, err := database.DeviceSettings(rec.DeviceID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading settings of %s: %v\n", rec.DeviceID, err)
			os.Exit(1)
		}
		settings[rec.DeviceID] = s
	}

	if jsonOutput {
		entries := make([]inventoryEntry, len(records))
		for i, rec := range records {
			entries[i] = inventoryEntry{DeviceRecord: rec, Settings: settings[rec.DeviceID]}
		}
		report.PrintJSON(os.Stdout, entries)
		return
	}
	report.PrintInventory(os.Stdout, records, settings, time.Now())
}
