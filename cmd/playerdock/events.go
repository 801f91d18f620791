package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sigreer/playerdock/internal/db"
	"github.com/sigreer/playerdock/internal/report"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent device events",
	Long: `Show the recorded history of media players being added, removed
and ejected. Events are recorded by "discover", "watch" and "eject".`,
	Run: runEvents,
}

func init() {
	eventsCmd.Flags().Int("limit", 20, "Number of events to show")
	eventsCmd.Flags().String("device", "", "Only show events for this device id")
	eventsCmd.Flags().Bool("json", false, "Output as JSON")
}

func runEvents(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	deviceID, _ := cmd.Flags().GetString("device")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	database := mustOpenDB()
	defer database.Close()

	var (
		events []*db.DeviceEvent
		err    error
	)
	if deviceID != "" {
		events, err = database.DeviceEvents(deviceID, limit)
	} else {
		events, err = database.RecentEvents(limit)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading events: %v\n", err)
		os.Exit(1)
	}

	if jsonOutput {
		report.PrintJSON(os.Stdout, events)
		return
	}
	report.PrintEvents(os.Stdout, events, time.Now())
}
