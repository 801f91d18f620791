package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sigreer/playerdock/internal/db"
)

var renameCmd = &cobra.Command{
	Use:   "rename <device-id> <name>",
	Short: "Give a media player a display name",
	Long: `Store a display name for a media player. The name is shown by
"discover" and "watch" and can be passed to "eject". An empty name
restores the default "Vendor - Model" name.`,
	Args: cobra.ExactArgs(2),
	Run:  runRename,
}

func runRename(cmd *cobra.Command, args []string) {
	database := mustOpenDB()
	defer database.Close()

	deviceID, name := args[0], args[1]
	if err := database.SetDeviceSetting(deviceID, db.SettingName, name); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving name: %v\n", err)
		os.Exit(1)
	}
	if name == "" {
		fmt.Printf("Cleared name of %s\n", deviceID)
		return
	}
	fmt.Printf("Renamed %s to %q\n", deviceID, name)
}
