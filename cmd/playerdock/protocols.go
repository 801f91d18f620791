package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sigreer/playerdock/internal/mpi"
	"github.com/sigreer/playerdock/internal/report"
)

var protocolsCmd = &cobra.Command{
	Use:   "protocols <media-player-id>",
	Short: "Show the media-player-info entry for a player",
	Long: `Look up a player in the media-player-info database by the value udev
assigns to ID_MEDIA_PLAYER, and print its access protocols and formats.`,
	Args: cobra.ExactArgs(1),
	Run:  runProtocols,
}

func init() {
	protocolsCmd.Flags().Bool("json", false, "Output as JSON")
}

func runProtocols(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	database, err := mpi.Open(cfg.MPIDirs)
	if err != nil {
		if errors.Is(err, mpi.ErrNotInstalled) {
			fmt.Fprintln(os.Stderr, "media-player-info is not installed")
		} else {
			fmt.Fprintf(os.Stderr, "Error opening media-player-info: %v\n", err)
		}
		os.Exit(1)
	}

	info, err := database.Info(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", args[0], err)
		os.Exit(1)
	}

	if jsonOutput {
		report.PrintJSON(os.Stdout, info)
		return
	}
	report.PrintPlayerInfo(os.Stdout, info)
}
