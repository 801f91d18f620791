package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sigreer/playerdock/internal/db"
	"github.com/sigreer/playerdock/internal/manager"
	"github.com/sigreer/playerdock/internal/report"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Report media players as they come and go",
	Long: `List the attached media players, then keep following UDisks2 and print
a line for every player that is added or removed. Stop with Ctrl-C.`,
	Run: runWatch,
}

func init() {
	watchCmd.Flags().Bool("json", false, "Output events as JSON lines")
}

// watchEvent is one line of --json output
type watchEvent struct {
	Time   time.Time      `json:"time"`
	Event  string         `json:"event"`
	Path   string         `json:"path"`
	Device *report.Device `json:"device,omitempty"`
}

func runWatch(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := startManager(ctx)
	defer m.Close()

	database := openDB()
	if database != nil {
		defer database.Close()
		recorder := db.NewRecorder(database, m.Name)
		m.Subscribe(recorder)
		log.Info().Str("session", recorder.Session()).Str("path", database.Path()).Msg("Recording device history")
	}

	events := manager.NewChanObserver(64)
	m.Subscribe(events)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events.C {
			printWatchEvent(ctx, m, database, ev, jsonOutput)
		}
	}()

	err := m.Run(ctx)
	close(events.C)
	<-done

	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error watching devices: %v\n", err)
		os.Exit(1)
	}
}

func printWatchEvent(ctx context.Context, m *manager.Manager, database *db.DB, ev manager.Event, jsonOutput bool) {
	out := watchEvent{Time: time.Now(), Event: string(ev.Type), Path: string(ev.Path)}
	if ev.Type == manager.EventAdded {
		if d, err := describe(ctx, m, database, string(ev.Path)); err == nil {
			out.Device = &d
		}
	}

	if jsonOutput {
		report.PrintJSON(os.Stdout, out)
		return
	}

	switch {
	case out.Device != nil:
		fmt.Printf("%s  + %s (%s, %s) %s\n", out.Time.Format(time.Kitchen), out.Device.DisplayName,
			out.Device.Class, out.Device.Protocol, out.Device.BlockDevice)
	case ev.Type == manager.EventAdded:
		fmt.Printf("%s  + %s\n", out.Time.Format(time.Kitchen), out.Path)
	default:
		fmt.Printf("%s  - %s\n", out.Time.Format(time.Kitchen), out.Path)
	}
}
