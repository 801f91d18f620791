package manager

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/sigreer/playerdock/internal/config"
	"github.com/sigreer/playerdock/internal/device"
	"github.com/sigreer/playerdock/internal/mpi"
	"github.com/sigreer/playerdock/internal/udev"
	"github.com/sigreer/playerdock/internal/udisks"
)

// Init wires the system collaborators from cfg. Any missing collaborator
// yields ErrCollaboratorUnavailable; callers treat that as "no device
// backend" and carry on without device support.
func Init(ctx context.Context, cfg *config.Config) (*Manager, error) {
	log.Debug().Msg("Initializing device backend")

	var missing []string

	src, err := udev.New(cfg.UdevBackend)
	if err != nil {
		log.Warn().Err(err).Msg("UDisks2: Could not find udev")
		missing = append(missing, "udev")
	}

	protocols, err := mpi.Open(cfg.MPIDirs)
	if err != nil {
		log.Warn().Err(err).Msg("UDisks2: Could not find media-player-info")
		missing = append(missing, mpi.DirName)
	}

	if len(missing) > 0 {
		err := fmt.Errorf("%w: missing %s", ErrCollaboratorUnavailable, strings.Join(missing, ", "))
		log.Warn().Err(err).Msg("Couldn't connect to a device backend")
		return nil, err
	}

	bus, err := udisks.ConnectSystemBus(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Couldn't connect to a device backend")
		return nil, fmt.Errorf("%w: %v", ErrCollaboratorUnavailable, err)
	}

	classes, unknown := enabledClasses(cfg.Classes)
	if len(unknown) > 0 {
		log.Warn().Strs("classes", unknown).Msg("Ignoring unknown device classes in config")
	}
	m, err := New(Options{
		Bus:       bus,
		Udev:      src,
		Protocols: protocols,
		Classes:   classes,
	})
	if err != nil {
		bus.Close()
		return nil, err
	}

	log.Debug().Strs("classes", classes.Names()).Str("mpi", protocols.Path()).Msg("Device backend initialized")
	return m, nil
}

// enabledClasses builds the class registry from the configured names and
// reports the names no built-in class answers to
func enabledClasses(names []string) (*device.Classes, []string) {
	all := device.NewClasses(device.DefaultClasses()...)
	var unknown []string
	for _, name := range names {
		if _, ok := all.Lookup(name); !ok {
			unknown = append(unknown, name)
		}
	}
	return device.NewClasses(device.Filter(device.DefaultClasses(), names)...), unknown
}
