package manager

import (
	"errors"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog/log"

	"github.com/sigreer/playerdock/internal/device"
	"github.com/sigreer/playerdock/internal/udev"
	"github.com/sigreer/playerdock/internal/udisks"
)

var (
	// errNotReady: the block references a drive we have not seen yet. The
	// path is re-evaluated on the next event.
	errNotReady = errors.New("drive not known yet")

	errNotPlayer = errors.New("not a media player")
)

// build decides whether the block/filesystem pair at path is a media player
// and constructs its device. Caller holds m.mu.
func (m *Manager) build(path dbus.ObjectPath, blockProps, fsProps udisks.Properties) (device.Device, error) {
	block, err := udisks.DecodeBlock(blockProps)
	if err != nil {
		log.Warn().Err(err).Str("path", string(path)).Msg("Malformed block properties")
		return nil, err
	}

	driveProps, ok := m.reg.Drive(block.Drive)
	if !ok {
		log.Debug().Str("path", string(path)).Str("drive", string(block.Drive)).Msg("Drive not known yet")
		return nil, errNotReady
	}
	drive, err := udisks.DecodeDrive(driveProps)
	if err != nil {
		log.Warn().Err(err).Str("drive", string(block.Drive)).Msg("Malformed drive properties")
		return nil, err
	}

	log.Debug().Str("device", block.Device).Msg("Found device")

	playerID, err := udev.MediaPlayerID(m.udev, block.Device)
	if err != nil {
		log.Warn().Err(err).Str("device", block.Device).Msg("Failed to retrieve udev properties")
		return nil, errNotPlayer
	}
	if playerID == "" {
		log.Debug().Str("device", block.Device).Msg("Not a media player")
		return nil, errNotPlayer
	}
	protocols := m.protocols.Protocols(playerID)

	var mountpoint string
	if fs, err := udisks.DecodeFilesystem(fsProps); err == nil && len(fs.MountPoints) > 0 {
		mountpoint = fs.MountPoints[0]
	}

	dev, err := m.classes.Create(device.Request{
		BackendID:  string(path),
		DeviceID:   drive.ID,
		Protocols:  protocols,
		Mountpoint: mountpoint,
	})
	if err != nil {
		return nil, err
	}

	if block.HintIconName != "" {
		dev.SetIcon(block.HintIconName)
	}
	return dev, nil
}
