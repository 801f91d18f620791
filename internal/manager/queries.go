package manager

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog/log"

	"github.com/sigreer/playerdock/internal/udisks"
)

// Description is everything known about one active device
type Description struct {
	Path        dbus.ObjectPath `json:"path"`
	DeviceID    string          `json:"device_id"`
	Name        string          `json:"name"`
	Class       string          `json:"class"`
	Protocol    string          `json:"protocol"`
	Icon        string          `json:"icon,omitempty"`
	BlockDevice string          `json:"block_device"`
	Mountpoint  string          `json:"mountpoint,omitempty"`
	Label       string          `json:"label,omitempty"`
	Serial      string          `json:"serial,omitempty"`
	Size        uint64          `json:"size,omitempty"`
	State       string          `json:"state"`
}

// lookup returns the decoded block and drive behind path. Caller holds m.mu.
func (m *Manager) lookup(path dbus.ObjectPath) (udisks.BlockProperties, udisks.DriveProperties, error) {
	var drive udisks.DriveProperties

	blockProps, ok := m.reg.Block(path)
	if !ok {
		return udisks.BlockProperties{}, drive, fmt.Errorf("%w: %s", ErrUnknownPath, path)
	}
	block, err := udisks.DecodeBlock(blockProps)
	if err != nil {
		return block, drive, err
	}
	driveProps, ok := m.reg.Drive(block.Drive)
	if !ok {
		return block, drive, fmt.Errorf("%w: drive %s", ErrUnknownPath, block.Drive)
	}
	drive, err = udisks.DecodeDrive(driveProps)
	return block, drive, err
}

// Name returns "Vendor - Model" for the drive behind path
func (m *Manager) Name(path dbus.ObjectPath) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, drive, err := m.lookup(path)
	if err != nil {
		return "", err
	}
	return drive.Vendor + " - " + drive.Model, nil
}

// BlockDevice returns the device node of path, e.g. /dev/sdc1
func (m *Manager) BlockDevice(path dbus.ObjectPath) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	blockProps, ok := m.reg.Block(path)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownPath, path)
	}
	block, err := udisks.DecodeBlock(blockProps)
	if err != nil {
		return "", err
	}
	return block.Device, nil
}

// Mountpoint fetches the first mount point of path over the bus. Bus errors
// and unmounted filesystems both yield "".
func (m *Manager) Mountpoint(ctx context.Context, path dbus.ObjectPath) string {
	mounts, err := m.bus.MountPoints(ctx, path)
	if err != nil {
		log.Debug().Err(err).Str("path", string(path)).Msg("Failed to fetch mount points")
		return ""
	}
	if len(mounts) == 0 {
		return ""
	}
	return mounts[0]
}

// Eject unmounts the filesystem at path, then ejects its drive. Unmount
// failures are ignored; the result reports whether the eject succeeded.
func (m *Manager) Eject(ctx context.Context, path dbus.ObjectPath) bool {
	if err := m.bus.Unmount(ctx, path); err != nil {
		log.Debug().Err(err).Str("path", string(path)).Msg("Unmount failed")
	}

	// this only works if no other filesystem on the drive is mounted
	m.mu.Lock()
	blockProps, ok := m.reg.Block(path)
	m.mu.Unlock()
	if !ok {
		log.Warn().Str("path", string(path)).Msg("Cannot eject unknown device")
		return false
	}
	block, err := udisks.DecodeBlock(blockProps)
	if err != nil {
		log.Warn().Err(err).Str("path", string(path)).Msg("Cannot eject device")
		return false
	}

	if err := m.bus.Eject(ctx, block.Drive); err != nil {
		log.Warn().Err(err).Str("drive", string(block.Drive)).Msg("Eject failed")
		return false
	}
	return true
}

// Describe collects the details of the active device at path
func (m *Manager) Describe(ctx context.Context, path dbus.ObjectPath) (Description, error) {
	m.mu.Lock()
	dev, ok := m.devices[path]
	block, drive, err := m.lookup(path)
	m.mu.Unlock()

	if !ok {
		return Description{}, fmt.Errorf("%w: no device at %s", ErrUnknownPath, path)
	}
	if err != nil {
		return Description{}, err
	}

	return Description{
		Path:        path,
		DeviceID:    dev.ID(),
		Name:        drive.Vendor + " - " + drive.Model,
		Class:       dev.ClassName(),
		Protocol:    dev.Protocol(),
		Icon:        dev.Icon(),
		BlockDevice: block.Device,
		Mountpoint:  m.Mountpoint(ctx, path),
		Label:       block.IDLabel,
		Serial:      drive.Serial,
		Size:        drive.Size,
		State:       m.State(path).String(),
	}, nil
}
