//go:build cgo

package udev

import (
	"fmt"

	goudev "github.com/jochenvg/go-udev"
)

// Libudev enumerates devices through libudev
type Libudev struct {
	u goudev.Udev
}

// newLibudev fails with ErrUnavailable when libudev cannot enumerate
// devices at all
func newLibudev() (Source, error) {
	l := &Libudev{}
	if l.u.NewEnumerate() == nil {
		return nil, fmt.Errorf("%w: could not find libudev", ErrUnavailable)
	}
	return l, nil
}

// PropertiesForDevicePath matches DEVNAME, takes the first device found and
// walks its parents.
func (l *Libudev) PropertiesForDevicePath(devPath string) ([]map[string]string, error) {
	enum := l.u.NewEnumerate()
	if enum == nil {
		return nil, fmt.Errorf("%w: enumerate", ErrUnavailable)
	}

	// only match the device we want
	if err := enum.AddMatchProperty("DEVNAME", devPath); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDeviceNotFound, devPath, err)
	}

	devices, err := enum.Devices()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDeviceNotFound, devPath, err)
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, devPath)
	}

	var attrs []map[string]string
	for dev := devices[0]; dev != nil; dev = dev.Parent() {
		props := dev.Properties()
		if len(props) == 0 {
			continue
		}
		attrs = append(attrs, props)
	}

	if len(attrs) == 0 {
		return nil, fmt.Errorf("%w: %s has no properties", ErrDeviceNotFound, devPath)
	}
	return attrs, nil
}
