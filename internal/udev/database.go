package udev

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Database reads device properties straight from sysfs and the udev
// database under /run/udev/data, without linking libudev.
type Database struct {
	SysRoot string // /sys
	DataDir string // /run/udev/data
}

// NewDatabase returns a Database reading the live system paths
func NewDatabase() *Database {
	return &Database{
		SysRoot: "/sys",
		DataDir: "/run/udev/data",
	}
}

// Check reports whether the udev database is present
func (d *Database) Check() error {
	info, err := os.Stat(d.DataDir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrUnavailable, d.DataDir)
	}
	return nil
}

// PropertiesForDevicePath resolves /dev/<name> through /sys/class/block and
// walks the sysfs parents up to /sys/devices.
func (d *Database) PropertiesForDevicePath(devPath string) ([]map[string]string, error) {
	sysRoot, err := filepath.EvalSymlinks(d.SysRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	devicesRoot := filepath.Join(sysRoot, "devices")

	name := filepath.Base(devPath)
	leaf, err := filepath.EvalSymlinks(filepath.Join(sysRoot, "class", "block", name))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, devPath)
	}

	var devices []map[string]string
	for dir := leaf; strings.HasPrefix(dir, devicesRoot+string(filepath.Separator)); dir = filepath.Dir(dir) {
		props, ok := d.readDevice(sysRoot, dir)
		if !ok {
			// leaf must be a device; intermediate directories need not be
			if dir == leaf {
				return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, devPath)
			}
			continue
		}
		devices = append(devices, props)
	}

	if len(devices) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, devPath)
	}
	return devices, nil
}

// readDevice merges the kernel uevent variables of a sysfs device with the
// udev database entry for it
func (d *Database) readDevice(sysRoot, dir string) (map[string]string, bool) {
	uevent, err := os.Open(filepath.Join(dir, "uevent"))
	if err != nil {
		return nil, false
	}
	defer uevent.Close()

	props := map[string]string{
		"DEVPATH": strings.TrimPrefix(dir, sysRoot),
	}

	scanner := bufio.NewScanner(uevent)
	for scanner.Scan() {
		parts := strings.SplitN(scanner.Text(), "=", 2)
		if len(parts) != 2 {
			continue
		}
		props[parts[0]] = parts[1]
	}

	if devName, ok := props["DEVNAME"]; ok && !strings.HasPrefix(devName, "/") {
		props["DEVNAME"] = "/dev/" + devName
	}

	subsystem := ""
	if target, err := os.Readlink(filepath.Join(dir, "subsystem")); err == nil {
		subsystem = filepath.Base(target)
		props["SUBSYSTEM"] = subsystem
	}

	for k, v := range d.readDatabase(dbEntryName(props, subsystem, filepath.Base(dir))) {
		props[k] = v
	}

	return props, true
}

// dbEntryName is the file name udev uses for a device in its database:
// b<maj>:<min> for block nodes, c<maj>:<min> for char nodes and
// +<subsystem>:<sysname> for devices without a node.
func dbEntryName(props map[string]string, subsystem, sysname string) string {
	major, hasMajor := props["MAJOR"]
	minor, hasMinor := props["MINOR"]
	if hasMajor && hasMinor {
		kind := "c"
		if subsystem == "block" {
			kind = "b"
		}
		return kind + major + ":" + minor
	}
	if subsystem == "" {
		return ""
	}
	return "+" + subsystem + ":" + sysname
}

// readDatabase returns the E: entries of a udev database file
func (d *Database) readDatabase(entry string) map[string]string {
	if entry == "" {
		return nil
	}
	file, err := os.Open(filepath.Join(d.DataDir, entry))
	if err != nil {
		return nil
	}
	defer file.Close()

	props := make(map[string]string)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()

		// Lines starting with E: are environment variables
		if !strings.HasPrefix(line, "E:") {
			continue
		}

		parts := strings.SplitN(strings.TrimPrefix(line, "E:"), "=", 2)
		if len(parts) != 2 {
			continue
		}
		props[parts[0]] = parts[1]
	}
	return props
}
