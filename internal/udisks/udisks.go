package udisks

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
)

// D-Bus names used by the UDisks2 daemon
const (
	BusName       = "org.freedesktop.UDisks2"
	ManagerPath   = dbus.ObjectPath("/org/freedesktop/UDisks2")
	BlockIface    = "org.freedesktop.UDisks2.Block"
	FSIface       = "org.freedesktop.UDisks2.Filesystem"
	DriveIface    = "org.freedesktop.UDisks2.Drive"
	PropIface     = "org.freedesktop.DBus.Properties"
	ObjManIface   = "org.freedesktop.DBus.ObjectManager"
	AddedSignal   = ObjManIface + ".InterfacesAdded"
	RemovedSignal = ObjManIface + ".InterfacesRemoved"
)

// ErrMissingProperty is returned when a property payload lacks a key or
// carries it with an unexpected type.
var ErrMissingProperty = errors.New("missing property")

// Properties is the property map of one interface on one object
type Properties map[string]dbus.Variant

// InterfacesAndProperties maps interface names to their properties
type InterfacesAndProperties map[string]Properties

// ManagedObjects is the reply of ObjectManager.GetManagedObjects
type ManagedObjects map[dbus.ObjectPath]InterfacesAndProperties

// DriveProperties holds the attributes of org.freedesktop.UDisks2.Drive we use
type DriveProperties struct {
	ID        string `json:"id"`
	Vendor    string `json:"vendor"`
	Model     string `json:"model"`
	Serial    string `json:"serial,omitempty"`
	Size      uint64 `json:"size,omitempty"`
	Removable bool   `json:"removable"`
	Ejectable bool   `json:"ejectable"`
}

// BlockProperties holds the attributes of org.freedesktop.UDisks2.Block we use
type BlockProperties struct {
	Device       string          `json:"device"`
	Drive        dbus.ObjectPath `json:"drive"`
	HintIconName string          `json:"hint_icon_name,omitempty"`
	IDLabel      string          `json:"id_label,omitempty"`
	IDType       string          `json:"id_type,omitempty"`
}

// FilesystemProperties holds the attributes of org.freedesktop.UDisks2.Filesystem
type FilesystemProperties struct {
	MountPoints []string `json:"mount_points"`
}

// DecodeByteString returns the bytes of b up to the first NUL byte.
// UDisks2 sends device nodes and mount points as NUL-terminated byte arrays.
func DecodeByteString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// DecodeDrive extracts the drive attributes. Id, Vendor and Model are required.
func DecodeDrive(p Properties) (DriveProperties, error) {
	var d DriveProperties
	var err error
	if d.ID, err = stringProp(p, "Id"); err != nil {
		return d, err
	}
	if d.Vendor, err = stringProp(p, "Vendor"); err != nil {
		return d, err
	}
	if d.Model, err = stringProp(p, "Model"); err != nil {
		return d, err
	}
	d.Serial, _ = stringProp(p, "Serial")
	if v, ok := p["Size"]; ok {
		d.Size, _ = v.Value().(uint64)
	}
	if v, ok := p["Removable"]; ok {
		d.Removable, _ = v.Value().(bool)
	}
	if v, ok := p["Ejectable"]; ok {
		d.Ejectable, _ = v.Value().(bool)
	}
	return d, nil
}

// DecodeBlock extracts the block attributes. Device and Drive are required.
func DecodeBlock(p Properties) (BlockProperties, error) {
	var b BlockProperties

	v, ok := p["Device"]
	if !ok {
		return b, fmt.Errorf("%w: Device", ErrMissingProperty)
	}
	raw, ok := v.Value().([]byte)
	if !ok {
		return b, fmt.Errorf("%w: Device has type %s", ErrMissingProperty, v.Signature())
	}
	b.Device = DecodeByteString(raw)

	v, ok = p["Drive"]
	if !ok {
		return b, fmt.Errorf("%w: Drive", ErrMissingProperty)
	}
	if b.Drive, ok = v.Value().(dbus.ObjectPath); !ok {
		return b, fmt.Errorf("%w: Drive has type %s", ErrMissingProperty, v.Signature())
	}

	b.HintIconName, _ = stringProp(p, "HintIconName")
	b.IDLabel, _ = stringProp(p, "IdLabel")
	b.IDType, _ = stringProp(p, "IdType")
	return b, nil
}

// DecodeFilesystem extracts the mount points. A missing MountPoints key is
// not an error: the filesystem is simply not mounted.
func DecodeFilesystem(p Properties) (FilesystemProperties, error) {
	var fs FilesystemProperties
	v, ok := p["MountPoints"]
	if !ok {
		return fs, nil
	}
	raw, ok := v.Value().([][]byte)
	if !ok {
		return fs, fmt.Errorf("%w: MountPoints has type %s", ErrMissingProperty, v.Signature())
	}
	fs.MountPoints = DecodeByteStrings(raw)
	return fs, nil
}

// DecodeByteStrings decodes a D-Bus aay value
func DecodeByteStrings(raw [][]byte) []string {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		out = append(out, DecodeByteString(r))
	}
	return out
}

func stringProp(p Properties, key string) (string, error) {
	v, ok := p[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingProperty, key)
	}
	s, ok := v.Value().(string)
	if !ok {
		return "", fmt.Errorf("%w: %s has type %s", ErrMissingProperty, key, v.Signature())
	}
	return s, nil
}
