package device

import (
	"errors"
	"sort"

	"github.com/rs/zerolog/log"
)

// Access protocols known to the built-in classes
const (
	ProtocolStorage = "storage"
	ProtocolIPod    = "ipod"
	ProtocolMTP     = "mtp"
)

// ErrUnsupported means no registered class accepts the device
var ErrUnsupported = errors.New("not a supported device")

// Request carries what a class needs to decide on and build a device
type Request struct {
	// BackendID identifies the device to the backend (the UDisks2 object path)
	BackendID string
	// DeviceID is unique per physical device, derived from the drive id
	DeviceID string
	// Protocols are the access protocols from media-player-info
	Protocols []string
	// Mountpoint is the first mount point known at build time, may be empty
	Mountpoint string
}

// Device is a media player the application can talk to
type Device interface {
	BackendID() string
	ID() string
	ClassName() string
	Protocol() string
	Icon() string
	SetIcon(icon string)
	Close() error
}

// Class describes one kind of device and the protocol it speaks
type Class struct {
	Name     string
	Protocol string

	// Accepts reports whether the class can handle the request. A nil
	// Accepts takes everything.
	Accepts func(Request) bool

	New func(Request) Device
}

func (c Class) accepts(req Request) bool {
	return c.Accepts == nil || c.Accepts(req)
}

// Classes is the registry of device classes assembled at startup
type Classes struct {
	list []Class
}

// NewClasses builds a registry, sorted by class name
func NewClasses(classes ...Class) *Classes {
	list := append([]Class(nil), classes...)
	sort.SliceStable(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return &Classes{list: list}
}

// Names returns the registered class names in registry order
func (c *Classes) Names() []string {
	names := make([]string, len(c.list))
	for i, cls := range c.list {
		names[i] = cls.Name
	}
	return names
}

// Lookup returns the class registered under name
func (c *Classes) Lookup(name string) (Class, bool) {
	for _, cls := range c.list {
		if cls.Name == name {
			return cls, true
		}
	}
	return Class{}, false
}

// ByProtocols returns the first class speaking one of protocols. The storage
// protocol is always tried last; protocols itself is not modified.
func (c *Classes) ByProtocols(protocols []string) (Class, bool) {
	for _, p := range storageLast(protocols) {
		for _, cls := range c.list {
			if cls.Protocol == p {
				return cls, true
			}
		}
	}
	return Class{}, false
}

// Create builds a device for the request. The requested protocols are tried
// first, then plain storage. A class that turns the request down moves the
// search on to the next protocol list.
func (c *Classes) Create(req Request) (Device, error) {
	log.Debug().Str("device", req.DeviceID).Strs("protocols", req.Protocols).Msg("Creating device")

	for _, protocols := range [][]string{req.Protocols, {ProtocolStorage}} {
		cls, ok := c.ByProtocols(protocols)
		if !ok {
			continue
		}
		if !cls.accepts(req) {
			log.Debug().Str("device", req.DeviceID).Str("class", cls.Name).Msg("Class declined device")
			continue
		}
		return cls.New(req), nil
	}

	log.Warn().Str("device", req.DeviceID).Msg("Not a supported device")
	return nil, ErrUnsupported
}

// Filter keeps only the named classes. An empty names list keeps all.
func Filter(classes []Class, names []string) []Class {
	if len(names) == 0 {
		return classes
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []Class
	for _, cls := range classes {
		if want[cls.Name] {
			out = append(out, cls)
		}
	}
	return out
}

func storageLast(protocols []string) []string {
	out := make([]string, 0, len(protocols))
	storage := false
	for _, p := range protocols {
		if p == ProtocolStorage {
			storage = true
			continue
		}
		out = append(out, p)
	}
	if storage {
		out = append(out, ProtocolStorage)
	}
	return out
}
