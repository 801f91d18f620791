package udisks

import (
	"sort"

	"github.com/godbus/dbus/v5"
)

// Registry holds the last known properties of every drive, block and
// filesystem interface, keyed by object path. It is not safe for concurrent
// use; the owner serializes access.
type Registry struct {
	drives map[dbus.ObjectPath]Properties
	fs     map[dbus.ObjectPath]Properties
	blocks map[dbus.ObjectPath]Properties
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		drives: make(map[dbus.ObjectPath]Properties),
		fs:     make(map[dbus.ObjectPath]Properties),
		blocks: make(map[dbus.ObjectPath]Properties),
	}
}

// UpdateInterfaces upserts the entries for every recognized interface in iap.
// Unknown interfaces are ignored and nothing is ever removed here.
func (r *Registry) UpdateInterfaces(path dbus.ObjectPath, iap InterfacesAndProperties) {
	if p, ok := iap[DriveIface]; ok {
		r.drives[path] = p
	}
	if p, ok := iap[FSIface]; ok {
		r.fs[path] = p
	}
	if p, ok := iap[BlockIface]; ok {
		r.blocks[path] = p
	}
}

// RemoveInterfaces deletes the entries at path for every recognized name
func (r *Registry) RemoveInterfaces(path dbus.ObjectPath, names []string) {
	for _, name := range names {
		switch name {
		case DriveIface:
			delete(r.drives, path)
		case FSIface:
			delete(r.fs, path)
		case BlockIface:
			delete(r.blocks, path)
		}
	}
}

// Drive returns the drive properties at path
func (r *Registry) Drive(path dbus.ObjectPath) (Properties, bool) {
	p, ok := r.drives[path]
	return p, ok
}

// Block returns the block properties at path
func (r *Registry) Block(path dbus.ObjectPath) (Properties, bool) {
	p, ok := r.blocks[path]
	return p, ok
}

// Filesystem returns the filesystem properties at path
func (r *Registry) Filesystem(path dbus.ObjectPath) (Properties, bool) {
	p, ok := r.fs[path]
	return p, ok
}

// ReadyPaths returns the paths that carry both a block and a filesystem
// interface, sorted so that evaluation order is stable.
func (r *Registry) ReadyPaths() []dbus.ObjectPath {
	var paths []dbus.ObjectPath
	for path := range r.fs {
		if _, ok := r.blocks[path]; ok {
			paths = append(paths, path)
		}
	}
	sort.Slice(paths, func(i, j int) bool { return paths[i] < paths[j] })
	return paths
}

// Counts returns the number of drives, filesystems and blocks tracked
func (r *Registry) Counts() (drives, filesystems, blocks int) {
	return len(r.drives), len(r.fs), len(r.blocks)
}
