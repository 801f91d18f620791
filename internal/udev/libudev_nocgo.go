//go:build !cgo

package udev

import "fmt"

func newLibudev() (Source, error) {
	return nil, fmt.Errorf("%w: built without cgo, use the %q backend", ErrUnavailable, BackendDatabase)
}
