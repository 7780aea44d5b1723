//go:build !windows && !linux

package gui

import (
	"errors"
	"image"
)

var errNoNativeWindow = errors.New("native window control not supported on this platform")

func foregroundWindow() uintptr { return 0 }

// presentNative is a no-op here (macOS and other platforms without X11);
// the window manager decides placement.
func presentNative(string, image.Point, bool, float64, uintptr) error {
	return errNoNativeWindow
}
