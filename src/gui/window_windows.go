//go:build windows

package gui

import (
	"fmt"
	"image"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"
)

const lwaAlpha = 0x2

var (
	user32                         = windows.NewLazySystemDLL("user32.dll")
	procSetLayeredWindowAttributes = user32.NewProc("SetLayeredWindowAttributes")
)

func foregroundWindow() uintptr {
	return uintptr(win.GetForegroundWindow())
}

// presentNative pins the popup above other windows without activating it,
// applies the layered opacity and restores the previous foreground window.
func presentNative(title string, pos image.Point, hasPos bool, opacity float64, prev uintptr) error {
	name, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return err
	}
	hwnd := win.FindWindow(nil, name)
	if hwnd == 0 {
		return fmt.Errorf("window %q not found", title)
	}

	style := win.GetWindowLong(hwnd, win.GWL_EXSTYLE)
	win.SetWindowLong(hwnd, win.GWL_EXSTYLE, style|win.WS_EX_LAYERED|win.WS_EX_TOOLWINDOW)
	alpha := uintptr(byte(opacity * 255))
	if r, _, callErr := procSetLayeredWindowAttributes.Call(uintptr(hwnd), 0, alpha, lwaAlpha); r == 0 {
		return fmt.Errorf("SetLayeredWindowAttributes: %w", callErr)
	}

	flags := uint32(win.SWP_NOSIZE | win.SWP_NOACTIVATE | win.SWP_SHOWWINDOW)
	if !hasPos {
		flags |= win.SWP_NOMOVE
	}
	if !win.SetWindowPos(hwnd, win.HWND_TOPMOST, int32(pos.X), int32(pos.Y), 0, 0, flags) {
		return fmt.Errorf("SetWindowPos failed")
	}

	if prev != 0 && win.HWND(prev) != hwnd {
		win.SetForegroundWindow(win.HWND(prev))
	}
	return nil
}
