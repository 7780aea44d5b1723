//go:build windows

package main

import (
	"github.com/lxn/win"
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/windows"
)

// enableDPIAwareness makes pointer coordinates and display bounds agree in
// physical pixels on scaled monitors.
func enableDPIAwareness() {
	shcore := windows.NewLazySystemDLL("Shcore.dll")
	setProcessDpiAwareness := shcore.NewProc("SetProcessDpiAwareness")
	const processPerMonitorDPIAware = 2
	if err := setProcessDpiAwareness.Find(); err == nil {
		ret, _, _ := setProcessDpiAwareness.Call(uintptr(processPerMonitorDPIAware))
		if ret != 0 {
			log.Debug().Uint64("code", uint64(ret)).Msg("DPI: per-monitor awareness not applied")
		}
		return
	}

	user32 := windows.NewLazySystemDLL("user32.dll")
	setProcessDPIAware := user32.NewProc("SetProcessDPIAware")
	if err := setProcessDPIAware.Find(); err == nil {
		_, _, _ = setProcessDPIAware.Call()
		return
	}
	log.Debug().Msg("DPI: no awareness API available")
}

func logMonitorConfiguration() {
	const smCMonitors = 80
	log.Debug().
		Int32("monitors", win.GetSystemMetrics(smCMonitors)).
		Int32("virtual_x", win.GetSystemMetrics(win.SM_XVIRTUALSCREEN)).
		Int32("virtual_y", win.GetSystemMetrics(win.SM_YVIRTUALSCREEN)).
		Int32("virtual_w", win.GetSystemMetrics(win.SM_CXVIRTUALSCREEN)).
		Int32("virtual_h", win.GetSystemMetrics(win.SM_CYVIRTUALSCREEN)).
		Msg("monitor configuration")
}
