//go:build !windows

package main

import (
	"github.com/kbinani/screenshot"
	"github.com/rs/zerolog/log"
)

func enableDPIAwareness() {}

func logMonitorConfiguration() {
	n := screenshot.NumActiveDisplays()
	for i := 0; i < n; i++ {
		log.Debug().Int("display", i).Stringer("bounds", screenshot.GetDisplayBounds(i)).Msg("monitor configuration")
	}
}
