//go:build !windows

package hotkey

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// keyNameToRawcodes maps a key name to the X11 keysyms libuiohook reports as
// rawcodes outside Windows.
func keyNameToRawcodes(keyName string) []uint16 {
	keyName = strings.ToLower(strings.TrimSpace(keyName))

	switch keyName {
	case "ctrl":
		return []uint16{0xffe3, 0xffe4} // Control_L, Control_R
	case "alt":
		return []uint16{0xffe9, 0xffea} // Alt_L, Alt_R
	case "shift":
		return []uint16{0xffe1, 0xffe2} // Shift_L, Shift_R
	case "win", "cmd", "super":
		return []uint16{0xffeb, 0xffec} // Super_L, Super_R

	case "space":
		return []uint16{0x0020}
	case "enter", "return":
		return []uint16{0xff0d}
	case "esc", "escape":
		return []uint16{0xff1b}
	case "tab":
		return []uint16{0xff09}
	case "backspace":
		return []uint16{0xff08}
	case "delete", "del":
		return []uint16{0xffff}
	case "insert", "ins":
		return []uint16{0xff63}
	case "home":
		return []uint16{0xff50}
	case "end":
		return []uint16{0xff57}
	case "pageup", "pgup":
		return []uint16{0xff55}
	case "pagedown", "pgdn":
		return []uint16{0xff56}
	case "left":
		return []uint16{0xff51}
	case "up":
		return []uint16{0xff52}
	case "right":
		return []uint16{0xff53}
	case "down":
		return []uint16{0xff54}
	}

	// Latin letters and digits are their own lowercase ASCII keysyms.
	if len(keyName) == 1 {
		c := keyName[0]
		// With Caps Lock on, X11 reports the upper-case keysym.
		if c >= 'a' && c <= 'z' {
			return []uint16{uint16(c), uint16(c - 'a' + 'A')}
		}
		if c >= '0' && c <= '9' {
			return []uint16{uint16(c)}
		}
	}

	// F1 is 0xffbe; F1-F24 are contiguous.
	if strings.HasPrefix(keyName, "f") {
		if n, err := strconv.Atoi(keyName[1:]); err == nil && n >= 1 && n <= 24 {
			return []uint16{uint16(0xffbe + n - 1)}
		}
	}

	log.Warn().Str("key", keyName).Msg("Unknown key name, cannot map to rawcode")
	return nil
}
