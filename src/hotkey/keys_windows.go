//go:build windows

package hotkey

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// keyNameToRawcodes maps a key name to its Windows virtual key code rawcodes.
// Modifiers return both left and right variants.
func keyNameToRawcodes(keyName string) []uint16 {
	keyName = strings.ToLower(strings.TrimSpace(keyName))

	switch keyName {
	case "ctrl":
		return []uint16{162, 163} // VK_LCONTROL, VK_RCONTROL
	case "alt":
		return []uint16{164, 165} // VK_LMENU, VK_RMENU
	case "shift":
		return []uint16{160, 161} // VK_LSHIFT, VK_RSHIFT
	case "win", "cmd", "super":
		return []uint16{91, 92} // VK_LWIN, VK_RWIN

	case "space":
		return []uint16{32} // VK_SPACE
	case "enter", "return":
		return []uint16{13} // VK_RETURN
	case "esc", "escape":
		return []uint16{27} // VK_ESCAPE
	case "tab":
		return []uint16{9} // VK_TAB
	case "backspace":
		return []uint16{8} // VK_BACK
	case "delete", "del":
		return []uint16{46} // VK_DELETE
	case "insert", "ins":
		return []uint16{45} // VK_INSERT
	case "home":
		return []uint16{36} // VK_HOME
	case "end":
		return []uint16{35} // VK_END
	case "pageup", "pgup":
		return []uint16{33} // VK_PRIOR
	case "pagedown", "pgdn":
		return []uint16{34} // VK_NEXT
	case "left":
		return []uint16{37}
	case "up":
		return []uint16{38}
	case "right":
		return []uint16{39}
	case "down":
		return []uint16{40}
	}

	// A-Z share their VK code with the uppercase ASCII letter, 0-9 with the digit.
	if len(keyName) == 1 {
		c := keyName[0]
		switch {
		case c >= 'a' && c <= 'z':
			return []uint16{uint16(c - 'a' + 'A')}
		case c >= '0' && c <= '9':
			return []uint16{uint16(c)}
		}
	}

	// F1-F24 are VK_F1 (112) onwards.
	if strings.HasPrefix(keyName, "f") {
		if n, err := strconv.Atoi(keyName[1:]); err == nil && n >= 1 && n <= 24 {
			return []uint16{uint16(111 + n)}
		}
	}

	log.Warn().Str("key", keyName).Msg("Unknown key name, cannot map to rawcode")
	return nil
}
