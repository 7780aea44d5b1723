package tray

import (
	"fmt"

	"fyne.io/fyne/v2"
	"github.com/rs/zerolog/log"
)

// Actions are the tray menu callbacks. They run on the UI thread and should
// only post work elsewhere.
type Actions struct {
	Show  func()
	Clear func()
	Quit  func()
}

// Menu builds the tray menu. ShowHotkey and ClearHotkey are only used in labels.
func Menu(title, showHotkey, clearHotkey string, a Actions) *fyne.Menu {
	show := fyne.NewMenuItem(label("Show popup", showHotkey), wrap("show", a.Show))
	clearItem := fyne.NewMenuItem(label("Clear", clearHotkey), wrap("clear", a.Clear))
	quit := fyne.NewMenuItem("Quit", wrap("quit", a.Quit))
	quit.IsQuit = true
	return fyne.NewMenu(title, show, clearItem, fyne.NewMenuItemSeparator(), quit)
}

func label(text, hotkey string) string {
	if hotkey == "" {
		return text
	}
	return fmt.Sprintf("%s (%s)", text, hotkey)
}

func wrap(name string, fn func()) func() {
	return func() {
		log.Debug().Str("item", name).Msg("tray menu clicked")
		if fn != nil {
			fn()
		}
	}
}
