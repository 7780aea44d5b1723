package popup

import (
	"image"

	"github.com/rs/zerolog/log"

	"code-popup/src/hotkey"
)

// Window is the platform window the controller drives. Implementations
// marshal onto the UI thread themselves.
type Window interface {
	Size() image.Point
	Move(pos image.Point)
	// Present shows the window without taking keyboard focus.
	Present()
	Hide()
}

// Binder registers the transient close binding.
type Binder interface {
	Register(combo string, handler func()) (hotkey.Handle, error)
	Unregister(h hotkey.Handle) bool
}

// Screen reports the pointer location and the bounds of the display holding a point.
type Screen interface {
	Pointer() image.Point
	Bounds(p image.Point) image.Rectangle
}

type Options struct {
	Window     Window
	Binder     Binder
	Screen     Screen
	CloseCombo string
	// OnClose runs on the hook goroutine when the close binding fires.
	OnClose func()
}

// Controller owns the popup's visibility and its close binding. It is not
// safe for concurrent use; the event loop is its only caller.
type Controller struct {
	opts        Options
	visible     bool
	closeHandle hotkey.Handle
}

func New(opts Options) *Controller {
	return &Controller{opts: opts}
}

func (c *Controller) Visible() bool { return c.visible }

// Show centers the popup on the pointer and presents it. No-op when visible.
func (c *Controller) Show() {
	if c.visible {
		return
	}

	if c.opts.Screen != nil {
		ptr := c.opts.Screen.Pointer()
		pos := Place(ptr, c.opts.Window.Size(), c.opts.Screen.Bounds(ptr))
		c.opts.Window.Move(pos)
		log.Debug().Int("x", pos.X).Int("y", pos.Y).Msg("popup placed")
	}

	if c.closeHandle == 0 && c.opts.Binder != nil && c.opts.CloseCombo != "" {
		h, err := c.opts.Binder.Register(c.opts.CloseCombo, c.onClose)
		if err != nil {
			log.Warn().Err(err).Str("combo", c.opts.CloseCombo).Msg("close hotkey unavailable")
		} else {
			c.closeHandle = h
		}
	}

	c.opts.Window.Present()
	c.visible = true
}

// Hide releases the close binding and hides the window.
func (c *Controller) Hide() {
	if c.closeHandle != 0 {
		c.opts.Binder.Unregister(c.closeHandle)
		c.closeHandle = 0
	}
	if !c.visible {
		return
	}
	c.opts.Window.Hide()
	c.visible = false
}

func (c *Controller) onClose() {
	if c.opts.OnClose != nil {
		c.opts.OnClose()
	}
}

// Place centers a window of size on pointer, keeping it inside bounds when it fits.
func Place(pointer, size image.Point, bounds image.Rectangle) image.Point {
	pos := pointer.Sub(size.Div(2))
	if bounds.Empty() {
		return pos
	}
	if pos.X+size.X > bounds.Max.X {
		pos.X = bounds.Max.X - size.X
	}
	if pos.Y+size.Y > bounds.Max.Y {
		pos.Y = bounds.Max.Y - size.Y
	}
	if pos.X < bounds.Min.X {
		pos.X = bounds.Min.X
	}
	if pos.Y < bounds.Min.Y {
		pos.Y = bounds.Min.Y
	}
	return pos
}
