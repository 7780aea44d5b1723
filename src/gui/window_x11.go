//go:build linux

package gui

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/rs/zerolog/log"
)

const (
	netWMStateAdd    = 1
	sourceIndication = 2
	// Depth of root -> WM frame -> decoration -> client on reparenting WMs.
	maxTreeDepth = 4
)

var errNoNativeWindow = errors.New("native window control not supported on this platform")

// x11Display is a second X connection used only to place the popup; fyne's
// own connection lives inside GLFW and is not reachable from Go.
type x11Display struct {
	conn *xgb.Conn
	root xproto.Window

	mu    sync.Mutex
	atoms map[string]xproto.Atom
	found map[string]xproto.Window
}

var (
	displayOnce sync.Once
	display     *x11Display
	displayErr  error
)

func openDisplay() (*x11Display, error) {
	displayOnce.Do(func() {
		conn, err := xgb.NewConn()
		if err != nil {
			displayErr = fmt.Errorf("%w: X11: %v", errNoNativeWindow, err)
			return
		}
		screen := xproto.Setup(conn).DefaultScreen(conn)
		display = &x11Display{
			conn:  conn,
			root:  screen.Root,
			atoms: make(map[string]xproto.Atom),
			found: make(map[string]xproto.Window),
		}
		log.Debug().Msg("X11 connection for window placement opened")
	})
	return display, displayErr
}

func foregroundWindow() uintptr {
	d, err := openDisplay()
	if err != nil {
		return 0
	}
	return uintptr(d.activeWindow())
}

// presentNative moves the popup to pos, keeps it above other windows and out
// of the taskbar, sets the compositor opacity and hands focus back to prev.
func presentNative(title string, pos image.Point, hasPos bool, opacity float64, prev uintptr) error {
	d, err := openDisplay()
	if err != nil {
		return err
	}
	win, err := d.window(title)
	if err != nil {
		return err
	}

	if hasPos {
		err := xproto.ConfigureWindowChecked(d.conn, win,
			xproto.ConfigWindowX|xproto.ConfigWindowY,
			[]uint32{uint32(int32(pos.X)), uint32(int32(pos.Y))}).Check()
		if err != nil {
			return fmt.Errorf("move window: %w", err)
		}
	}

	if err := d.setCardinal(win, "_NET_WM_WINDOW_OPACITY", opacityCardinal(opacity)); err != nil {
		return fmt.Errorf("set opacity: %w", err)
	}

	stateAtom, err := d.atom("_NET_WM_STATE")
	if err != nil {
		return err
	}
	above, err := d.atom("_NET_WM_STATE_ABOVE")
	if err != nil {
		return err
	}
	skip, err := d.atom("_NET_WM_STATE_SKIP_TASKBAR")
	if err != nil {
		return err
	}
	if err := d.sendToRoot(stateMessage(win, stateAtom, above, skip)); err != nil {
		return fmt.Errorf("request always-on-top: %w", err)
	}

	if prev != 0 && xproto.Window(prev) != win {
		activeAtom, err := d.atom("_NET_ACTIVE_WINDOW")
		if err != nil {
			return err
		}
		if err := d.sendToRoot(activateMessage(xproto.Window(prev), activeAtom)); err != nil {
			return fmt.Errorf("restore focus: %w", err)
		}
	}
	return nil
}

// window finds the popup by title. The popup is hidden, never destroyed, so
// the first match is kept.
func (d *x11Display) window(title string) (xproto.Window, error) {
	d.mu.Lock()
	win, ok := d.found[title]
	d.mu.Unlock()
	if ok {
		return win, nil
	}

	win = findByTitle(d, d.root, title)
	if win == 0 {
		return 0, fmt.Errorf("window %q not found", title)
	}
	d.mu.Lock()
	d.found[title] = win
	d.mu.Unlock()
	return win, nil
}

func (d *x11Display) atom(name string) (xproto.Atom, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if a, ok := d.atoms[name]; ok {
		return a, nil
	}
	reply, err := xproto.InternAtom(d.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("intern %s: %w", name, err)
	}
	d.atoms[name] = reply.Atom
	return reply.Atom, nil
}

func (d *x11Display) children(w xproto.Window) []xproto.Window {
	reply, err := xproto.QueryTree(d.conn, w).Reply()
	if err != nil {
		return nil
	}
	return reply.Children
}

func (d *x11Display) name(w xproto.Window) string {
	if a, err := d.atom("_NET_WM_NAME"); err == nil {
		if v := d.property(w, a); v != "" {
			return v
		}
	}
	return d.property(w, xproto.AtomWmName)
}

func (d *x11Display) property(w xproto.Window, prop xproto.Atom) string {
	reply, err := xproto.GetProperty(d.conn, false, w, prop, xproto.AtomAny, 0, 256).Reply()
	if err != nil || reply.Format != 8 {
		return ""
	}
	return string(reply.Value)
}

func (d *x11Display) activeWindow() xproto.Window {
	a, err := d.atom("_NET_ACTIVE_WINDOW")
	if err != nil {
		return 0
	}
	reply, err := xproto.GetProperty(d.conn, false, d.root, a, xproto.AtomWindow, 0, 1).Reply()
	if err != nil || reply.Format != 32 || len(reply.Value) < 4 {
		return 0
	}
	return xproto.Window(xgb.Get32(reply.Value))
}

func (d *x11Display) setCardinal(w xproto.Window, name string, v uint32) error {
	a, err := d.atom(name)
	if err != nil {
		return err
	}
	buf := make([]byte, 4)
	xgb.Put32(buf, v)
	return xproto.ChangePropertyChecked(d.conn, xproto.PropModeReplace, w, a,
		xproto.AtomCardinal, 32, 1, buf).Check()
}

func (d *x11Display) sendToRoot(ev xproto.ClientMessageEvent) error {
	mask := uint32(xproto.EventMaskSubstructureRedirect | xproto.EventMaskSubstructureNotify)
	return xproto.SendEventChecked(d.conn, false, d.root, mask, string(ev.Bytes())).Check()
}

type windowTree interface {
	children(w xproto.Window) []xproto.Window
	name(w xproto.Window) string
}

// findByTitle walks the window tree breadth first and returns the first
// window named title, or 0.
func findByTitle(t windowTree, root xproto.Window, title string) xproto.Window {
	level := []xproto.Window{root}
	for depth := 0; depth < maxTreeDepth && len(level) > 0; depth++ {
		var next []xproto.Window
		for _, w := range level {
			for _, c := range t.children(w) {
				if t.name(c) == title {
					return c
				}
				next = append(next, c)
			}
		}
		level = next
	}
	return 0
}

// opacityCardinal scales 0..1 to the full CARDINAL range compositors expect.
func opacityCardinal(opacity float64) uint32 {
	opacity = math.Max(0, math.Min(1, opacity))
	return uint32(opacity * math.MaxUint32)
}

func stateMessage(win xproto.Window, state, first, second xproto.Atom) xproto.ClientMessageEvent {
	return xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   state,
		Data: xproto.ClientMessageDataUnionData32New([]uint32{
			netWMStateAdd, uint32(first), uint32(second), sourceIndication, 0,
		}),
	}
}

func activateMessage(win xproto.Window, active xproto.Atom) xproto.ClientMessageEvent {
	return xproto.ClientMessageEvent{
		Format: 32,
		Window: win,
		Type:   active,
		Data: xproto.ClientMessageDataUnionData32New([]uint32{
			sourceIndication, 0, 0, 0, 0,
		}),
	}
}
