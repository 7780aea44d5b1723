package gui

import (
	"image"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog/log"
)

const (
	AppID = "io.github.code-popup"

	Width       = 400
	Height      = 150
	Opacity     = 0.8
	Placeholder = "Drag text here or type..."
)

// App owns the fyne application, the popup window and its text entry. All
// widget access is marshalled onto the fyne thread, so the exported methods
// may be called from any goroutine.
type App struct {
	app   fyne.App
	win   fyne.Window
	entry *widget.Entry
	title string

	mu      sync.Mutex
	pos     image.Point
	hasPos  bool
	onClose func()
}

// New creates the application and the hidden, borderless popup window.
func New(title string, icon fyne.Resource) *App {
	return newApp(app.NewWithID(AppID), title, icon)
}

func newApp(a fyne.App, title string, icon fyne.Resource) *App {
	if icon != nil {
		a.SetIcon(icon)
	}

	var w fyne.Window
	if drv, ok := a.Driver().(desktop.Driver); ok {
		w = drv.CreateSplashWindow()
		w.SetTitle(title)
	} else {
		w = a.NewWindow(title)
	}

	entry := widget.NewMultiLineEntry()
	entry.SetPlaceHolder(Placeholder)
	entry.Wrapping = fyne.TextWrapWord

	g := &App{app: a, win: w, entry: entry, title: title}

	w.SetContent(entry)
	w.Resize(fyne.NewSize(Width, Height))
	w.SetFixedSize(true)
	w.SetCloseIntercept(g.closeRequested)
	w.SetOnDropped(g.dropped)

	a.Lifecycle().SetOnStarted(func() {
		log.Info().Msg("UI started")
	})
	return g
}

// dropped replaces the entry contents with whatever was dropped on the window.
// fyne calls it on its own thread.
func (g *App) dropped(_ fyne.Position, uris []fyne.URI) {
	text := droppedText(uris, readFileURI)
	if text == "" {
		return
	}
	log.Debug().Int("items", len(uris)).Int("chars", len(text)).Msg("drop accepted")
	g.entry.SetText(text)
}

// SetOnCloseRequest sets what happens when the window manager asks the popup
// to close. The window itself is never destroyed.
func (g *App) SetOnCloseRequest(fn func()) {
	g.mu.Lock()
	g.onClose = fn
	g.mu.Unlock()
}

func (g *App) closeRequested() {
	g.mu.Lock()
	fn := g.onClose
	g.mu.Unlock()
	if fn != nil {
		fn()
		return
	}
	g.win.Hide()
}

// SetTray installs the system tray icon and menu where the driver supports one.
func (g *App) SetTray(menu *fyne.Menu, icon fyne.Resource) bool {
	desk, ok := g.app.(desktop.App)
	if !ok {
		log.Warn().Msg("system tray not supported by this driver")
		return false
	}
	desk.SetSystemTrayMenu(menu)
	if icon != nil {
		desk.SetSystemTrayIcon(icon)
	}
	return true
}

// Run blocks on the fyne event loop until Quit.
func (g *App) Run() { g.app.Run() }

func (g *App) Quit() { fyne.Do(g.app.Quit) }

// Text returns the entry contents.
func (g *App) Text() string {
	var text string
	fyne.DoAndWait(func() { text = g.entry.Text })
	return text
}

// SetText replaces the entry contents and returns once the widget holds them.
func (g *App) SetText(text string) {
	fyne.DoAndWait(func() { g.entry.SetText(text) })
}

// Size is the window size in physical pixels.
func (g *App) Size() image.Point {
	scale := float32(1)
	fyne.DoAndWait(func() {
		if c := g.win.Canvas(); c != nil && c.Scale() > 0 {
			scale = c.Scale()
		}
	})
	return image.Pt(int(Width*scale), int(Height*scale))
}

// Move records where the next Present should put the window.
func (g *App) Move(pos image.Point) {
	g.mu.Lock()
	g.pos, g.hasPos = pos, true
	g.mu.Unlock()
}

// Present shows the window at the recorded position, always on top, and
// hands focus back to whatever had it.
func (g *App) Present() {
	g.mu.Lock()
	pos, hasPos := g.pos, g.hasPos
	g.mu.Unlock()

	fyne.DoAndWait(func() {
		prev := foregroundWindow()
		g.win.Show()
		if err := presentNative(g.title, pos, hasPos, Opacity, prev); err != nil {
			log.Debug().Err(err).Msg("native window placement unavailable")
		}
	})
}

func (g *App) Hide() {
	fyne.Do(g.win.Hide)
}
