package gui

import (
	"image"

	"github.com/go-vgo/robotgo"
	"github.com/kbinani/screenshot"
)

// Screen reports the pointer and display geometry in physical pixels.
type Screen struct{}

func (Screen) Pointer() image.Point {
	x, y := robotgo.Location()
	return image.Pt(x, y)
}

// Bounds returns the display containing p, or the primary display.
func (Screen) Bounds(p image.Point) image.Rectangle {
	n := screenshot.NumActiveDisplays()
	displays := make([]image.Rectangle, 0, n)
	for i := 0; i < n; i++ {
		displays = append(displays, screenshot.GetDisplayBounds(i))
	}
	return displayFor(p, displays)
}

func displayFor(p image.Point, displays []image.Rectangle) image.Rectangle {
	for _, d := range displays {
		if p.In(d) {
			return d
		}
	}
	if len(displays) > 0 {
		return displays[0]
	}
	return image.Rectangle{}
}
