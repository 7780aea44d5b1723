package clipboard

import (
	"sync"

	"golang.design/x/clipboard"
)

var (
	writeMu sync.Mutex
)

func Init() error {
	return clipboard.Init()
}

// Write performs a mutex-guarded clipboard write to prevent corruption under parallel writes.
func Write(text string) error {
	writeMu.Lock()
	defer writeMu.Unlock()
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

// Read returns the current text content of the system clipboard.
func Read() string {
	return string(clipboard.Read(clipboard.FmtText))
}

// System adapts the package functions to the Write(string) error shape the
// event loop and CLI depend on.
type System struct{}

func (System) Write(text string) error { return Write(text) }
