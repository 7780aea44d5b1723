package hotkey

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"
	"github.com/rs/zerolog/log"
)

// ErrHookUnavailable is returned by Start when the OS keyboard hook could not
// be installed (missing privileges, no display, ...).
var ErrHookUnavailable = errors.New("global keyboard hook unavailable")

// Handle identifies one registered binding. The zero Handle is never issued.
type Handle uint64

type keyState struct {
	name     string
	rawcodes []uint16
}

type binding struct {
	combo   string
	keys    []keyState
	handler func()
}

// Router multiplexes a single gohook event stream onto any number of key
// combinations. Handlers run on the hook goroutine and must not block.
type Router struct {
	mu       sync.Mutex
	bindings map[Handle]*binding
	next     Handle
	pressed  map[uint16]bool
	started  bool
	done     chan struct{}

	start func() chan gohook.Event
	end   func()
}

func NewRouter() *Router {
	return &Router{
		bindings: make(map[Handle]*binding),
		pressed:  make(map[uint16]bool),
		start:    gohook.Start,
		end:      gohook.End,
	}
}

// Register binds combo (e.g. "Alt+Q", "Tab") to handler.
func (r *Router) Register(combo string, handler func()) (Handle, error) {
	if handler == nil {
		return 0, fmt.Errorf("hotkey %q: nil handler", combo)
	}
	keys, err := resolveCombo(combo)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	h := r.next
	r.bindings[h] = &binding{combo: combo, keys: keys, handler: handler}
	log.Debug().Str("combo", combo).Uint64("handle", uint64(h)).Msg("hotkey registered")
	return h, nil
}

// Unregister removes a binding. It reports whether the handle was live.
func (r *Router) Unregister(h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bindings[h]
	if !ok {
		return false
	}
	delete(r.bindings, h)
	log.Debug().Str("combo", b.combo).Uint64("handle", uint64(h)).Msg("hotkey unregistered")
	return true
}

// Start installs the keyboard hook and begins dispatching on a background goroutine.
func (r *Router) Start() error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	log.Info().Msg("Starting gohook event loop...")
	evChan := r.start()
	if evChan == nil {
		return ErrHookUnavailable
	}

	r.mu.Lock()
	r.started = true
	r.done = make(chan struct{})
	done := r.done
	r.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			if rec := recover(); rec != nil {
				log.Error().Interface("panic", rec).Msg("PANIC in hotkey goroutine")
			}
		}()
		for ev := range evChan {
			r.handle(ev)
		}
		log.Info().Msg("Event channel closed")
	}()
	return nil
}

// Close drops every binding and removes the hook. Used at process shutdown.
func (r *Router) Close() {
	r.mu.Lock()
	r.bindings = make(map[Handle]*binding)
	started := r.started
	r.started = false
	r.mu.Unlock()

	if started {
		r.end()
	}
}

func (r *Router) handle(ev gohook.Event) {
	switch ev.Kind {
	case gohook.KeyDown, gohook.KeyHold:
		for _, fn := range r.keyDown(ev.Rawcode) {
			fn()
		}
	case gohook.KeyUp:
		r.mu.Lock()
		delete(r.pressed, ev.Rawcode)
		r.mu.Unlock()
	}
}

// keyDown records the key and returns the handlers whose combo it completes.
func (r *Router) keyDown(rawcode uint16) []func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Auto-repeat and the typed/pressed pair for one physical press only
	// count once; the key re-arms on its KeyUp.
	if r.pressed[rawcode] {
		return nil
	}
	r.pressed[rawcode] = true

	var fire []func()
	for _, b := range r.bindings {
		if b.matches(rawcode, r.pressed) {
			log.Debug().Str("combo", b.combo).Msg("hotkey combination detected")
			fire = append(fire, b.handler)
		}
	}
	return fire
}

func (b *binding) matches(trigger uint16, pressed map[uint16]bool) bool {
	triggered := false
	for _, k := range b.keys {
		down := false
		for _, rc := range k.rawcodes {
			if pressed[rc] {
				down = true
			}
			if rc == trigger {
				triggered = true
			}
		}
		if !down {
			return false
		}
	}
	if !triggered {
		return false
	}
	// Any held modifier must be part of the combo: Alt+Tab is not Tab.
	for rc, down := range pressed {
		if !down || !isModifierRawcode(rc) {
			continue
		}
		if !b.contains(rc) {
			return false
		}
	}
	return true
}

func (b *binding) contains(rawcode uint16) bool {
	for _, k := range b.keys {
		for _, rc := range k.rawcodes {
			if rc == rawcode {
				return true
			}
		}
	}
	return false
}

func resolveCombo(combo string) ([]keyState, error) {
	names := parseHotkey(combo)
	if len(names) == 0 {
		return nil, fmt.Errorf("hotkey %q: empty combination", combo)
	}
	keys := make([]keyState, 0, len(names))
	for _, name := range names {
		rawcodes := keyNameToRawcodes(name)
		if len(rawcodes) == 0 {
			return nil, fmt.Errorf("hotkey %q: unknown key %q", combo, name)
		}
		keys = append(keys, keyState{name: name, rawcodes: rawcodes})
	}
	return keys, nil
}

// parseHotkey converts a hotkey string like "Ctrl+Alt+q" to normalized key names
func parseHotkey(hotkeyConfig string) []string {
	parts := strings.Split(strings.ToLower(hotkeyConfig), "+")
	var keys []string

	for _, part := range parts {
		part = strings.TrimSpace(part)
		switch part {
		case "":
			continue
		case "ctrl", "control":
			keys = append(keys, "ctrl")
		case "alt", "option":
			keys = append(keys, "alt")
		case "shift":
			keys = append(keys, "shift")
		case "win", "cmd", "super":
			keys = append(keys, "cmd")
		default:
			keys = append(keys, part)
		}
	}

	return keys
}

func isModifierRawcode(rc uint16) bool {
	for _, name := range []string{"ctrl", "alt", "shift", "cmd"} {
		for _, m := range keyNameToRawcodes(name) {
			if m == rc {
				return true
			}
		}
	}
	return false
}
