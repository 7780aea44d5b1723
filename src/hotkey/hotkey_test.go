package hotkey

import (
	"errors"
	"testing"

	gohook "github.com/robotn/gohook"
)

func TestParseHotkey(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"Alt+Q", []string{"alt", "q"}},
		{"alt+x", []string{"alt", "x"}},
		{"Tab", []string{"tab"}},
		{"Ctrl+Shift+F13", []string{"ctrl", "shift", "f13"}},
		{"Control + Option + C", []string{"ctrl", "alt", "c"}},
		{"Win+Shift+S", []string{"cmd", "shift", "s"}},
		{"Super+Alt+T", []string{"cmd", "alt", "t"}},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := parseHotkey(tt.input)
			if len(result) != len(tt.expected) {
				t.Fatalf("parseHotkey(%q) returned %d keys, expected %d", tt.input, len(result), len(tt.expected))
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("parseHotkey(%q)[%d] = %q, expected %q", tt.input, i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func rc(t *testing.T, name string) uint16 {
	t.Helper()
	codes := keyNameToRawcodes(name)
	if len(codes) == 0 {
		t.Fatalf("no rawcode for %q", name)
	}
	return codes[0]
}

func down(r *Router, code uint16) { r.handle(gohook.Event{Kind: gohook.KeyDown, Rawcode: code}) }
func up(r *Router, code uint16)   { r.handle(gohook.Event{Kind: gohook.KeyUp, Rawcode: code}) }

func TestRegisterRejectsUnknownKeys(t *testing.T) {
	r := NewRouter()
	if _, err := r.Register("Alt+Nope", func() {}); err == nil {
		t.Error("expected error for unknown key")
	}
	if _, err := r.Register("", func() {}); err == nil {
		t.Error("expected error for empty combo")
	}
	if _, err := r.Register("Alt+Q", nil); err == nil {
		t.Error("expected error for nil handler")
	}
}

func TestRouterFiresOnCombo(t *testing.T) {
	r := NewRouter()
	var show, submit int
	if _, err := r.Register("Alt+Q", func() { show++ }); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Register("Alt+X", func() { submit++ }); err != nil {
		t.Fatal(err)
	}

	alt, q, x := rc(t, "alt"), rc(t, "q"), rc(t, "x")

	down(r, q)
	up(r, q)
	if show != 0 {
		t.Fatalf("bare Q must not fire Alt+Q")
	}

	down(r, alt)
	down(r, q)
	if show != 1 {
		t.Fatalf("expected Alt+Q to fire once, got %d", show)
	}
	// auto-repeat while held
	down(r, q)
	if show != 1 {
		t.Fatalf("auto-repeat fired again: %d", show)
	}
	up(r, q)

	// Alt still held: X completes Alt+X.
	down(r, x)
	up(r, x)
	up(r, alt)
	if submit != 1 {
		t.Fatalf("expected Alt+X to fire once, got %d", submit)
	}
	if show != 1 {
		t.Fatalf("Alt+Q fired unexpectedly: %d", show)
	}
}

func TestRouterModifierMustBeExact(t *testing.T) {
	r := NewRouter()
	closed := 0
	if _, err := r.Register("Tab", func() { closed++ }); err != nil {
		t.Fatal(err)
	}
	alt, tab := rc(t, "alt"), rc(t, "tab")

	down(r, alt)
	down(r, tab)
	up(r, tab)
	up(r, alt)
	if closed != 0 {
		t.Fatalf("Alt+Tab must not fire the Tab binding")
	}

	down(r, tab)
	up(r, tab)
	if closed != 1 {
		t.Fatalf("expected Tab to fire once, got %d", closed)
	}
}

func TestUnregister(t *testing.T) {
	r := NewRouter()
	fired := 0
	h, err := r.Register("Tab", func() { fired++ })
	if err != nil {
		t.Fatal(err)
	}
	if h == 0 {
		t.Fatal("zero handle issued")
	}
	if !r.Unregister(h) {
		t.Fatal("expected live handle")
	}
	if r.Unregister(h) {
		t.Fatal("second unregister should report false")
	}

	tab := rc(t, "tab")
	down(r, tab)
	up(r, tab)
	if fired != 0 {
		t.Fatalf("unregistered binding fired %d times", fired)
	}
}

func TestStartWithoutHook(t *testing.T) {
	r := NewRouter()
	r.start = func() chan gohook.Event { return nil }
	if err := r.Start(); !errors.Is(err, ErrHookUnavailable) {
		t.Fatalf("expected ErrHookUnavailable, got %v", err)
	}
}

func TestStartDispatchesAndClose(t *testing.T) {
	r := NewRouter()
	events := make(chan gohook.Event, 4)
	ended := false
	r.start = func() chan gohook.Event { return events }
	r.end = func() {
		ended = true
		close(events)
	}

	fired := make(chan struct{}, 1)
	if _, err := r.Register("Tab", func() { fired <- struct{}{} }); err != nil {
		t.Fatal(err)
	}
	if err := r.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	events <- gohook.Event{Kind: gohook.KeyDown, Rawcode: rc(t, "tab")}
	<-fired

	r.Close()
	<-r.done
	if !ended {
		t.Fatal("Close should end the hook")
	}
}
