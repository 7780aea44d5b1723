package tray

import (
	"strings"
	"testing"
)

func TestIconIsSVG(t *testing.T) {
	if Icon.Name() == "" {
		t.Error("icon resource has no name")
	}
	if !strings.HasPrefix(string(Icon.Content()), "<svg") {
		t.Errorf("icon content is not SVG: %.20q", Icon.Content())
	}
}

func TestMenuItems(t *testing.T) {
	var got []string
	m := Menu("Code Popup", "Alt+Q", "Alt+C", Actions{
		Show:  func() { got = append(got, "show") },
		Clear: func() { got = append(got, "clear") },
		Quit:  func() { got = append(got, "quit") },
	})

	if len(m.Items) != 4 {
		t.Fatalf("expected 4 items (incl. separator), got %d", len(m.Items))
	}
	if m.Items[0].Label != "Show popup (Alt+Q)" {
		t.Errorf("show label = %q", m.Items[0].Label)
	}
	if m.Items[1].Label != "Clear (Alt+C)" {
		t.Errorf("clear label = %q", m.Items[1].Label)
	}
	if !m.Items[2].IsSeparator {
		t.Error("expected separator before Quit")
	}
	if !m.Items[3].IsQuit {
		t.Error("Quit item must be marked IsQuit so fyne does not add its own")
	}

	for _, i := range []int{0, 1, 3} {
		m.Items[i].Action()
	}
	if strings.Join(got, ",") != "show,clear,quit" {
		t.Errorf("actions ran as %v", got)
	}
}

func TestMenuNilActions(t *testing.T) {
	m := Menu("Code Popup", "", "", Actions{})
	if m.Items[0].Label != "Show popup" {
		t.Errorf("label without hotkey = %q", m.Items[0].Label)
	}
	m.Items[0].Action()
}
