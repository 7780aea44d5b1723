//go:build windows

package hotkey

import "testing"

func TestKeyNameToRawcodes(t *testing.T) {
	tests := []struct {
		keyName  string
		expected []uint16
	}{
		{"ctrl", []uint16{162, 163}},
		{"alt", []uint16{164, 165}},
		{"shift", []uint16{160, 161}},
		{"win", []uint16{91, 92}},
		{"cmd", []uint16{91, 92}},

		{"q", []uint16{81}},
		{"x", []uint16{88}},
		{"c", []uint16{67}},
		{"0", []uint16{48}},
		{"9", []uint16{57}},

		{"f1", []uint16{112}},
		{"f12", []uint16{123}},
		{"f24", []uint16{135}},

		{"tab", []uint16{9}},
		{"space", []uint16{32}},
		{"enter", []uint16{13}},
		{"esc", []uint16{27}},

		{"f25", nil},
		{"unknown", nil},
	}

	for _, tt := range tests {
		t.Run(tt.keyName, func(t *testing.T) {
			result := keyNameToRawcodes(tt.keyName)
			if len(result) != len(tt.expected) {
				t.Fatalf("keyNameToRawcodes(%q) returned %d rawcodes, expected %d", tt.keyName, len(result), len(tt.expected))
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("keyNameToRawcodes(%q)[%d] = %d, expected %d", tt.keyName, i, result[i], tt.expected[i])
				}
			}
		})
	}
}
