//go:build !windows

package hotkey

import (
	"reflect"
	"testing"
)

func TestKeyNameToKeysyms(t *testing.T) {
	tests := []struct {
		key      string
		expected []uint16
	}{
		{"ctrl", []uint16{0xffe3, 0xffe4}},
		{"alt", []uint16{0xffe9, 0xffea}},
		{"cmd", []uint16{0xffeb, 0xffec}},
		{"a", []uint16{'a', 'A'}},
		{"s", []uint16{'s', 'S'}},
		{"0", []uint16{'0'}},
		{"f1", []uint16{0xffbe}},
		{"f12", []uint16{0xffc9}},
		{"escape", []uint16{0xff1b}},
		{"pgdn", []uint16{0xff56}},
		{"unknown", nil},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got := keyNameToRawcodes(tt.key)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("keyNameToRawcodes(%q) = %v, want %v", tt.key, got, tt.expected)
			}
		})
	}
}
