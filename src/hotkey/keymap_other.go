//go:build !windows

package hotkey

// keyNameToRawcodes maps a key name to X11 keysyms, which the hook reports
// as the rawcode outside Windows. Letters match with and without Shift.
func keyNameToRawcodes(name string) []uint16 {
	switch {
	case len(name) == 1 && name[0] >= 'a' && name[0] <= 'z':
		return []uint16{uint16(name[0]), uint16(name[0] - 'a' + 'A')}
	case len(name) == 1 && name[0] >= '0' && name[0] <= '9':
		return []uint16{uint16(name[0])}
	}
	if n, ok := functionKey(name); ok {
		return []uint16{0xffbe + uint16(n-1)} // XK_F1..XK_F24
	}

	switch name {
	case "ctrl":
		return []uint16{0xffe3, 0xffe4}
	case "alt":
		return []uint16{0xffe9, 0xffea}
	case "shift":
		return []uint16{0xffe1, 0xffe2}
	case "cmd":
		return []uint16{0xffeb, 0xffec}
	case "space":
		return []uint16{0x20}
	case "enter", "return":
		return []uint16{0xff0d}
	case "esc", "escape":
		return []uint16{0xff1b}
	case "tab":
		return []uint16{0xff09}
	case "backspace":
		return []uint16{0xff08}
	case "delete", "del":
		return []uint16{0xffff}
	case "insert", "ins":
		return []uint16{0xff63}
	case "home":
		return []uint16{0xff50}
	case "end":
		return []uint16{0xff57}
	case "pageup", "pgup":
		return []uint16{0xff55}
	case "pagedown", "pgdn":
		return []uint16{0xff56}
	case "left":
		return []uint16{0xff51}
	case "up":
		return []uint16{0xff52}
	case "right":
		return []uint16{0xff53}
	case "down":
		return []uint16{0xff54}
	case "printscreen", "prtsc":
		return []uint16{0xff61}
	}
	return nil
}
