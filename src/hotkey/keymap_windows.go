//go:build windows

package hotkey

// keyNameToRawcodes maps a key name to its Windows virtual-key codes, which
// is what the hook reports as the rawcode. Modifiers match either side.
func keyNameToRawcodes(name string) []uint16 {
	switch {
	case len(name) == 1 && name[0] >= 'a' && name[0] <= 'z':
		return []uint16{uint16(name[0]-'a') + 0x41}
	case len(name) == 1 && name[0] >= '0' && name[0] <= '9':
		return []uint16{uint16(name[0]-'0') + 0x30}
	}
	if n, ok := functionKey(name); ok {
		return []uint16{0x70 + uint16(n-1)} // VK_F1..VK_F24
	}

	switch name {
	case "ctrl":
		return []uint16{162, 163} // VK_LCONTROL, VK_RCONTROL
	case "alt":
		return []uint16{164, 165} // VK_LMENU, VK_RMENU
	case "shift":
		return []uint16{160, 161} // VK_LSHIFT, VK_RSHIFT
	case "cmd":
		return []uint16{91, 92} // VK_LWIN, VK_RWIN
	case "space":
		return []uint16{32}
	case "enter", "return":
		return []uint16{13}
	case "esc", "escape":
		return []uint16{27}
	case "tab":
		return []uint16{9}
	case "backspace":
		return []uint16{8}
	case "delete", "del":
		return []uint16{46}
	case "insert", "ins":
		return []uint16{45}
	case "home":
		return []uint16{36}
	case "end":
		return []uint16{35}
	case "pageup", "pgup":
		return []uint16{33}
	case "pagedown", "pgdn":
		return []uint16{34}
	case "left":
		return []uint16{37}
	case "up":
		return []uint16{38}
	case "right":
		return []uint16{39}
	case "down":
		return []uint16{40}
	case "printscreen", "prtsc":
		return []uint16{44}
	}
	return nil
}
