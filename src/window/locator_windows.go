//go:build windows

package window

import (
	"fmt"
	"unsafe"

	"github.com/lxn/win"
	"golang.org/x/sys/windows"
)

const dwmwaCloaked = 14

var (
	user32             = windows.NewLazySystemDLL("user32.dll")
	procGetShellWindow = user32.NewProc("GetShellWindow")
	procGetClassName   = user32.NewProc("GetClassNameW")

	dwmapi                    = windows.NewLazySystemDLL("dwmapi.dll")
	procDwmGetWindowAttribute = dwmapi.NewProc("DwmGetWindowAttribute")
)

// System walks the Win32 top-level z-order.
type System struct {
	skip exclusions
}

func NewLocator() (*System, error) {
	return &System{}, nil
}

func (s *System) Close() {}

func (s *System) Exclude(hs ...Handle) { s.skip.add(hs...) }
func (s *System) Include(hs ...Handle) { s.skip.remove(hs...) }

// Locate does not use WindowFromPoint: that returns child controls and the
// overlay itself, while the picker wants the topmost other top-level window.
func (s *System) Locate(p Point) Handle {
	shell, _, _ := procGetShellWindow.Call()
	hwnd := win.GetWindow(win.GetDesktopWindow(), win.GW_CHILD)
	for hwnd != 0 {
		h := Handle(hwnd)
		if !s.skip.has(h) && win.IsWindowVisible(hwnd) && !win.IsIconic(hwnd) {
			var rc win.RECT
			if win.GetWindowRect(hwnd, &rc) && fromRECT(rc).Contains(p) {
				role := RoleDesktop
				if uintptr(hwnd) != shell {
					role = windowRole(hwnd)
				}
				switch role {
				case RoleApp:
					return h
				case RoleDesktop:
					// Everything below the wallpaper is hidden by it.
					return Null
				}
			}
		}
		hwnd = win.GetWindow(hwnd, win.GW_HWNDNEXT)
	}
	return Null
}

// windowRole is only asked about windows under the cursor.
func windowRole(hwnd win.HWND) Role {
	var class [64]uint16
	n, _, _ := procGetClassName.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&class[0])), uintptr(len(class)))
	if role := ShellClassRole(windows.UTF16ToString(class[:n])); role != RoleApp {
		return role
	}
	if win.GetWindowLong(hwnd, win.GWL_EXSTYLE)&win.WS_EX_TRANSPARENT != 0 {
		return RoleHidden
	}
	if procDwmGetWindowAttribute.Find() == nil {
		var cloaked uint32
		hr, _, _ := procDwmGetWindowAttribute.Call(uintptr(hwnd), dwmwaCloaked, uintptr(unsafe.Pointer(&cloaked)), unsafe.Sizeof(cloaked))
		if hr == 0 && cloaked != 0 {
			return RoleHidden
		}
	}
	return RoleApp
}

func (s *System) Bounds(h Handle) (Rect, error) {
	if h.IsNull() {
		return Rect{}, ErrHandleInvalid
	}
	hwnd := win.HWND(h)
	// IsWindowVisible is false for destroyed handles as well as hidden ones.
	if !win.IsWindowVisible(hwnd) {
		return Rect{}, fmt.Errorf("%w: window %s is gone or hidden", ErrHandleInvalid, h)
	}
	var rc win.RECT
	if !win.GetWindowRect(hwnd, &rc) {
		return Rect{}, fmt.Errorf("%w: GetWindowRect failed for %s", ErrHandleInvalid, h)
	}
	return fromRECT(rc), nil
}

func fromRECT(rc win.RECT) Rect {
	return R(int(rc.Left), int(rc.Top), int(rc.Right), int(rc.Bottom))
}
