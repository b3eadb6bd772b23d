// Package window answers "which top-level window is under this point" and
// "where is that window now" against the live desktop.
package window

import (
	"errors"
	"fmt"
	"sync"
)

// ErrHandleInvalid is returned by Bounds when the handle no longer refers to
// a live window. Windows close at any time, so callers must expect it.
var ErrHandleInvalid = errors.New("window handle no longer valid")

// ErrUnsupported is returned by NewLocator on platforms without a backend.
var ErrUnsupported = errors.New("window lookup not supported on this platform")

// Point is a position in virtual-screen pixels. Coordinates may be negative
// on multi-monitor layouts.
type Point struct {
	X, Y int
}

// Rect is an axis-aligned screen rectangle. Right and Bottom are exclusive.
type Rect struct {
	Left, Top, Right, Bottom int
}

// R builds a Rect from its four edges.
func R(left, top, right, bottom int) Rect {
	return Rect{Left: left, Top: top, Right: right, Bottom: bottom}
}

func (r Rect) Width() int {
	if r.Right < r.Left {
		return 0
	}
	return r.Right - r.Left
}

func (r Rect) Height() int {
	if r.Bottom < r.Top {
		return 0
	}
	return r.Bottom - r.Top
}

// Empty reports whether the rect covers no pixels.
func (r Rect) Empty() bool { return r.Width() == 0 || r.Height() == 0 }

// Translate shifts the rect by (dx, dy).
func (r Rect) Translate(dx, dy int) Rect {
	return Rect{Left: r.Left + dx, Top: r.Top + dy, Right: r.Right + dx, Bottom: r.Bottom + dy}
}

func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X < r.Right && p.Y >= r.Top && p.Y < r.Bottom
}

// Intersect returns the overlap of r and o. The result is empty (zero value)
// when they do not overlap.
func (r Rect) Intersect(o Rect) Rect {
	out := Rect{
		Left:   max(r.Left, o.Left),
		Top:    max(r.Top, o.Top),
		Right:  min(r.Right, o.Right),
		Bottom: min(r.Bottom, o.Bottom),
	}
	if out.Right <= out.Left || out.Bottom <= out.Top {
		return Rect{}
	}
	return out
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", r.Left, r.Top, r.Right, r.Bottom)
}

// Handle identifies a top-level window owned by some other process. It is
// only a reference: this package never creates or destroys the windows it
// names.
type Handle uintptr

// Null means "no window".
const Null Handle = 0

func (h Handle) IsNull() bool { return h == Null }

func (h Handle) String() string { return fmt.Sprintf("0x%x", uintptr(h)) }

// Locator is the seam between the picker and the OS window system.
//
// Both calls are queried on every overlay tick and must stay cheap.
type Locator interface {
	// Locate returns the topmost visible window containing p, or Null.
	Locate(p Point) Handle
	// Bounds returns the current screen rect of h, or ErrHandleInvalid.
	Bounds(h Handle) (Rect, error)
}

// Role classifies a top-level window for hit-testing. Only RoleApp windows
// can be picked; the others are looked through.
type Role int

const (
	RoleApp Role = iota
	// RoleDesktop is the shell's background window. Hovering it counts as
	// hovering the bare desktop.
	RoleDesktop
	// RoleHidden is mapped but not seen: cloaked or click-through.
	RoleHidden
)

// ShellClassRole classifies a Win32 top-level window by class name. Progman
// and WorkerW host the desktop wallpaper and icons.
func ShellClassRole(class string) Role {
	switch class {
	case "Progman", "WorkerW":
		return RoleDesktop
	}
	return RoleApp
}

// X11TypeRole classifies a window by its _NET_WM_WINDOW_TYPE atoms.
func X11TypeRole(types []string) Role {
	for _, t := range types {
		if t == "_NET_WM_WINDOW_TYPE_DESKTOP" {
			return RoleDesktop
		}
	}
	return RoleApp
}

// Excluder is implemented by locators that can be told to look through
// specific windows, typically the picker's own overlay.
type Excluder interface {
	Exclude(hs ...Handle)
	Include(hs ...Handle)
}

// exclusions is a small set shared by the platform locators. Surfaces may
// register their window from a different goroutine than the one polling.
type exclusions struct {
	mu  sync.RWMutex
	set map[Handle]struct{}
}

func (e *exclusions) add(hs ...Handle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.set == nil {
		e.set = make(map[Handle]struct{})
	}
	for _, h := range hs {
		e.set[h] = struct{}{}
	}
}

func (e *exclusions) remove(hs ...Handle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, h := range hs {
		delete(e.set, h)
	}
}

func (e *exclusions) has(h Handle) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.set[h]
	return ok
}
