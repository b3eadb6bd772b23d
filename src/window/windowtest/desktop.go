// Package windowtest provides an in-memory desktop for exercising code that
// depends on window.Locator without a display server.
package windowtest

import (
	"sync"

	"voice-screen-capture/src/window"
)

type entry struct {
	h    window.Handle
	rect window.Rect
	role window.Role
	open bool
}

// Desktop is a z-ordered stack of fake windows. Windows added later are
// stacked on top.
type Desktop struct {
	mu      sync.Mutex
	stack   []*entry
	next    window.Handle
	skip    map[window.Handle]bool
	locates int
	bounds  int
}

func NewDesktop() *Desktop {
	return &Desktop{next: 0x1000, skip: make(map[window.Handle]bool)}
}

// Add opens an application window on top of the stack and returns its
// handle.
func (d *Desktop) Add(r window.Rect) window.Handle {
	return d.AddRole(r, window.RoleApp)
}

// AddRole opens a window of the given role on top of the stack. Desktop and
// hidden windows are looked through by Locate, like the real locators do.
func (d *Desktop) AddRole(r window.Rect, role window.Role) window.Handle {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.next += 0x10
	d.stack = append(d.stack, &entry{h: d.next, rect: r, role: role, open: true})
	return d.next
}

// Close simulates the window vanishing. The handle stays allocated, so
// Bounds reports ErrHandleInvalid rather than an unknown handle.
func (d *Desktop) Close(h window.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if e := d.find(h); e != nil {
		e.open = false
	}
}

// Move changes a window's rect.
func (d *Desktop) Move(h window.Handle, r window.Rect) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if e := d.find(h); e != nil {
		e.rect = r
	}
}

func (d *Desktop) Exclude(hs ...window.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, h := range hs {
		d.skip[h] = true
	}
}

func (d *Desktop) Include(hs ...window.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, h := range hs {
		delete(d.skip, h)
	}
}

func (d *Desktop) Locate(p window.Point) window.Handle {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.locates++
	for i := len(d.stack) - 1; i >= 0; i-- {
		e := d.stack[i]
		if e.open && e.role == window.RoleApp && !d.skip[e.h] && e.rect.Contains(p) {
			return e.h
		}
	}
	return window.Null
}

func (d *Desktop) Bounds(h window.Handle) (window.Rect, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bounds++
	e := d.find(h)
	if e == nil || !e.open {
		return window.Rect{}, window.ErrHandleInvalid
	}
	return e.rect, nil
}

// Calls reports how many Locate and Bounds queries were made.
func (d *Desktop) Calls() (locates, bounds int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.locates, d.bounds
}

func (d *Desktop) find(h window.Handle) *entry {
	for _, e := range d.stack {
		if e.h == h {
			return e
		}
	}
	return nil
}
