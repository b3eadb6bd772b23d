// Package overlaytest provides a scriptable overlay.Surface for driving the
// picker without a display.
package overlaytest

import (
	"context"
	"sync"
	"time"

	"voice-screen-capture/src/overlay"
	"voice-screen-capture/src/window"
)

// Surface records presented frames and lets tests move the cursor and inject
// clicks and key presses.
type Surface struct {
	area window.Rect

	mu      sync.Mutex
	openErr error
	cursor  window.Point
	frames  []overlay.Frame
	events  chan overlay.Event
	open    bool
	opens   int
	closes  int
	changed chan struct{}
}

func NewSurface(area window.Rect) *Surface {
	return &Surface{area: area, changed: make(chan struct{}, 1)}
}

// FailOpen makes the next Open calls return err.
func (s *Surface) FailOpen(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openErr = err
}

func (s *Surface) Open(context.Context) (window.Rect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openErr != nil {
		return window.Rect{}, s.openErr
	}
	s.opens++
	s.open = true
	s.events = make(chan overlay.Event, 16)
	s.frames = nil
	s.notify()
	return s.area, nil
}

func (s *Surface) Events() <-chan overlay.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events
}

func (s *Surface) Cursor() (window.Point, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor, nil
}

func (s *Surface) Present(f overlay.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, f)
	s.notify()
	return nil
}

func (s *Surface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	s.closes++
	s.notify()
	return nil
}

// MoveCursor sets the position reported to the next tick.
func (s *Surface) MoveCursor(p window.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = p
}

func (s *Surface) Click(b overlay.Button) {
	s.inject(overlay.Event{Kind: overlay.EventClick, Button: b})
}

func (s *Surface) Press(k overlay.Key) {
	s.inject(overlay.Event{Kind: overlay.EventKey, Key: k})
}

func (s *Surface) inject(ev overlay.Event) {
	s.mu.Lock()
	ch := s.events
	s.mu.Unlock()
	if ch != nil {
		ch <- ev
	}
}

// Frames returns the frames presented since the last Open.
func (s *Surface) Frames() []overlay.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]overlay.Frame(nil), s.frames...)
}

// Counts returns how many times the surface was opened and closed.
func (s *Surface) Counts() (opens, closes int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens, s.closes
}

func (s *Surface) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// WaitOpen blocks until the surface is open or the timeout passes.
func (s *Surface) WaitOpen(timeout time.Duration) bool {
	return s.wait(timeout, func() bool { return s.open })
}

// WaitFrame blocks until a presented frame satisfies match.
func (s *Surface) WaitFrame(timeout time.Duration, match func(overlay.Frame) bool) (overlay.Frame, bool) {
	var found overlay.Frame
	ok := s.wait(timeout, func() bool {
		for i := len(s.frames) - 1; i >= 0; i-- {
			if match(s.frames[i]) {
				found = s.frames[i]
				return true
			}
		}
		return false
	})
	return found, ok
}

// wait polls cond under the lock, waking on every state change.
func (s *Surface) wait(timeout time.Duration, cond func() bool) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		s.mu.Lock()
		ok := cond()
		s.mu.Unlock()
		if ok {
			return true
		}
		select {
		case <-s.changed:
		case <-deadline.C:
			return false
		}
	}
}

func (s *Surface) notify() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}
