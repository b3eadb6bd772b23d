// Package overlay implements the modal window picker: a full-screen surface
// that highlights the window under the cursor until the user clicks one or
// presses Escape.
package overlay

import (
	"fmt"

	"voice-screen-capture/src/window"
)

// Phase is the picker's lifecycle state.
type Phase int

const (
	PhaseOpen Phase = iota
	PhaseHovering
	PhaseResolved
)

func (p Phase) String() string {
	switch p {
	case PhaseOpen:
		return "open"
	case PhaseHovering:
		return "hovering"
	case PhaseResolved:
		return "resolved"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

type Button int

const (
	ButtonPrimary Button = iota + 1
	ButtonMiddle
	ButtonSecondary
)

type Key int

const (
	KeyOther Key = iota
	KeyEscape
)

type OutcomeKind int

const (
	OutcomeSelected OutcomeKind = iota + 1
	OutcomeCancelled
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSelected:
		return "selected"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unresolved"
	}
}

// Outcome is how a picker session ended. Handle is set only when Kind is
// OutcomeSelected.
type Outcome struct {
	Kind   OutcomeKind
	Handle window.Handle
}

func Selected(h window.Handle) Outcome { return Outcome{Kind: OutcomeSelected, Handle: h} }

func Cancelled() Outcome { return Outcome{Kind: OutcomeCancelled} }

func (o Outcome) String() string {
	if o.Kind == OutcomeSelected {
		return fmt.Sprintf("selected %s", o.Handle)
	}
	return o.Kind.String()
}

// Session is the picker state for one overlay. It holds no OS resources, so
// every transition can be driven directly in tests.
//
// Once resolved, further Tick, Click and Key calls are ignored.
type Session struct {
	phase   Phase
	cursor  window.Point
	hovered window.Handle
	outcome Outcome
}

func NewSession() *Session {
	return &Session{phase: PhaseOpen}
}

func (s *Session) Phase() Phase           { return s.phase }
func (s *Session) Hovered() window.Handle { return s.hovered }
func (s *Session) Cursor() window.Point   { return s.cursor }

// Outcome returns the terminal outcome and whether the session is resolved.
func (s *Session) Outcome() (Outcome, bool) {
	return s.outcome, s.phase == PhaseResolved
}

// Tick records the sampled cursor position and the window under it. It
// reports whether the hovered window changed, meaning a redraw is due.
func (s *Session) Tick(cursor window.Point, loc window.Locator) bool {
	if s.phase == PhaseResolved {
		return false
	}
	s.phase = PhaseHovering
	s.cursor = cursor
	h := loc.Locate(cursor)
	if h == s.hovered {
		return false
	}
	s.hovered = h
	return true
}

// Click selects the hovered window on a primary click. Clicks over the bare
// desktop, and other buttons, are ignored.
func (s *Session) Click(b Button) {
	if s.phase == PhaseResolved || b != ButtonPrimary || s.hovered.IsNull() {
		return
	}
	s.resolve(Selected(s.hovered))
}

// Key cancels on Escape regardless of what is hovered.
func (s *Session) Key(k Key) {
	if s.phase == PhaseResolved || k != KeyEscape {
		return
	}
	s.resolve(Cancelled())
}

// Cancel resolves the session as cancelled, for shutdown and a surface that
// was closed out from under the picker.
func (s *Session) Cancel() {
	if s.phase == PhaseResolved {
		return
	}
	s.resolve(Cancelled())
}

func (s *Session) resolve(o Outcome) {
	s.outcome = o
	s.phase = PhaseResolved
}
