package overlay

import (
	"errors"

	"github.com/rs/zerolog/log"

	"voice-screen-capture/src/window"
)

const (
	// Instructions is drawn centred along the top of the overlay.
	Instructions = "Click on a window to capture it (ESC to cancel)"
	// BorderWidth is the thickness of the highlight around the hovered window.
	BorderWidth = 3
	// TextTop is the distance from the overlay's top edge to the text.
	TextTop = 20
)

// Frame is everything one redraw shows, in overlay-local coordinates.
type Frame struct {
	Width, Height int
	// Highlight is the hovered window's rect; valid only when HasHighlight.
	Highlight    window.Rect
	HasHighlight bool
	BorderWidth  int
	Text         string
	TextTop      int
}

// Compose builds the frame for the session's current state. area is the
// screen rect the overlay covers, used to translate window bounds into the
// overlay's local space.
//
// A hovered window that vanished since the last tick is drawn as no hover.
func Compose(s *Session, loc window.Locator, area window.Rect) Frame {
	f := Frame{
		Width:       area.Width(),
		Height:      area.Height(),
		BorderWidth: BorderWidth,
		Text:        Instructions,
		TextTop:     TextTop,
	}
	h := s.Hovered()
	if h.IsNull() {
		return f
	}
	r, err := loc.Bounds(h)
	if err != nil {
		if !errors.Is(err, window.ErrHandleInvalid) {
			log.Debug().Err(err).Stringer("window", h).Msg("Bounds query failed")
		}
		return f
	}
	f.Highlight = r.Translate(-area.Left, -area.Top)
	f.HasHighlight = true
	return f
}
