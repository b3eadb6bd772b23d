// Package screenshot turns a screen rectangle into pixels and hands the
// pixels to an output sink.
package screenshot

import (
	"errors"
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
	"github.com/rs/zerolog/log"

	"voice-screen-capture/src/window"
)

var (
	// ErrEmptyRegion is returned for a rect with zero width or height.
	ErrEmptyRegion = errors.New("capture region is empty")
	// ErrCaptureFailed wraps any failure to read pixels from the screen.
	ErrCaptureFailed = errors.New("screen capture failed")
	// ErrDeliveryFailed wraps a sink rejecting a buffer.
	ErrDeliveryFailed = errors.New("delivery to output sink failed")
	// ErrBufferConsumed is returned when a buffer is delivered twice.
	ErrBufferConsumed = errors.New("pixel buffer already delivered")
)

// Grabber reads pixels from the physical screen.
type Grabber interface {
	// Screen returns the virtual screen: the union of all active displays.
	Screen() (window.Rect, error)
	// Grab captures r, which lies inside Screen().
	Grab(r window.Rect) (*image.RGBA, error)
}

// Engine captures rectangles through a Grabber.
type Engine struct {
	grab Grabber
}

func New(g Grabber) *Engine {
	return &Engine{grab: g}
}

// Default returns an engine backed by the OS screen.
func Default() *Engine {
	return New(displayGrabber{})
}

// Capture reads the pixels of rect.
//
// The rect is clipped to the virtual screen without complaint; the buffer is
// still exactly rect-sized and off-screen pixels stay transparent. A rect
// that lies wholly off-screen cannot produce any pixels and fails.
func (e *Engine) Capture(rect window.Rect) (*PixelBuffer, error) {
	if rect.Empty() {
		return nil, fmt.Errorf("%w: %v", ErrEmptyRegion, rect)
	}

	screen, err := e.grab.Screen()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}
	visible := rect.Intersect(screen)
	if visible.Empty() {
		return nil, fmt.Errorf("%w: %v lies outside screen %v", ErrCaptureFailed, rect, screen)
	}
	if visible != rect {
		log.Debug().Stringer("rect", rect).Stringer("visible", visible).Msg("Clipping capture to screen")
	}

	img, err := e.grab.Grab(visible)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureFailed, err)
	}
	if img == nil || img.Bounds().Dx() != visible.Width() || img.Bounds().Dy() != visible.Height() {
		return nil, fmt.Errorf("%w: grabber returned wrong size for %v", ErrCaptureFailed, visible)
	}

	buf := NewPixelBuffer(rect.Width(), rect.Height())
	buf.blit(img, visible.Left-rect.Left, visible.Top-rect.Top)
	return buf, nil
}

// VirtualScreen returns the union of all active display bounds.
func (e *Engine) VirtualScreen() (window.Rect, error) {
	return e.grab.Screen()
}

// CaptureVirtualScreen grabs every display at once, for use as an overlay
// backdrop.
func (e *Engine) CaptureVirtualScreen() (*image.RGBA, window.Rect, error) {
	screen, err := e.grab.Screen()
	if err != nil {
		return nil, window.Rect{}, err
	}
	img, err := e.grab.Grab(screen)
	if err != nil {
		return nil, window.Rect{}, err
	}
	return img, screen, nil
}

// displayGrabber reads from the real displays via kbinani/screenshot.
type displayGrabber struct{}

func (displayGrabber) Screen() (window.Rect, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return window.Rect{}, fmt.Errorf("no active displays found")
	}
	union := screenshot.GetDisplayBounds(0)
	for i := 1; i < n; i++ {
		union = union.Union(screenshot.GetDisplayBounds(i))
	}
	return window.R(union.Min.X, union.Min.Y, union.Max.X, union.Max.Y), nil
}

func (displayGrabber) Grab(r window.Rect) (*image.RGBA, error) {
	img, err := screenshot.CaptureRect(image.Rect(r.Left, r.Top, r.Right, r.Bottom))
	if err != nil {
		return nil, fmt.Errorf("failed to capture region: %w", err)
	}
	return img, nil
}
