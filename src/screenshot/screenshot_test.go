package screenshot

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"voice-screen-capture/src/window"
)

// fakeGrabber serves a solid-colour screen and records requested rects.
type fakeGrabber struct {
	screen  window.Rect
	fill    color.RGBA
	err     error
	grabbed []window.Rect
}

func (g *fakeGrabber) Screen() (window.Rect, error) { return g.screen, nil }

func (g *fakeGrabber) Grab(r window.Rect) (*image.RGBA, error) {
	g.grabbed = append(g.grabbed, r)
	if g.err != nil {
		return nil, g.err
	}
	img := image.NewRGBA(image.Rect(0, 0, r.Width(), r.Height()))
	for y := 0; y < r.Height(); y++ {
		for x := 0; x < r.Width(); x++ {
			img.SetRGBA(x, y, g.fill)
		}
	}
	return img, nil
}

func newFake() *fakeGrabber {
	return &fakeGrabber{
		screen: window.R(0, 0, 1920, 1080),
		fill:   color.RGBA{R: 0x11, G: 0x22, B: 0x33, A: 0xff},
	}
}

func TestCaptureExactSize(t *testing.T) {
	g := newFake()
	buf, err := New(g).Capture(window.R(100, 100, 400, 300))
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if buf.Width() != 300 || buf.Height() != 200 {
		t.Fatalf("buffer is %dx%d, want 300x200", buf.Width(), buf.Height())
	}
	if got := buf.ARGB(0, 0); got != 0xff112233 {
		t.Errorf("ARGB(0,0) = %#x, want 0xff112233", got)
	}
	if len(g.grabbed) != 1 || g.grabbed[0] != window.R(100, 100, 400, 300) {
		t.Errorf("grabbed %v", g.grabbed)
	}
}

func TestCaptureEmptyRegion(t *testing.T) {
	g := newFake()
	for _, r := range []window.Rect{window.R(10, 10, 10, 90), window.R(10, 10, 90, 10), {}} {
		if _, err := New(g).Capture(r); !errors.Is(err, ErrEmptyRegion) {
			t.Errorf("Capture(%v) err = %v, want ErrEmptyRegion", r, err)
		}
	}
	if len(g.grabbed) != 0 {
		t.Errorf("empty regions must not touch the screen, grabbed %v", g.grabbed)
	}
}

func TestCaptureClipsToScreen(t *testing.T) {
	g := newFake()
	buf, err := New(g).Capture(window.R(1820, 1030, 2020, 1130))
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if buf.Width() != 200 || buf.Height() != 100 {
		t.Fatalf("buffer is %dx%d, want 200x100", buf.Width(), buf.Height())
	}
	if got := g.grabbed[0]; got != window.R(1820, 1030, 1920, 1080) {
		t.Errorf("grabbed %v, want clipped rect", got)
	}
	if got := buf.ARGB(50, 25); got != 0xff112233 {
		t.Errorf("visible pixel = %#x", got)
	}
	if got := buf.ARGB(150, 75); got != 0 {
		t.Errorf("off-screen pixel = %#x, want transparent", got)
	}
}

func TestCaptureOffScreenFails(t *testing.T) {
	_, err := New(newFake()).Capture(window.R(3000, 0, 3100, 100))
	if !errors.Is(err, ErrCaptureFailed) {
		t.Errorf("err = %v, want ErrCaptureFailed", err)
	}
}

func TestCaptureGrabberError(t *testing.T) {
	g := newFake()
	g.err = errors.New("BitBlt failed")
	_, err := New(g).Capture(window.R(0, 0, 10, 10))
	if !errors.Is(err, ErrCaptureFailed) {
		t.Errorf("err = %v, want ErrCaptureFailed", err)
	}
}

func TestDeliverTransfersOwnership(t *testing.T) {
	buf := NewPixelBuffer(3, 2)
	var got *PixelBuffer
	sink := SinkFunc(func(b *PixelBuffer) error {
		got = b
		return nil
	})

	if err := Deliver(buf, sink); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if got != buf || !buf.Consumed() {
		t.Fatal("sink did not receive the buffer")
	}
	if err := Deliver(buf, sink); !errors.Is(err, ErrBufferConsumed) {
		t.Errorf("second Deliver err = %v, want ErrBufferConsumed", err)
	}
}

func TestDeliverSinkFailure(t *testing.T) {
	calls := 0
	sink := SinkFunc(func(*PixelBuffer) error {
		calls++
		return errors.New("clipboard busy")
	})
	err := Deliver(NewPixelBuffer(1, 1), sink)
	if !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("err = %v, want ErrDeliveryFailed", err)
	}
	if calls != 1 {
		t.Errorf("sink called %d times, want exactly one attempt", calls)
	}
}

func TestBufferImage(t *testing.T) {
	buf := NewPixelBuffer(2, 1)
	buf.SetARGB(1, 0, 0xff0000ff)
	img := buf.Image()
	if c := img.RGBAAt(1, 0); c != (color.RGBA{B: 0xff, A: 0xff}) {
		t.Errorf("pixel = %+v", c)
	}
	if c := img.RGBAAt(0, 0); c.A != 0 {
		t.Errorf("unset pixel should be transparent, got %+v", c)
	}
}

func TestDefaultCapture(t *testing.T) {
	// Needs a display; only checks that the real grabber behaves when present.
	e := Default()
	screen, err := e.VirtualScreen()
	if err != nil {
		t.Skipf("no display available: %v", err)
	}
	r := window.R(screen.Left, screen.Top, screen.Left+10, screen.Top+10)
	buf, err := e.Capture(r)
	if err != nil {
		t.Skipf("capture unavailable in this environment: %v", err)
	}
	if buf.Width() != 10 || buf.Height() != 10 {
		t.Errorf("buffer is %dx%d", buf.Width(), buf.Height())
	}
}
