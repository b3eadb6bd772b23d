package activation

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"voice-screen-capture/src/overlay"
	"voice-screen-capture/src/overlay/overlaytest"
	"voice-screen-capture/src/screenshot"
	"voice-screen-capture/src/window"
	"voice-screen-capture/src/window/windowtest"
)

// recorder collects everything the bridge reports and delivers.
type recorder struct {
	mu        sync.Mutex
	activated int
	captured  [][2]int
	failed    []error
	delivered []*screenshot.PixelBuffer
	sinkErr   error
}

func (r *recorder) Activated(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activated++
}

func (r *recorder) Captured(w, h int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.captured = append(r.captured, [2]int{w, h})
}

func (r *recorder) Failed(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, err)
}

func (r *recorder) Accept(buf *screenshot.PixelBuffer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delivered = append(r.delivered, buf)
	return r.sinkErr
}

// grabber is a 1920x1080 screen that records requested rects.
type grabber struct {
	mu      sync.Mutex
	grabbed []window.Rect
}

func (g *grabber) Screen() (window.Rect, error) { return window.R(0, 0, 1920, 1080), nil }

func (g *grabber) Grab(r window.Rect) (*image.RGBA, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.grabbed = append(g.grabbed, r)
	return image.NewRGBA(image.Rect(0, 0, r.Width(), r.Height())), nil
}

// stubPicker returns a fixed outcome, optionally blocking until released.
type stubPicker struct {
	out     overlay.Outcome
	err     error
	entered chan struct{}
	release chan struct{}

	mu    sync.Mutex
	calls int
}

func (p *stubPicker) Pick(ctx context.Context) (overlay.Outcome, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.entered != nil {
		p.entered <- struct{}{}
	}
	if p.release != nil {
		<-p.release
	}
	return p.out, p.err
}

func (p *stubPicker) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func TestMatchesIsExact(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Hey Brittney shoot", true},
		{"Hey Brittney shoot!", false},
		{"hey brittney shoot", false},
		{" Hey Brittney shoot", false},
		{"Hey Brittney shoot ", false},
		{"Hey Brittney", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := Matches(tt.text); got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestOnRecognizedIgnoresOtherText(t *testing.T) {
	p := &stubPicker{out: overlay.Cancelled()}
	rec := &recorder{}
	b := New(windowtest.NewDesktop(), p, screenshot.New(&grabber{}), rec, rec)

	if got := b.OnRecognized(context.Background(), "Hey Brittney shoot!"); got != ResultIgnored {
		t.Errorf("result = %v, want ignored", got)
	}
	if p.Calls() != 0 || rec.activated != 0 {
		t.Error("non-matching text opened a session")
	}
}

func TestEndToEndCapture(t *testing.T) {
	desk := windowtest.NewDesktop()
	desk.Add(window.R(100, 100, 400, 300))
	surf := overlaytest.NewSurface(window.R(0, 0, 1920, 1080))
	surf.MoveCursor(window.Point{X: 250, Y: 200})
	g := &grabber{}
	rec := &recorder{}

	driver := overlay.NewDriver(desk, surf, overlay.WithInterval(time.Millisecond))
	b := New(desk, driver, screenshot.New(g), rec, rec)

	done := make(chan Result, 1)
	go func() { done <- b.OnRecognized(context.Background(), Phrase) }()

	if _, ok := surf.WaitFrame(2*time.Second, func(f overlay.Frame) bool { return f.HasHighlight }); !ok {
		t.Fatal("window never highlighted")
	}
	surf.Click(overlay.ButtonPrimary)

	var res Result
	select {
	case res = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("session did not finish")
	}
	if res != ResultCaptured {
		t.Fatalf("result = %v, want captured (failures: %v)", res, rec.failed)
	}
	if len(g.grabbed) != 1 || g.grabbed[0] != window.R(100, 100, 400, 300) {
		t.Errorf("captured %v, want [(100,100,400,300)]", g.grabbed)
	}
	if len(rec.delivered) != 1 {
		t.Fatalf("delivered %d buffers", len(rec.delivered))
	}
	if buf := rec.delivered[0]; buf.Width() != 300 || buf.Height() != 200 {
		t.Errorf("delivered %dx%d, want 300x200", buf.Width(), buf.Height())
	}
	if surf.IsOpen() || b.Busy() {
		t.Error("session not closed")
	}

	// The gate is released: a new event is accepted.
	go func() { done <- b.OnRecognized(context.Background(), Phrase) }()
	if !surf.WaitOpen(2 * time.Second) {
		t.Fatal("second activation did not open the picker")
	}
	surf.Press(overlay.KeyEscape)
	if res := <-done; res != ResultCancelled {
		t.Errorf("second session = %v, want cancelled", res)
	}
}

func TestSecondActivationWhileOpenIsDropped(t *testing.T) {
	p := &stubPicker{
		out:     overlay.Cancelled(),
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	rec := &recorder{}
	b := New(windowtest.NewDesktop(), p, screenshot.New(&grabber{}), rec, rec)

	first := make(chan Result, 1)
	go func() { first <- b.OnRecognized(context.Background(), Phrase) }()
	<-p.entered

	if !b.Busy() {
		t.Error("Busy() = false during session")
	}
	if got := b.OnRecognized(context.Background(), Phrase); got != ResultBusy {
		t.Errorf("concurrent activation = %v, want busy", got)
	}
	if got := b.Trigger(context.Background(), "hotkey"); got != ResultBusy {
		t.Errorf("concurrent trigger = %v, want busy", got)
	}
	close(p.release)
	if got := <-first; got != ResultCancelled {
		t.Errorf("first session = %v", got)
	}
	if p.Calls() != 1 {
		t.Errorf("picker opened %d times, want 1", p.Calls())
	}
	if b.Busy() {
		t.Error("gate still held after session")
	}
}

func TestConcurrentActivationsOpenOneSession(t *testing.T) {
	p := &stubPicker{out: overlay.Cancelled(), release: make(chan struct{})}
	rec := &recorder{}
	b := New(windowtest.NewDesktop(), p, screenshot.New(&grabber{}), rec, rec)

	const n = 16
	results := make(chan Result, n)
	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < n; i++ {
		go func() {
			start.Wait()
			results <- b.OnRecognized(context.Background(), Phrase)
		}()
	}
	start.Done()

	// Everyone but the session holder returns busy straight away.
	for i := 0; i < n-1; i++ {
		if r := <-results; r != ResultBusy {
			t.Fatalf("got %v while a session was open", r)
		}
	}
	close(p.release)
	if r := <-results; r != ResultCancelled {
		t.Errorf("session result = %v", r)
	}
	if p.Calls() != 1 {
		t.Errorf("picker opened %d times", p.Calls())
	}
}

func TestSelectedWindowClosedBeforeCapture(t *testing.T) {
	desk := windowtest.NewDesktop()
	w := desk.Add(window.R(100, 100, 400, 300))
	desk.Close(w)
	g := &grabber{}
	rec := &recorder{}
	b := New(desk, &stubPicker{out: overlay.Selected(w)}, screenshot.New(g), rec, rec)

	if got := b.OnRecognized(context.Background(), Phrase); got != ResultAbandoned {
		t.Errorf("result = %v, want abandoned", got)
	}
	if len(g.grabbed) != 0 || len(rec.delivered) != 0 || len(rec.failed) != 0 {
		t.Error("abandoned capture must be silent and touch nothing")
	}
	if b.Busy() {
		t.Error("gate not released")
	}
}

func TestZeroSizeWindowIsSkipped(t *testing.T) {
	desk := windowtest.NewDesktop()
	w := desk.Add(window.R(100, 100, 100, 300))
	rec := &recorder{}
	b := New(desk, &stubPicker{out: overlay.Selected(w)}, screenshot.New(&grabber{}), rec, rec)

	if got := b.Trigger(context.Background(), "test"); got != ResultSkipped {
		t.Errorf("result = %v, want skipped", got)
	}
	if len(rec.failed) != 0 {
		t.Errorf("skip reported failures %v", rec.failed)
	}
}

func TestDeliveryFailureIsReported(t *testing.T) {
	desk := windowtest.NewDesktop()
	w := desk.Add(window.R(100, 100, 400, 300))
	rec := &recorder{sinkErr: errors.New("clipboard locked")}
	b := New(desk, &stubPicker{out: overlay.Selected(w)}, screenshot.New(&grabber{}), rec, rec)

	if got := b.OnRecognized(context.Background(), Phrase); got != ResultFailed {
		t.Fatalf("result = %v, want failed", got)
	}
	if len(rec.failed) != 1 || !errors.Is(rec.failed[0], screenshot.ErrDeliveryFailed) {
		t.Errorf("reported %v, want one ErrDeliveryFailed", rec.failed)
	}
	if len(rec.delivered) != 1 {
		t.Errorf("sink tried %d times, want exactly once", len(rec.delivered))
	}
}

func TestPickerErrorReleasesGate(t *testing.T) {
	rec := &recorder{}
	b := New(windowtest.NewDesktop(), &stubPicker{err: errors.New("no display")}, screenshot.New(&grabber{}), rec, rec)
	if got := b.OnRecognized(context.Background(), Phrase); got != ResultFailed {
		t.Errorf("result = %v", got)
	}
	if b.Busy() {
		t.Error("gate not released after picker error")
	}
}

type panicPicker struct{}

func (panicPicker) Pick(context.Context) (overlay.Outcome, error) { panic("surface exploded") }

func TestPanicReleasesGate(t *testing.T) {
	rec := &recorder{}
	b := New(windowtest.NewDesktop(), panicPicker{}, screenshot.New(&grabber{}), rec, rec)
	if got := b.OnRecognized(context.Background(), Phrase); got != ResultFailed {
		t.Errorf("result = %v, want failed", got)
	}
	if !b.gate.TryLock() {
		t.Fatal("gate still held after panic")
	}
	b.gate.Unlock()
}
