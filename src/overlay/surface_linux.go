//go:build linux

package overlay

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xgraphics"
	"github.com/BurntSushi/xgbutil/xwindow"
	"github.com/rs/zerolog/log"

	"voice-screen-capture/src/screenshot"
	"voice-screen-capture/src/window"
)

const (
	keysymEscape = 0xff1b
	grabAttempts = 20
	grabBackoff  = 10 * time.Millisecond
)

// x11Surface is an override-redirect window covering the root window.
// Without a compositor X11 has no translucency, so the screen is captured
// before mapping and painted back underneath the veil.
type x11Surface struct {
	engine  *screenshot.Engine
	exclude window.Excluder

	mu       sync.Mutex
	xu       *xgbutil.XUtil
	win      *xwindow.Window
	backdrop image.Image
	painted  *xgraphics.Image
	events   chan Event
	done     chan struct{}
}

// NewSurface returns the platform overlay. exclude, when non-nil, is told
// about the overlay window so the locator looks through it.
func NewSurface(engine *screenshot.Engine, exclude window.Excluder) (Surface, error) {
	return &x11Surface{engine: engine, exclude: exclude}, nil
}

func (s *x11Surface) Open(ctx context.Context) (window.Rect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.xu != nil {
		return window.Rect{}, fmt.Errorf("overlay already open")
	}

	xu, err := xgbutil.NewConn()
	if err != nil {
		return window.Rect{}, fmt.Errorf("connect to X server: %w", err)
	}
	keybind.Initialize(xu)

	geom := xwindow.RootGeometry(xu)
	area := window.R(geom.X(), geom.Y(), geom.X()+geom.Width(), geom.Y()+geom.Height())

	if img, _, err := s.engine.CaptureVirtualScreen(); err == nil {
		s.backdrop = img
	} else {
		log.Warn().Err(err).Msg("Overlay backdrop capture failed; drawing on black")
		s.backdrop = nil
	}

	win, err := xwindow.Generate(xu)
	if err != nil {
		xu.Conn().Close()
		return window.Rect{}, fmt.Errorf("allocate overlay window: %w", err)
	}
	err = win.CreateChecked(xu.RootWin(), area.Left, area.Top, area.Width(), area.Height(),
		xproto.CwOverrideRedirect|xproto.CwEventMask,
		1, xproto.EventMaskKeyPress|xproto.EventMaskButtonPress|xproto.EventMaskExposure)
	if err != nil {
		xu.Conn().Close()
		return window.Rect{}, fmt.Errorf("create overlay window: %w", err)
	}

	s.xu, s.win = xu, win
	s.events = make(chan Event, 8)
	s.done = make(chan struct{})
	if s.exclude != nil {
		s.exclude.Exclude(window.Handle(win.Id))
	}

	xevent.ButtonPressFun(func(_ *xgbutil.XUtil, ev xevent.ButtonPressEvent) {
		s.send(Event{Kind: EventClick, Button: x11Button(ev.Detail)})
	}).Connect(xu, win.Id)
	xevent.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		key := KeyOther
		if keybind.KeysymGet(xu, ev.Detail, 0) == keysymEscape {
			key = KeyEscape
		}
		s.send(Event{Kind: EventKey, Key: key})
	}).Connect(xu, win.Id)
	xevent.ExposeFun(func(_ *xgbutil.XUtil, ev xevent.ExposeEvent) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.painted != nil && ev.Count == 0 {
			s.painted.XPaint(s.win.Id)
		}
	}).Connect(xu, win.Id)

	win.Map()
	if err := grabInput(ctx, xu, win.Id); err != nil {
		s.teardown()
		return window.Rect{}, err
	}
	go xevent.Main(xu)
	return area, nil
}

// grabInput takes the pointer and keyboard. Grabs fail until the window is
// viewable, so they are retried briefly after mapping.
func grabInput(ctx context.Context, xu *xgbutil.XUtil, w xproto.Window) error {
	conn := xu.Conn()
	var pointerOK, keyboardOK bool
	for i := 0; i < grabAttempts && !(pointerOK && keyboardOK); i++ {
		if !pointerOK {
			r, err := xproto.GrabPointer(conn, false, w, xproto.EventMaskButtonPress,
				xproto.GrabModeAsync, xproto.GrabModeAsync, xproto.WindowNone, xproto.CursorNone,
				xproto.TimeCurrentTime).Reply()
			pointerOK = err == nil && r.Status == xproto.GrabStatusSuccess
		}
		if !keyboardOK {
			r, err := xproto.GrabKeyboard(conn, false, w, xproto.TimeCurrentTime,
				xproto.GrabModeAsync, xproto.GrabModeAsync).Reply()
			keyboardOK = err == nil && r.Status == xproto.GrabStatusSuccess
		}
		if pointerOK && keyboardOK {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(grabBackoff):
		}
	}
	if !keyboardOK {
		// Without the keyboard Escape cannot cancel, so the picker is unusable.
		return fmt.Errorf("keyboard grab failed")
	}
	if !pointerOK {
		log.Warn().Msg("Pointer grab failed; clicks may reach other windows")
	}
	return nil
}

func x11Button(detail xproto.Button) Button {
	switch detail {
	case 1:
		return ButtonPrimary
	case 2:
		return ButtonMiddle
	default:
		return ButtonSecondary
	}
}

func (s *x11Surface) send(ev Event) {
	select {
	case s.events <- ev:
	case <-s.done:
	default:
		log.Debug().Int("kind", int(ev.Kind)).Msg("Overlay input dropped")
	}
}

func (s *x11Surface) Events() <-chan Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events
}

func (s *x11Surface) Cursor() (window.Point, error) {
	s.mu.Lock()
	xu := s.xu
	s.mu.Unlock()
	if xu == nil {
		return window.Point{}, fmt.Errorf("overlay not open")
	}
	p, err := xproto.QueryPointer(xu.Conn(), xu.RootWin()).Reply()
	if err != nil {
		return window.Point{}, err
	}
	return window.Point{X: int(p.RootX), Y: int(p.RootY)}, nil
}

func (s *x11Surface) Present(f Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.xu == nil {
		return fmt.Errorf("overlay not open")
	}
	ximg := xgraphics.NewConvert(s.xu, Rasterize(f, s.backdrop))
	if err := ximg.XSurfaceSet(s.win.Id); err != nil {
		ximg.Destroy()
		return fmt.Errorf("attach overlay pixmap: %w", err)
	}
	ximg.XDraw()
	ximg.XPaint(s.win.Id)
	if s.painted != nil {
		s.painted.Destroy()
	}
	s.painted = ximg
	return nil
}

func (s *x11Surface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.xu == nil {
		return nil
	}
	s.teardown()
	return nil
}

// teardown releases everything Open acquired. Callers hold s.mu.
func (s *x11Surface) teardown() {
	conn := s.xu.Conn()
	xproto.UngrabKeyboard(conn, xproto.TimeCurrentTime)
	xproto.UngrabPointer(conn, xproto.TimeCurrentTime)
	xevent.Detach(s.xu, s.win.Id)
	if s.painted != nil {
		s.painted.Destroy()
		s.painted = nil
	}
	s.win.Destroy()
	if s.exclude != nil {
		s.exclude.Include(window.Handle(s.win.Id))
	}
	close(s.done)
	xevent.Quit(s.xu)
	conn.Sync()
	conn.Close()
	s.xu, s.win, s.backdrop = nil, nil, nil
}
