//go:build windows

package overlay

import (
	"context"
	"fmt"
	"image"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
	"unsafe"

	"github.com/lxn/win"
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/windows"

	"voice-screen-capture/src/screenshot"
	"voice-screen-capture/src/window"
)

const (
	keyPollTimerID    = 1
	keyPollIntervalMs = 25
	msgTeardown       = win.WM_USER + 1
)

var (
	user32                       = windows.NewLazySystemDLL("user32.dll")
	procAllowSetForegroundWindow = user32.NewProc("AllowSetForegroundWindow")
	procGetAsyncKeyState         = user32.NewProc("GetAsyncKeyState")

	// The window procedure is a plain callback, so it finds its surface here.
	// Only one picker is ever open at a time.
	activeSurface atomic.Pointer[winSurface]
	wndProcPtr    = syscall.NewCallback(overlayWndProc)
)

// winSurface is a WS_EX_TOPMOST popup spanning the virtual screen, painted
// from a DIB section. Its message loop runs on a dedicated locked OS thread.
type winSurface struct {
	engine  *screenshot.Engine
	exclude window.Excluder

	mu         sync.Mutex
	hwnd       win.HWND
	backdrop   image.Image
	frame      *image.RGBA
	cursor     win.HCURSOR
	escWasDown bool
	events     chan Event
	done       chan struct{}
	loopDone   chan struct{}
}

func NewSurface(engine *screenshot.Engine, exclude window.Excluder) (Surface, error) {
	return &winSurface{engine: engine, exclude: exclude}, nil
}

func (s *winSurface) Open(ctx context.Context) (window.Rect, error) {
	if !activeSurface.CompareAndSwap(nil, s) {
		return window.Rect{}, fmt.Errorf("overlay already open")
	}

	vx := win.GetSystemMetrics(win.SM_XVIRTUALSCREEN)
	vy := win.GetSystemMetrics(win.SM_YVIRTUALSCREEN)
	vw := win.GetSystemMetrics(win.SM_CXVIRTUALSCREEN)
	vh := win.GetSystemMetrics(win.SM_CYVIRTUALSCREEN)
	area := window.R(int(vx), int(vy), int(vx+vw), int(vy+vh))

	var backdrop image.Image
	if img, _, err := s.engine.CaptureVirtualScreen(); err == nil {
		backdrop = img
	} else {
		log.Warn().Err(err).Msg("Overlay backdrop capture failed; drawing on black")
	}

	s.mu.Lock()
	s.backdrop = backdrop
	s.frame = nil
	s.escWasDown = false
	s.events = make(chan Event, 8)
	s.done = make(chan struct{})
	s.loopDone = make(chan struct{})
	s.mu.Unlock()

	ready := make(chan error, 1)
	go s.loop(area, ready)
	select {
	case err := <-ready:
		if err != nil {
			activeSurface.Store(nil)
			return window.Rect{}, err
		}
	case <-ctx.Done():
		// The loop still reports on ready; let Close clean up once it has.
		go s.settleCancelledOpen(ready)
		return window.Rect{}, ctx.Err()
	}
	return area, nil
}

// settleCancelledOpen waits for the loop behind an abandoned Open and
// releases whatever it left behind.
func (s *winSurface) settleCancelledOpen(ready <-chan error) {
	if err := <-ready; err != nil {
		activeSurface.Store(nil)
		return
	}
	_ = s.Close()
}

// loop owns the overlay window for its whole life. Win32 delivers a window's
// messages only to the thread that created it.
func (s *winSurface) loop(area window.Rect, ready chan<- error) {
	runtime.LockOSThread()
	defer close(s.loopDone)

	className := syscall.StringToUTF16Ptr(fmt.Sprintf("WindowPickerOverlay_%d", time.Now().UnixNano()))
	cursor := win.LoadCursor(0, win.MAKEINTRESOURCE(win.IDC_CROSS))
	wc := win.WNDCLASSEX{
		CbSize:        uint32(unsafe.Sizeof(win.WNDCLASSEX{})),
		Style:         win.CS_HREDRAW | win.CS_VREDRAW,
		LpfnWndProc:   wndProcPtr,
		HInstance:     win.GetModuleHandle(nil),
		HCursor:       cursor,
		LpszClassName: className,
	}
	if win.RegisterClassEx(&wc) == 0 {
		ready <- fmt.Errorf("failed to register overlay window class")
		return
	}
	defer win.UnregisterClass(className)

	hwnd := win.CreateWindowEx(
		win.WS_EX_TOPMOST|win.WS_EX_TOOLWINDOW,
		className,
		syscall.StringToUTF16Ptr(Instructions),
		win.WS_POPUP|win.WS_VISIBLE,
		int32(area.Left), int32(area.Top), int32(area.Width()), int32(area.Height()),
		0, 0, win.GetModuleHandle(nil), nil,
	)
	if hwnd == 0 {
		ready <- fmt.Errorf("failed to create overlay window")
		return
	}

	s.mu.Lock()
	s.hwnd = hwnd
	s.cursor = cursor
	s.mu.Unlock()
	if s.exclude != nil {
		s.exclude.Exclude(window.Handle(hwnd))
	}

	win.ShowWindow(hwnd, win.SW_SHOW)
	procAllowSetForegroundWindow.Call(uintptr(os.Getpid()))
	win.SetForegroundWindow(hwnd)
	win.BringWindowToTop(hwnd)
	win.SetFocus(hwnd)
	win.UpdateWindow(hwnd)
	// Focus is not guaranteed for a background process; Escape is also polled.
	if win.SetTimer(hwnd, keyPollTimerID, keyPollIntervalMs, 0) == 0 {
		log.Warn().Msg("Overlay keyboard poll timer failed to start")
	}
	ready <- nil

	var msg win.MSG
	for {
		ret := win.GetMessage(&msg, 0, 0, 0)
		if ret == 0 || ret == -1 {
			break
		}
		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)
	}
}

func overlayWndProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	s := activeSurface.Load()
	if s == nil {
		return win.DefWindowProc(hwnd, msg, wParam, lParam)
	}

	switch msg {
	case win.WM_LBUTTONDOWN, win.WM_RBUTTONDOWN, win.WM_MBUTTONDOWN:
		b := ButtonPrimary
		if msg == win.WM_RBUTTONDOWN {
			b = ButtonSecondary
		} else if msg == win.WM_MBUTTONDOWN {
			b = ButtonMiddle
		}
		s.send(Event{Kind: EventClick, Button: b})
		return 0

	case win.WM_KEYDOWN:
		key := KeyOther
		if wParam == win.VK_ESCAPE {
			s.escWasDown = true
			key = KeyEscape
		}
		s.send(Event{Kind: EventKey, Key: key})
		return 0

	case win.WM_KEYUP:
		if wParam == win.VK_ESCAPE {
			s.escWasDown = false
		}
		return 0

	case win.WM_TIMER:
		if wParam == keyPollTimerID {
			s.pollEscape()
		}
		return 0

	case win.WM_PAINT:
		var ps win.PAINTSTRUCT
		hdc := win.BeginPaint(hwnd, &ps)
		s.mu.Lock()
		frame := s.frame
		s.mu.Unlock()
		if frame != nil {
			paintImage(hdc, frame)
		}
		win.EndPaint(hwnd, &ps)
		return 0

	case win.WM_SETCURSOR:
		if s.cursor != 0 {
			win.SetCursor(s.cursor)
		}
		return 1

	case win.WM_NCHITTEST:
		return uintptr(win.HTCLIENT)

	case win.WM_CLOSE:
		s.send(Event{Kind: EventClosed})
		return 0

	case msgTeardown:
		win.KillTimer(hwnd, keyPollTimerID)
		win.DestroyWindow(hwnd)
		return 0

	case win.WM_DESTROY:
		win.PostQuitMessage(0)
		return 0
	}
	return win.DefWindowProc(hwnd, msg, wParam, lParam)
}

func (s *winSurface) pollEscape() {
	state, _, _ := procGetAsyncKeyState.Call(uintptr(win.VK_ESCAPE))
	down := uint16(state)&0x8000 != 0
	pressed := uint16(state)&0x0001 != 0
	if !s.escWasDown && (down || pressed) {
		s.send(Event{Kind: EventKey, Key: KeyEscape})
	}
	s.escWasDown = down
}

func (s *winSurface) send(ev Event) {
	select {
	case s.events <- ev:
	case <-s.done:
	default:
		log.Debug().Int("kind", int(ev.Kind)).Msg("Overlay input dropped")
	}
}

func (s *winSurface) Events() <-chan Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events
}

func (s *winSurface) Cursor() (window.Point, error) {
	var pt win.POINT
	if !win.GetCursorPos(&pt) {
		return window.Point{}, fmt.Errorf("GetCursorPos failed")
	}
	return window.Point{X: int(pt.X), Y: int(pt.Y)}, nil
}

func (s *winSurface) Present(f Frame) error {
	s.mu.Lock()
	hwnd := s.hwnd
	if hwnd == 0 {
		s.mu.Unlock()
		return fmt.Errorf("overlay not open")
	}
	s.frame = Rasterize(f, s.backdrop)
	s.mu.Unlock()

	win.InvalidateRect(hwnd, nil, false)
	return nil
}

func (s *winSurface) Close() error {
	s.mu.Lock()
	hwnd := s.hwnd
	s.hwnd = 0
	s.mu.Unlock()
	if hwnd == 0 {
		return nil
	}

	close(s.done)
	win.PostMessage(hwnd, msgTeardown, 0, 0)
	<-s.loopDone
	if s.exclude != nil {
		s.exclude.Include(window.Handle(hwnd))
	}

	s.mu.Lock()
	s.backdrop, s.frame = nil, nil
	s.mu.Unlock()
	activeSurface.Store(nil)
	return nil
}

// paintImage blits img to hdc through a top-down 32-bit DIB section.
func paintImage(hdc win.HDC, img *image.RGBA) {
	memDC := win.CreateCompatibleDC(hdc)
	defer win.DeleteDC(memDC)

	width, height := img.Bounds().Dx(), img.Bounds().Dy()
	bmi := win.BITMAPINFO{
		BmiHeader: win.BITMAPINFOHEADER{
			BiSize:        uint32(unsafe.Sizeof(win.BITMAPINFOHEADER{})),
			BiWidth:       int32(width),
			BiHeight:      -int32(height),
			BiPlanes:      1,
			BiBitCount:    32,
			BiCompression: win.BI_RGB,
		},
	}
	var bits unsafe.Pointer
	hbm := win.CreateDIBSection(memDC, &bmi.BmiHeader, win.DIB_RGB_COLORS, &bits, 0, 0)
	if hbm == 0 {
		return
	}
	defer win.DeleteObject(win.HGDIOBJ(hbm))
	old := win.SelectObject(memDC, win.HGDIOBJ(hbm))
	defer win.SelectObject(memDC, old)

	// 32bpp rows are already DWORD aligned; swap RGBA to BGRA.
	dst := unsafe.Slice((*byte)(bits), width*height*4)
	for y := 0; y < height; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+width*4]
		row := dst[y*width*4 : (y+1)*width*4]
		for i := 0; i < len(src); i += 4 {
			row[i], row[i+1], row[i+2], row[i+3] = src[i+2], src[i+1], src[i], src[i+3]
		}
	}
	win.BitBlt(hdc, 0, 0, int32(width), int32(height), memDC, 0, 0, win.SRCCOPY)
}
