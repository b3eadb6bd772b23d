package window_test

import (
	"errors"
	"testing"

	"voice-screen-capture/src/window"
	"voice-screen-capture/src/window/windowtest"
)

func TestRectSize(t *testing.T) {
	tests := []struct {
		name  string
		r     window.Rect
		w, h  int
		empty bool
	}{
		{"regular", window.R(100, 100, 400, 300), 300, 200, false},
		{"zero width", window.R(10, 10, 10, 50), 0, 40, true},
		{"zero height", window.R(10, 10, 50, 10), 40, 0, true},
		{"inverted", window.R(50, 50, 10, 10), 0, 0, true},
		{"negative origin", window.R(-1920, 0, 0, 1080), 1920, 1080, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Width(); got != tt.w {
				t.Errorf("Width() = %d, want %d", got, tt.w)
			}
			if got := tt.r.Height(); got != tt.h {
				t.Errorf("Height() = %d, want %d", got, tt.h)
			}
			if got := tt.r.Empty(); got != tt.empty {
				t.Errorf("Empty() = %v, want %v", got, tt.empty)
			}
		})
	}
}

func TestRectIntersect(t *testing.T) {
	screen := window.R(0, 0, 1920, 1080)
	if got := window.R(1800, 1000, 2000, 1200).Intersect(screen); got != window.R(1800, 1000, 1920, 1080) {
		t.Errorf("partial overlap = %v", got)
	}
	if got := window.R(2000, 0, 2100, 100).Intersect(screen); !got.Empty() {
		t.Errorf("disjoint rects should intersect to empty, got %v", got)
	}
}

func TestRectContainsIsHalfOpen(t *testing.T) {
	r := window.R(100, 100, 400, 300)
	for _, p := range []window.Point{{100, 100}, {399, 299}, {250, 200}} {
		if !r.Contains(p) {
			t.Errorf("%v should contain %v", r, p)
		}
	}
	for _, p := range []window.Point{{400, 200}, {250, 300}, {99, 150}} {
		if r.Contains(p) {
			t.Errorf("%v should not contain %v", r, p)
		}
	}
}

func TestDesktopLocateTopmost(t *testing.T) {
	d := windowtest.NewDesktop()
	back := d.Add(window.R(0, 0, 800, 600))
	front := d.Add(window.R(100, 100, 400, 300))

	if got := d.Locate(window.Point{X: 200, Y: 200}); got != front {
		t.Errorf("Locate over overlap = %v, want front %v", got, front)
	}
	if got := d.Locate(window.Point{X: 700, Y: 500}); got != back {
		t.Errorf("Locate over back only = %v, want %v", got, back)
	}
	if got := d.Locate(window.Point{X: 900, Y: 900}); !got.IsNull() {
		t.Errorf("Locate over desktop = %v, want Null", got)
	}

	d.Exclude(front)
	if got := d.Locate(window.Point{X: 200, Y: 200}); got != back {
		t.Errorf("excluded window should be looked through, got %v", got)
	}
}

func TestDesktopClosedWindowIsInvalid(t *testing.T) {
	d := windowtest.NewDesktop()
	h := d.Add(window.R(100, 100, 400, 300))
	d.Close(h)

	if _, err := d.Bounds(h); !errors.Is(err, window.ErrHandleInvalid) {
		t.Errorf("Bounds of closed window: err = %v, want ErrHandleInvalid", err)
	}
	if got := d.Locate(window.Point{X: 200, Y: 200}); !got.IsNull() {
		t.Errorf("closed window still located: %v", got)
	}
}

func TestDesktopBackgroundIsNull(t *testing.T) {
	d := windowtest.NewDesktop()
	d.AddRole(window.R(0, 0, 1920, 1080), window.RoleDesktop)
	app := d.Add(window.R(100, 100, 400, 300))
	d.AddRole(window.R(0, 0, 1920, 1080), window.RoleHidden)

	if got := d.Locate(window.Point{X: 1000, Y: 800}); !got.IsNull() {
		t.Errorf("Locate over wallpaper = %v, want Null", got)
	}
	if got := d.Locate(window.Point{X: 200, Y: 200}); got != app {
		t.Errorf("Locate under a hidden window = %v, want %v", got, app)
	}
}

func TestShellClassRole(t *testing.T) {
	tests := []struct {
		class string
		want  window.Role
	}{
		{"Progman", window.RoleDesktop},
		{"WorkerW", window.RoleDesktop},
		{"Notepad", window.RoleApp},
		{"progman", window.RoleApp},
		{"", window.RoleApp},
	}
	for _, tt := range tests {
		if got := window.ShellClassRole(tt.class); got != tt.want {
			t.Errorf("ShellClassRole(%q) = %v, want %v", tt.class, got, tt.want)
		}
	}
}

func TestX11TypeRole(t *testing.T) {
	tests := []struct {
		name  string
		types []string
		want  window.Role
	}{
		{"untyped", nil, window.RoleApp},
		{"normal", []string{"_NET_WM_WINDOW_TYPE_NORMAL"}, window.RoleApp},
		{"desktop", []string{"_NET_WM_WINDOW_TYPE_DESKTOP"}, window.RoleDesktop},
		{"dialog", []string{"_NET_WM_WINDOW_TYPE_DIALOG", "_NET_WM_WINDOW_TYPE_NORMAL"}, window.RoleApp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := window.X11TypeRole(tt.types); got != tt.want {
				t.Errorf("X11TypeRole(%v) = %v, want %v", tt.types, got, tt.want)
			}
		})
	}
}
