//go:build linux

package window

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// System is the X11 locator. It walks the root window's children in stacking
// order, which on reparenting window managers are the frame windows.
type System struct {
	xu   *xgbutil.XUtil
	root xproto.Window
	skip exclusions
}

// NewLocator connects to the X server named by $DISPLAY.
func NewLocator() (*System, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect to X server: %w", err)
	}
	return &System{xu: xu, root: xu.RootWin()}, nil
}

func (s *System) Close() {
	s.xu.Conn().Close()
}

func (s *System) Exclude(hs ...Handle) { s.skip.add(hs...) }
func (s *System) Include(hs ...Handle) { s.skip.remove(hs...) }

func (s *System) Locate(p Point) Handle {
	conn := s.xu.Conn()
	tree, err := xproto.QueryTree(conn, s.root).Reply()
	if err != nil {
		return Null
	}

	// Pipeline the per-window requests, then collect every reply.
	n := len(tree.Children)
	attrs := make([]xproto.GetWindowAttributesCookie, n)
	geoms := make([]xproto.GetGeometryCookie, n)
	for i, w := range tree.Children {
		attrs[i] = xproto.GetWindowAttributes(conn, w)
		geoms[i] = xproto.GetGeometry(conn, xproto.Drawable(w))
	}

	// Children come bottom to top, so the last match is the topmost window.
	var hit xproto.Window
	for i, w := range tree.Children {
		attr, aerr := attrs[i].Reply()
		geom, gerr := geoms[i].Reply()
		if aerr != nil || gerr != nil {
			continue
		}
		if s.skip.has(Handle(w)) || attr.MapState != xproto.MapStateViewable || attr.OverrideRedirect {
			continue
		}
		if geometryRect(geom).Contains(p) {
			hit = w
		}
	}
	if hit == 0 {
		return Null
	}

	// A missing type property means an ordinary window.
	types, _ := ewmh.WmWindowTypeGet(s.xu, hit)
	if X11TypeRole(types) == RoleDesktop {
		return Null
	}
	return Handle(hit)
}

func (s *System) Bounds(h Handle) (Rect, error) {
	if h.IsNull() {
		return Rect{}, ErrHandleInvalid
	}
	conn := s.xu.Conn()
	w := xproto.Window(h)

	attr, err := xproto.GetWindowAttributes(conn, w).Reply()
	if err != nil {
		return Rect{}, fmt.Errorf("%w: %v", ErrHandleInvalid, err)
	}
	if attr.MapState != xproto.MapStateViewable {
		return Rect{}, fmt.Errorf("%w: window %s is not mapped", ErrHandleInvalid, h)
	}

	geom, err := xproto.GetGeometry(conn, xproto.Drawable(w)).Reply()
	if err != nil {
		return Rect{}, fmt.Errorf("%w: %v", ErrHandleInvalid, err)
	}
	origin, err := xproto.TranslateCoordinates(conn, w, s.root, 0, 0).Reply()
	if err != nil {
		return Rect{}, fmt.Errorf("%w: %v", ErrHandleInvalid, err)
	}

	bw := int(geom.BorderWidth)
	x, y := int(origin.DstX)-bw, int(origin.DstY)-bw
	return R(x, y, x+int(geom.Width)+2*bw, y+int(geom.Height)+2*bw), nil
}

// geometryRect converts a root-relative geometry reply, border included.
func geometryRect(g *xproto.GetGeometryReply) Rect {
	x, y := int(g.X), int(g.Y)
	bw := 2 * int(g.BorderWidth)
	return R(x, y, x+int(g.Width)+bw, y+int(g.Height)+bw)
}
