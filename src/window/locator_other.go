//go:build !linux && !windows

package window

// System is a placeholder on platforms without a window backend.
type System struct{}

func NewLocator() (*System, error) {
	return nil, ErrUnsupported
}

func (s *System) Close()               {}
func (s *System) Exclude(hs ...Handle) {}
func (s *System) Include(hs ...Handle) {}

func (s *System) Locate(Point) Handle { return Null }

func (s *System) Bounds(Handle) (Rect, error) { return Rect{}, ErrHandleInvalid }
