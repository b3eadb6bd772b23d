//go:build !linux && !windows

package overlay

import (
	"fmt"
	"runtime"

	"voice-screen-capture/src/screenshot"
	"voice-screen-capture/src/window"
)

func NewSurface(*screenshot.Engine, window.Excluder) (Surface, error) {
	return nil, fmt.Errorf("window picker overlay not implemented for %s", runtime.GOOS)
}
