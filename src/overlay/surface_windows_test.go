//go:build windows

package overlay

import (
	"errors"
	"testing"
)

func TestCancelledOpenReleasesSlotWhenLoopFails(t *testing.T) {
	s := &winSurface{}
	activeSurface.Store(s)
	defer activeSurface.Store(nil)

	ready := make(chan error, 1)
	ready <- errors.New("failed to register overlay window class")
	s.settleCancelledOpen(ready)

	if got := activeSurface.Load(); got != nil {
		t.Fatalf("active surface still set after failed loop")
	}
	if !activeSurface.CompareAndSwap(nil, &winSurface{}) {
		t.Errorf("next Open could not claim the overlay")
	}
}
