package overlay

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"voice-screen-capture/src/window"
)

// TickInterval is how often the cursor is sampled while the picker is open.
const TickInterval = 50 * time.Millisecond

type EventKind int

const (
	EventClick EventKind = iota + 1
	EventKey
	// EventClosed means the surface was torn down by someone else, for
	// example the window manager.
	EventClosed
)

// Event is user input delivered by a Surface. A click carries no position:
// it selects whatever the last tick found under the cursor.
type Event struct {
	Kind   EventKind
	Button Button
	Key    Key
}

// Surface is the OS side of the picker: a borderless, topmost window that
// covers the whole virtual screen and takes exclusive input while open.
// A Surface may be opened again after Close.
type Surface interface {
	// Open shows the surface and returns the screen rect it covers.
	Open(ctx context.Context) (window.Rect, error)
	// Events delivers input until Close. Valid only after Open.
	Events() <-chan Event
	// Cursor samples the pointer position in screen coordinates.
	Cursor() (window.Point, error)
	// Present replaces what the surface shows.
	Present(f Frame) error
	Close() error
}

// Driver runs picker sessions: it samples the cursor on a fixed tick,
// redraws when the hovered window changes and feeds input to the Session
// until it resolves.
type Driver struct {
	loc      window.Locator
	surface  Surface
	interval time.Duration
}

type Option func(*Driver)

// WithInterval overrides TickInterval.
func WithInterval(d time.Duration) Option {
	return func(dr *Driver) {
		if d > 0 {
			dr.interval = d
		}
	}
}

func NewDriver(loc window.Locator, surface Surface, opts ...Option) *Driver {
	d := &Driver{loc: loc, surface: surface, interval: TickInterval}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Pick blocks until the user selects a window or cancels. Cancelling ctx
// cancels the picker. The surface is always closed before Pick returns.
func (d *Driver) Pick(ctx context.Context) (Outcome, error) {
	area, err := d.surface.Open(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to open overlay: %w", err)
	}
	defer func() {
		if err := d.surface.Close(); err != nil {
			log.Warn().Err(err).Msg("Overlay close failed")
		}
	}()
	log.Debug().Stringer("area", area).Msg("Overlay opened")

	s := NewSession()
	events := d.surface.Events()
	d.present(s, area)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Cancel()
		case <-ticker.C:
			p, err := d.surface.Cursor()
			if err != nil {
				log.Debug().Err(err).Msg("Cursor query failed")
				continue
			}
			if s.Tick(p, d.loc) {
				log.Debug().Stringer("window", s.Hovered()).Msg("Hover changed")
				d.present(s, area)
			}
		case ev, ok := <-events:
			if !ok {
				s.Cancel()
				break
			}
			switch ev.Kind {
			case EventClick:
				s.Click(ev.Button)
			case EventKey:
				s.Key(ev.Key)
			case EventClosed:
				s.Cancel()
			}
		}

		if out, done := s.Outcome(); done {
			log.Info().Stringer("outcome", out).Msg("Window picker resolved")
			return out, nil
		}
	}
}

func (d *Driver) present(s *Session, area window.Rect) {
	if err := d.surface.Present(Compose(s, d.loc, area)); err != nil {
		log.Warn().Err(err).Msg("Overlay redraw failed")
	}
}
