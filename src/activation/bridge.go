// Package activation connects trigger events (a recognized phrase, a hotkey,
// a tray click) to the picker and capture pipeline, one session at a time.
package activation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"voice-screen-capture/src/overlay"
	"voice-screen-capture/src/screenshot"
	"voice-screen-capture/src/window"
)

// Phrase is the only utterance that opens the picker. Matching is exact:
// no case folding, trimming or punctuation tolerance.
const Phrase = "Hey Brittney shoot"

// Matches reports whether text is the activation phrase.
func Matches(text string) bool { return text == Phrase }

// Result is what one activation attempt amounted to.
type Result int

const (
	// ResultIgnored: the text was not the activation phrase.
	ResultIgnored Result = iota
	// ResultBusy: a session was already open; the event was dropped.
	ResultBusy
	ResultCancelled
	// ResultAbandoned: the chosen window vanished before it could be measured.
	ResultAbandoned
	// ResultSkipped: the chosen window had no area.
	ResultSkipped
	ResultCaptured
	ResultFailed
)

func (r Result) String() string {
	switch r {
	case ResultIgnored:
		return "ignored"
	case ResultBusy:
		return "busy"
	case ResultCancelled:
		return "cancelled"
	case ResultAbandoned:
		return "abandoned"
	case ResultSkipped:
		return "skipped"
	case ResultCaptured:
		return "captured"
	case ResultFailed:
		return "failed"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}

// Picker runs the modal window picker.
type Picker interface {
	Pick(ctx context.Context) (overlay.Outcome, error)
}

// Capturer reads a screen rect into a pixel buffer.
type Capturer interface {
	Capture(rect window.Rect) (*screenshot.PixelBuffer, error)
}

// Reporter tells the user what happened. Silent outcomes (cancel, abandon,
// empty window) are not reported.
type Reporter interface {
	Activated(source string)
	Captured(width, height int)
	Failed(err error)
}

// Bridge runs the trigger → pick → capture → deliver pipeline.
//
// Only one session is ever open. Triggers that arrive while one is open are
// dropped, not queued.
type Bridge struct {
	loc      window.Locator
	picker   Picker
	capturer Capturer
	sink     screenshot.Sink
	report   Reporter

	gate sync.Mutex
	open atomic.Bool
}

func New(loc window.Locator, picker Picker, capturer Capturer, sink screenshot.Sink, report Reporter) *Bridge {
	return &Bridge{
		loc:      loc,
		picker:   picker,
		capturer: capturer,
		sink:     sink,
		report:   report,
	}
}

// Busy reports whether a session is currently open.
func (b *Bridge) Busy() bool { return b.open.Load() }

// OnRecognized handles one recognition event. It blocks for the whole
// session when text is the activation phrase.
func (b *Bridge) OnRecognized(ctx context.Context, text string) Result {
	if !Matches(text) {
		log.Debug().Str("text", text).Msg("Recognized text is not the activation phrase")
		return ResultIgnored
	}
	return b.run(ctx, "speech")
}

// Trigger opens a session without a phrase, for manual triggers. source
// names the trigger in logs and messages.
func (b *Bridge) Trigger(ctx context.Context, source string) Result {
	return b.run(ctx, source)
}

func (b *Bridge) run(ctx context.Context, source string) (res Result) {
	if !b.gate.TryLock() {
		log.Info().Str("source", source).Msg("Capture session already open; trigger dropped")
		return ResultBusy
	}
	b.open.Store(true)
	defer func() {
		b.open.Store(false)
		b.gate.Unlock()
	}()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("source", source).Msg("Capture session panicked")
			res = ResultFailed
		}
	}()

	log.Info().Str("source", source).Msg("Activation accepted, opening window picker")
	b.report.Activated(source)

	res = b.session(ctx)
	log.Info().Stringer("result", res).Str("source", source).Msg("Capture session closed")
	return res
}

func (b *Bridge) session(ctx context.Context) Result {
	out, err := b.picker.Pick(ctx)
	if err != nil {
		b.report.Failed(err)
		return ResultFailed
	}
	if out.Kind != overlay.OutcomeSelected {
		return ResultCancelled
	}

	// The window may have closed between the click and now.
	rect, err := b.loc.Bounds(out.Handle)
	if err != nil {
		log.Info().Err(err).Stringer("window", out.Handle).Msg("Selected window is gone; capture abandoned")
		return ResultAbandoned
	}

	buf, err := b.capturer.Capture(rect)
	switch {
	case errors.Is(err, screenshot.ErrEmptyRegion):
		log.Info().Stringer("rect", rect).Msg("Selected window has no area; nothing captured")
		return ResultSkipped
	case err != nil:
		b.report.Failed(err)
		return ResultFailed
	}

	if err := screenshot.Deliver(buf, b.sink); err != nil {
		b.report.Failed(err)
		return ResultFailed
	}
	b.report.Captured(buf.Width(), buf.Height())
	return ResultCaptured
}
