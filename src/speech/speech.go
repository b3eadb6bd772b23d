// Package speech adapts external speech recognizers into a stream of
// recognized phrases. Audio capture and recognition itself happen elsewhere.
package speech

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Recognized is one final recognition result.
type Recognized struct {
	Text string
	At   time.Time
}

// Recognizer is a source of recognition events. Run blocks until ctx ends
// or the source is exhausted; Events is closed when Run returns.
type Recognizer interface {
	Run(ctx context.Context) error
	Events() <-chan Recognized
}

const eventBuffer = 16

// safeSend never blocks the reader: if nobody is keeping up the event is
// dropped.
func safeSend(out chan<- Recognized, ev Recognized) {
	select {
	case out <- ev:
	default:
		log.Warn().Str("text", ev.Text).Msg("Recognition event dropped, consumer busy")
	}
}
