// Package eventloop fans trigger sources into the activation bridge.
package eventloop

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"voice-screen-capture/src/activation"
	"voice-screen-capture/src/singleinstance"
	"voice-screen-capture/src/speech"
)

// Bridge is the part of activation.Bridge the loop drives.
type Bridge interface {
	OnRecognized(ctx context.Context, text string) activation.Result
	Trigger(ctx context.Context, source string) activation.Result
}

// Loop is the coordinator between trigger sources and the bridge. Each
// event is dispatched on its own goroutine; the bridge's gate decides which
// one opens a session and the rest are dropped.
type Loop struct {
	bridge     Bridge
	recognizer speech.Recognizer
	srv        *singleinstance.Server
	triggers   chan string

	wg sync.WaitGroup

	// dispatched is called after each event is handled. Tests hook it.
	dispatched func(source string, res activation.Result)
}

// New creates a loop around b. Sources are attached with the With* methods
// before Run.
func New(b Bridge) *Loop {
	return &Loop{
		bridge:   b,
		triggers: make(chan string, 4),
	}
}

// WithRecognizer attaches a speech source. Run returns when its event
// stream ends.
func (l *Loop) WithRecognizer(r speech.Recognizer) *Loop {
	l.recognizer = r
	return l
}

// WithServer attaches the single-instance server so remote TRIGGER
// requests reach the bridge.
func (l *Loop) WithServer(s *singleinstance.Server) *Loop {
	l.srv = s
	return l
}

// Fire posts a manual trigger. It never blocks; if the loop is behind the
// trigger is dropped.
func (l *Loop) Fire(source string) {
	select {
	case l.triggers <- source:
	default:
		log.Debug().Str("source", source).Msg("Trigger dropped, loop busy")
	}
}

// Run processes events until ctx is cancelled or the speech source ends.
// It waits for in-flight sessions before returning.
func (l *Loop) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer l.wg.Wait()

	var events <-chan speech.Recognized
	recErr := make(chan error, 1)
	if l.recognizer != nil {
		events = l.recognizer.Events()
		go func() { recErr <- l.recognizer.Run(ctx) }()
	}

	var requests <-chan *singleinstance.Request
	if l.srv != nil {
		requests = l.srv.Requests()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				err := <-recErr
				if err != nil {
					log.Error().Err(err).Msg("Speech source stopped")
				} else {
					log.Info().Msg("Speech source finished")
				}
				return err
			}
			l.dispatch(ctx, "speech", func(ctx context.Context) activation.Result {
				return l.bridge.OnRecognized(ctx, ev.Text)
			})
		case source := <-l.triggers:
			l.dispatch(ctx, source, func(ctx context.Context) activation.Result {
				return l.bridge.Trigger(ctx, source)
			})
		case req := <-requests:
			l.dispatch(ctx, "remote", func(ctx context.Context) activation.Result {
				res := l.bridge.Trigger(ctx, "remote")
				if err := req.Respond(res.String()); err != nil {
					log.Warn().Err(err).Str("remote", req.Remote()).Msg("Failed to answer remote trigger")
				}
				return res
			})
		}
	}
}

func (l *Loop) dispatch(ctx context.Context, source string, fn func(context.Context) activation.Result) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		res := fn(ctx)
		if res != activation.ResultIgnored {
			log.Debug().Str("source", source).Stringer("result", res).Msg("Event handled")
		}
		if l.dispatched != nil {
			l.dispatched(source, res)
		}
	}()
}
