package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	"voice-screen-capture/src/activation"
	"voice-screen-capture/src/clipboard"
	"voice-screen-capture/src/config"
	"voice-screen-capture/src/eventloop"
	"voice-screen-capture/src/hotkey"
	"voice-screen-capture/src/notify"
	"voice-screen-capture/src/runtimeinit"
	"voice-screen-capture/src/singleinstance"
	"voice-screen-capture/src/speech"
	"voice-screen-capture/src/tray"
)

type mainOptions struct {
	trigger  bool
	speech   string
	endpoint string
}

func parseFlags(args []string, opts *mainOptions) error {
	fs := flag.NewFlagSet("voice-screen-capture", flag.ContinueOnError)
	fs.BoolVar(&opts.trigger, "trigger", false, "Open the window picker once (in the running instance if there is one) and exit")
	fs.StringVar(&opts.speech, "speech", "", "Speech source override: stdin, websocket or none")
	fs.StringVar(&opts.endpoint, "endpoint", "", "Speech recognizer websocket URL override")
	return fs.Parse(args)
}

func main() {
	opts := &mainOptions{}
	if err := parseFlags(os.Args[1:], opts); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	rawKeys := false
	rt, err := runtimeinit.Bootstrap(runtimeinit.Options{
		Override: opts.apply,
		Console: func(cfg *config.Config) io.Writer {
			// Raw keypress mode is only possible when stdin is a terminal
			// we are not reading phrases from.
			rawKeys = !opts.trigger && cfg.SpeechSource != config.SpeechStdin && stdinIsTerminal()
			if rawKeys {
				return crlfWriter{os.Stderr}
			}
			return os.Stderr
		},
	})
	if err != nil {
		notify.Alert("Startup error", err.Error())
		os.Exit(1)
	}
	// Before any window is created or measured.
	enableDPIAwareness()

	var code int
	if opts.trigger {
		code = runTrigger(rt.Config)
	} else {
		code = runResident(rt.Config, rawKeys)
	}
	rt.Close()
	os.Exit(code)
}

func (o *mainOptions) apply(cfg *config.Config) {
	if o.speech != "" {
		cfg.SpeechSource = strings.ToLower(o.speech)
	}
	if o.endpoint != "" {
		cfg.SpeechEndpoint = o.endpoint
	}
}

// runTrigger handles --trigger: delegate to a resident, or run one session
// standalone when none is listening.
func runTrigger(cfg *config.Config) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result := handleTriggerWithDelegation(ctx, cfg.SingleInstancePort, singleinstance.Trigger, func() string {
		return runStandalone(ctx)
	})
	fmt.Println(result)
	return exitCode(result)
}

type triggerFunc func(ctx context.Context, port int) (string, error)

func handleTriggerWithDelegation(ctx context.Context, port int, trigger triggerFunc, fallback func() string) string {
	result, err := trigger(ctx, port)
	switch {
	case err == nil:
		log.Info().Str("result", result).Msg("Delegated to resident")
		return result
	case errors.Is(err, singleinstance.ErrNoResident):
		log.Info().Msg("No resident detected, running standalone")
	default:
		log.Warn().Err(err).Msg("Delegation error; falling back to standalone")
	}
	return fallback()
}

func runStandalone(ctx context.Context) string {
	if err := clipboard.Init(); err != nil {
		notify.Alert("Clipboard unavailable", err.Error())
		return activation.ResultFailed.String()
	}
	a, err := newApp(notify.NewConsole(nil))
	if err != nil {
		notify.Alert("Screen capture unavailable", err.Error())
		return activation.ResultFailed.String()
	}
	defer a.Close()
	return a.bridge.Trigger(ctx, "command line").String()
}

// exitCode maps a session result to the process exit status.
func exitCode(result string) int {
	switch result {
	case activation.ResultCaptured.String(),
		activation.ResultCancelled.String(),
		activation.ResultAbandoned.String(),
		activation.ResultSkipped.String():
		return 0
	case activation.ResultBusy.String():
		return 2
	}
	return 1
}

func runResident(cfg *config.Config, rawKeys bool) int {
	var console io.Writer = os.Stdout
	if rawKeys {
		console = crlfWriter{os.Stdout}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := singleinstance.NewServer(cfg.SingleInstancePort)
	if err := srv.Start(ctx); err != nil {
		if errors.Is(err, singleinstance.ErrAlreadyRunning) {
			fmt.Printf("one is already running on port %d\n", srv.Port())
			return 1
		}
		log.Warn().Err(err).Msg("Single-instance guard unavailable; remote triggers disabled")
		srv = nil
	} else {
		defer srv.Close()
	}

	if err := clipboard.Init(); err != nil {
		notify.Alert("Clipboard unavailable", err.Error())
		return 1
	}

	out := notify.NewConsole(console)
	a, err := newApp(out)
	if err != nil {
		notify.Alert("Screen capture unavailable", err.Error())
		return 1
	}
	defer a.Close()
	a.logScreen()

	loop := eventloop.New(a.bridge)
	if srv != nil {
		loop.WithServer(srv)
	}
	if rec := newRecognizer(cfg); rec != nil {
		loop.WithRecognizer(rec)
	}

	if cfg.Hotkey != "" {
		if err := hotkey.Listen(ctx, cfg.Hotkey, func() { loop.Fire("hotkey") }); err != nil {
			log.Warn().Err(err).Str("hotkey", cfg.Hotkey).Msg("Hotkey disabled")
		}
	}

	if cfg.EnableTray {
		t := tray.New(tray.Config{
			Hotkey:    cfg.Hotkey,
			OnCapture: func() { loop.Fire("tray") },
			OnExit:    cancel,
		})
		go t.Run()
		defer t.Destroy()
	}

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-ch:
			log.Info().Stringer("signal", sig).Msg("Shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	out.Println(fmt.Sprintf("Listening for '%s'...", activation.Phrase))
	switch {
	case cfg.SpeechSource == config.SpeechStdin:
		out.Println("Reading recognized phrases from stdin (EOF to exit)...")
	case rawKeys:
		out.Println("Press any key to exit...")
		restore, err := waitForKeypress(cancel)
		if err != nil {
			log.Warn().Err(err).Msg("Keypress exit unavailable")
		} else {
			defer restore()
		}
	}

	if err := loop.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Event loop stopped")
		return 1
	}
	return 0
}

func newRecognizer(cfg *config.Config) speech.Recognizer {
	switch cfg.SpeechSource {
	case config.SpeechStdin:
		return speech.NewLines(os.Stdin)
	case config.SpeechWebSocket:
		return speech.NewWebSocket(speech.WebSocketConfig{
			Endpoint:  cfg.SpeechEndpoint,
			Phrases:   []string{activation.Phrase},
			Reconnect: cfg.SpeechReconnect,
		})
	}
	log.Info().Msg("Speech source disabled; only manual triggers are active")
	return nil
}
