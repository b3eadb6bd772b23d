package main

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"voice-screen-capture/src/activation"
	"voice-screen-capture/src/clipboard"
	"voice-screen-capture/src/overlay"
	"voice-screen-capture/src/screenshot"
	"voice-screen-capture/src/window"
)

// app holds the platform pieces behind one bridge.
type app struct {
	locator *window.System
	engine  *screenshot.Engine
	bridge  *activation.Bridge
}

func newApp(report activation.Reporter) (*app, error) {
	locator, err := window.NewLocator()
	if err != nil {
		return nil, fmt.Errorf("window locator: %w", err)
	}
	engine := screenshot.Default()
	surface, err := overlay.NewSurface(engine, locator)
	if err != nil {
		locator.Close()
		return nil, fmt.Errorf("overlay surface: %w", err)
	}
	picker := overlay.NewDriver(locator, surface)
	bridge := activation.New(locator, picker, engine, clipboard.NewImageSink(), report)
	return &app{locator: locator, engine: engine, bridge: bridge}, nil
}

func (a *app) logScreen() {
	vs, err := a.engine.VirtualScreen()
	if err != nil {
		log.Warn().Err(err).Msg("No displays detected")
		return
	}
	log.Info().Stringer("virtual_screen", vs).Msg("Screen capture ready")
}

func (a *app) Close() { a.locator.Close() }
