// Package tray shows an optional system tray icon with a manual capture
// entry.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"
	"github.com/rs/zerolog/log"
)

// Config wires the menu to the rest of the program.
type Config struct {
	Title     string
	Hotkey    string
	OnCapture func()
	OnExit    func()
}

// Tray owns the systray lifecycle. Run blocks, so callers start it on its
// own goroutine.
type Tray struct {
	cfg  Config
	once sync.Once
}

func New(cfg Config) *Tray {
	if cfg.Title == "" {
		cfg.Title = "Voice Screen Capture"
	}
	return &Tray{cfg: cfg}
}

// Run starts the tray and returns once it has been torn down.
func (t *Tray) Run() {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Tray panicked")
		}
	}()
	systray.Run(t.onReady, t.onExit)
}

// Destroy removes the icon. Safe to call more than once.
func (t *Tray) Destroy() {
	t.once.Do(systray.Quit)
}

func (t *Tray) onReady() {
	systray.SetIcon(Icon())
	systray.SetTitle(t.cfg.Title)
	systray.SetTooltip(tooltip(t.cfg))

	mCapture := systray.AddMenuItem("Capture window", "Pick a window and copy it to the clipboard")
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit the application")

	go func() {
		for {
			select {
			case <-mCapture.ClickedCh:
				log.Info().Msg("Tray: capture requested")
				if t.cfg.OnCapture != nil {
					t.cfg.OnCapture()
				}
			case <-mQuit.ClickedCh:
				log.Info().Msg("Tray: quit requested")
				t.Destroy()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {
	if t.cfg.OnExit != nil {
		t.cfg.OnExit()
	}
}

func tooltip(cfg Config) string {
	if cfg.Hotkey == "" {
		return fmt.Sprintf("%s - say \"Hey Brittney shoot\"", cfg.Title)
	}
	return fmt.Sprintf("%s - say \"Hey Brittney shoot\" or press %s", cfg.Title, cfg.Hotkey)
}
