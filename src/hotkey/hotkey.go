// Package hotkey watches for a global key combination and fires a callback,
// giving a manual way into the capture flow when speech is unavailable.
package hotkey

import (
	"context"
	"fmt"
	"strings"
	"sync"

	gohook "github.com/robotn/gohook"
	"github.com/rs/zerolog/log"
)

type comboKey struct {
	name     string
	rawcodes []uint16
}

// Combo is a parsed key combination such as "Ctrl+Alt+S".
type Combo struct {
	spec string
	keys []comboKey
}

func (c Combo) String() string { return c.spec }

// Parse turns a "+"-separated combination into a Combo. Every key must be
// known on this platform.
func Parse(spec string) (Combo, error) {
	names := parseHotkey(spec)
	if len(names) == 0 {
		return Combo{}, fmt.Errorf("empty hotkey %q", spec)
	}
	c := Combo{spec: spec}
	for _, name := range names {
		raw := keyNameToRawcodes(name)
		if len(raw) == 0 {
			return Combo{}, fmt.Errorf("hotkey %q: unknown key %q", spec, name)
		}
		c.keys = append(c.keys, comboKey{name: name, rawcodes: raw})
	}
	return c, nil
}

// parseHotkey converts a hotkey string like "Ctrl+Alt+q" to normalized key names
func parseHotkey(spec string) []string {
	var keys []string
	for _, part := range strings.Split(strings.ToLower(spec), "+") {
		part = strings.TrimSpace(part)
		switch part {
		case "":
			continue
		case "control":
			part = "ctrl"
		case "win", "super", "meta":
			part = "cmd"
		}
		keys = append(keys, part)
	}
	return keys
}

// matcher tracks which keys of a combo are held down. It fires once when the
// last key goes down and re-arms after that.
type matcher struct {
	mu      sync.Mutex
	combo   Combo
	pressed []bool
}

func newMatcher(c Combo) *matcher {
	return &matcher{combo: c, pressed: make([]bool, len(c.keys))}
}

// down records a key press and reports whether the combination completed.
func (m *matcher) down(raw uint16) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.mark(raw, true) {
		return false
	}
	for _, p := range m.pressed {
		if !p {
			return false
		}
	}
	for i := range m.pressed {
		m.pressed[i] = false
	}
	return true
}

func (m *matcher) up(raw uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mark(raw, false)
}

func (m *matcher) mark(raw uint16, state bool) bool {
	hit := false
	for i, k := range m.combo.keys {
		for _, rc := range k.rawcodes {
			if rc == raw {
				m.pressed[i] = state
				hit = true
				break
			}
		}
	}
	return hit
}

// Listen installs a global keyboard hook and calls fire each time the combo
// is pressed, until ctx is cancelled. fire runs on the hook goroutine and
// must not block.
func Listen(ctx context.Context, spec string, fire func()) error {
	combo, err := Parse(spec)
	if err != nil {
		return err
	}
	m := newMatcher(combo)
	log.Info().Stringer("hotkey", combo).Msg("Hotkey listener configured")

	evChan := gohook.Start()
	if evChan == nil {
		return fmt.Errorf("keyboard hook failed to start")
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Msg("Hotkey goroutine panicked")
			}
		}()
		defer gohook.End()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-evChan:
				if !ok {
					log.Warn().Msg("Hotkey event channel closed")
					return
				}
				switch ev.Kind {
				case gohook.KeyDown:
					if m.down(ev.Rawcode) {
						log.Info().Stringer("hotkey", combo).Msg("Hotkey pressed")
						fire()
					}
				case gohook.KeyUp:
					m.up(ev.Rawcode)
				}
			}
		}
	}()
	return nil
}
