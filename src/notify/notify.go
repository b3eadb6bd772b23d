// Package notify prints user-facing capture messages to the console.
package notify

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
)

const (
	msgActivated = "Activation phrase detected. Preparing to capture screen..."
	msgTriggered = "Capture requested (%s). Preparing to capture screen..."
	msgCaptured  = "Screenshot captured and copied to clipboard!"
	msgFailed    = "Screen capture failed: %v"
)

// Console writes one line per event. It is safe for concurrent use.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsole returns a Console writing to w, or stdout when w is nil.
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{out: w}
}

func (c *Console) Activated(source string) {
	if source == "speech" {
		c.println(msgActivated)
		return
	}
	c.println(fmt.Sprintf(msgTriggered, source))
}

func (c *Console) Captured(width, height int) {
	log.Info().Int("width", width).Int("height", height).Msg("Screenshot delivered to clipboard")
	c.println(msgCaptured)
}

func (c *Console) Failed(err error) {
	log.Error().Err(err).Msg("Capture failed")
	c.println(fmt.Sprintf(msgFailed, err))
}

// Println writes a free-form line, used for banners.
func (c *Console) Println(s string) { c.println(s) }

func (c *Console) println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := fmt.Fprintln(c.out, s); err != nil {
		log.Warn().Err(err).Msg("Console write failed")
	}
}

func logAlert(title, message string) {
	log.Error().Str("title", title).Msg(message)
}
