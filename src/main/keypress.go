package main

import (
	"bytes"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

func stdinIsTerminal() bool { return term.IsTerminal(int(os.Stdin.Fd())) }

// waitForKeypress puts the terminal in raw mode and calls onKey when any
// key arrives. The returned restore must run before exit.
func waitForKeypress(onKey func()) (restore func(), err error) {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	go func() {
		var b [1]byte
		if _, err := os.Stdin.Read(b[:]); err != nil {
			log.Debug().Err(err).Msg("Keypress reader stopped")
			return
		}
		log.Info().Msg("Key pressed, exiting")
		onKey()
	}()
	return func() { _ = term.Restore(fd, oldState) }, nil
}

// crlfWriter turns "\n" into "\r\n"; raw mode disables that translation in
// the terminal.
type crlfWriter struct{ w io.Writer }

func (c crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}
