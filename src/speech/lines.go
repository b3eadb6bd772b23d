package speech

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// Lines treats each line of r as one final recognition result. It suits
// recognizers that print phrases to stdout, piped into this process.
//
// Lines are compared verbatim downstream, so only the line terminator is
// stripped.
type Lines struct {
	r   io.Reader
	out chan Recognized
}

func NewLines(r io.Reader) *Lines {
	return &Lines{r: r, out: make(chan Recognized, eventBuffer)}
}

func (l *Lines) Events() <-chan Recognized { return l.out }

// Run returns nil at end of input or when ctx is cancelled.
func (l *Lines) Run(ctx context.Context) error {
	defer close(l.out)

	lines := make(chan string)
	scanErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	go func() {
		sc := bufio.NewScanner(l.r)
		for sc.Scan() {
			select {
			case lines <- strings.TrimSuffix(sc.Text(), "\r"):
			case <-done:
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-scanErr:
			if err != nil {
				return fmt.Errorf("read recognized lines: %w", err)
			}
			return nil
		case text := <-lines:
			if text == "" {
				continue
			}
			safeSend(l.out, Recognized{Text: text, At: time.Now()})
		}
	}
}
