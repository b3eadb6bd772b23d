// Package clipboard delivers captured pixels to the system clipboard as a
// PNG image.
package clipboard

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.design/x/clipboard"

	"voice-screen-capture/src/screenshot"
)

// ErrNotInitialized is returned when Init has not succeeded.
var ErrNotInitialized = errors.New("clipboard not initialized")

var (
	writeMu sync.Mutex
	ready   atomic.Bool
)

func Init() error {
	if err := clipboard.Init(); err != nil {
		return err
	}
	ready.Store(true)
	return nil
}

// writeFunc matches clipboard.Write. A nil channel means the write was
// rejected.
type writeFunc func(t clipboard.Format, buf []byte) <-chan struct{}

// ImageSink is a screenshot.Sink that places the buffer on the clipboard.
type ImageSink struct {
	write writeFunc
	ready func() bool
}

func NewImageSink() *ImageSink {
	return &ImageSink{write: clipboard.Write, ready: ready.Load}
}

// Accept encodes buf as PNG and performs a mutex-guarded clipboard write.
func (s *ImageSink) Accept(buf *screenshot.PixelBuffer) error {
	if !s.ready() {
		return ErrNotInitialized
	}
	data, err := EncodePNG(buf)
	if err != nil {
		return err
	}

	writeMu.Lock()
	defer writeMu.Unlock()
	if changed := s.write(clipboard.FmtImage, data); changed == nil {
		return fmt.Errorf("clipboard rejected %d byte image", len(data))
	}
	log.Debug().Int("width", buf.Width()).Int("height", buf.Height()).Int("bytes", len(data)).Msg("Image written to clipboard")
	return nil
}

// EncodePNG renders the buffer as PNG bytes.
func EncodePNG(buf *screenshot.PixelBuffer) ([]byte, error) {
	var out bytes.Buffer
	if err := png.Encode(&out, buf.Image()); err != nil {
		return nil, fmt.Errorf("failed to encode image as PNG: %w", err)
	}
	return out.Bytes(), nil
}
