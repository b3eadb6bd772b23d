package logutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	logFileName  = "voice_screen_capture.log"
	maxSizeBytes = 10 * 1024 * 1024 // 10 MB
	maxArchives  = 3
)

// Setup installs the global zerolog logger. Console output goes to console
// (stderr when nil); when enableFileLogging is set, a size-rotated file (10MB, max 3 archives)
// in the working directory receives the same records without colour.
// Returns a closer for the log file, which is a no-op without file logging.
func Setup(console io.Writer, enableFileLogging bool, level string) func() {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if console == nil {
		console = os.Stderr
	}
	cw := zerolog.ConsoleWriter{Out: console, TimeFormat: time.Kitchen}
	if !enableFileLogging {
		log.Logger = zerolog.New(cw).With().Timestamp().Logger()
		return func() {}
	}

	w, err := openRotating(logFileName)
	if err != nil {
		log.Logger = zerolog.New(cw).With().Timestamp().Logger()
		log.Warn().Err(err).Msg("File logging disabled")
		return func() {}
	}
	file := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(cw, file)).With().Timestamp().Logger()
	return func() { _ = w.Close() }
}

type rotatingWriter struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

func openRotating(path string) (*rotatingWriter, error) {
	rotateIfNeeded(path, 0)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return &rotatingWriter{path: path, f: f}, nil
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if st, err := w.f.Stat(); err == nil && st.Size()+int64(len(p)) > maxSizeBytes {
		_ = w.f.Close()
		rotateIfNeeded(w.path, len(p))
		nf, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return 0, err
		}
		w.f = nf
	}
	return w.f.Write(p)
}

func (w *rotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}

var _ io.WriteCloser = (*rotatingWriter)(nil)

// rotateIfNeeded shifts path -> .1 -> .2 -> .3 (oldest discarded) once the
// base file would exceed the size limit after pending more bytes.
func rotateIfNeeded(path string, pending int) {
	st, err := os.Stat(path)
	if err != nil || st.Size()+int64(pending) <= maxSizeBytes {
		return
	}
	_ = os.Remove(archiveName(path, maxArchives))
	for i := maxArchives - 1; i >= 1; i-- {
		_ = os.Rename(archiveName(path, i), archiveName(path, i+1))
	}
	_ = os.Rename(path, archiveName(path, 1))
}

func archiveName(path string, n int) string {
	return filepath.Join(filepath.Dir(path), fmt.Sprintf("%s.%d", filepath.Base(path), n))
}
