// Package runtimeinit is the shared startup sequence for the resident
// process and the command-line tools.
package runtimeinit

import (
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"voice-screen-capture/src/clipboard"
	"voice-screen-capture/src/config"
	"voice-screen-capture/src/logutil"
)

type Options struct {
	// Override adjusts the loaded config, e.g. from command-line flags.
	Override func(*config.Config)
	// Console picks the log console once the config is known. nil means
	// stderr.
	Console func(*config.Config) io.Writer
	// Clipboard initializes the clipboard before returning.
	Clipboard bool
}

// Runtime is what Bootstrap set up. Close flushes the log file.
type Runtime struct {
	Config   *config.Config
	closeLog func()
}

func (r *Runtime) Close() {
	if r.closeLog != nil {
		r.closeLog()
	}
}

// Bootstrap loads configuration, installs logging and optionally
// initializes the clipboard.
func Bootstrap(opts Options) (*Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.Override != nil {
		opts.Override(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
	}

	var console io.Writer
	if opts.Console != nil {
		console = opts.Console(cfg)
	}
	rt := &Runtime{
		Config:   cfg,
		closeLog: logutil.Setup(console, cfg.EnableFileLogging, cfg.LogLevel),
	}
	if cfg.EnvPath != "" {
		log.Debug().Str("path", cfg.EnvPath).Msg("Configuration file applied")
	}

	if opts.Clipboard {
		if err := clipboard.Init(); err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to initialize clipboard: %w", err)
		}
	}
	return rt, nil
}
