package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"voice-screen-capture/src/clipboard"
	"voice-screen-capture/src/config"
	"voice-screen-capture/src/runtimeinit"
	"voice-screen-capture/src/screenshot"
	"voice-screen-capture/src/singleinstance"
	"voice-screen-capture/src/window"
)

type cliOptions struct {
	out        string
	jsonOutput bool
	verbose    bool
	at         string
	timeout    time.Duration

	cfg *config.Config
	rt  *runtimeinit.Runtime
}

// close releases what the last command bootstrapped.
func (o *cliOptions) close() {
	if o.rt != nil {
		o.rt.Close()
		o.rt = nil
	}
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := &cliOptions{}
	defer opts.close()
	return newRootCmd(opts, os.Stdout).Execute()
}

func newRootCmd(opts *cliOptions, stdout io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "capture",
		Short:         "Scriptable companion to voice-screen-capture",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			rt, err := runtimeinit.Bootstrap(runtimeinit.Options{
				Console: func(*config.Config) io.Writer {
					if opts.verbose {
						return os.Stderr
					}
					return io.Discard
				},
			})
			if err != nil {
				return err
			}
			opts.close()
			opts.cfg, opts.rt = rt.Config, rt
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose logging to stderr")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")

	status := &cobra.Command{
		Use:   "status",
		Short: "Report whether a resident instance is listening",
		RunE: func(cmd *cobra.Command, args []string) error {
			port := opts.cfg.SingleInstancePort
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()
			return writeResult(stdout, opts.jsonOutput, statusResult{
				Port:    port,
				Running: singleinstance.Detect(ctx, port),
			})
		},
	}

	trigger := &cobra.Command{
		Use:   "trigger",
		Short: "Ask the resident instance to open the window picker",
		RunE: func(cmd *cobra.Command, args []string) error {
			port := opts.cfg.SingleInstancePort
			start := time.Now()
			result, err := singleinstance.Trigger(cmd.Context(), port)
			if err != nil {
				return err
			}
			return writeResult(stdout, opts.jsonOutput, triggerResult{
				Result:   result,
				Duration: time.Since(start).Seconds(),
			})
		},
	}

	screen := &cobra.Command{
		Use:   "screen",
		Short: "Capture the whole virtual screen",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine := screenshot.Default()
			rect, err := engine.VirtualScreen()
			if err != nil {
				return err
			}
			return captureRect(stdout, engine, rect, window.Null, *opts)
		},
	}

	win := &cobra.Command{
		Use:   "window",
		Short: "Capture the topmost window under a screen point",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parsePoint(opts.at)
			if err != nil {
				return err
			}
			loc, err := window.NewLocator()
			if err != nil {
				return err
			}
			defer loc.Close()
			h := loc.Locate(p)
			if h.IsNull() {
				return fmt.Errorf("no window at %d,%d", p.X, p.Y)
			}
			rect, err := loc.Bounds(h)
			if err != nil {
				return err
			}
			return captureRect(stdout, screenshot.Default(), rect, h, *opts)
		},
	}
	win.Flags().StringVar(&opts.at, "at", "", "Screen point as X,Y")
	_ = win.MarkFlagRequired("at")

	for _, c := range []*cobra.Command{screen, win} {
		c.Flags().StringVarP(&opts.out, "out", "o", "", "Write PNG to this path ('-' for stdout); default copies to the clipboard")
	}
	// trigger waits for a whole interactive session, so only status has a timeout.
	status.Flags().DurationVar(&opts.timeout, "timeout", 2*time.Second, "Connection timeout")

	root.AddCommand(status, trigger, screen, win)
	return root
}

type statusResult struct {
	Port    int  `json:"port"`
	Running bool `json:"running"`
}

func (r statusResult) String() string {
	if r.Running {
		return fmt.Sprintf("running on port %d", r.Port)
	}
	return fmt.Sprintf("not running (port %d)", r.Port)
}

type triggerResult struct {
	Result   string  `json:"result"`
	Duration float64 `json:"duration_seconds"`
}

func (r triggerResult) String() string { return r.Result }

type captureResult struct {
	Destination string      `json:"destination"`
	Window      string      `json:"window,omitempty"`
	Rect        window.Rect `json:"rect"`
	Width       int         `json:"width"`
	Height      int         `json:"height"`
	Timestamp   string      `json:"timestamp"`
}

func (r captureResult) String() string {
	return fmt.Sprintf("%dx%d -> %s", r.Width, r.Height, r.Destination)
}

func captureRect(stdout io.Writer, engine *screenshot.Engine, rect window.Rect, h window.Handle, opts cliOptions) error {
	buf, err := engine.Capture(rect)
	if err != nil {
		return err
	}
	res := captureResult{
		Rect:      rect,
		Width:     buf.Width(),
		Height:    buf.Height(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if !h.IsNull() {
		res.Window = h.String()
	}

	switch opts.out {
	case "":
		if err := clipboard.Init(); err != nil {
			return err
		}
		if err := screenshot.Deliver(buf, clipboard.NewImageSink()); err != nil {
			return err
		}
		res.Destination = "clipboard"
	case "-":
		data, err := clipboard.EncodePNG(buf)
		if err != nil {
			return err
		}
		_, err = stdout.Write(data)
		// Raw PNG on stdout leaves no room for a summary.
		return err
	default:
		if err := screenshot.Deliver(buf, fileSink(opts.out)); err != nil {
			return err
		}
		res.Destination = opts.out
	}
	log.Debug().Stringer("rect", rect).Str("destination", res.Destination).Msg("Captured")
	return writeResult(stdout, opts.jsonOutput, res)
}

// fileSink writes the buffer as PNG to path.
func fileSink(path string) screenshot.Sink {
	return screenshot.SinkFunc(func(buf *screenshot.PixelBuffer) error {
		data, err := clipboard.EncodePNG(buf)
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0o644)
	})
}

func writeResult(w io.Writer, asJSON bool, v fmt.Stringer) error {
	if asJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(v); err != nil {
			return fmt.Errorf("failed to encode JSON output: %w", err)
		}
		return nil
	}
	_, err := fmt.Fprintln(w, v.String())
	return err
}

func parsePoint(s string) (window.Point, error) {
	xs, ys, ok := strings.Cut(strings.TrimSpace(s), ",")
	if !ok {
		return window.Point{}, errors.New("point must be X,Y")
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return window.Point{}, fmt.Errorf("bad X: %w", err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return window.Point{}, fmt.Errorf("bad Y: %w", err)
	}
	return window.Point{X: x, Y: y}, nil
}
