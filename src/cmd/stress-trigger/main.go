package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"voice-screen-capture/src/singleinstance"
)

type stressOptions struct {
	n        int
	port     int
	deadline time.Duration
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := &stressOptions{}
	cmd := newRootCmd(opts, os.Stdout)
	return cmd.Execute()
}

func newRootCmd(opts *stressOptions, out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stress-trigger",
		Short:         "Fire concurrent remote triggers at the resident instance",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := tallyTriggers(cmd.Context(), *opts, singleinstance.Trigger)
			_, err := fmt.Fprintln(out, t)
			return err
		},
	}

	cmd.Flags().IntVar(&opts.n, "n", 50, "number of clients to launch")
	cmd.Flags().IntVar(&opts.port, "port", singleinstance.DefaultPort, "resident port")
	cmd.Flags().DurationVar(&opts.deadline, "deadline", 30*time.Second, "per-client timeout")

	return cmd
}

type tally struct {
	launched int
	results  map[string]int
	errs     int
	elapsed  time.Duration
}

func (t tally) String() string {
	return fmt.Sprintf("launched=%d captured=%d cancelled=%d busy=%d other=%d err=%d elapsed=%s",
		t.launched, t.results["captured"], t.results["cancelled"], t.results["busy"],
		t.launched-t.errs-t.results["captured"]-t.results["cancelled"]-t.results["busy"],
		t.errs, t.elapsed.Round(time.Millisecond))
}

type triggerFunc func(ctx context.Context, port int) (string, error)

// tallyTriggers launches opts.n triggers at once. With a single resident,
// at most one should open a session and the rest report busy.
func tallyTriggers(ctx context.Context, opts stressOptions, trigger triggerFunc) tally {
	var (
		wg sync.WaitGroup
		mu sync.Mutex
		t  = tally{launched: opts.n, results: map[string]int{}}
	)

	start := time.Now()
	for i := 0; i < opts.n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, opts.deadline)
			defer cancel()
			res, err := trigger(cctx, opts.port)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if !errors.Is(err, singleinstance.ErrNoResident) {
					fmt.Fprintf(os.Stderr, "trigger: %v\n", err)
				}
				t.errs++
				return
			}
			t.results[res]++
		}()
	}
	wg.Wait()
	t.elapsed = time.Since(start)
	return t
}
