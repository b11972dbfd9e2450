package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/llxisdsh/spinrw/internal/stress"
)

type options struct {
	configPath string
	duration   time.Duration
	verbose    bool
	explore    bool

	runnerOpts []stress.Option
}

func main() {
	var opts options

	flag.StringVar(&opts.configPath, "config", "", "Path to TOML configuration file")
	flag.DurationVar(&opts.duration, "duration", 0, "Override the run duration of every lock")
	flag.BoolVar(&opts.verbose, "v", false, "Enable debug logging")
	flag.BoolVar(&opts.explore, "explore", false, "Exhaustively check interleavings instead of stressing")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, os.Stdout, os.Stderr); err != nil {
		log.Fatal(err)
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func run(ctx context.Context, opts options, out, logOut io.Writer) error {
	logger := newLogger(logOut, opts.verbose)

	if opts.explore {
		results, err := stress.Explore(logger, stress.Programs)
		if err != nil {
			return fmt.Errorf("explore interleavings: %w", err)
		}
		return stress.ReportExplore(out, results)
	}

	c, err := stress.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.duration > 0 {
		c.Duration.Duration = opts.duration
	}

	logger.Info("starting stress run",
		slog.Any("locks", c.Locks),
		slog.Int("readers", c.Readers),
		slog.Int("writers", c.Writers),
		slog.Duration("duration", c.Duration.Duration),
	)
	results, err := stress.New(c, logger, opts.runnerOpts...).Run(ctx)
	if err != nil {
		return fmt.Errorf("stress locks: %w", err)
	}

	return stress.Report(out, results)
}
