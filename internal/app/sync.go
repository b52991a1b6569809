package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"horse.fit/breakdown/internal/cli"
	"horse.fit/breakdown/internal/engine"
)

func runSync(args []string) int {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 2*time.Hour, "Command timeout")
	drainTimeout := fs.Duration("drain-timeout", 10*time.Minute, "How long to wait for dispatched enrichment after the sync")
	noEnrich := fs.Bool("no-enrich", false, "Do not dispatch enrichment for new bills")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: breakdown sync [flags] <reps|bills|votes|cosponsors|issues|all>")
		return 2
	}
	entities, err := parseEntities(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if *timeout <= 0 {
		fmt.Fprintln(os.Stderr, "--timeout must be > 0")
		return 2
	}

	cfg, logger, code := loadSettings(envLoader)
	if code != 0 {
		return code
	}
	pool, code := connect(cfg, logger, "sync")
	if code != 0 {
		return code
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var enrichment *bool
	if *noEnrich {
		enrichment = new(bool)
	}
	rt, err := newRuntime(ctx, cfg, pool, logger, runtimeOptions{Enrichment: enrichment})
	if err != nil {
		logger.Error().Err(err).Msg("sync failed to initialize")
		fmt.Fprintf(os.Stderr, "Sync failed: %v\n", err)
		return 1
	}
	defer rt.Close(*drainTimeout)

	summaries, err := rt.engine.SyncAll(ctx, entities)
	for _, summary := range summaries {
		printSummary(summary)
	}
	if err != nil {
		logger.Error().Err(err).Strs("entities", entities).Msg("sync failed")
		fmt.Fprintf(os.Stderr, "Sync failed: %v\n", err)
		return 1
	}
	return 0
}

func printSummary(s engine.RunSummary) {
	fmt.Printf("sync %s run=%s status=%s fetched=%d duplicates=%d inserted=%d updated=%d skipped=%d elapsed=%s\n",
		s.Entity, s.RunID, s.Status,
		s.Counts.Fetched, s.Counts.Duplicates, s.Counts.Inserted, s.Counts.Updated, s.Counts.Skipped,
		s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))
}

// newSignalContext cancels on SIGINT or SIGTERM.
func newSignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
