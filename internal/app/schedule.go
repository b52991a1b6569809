package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"horse.fit/breakdown/internal/cli"
	"horse.fit/breakdown/internal/engine"
)

func runSchedule(args []string) int {
	fs := flag.NewFlagSet("schedule", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	interval := fs.Duration("interval", 0, "Time between runs (default SCHEDULE_INTERVAL)")
	targets := fs.String("entities", "all", "Comma-separated entry points to run each tick")
	drainTimeout := fs.Duration("drain-timeout", time.Minute, "How long to wait for enrichment on shutdown")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	entities, err := parseEntityList(*targets)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if *interval < 0 {
		fmt.Fprintln(os.Stderr, "--interval must be > 0")
		return 2
	}

	cfg, logger, code := loadSettings(envLoader)
	if code != 0 {
		return code
	}
	if *interval == 0 {
		*interval = cfg.ScheduleInterval
	}

	pool, code := connect(cfg, logger, "schedule")
	if code != 0 {
		return code
	}
	defer pool.Close()

	ctx, cancel := newSignalContext()
	defer cancel()

	rt, err := newRuntime(ctx, cfg, pool, logger, runtimeOptions{})
	if err != nil {
		logger.Error().Err(err).Msg("schedule failed to initialize")
		fmt.Fprintf(os.Stderr, "Schedule failed: %v\n", err)
		return 1
	}
	defer rt.Close(*drainTimeout)

	scheduler, err := engine.NewScheduler(*interval, syncJob(rt.engine, entities), logger.With().Str("component", "scheduler").Logger())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	logger.Info().Dur("interval", *interval).Strs("entities", entities).Msg("scheduler started")
	if err := scheduler.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("scheduler failed")
		fmt.Fprintf(os.Stderr, "Schedule failed: %v\n", err)
		return 1
	}
	return 0
}

// syncJob runs the entry points in order on every tick.
func syncJob(eng *engine.Engine, entities []string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		_, err := eng.SyncAll(ctx, entities)
		return err
	}
}
