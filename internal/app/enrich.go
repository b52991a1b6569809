package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"horse.fit/breakdown/internal/cli"
	"horse.fit/breakdown/internal/db"
	"horse.fit/breakdown/internal/enrich"
)

func runEnrich(args []string) int {
	fs := flag.NewFlagSet("enrich", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", 10*time.Minute, "Command timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 || strings.TrimSpace(fs.Arg(0)) == "" {
		fmt.Fprintln(os.Stderr, "usage: breakdown enrich [flags] <bill natural key>")
		return 2
	}
	key := strings.ToLower(strings.TrimSpace(fs.Arg(0)))

	cfg, logger, code := loadSettings(envLoader)
	if code != 0 {
		return code
	}
	pool, code := connect(cfg, logger, "enrich")
	if code != 0 {
		return code
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	disabled := false
	rt, err := newRuntime(ctx, cfg, pool, logger, runtimeOptions{Enrichment: &disabled})
	if err != nil {
		logger.Error().Err(err).Msg("enrich failed to initialize")
		fmt.Fprintf(os.Stderr, "Enrich failed: %v\n", err)
		return 1
	}
	defer rt.Close(0)

	bill, err := pool.FindBillByNaturalKey(ctx, key)
	if err != nil {
		if db.IsNoRows(err) {
			fmt.Fprintf(os.Stderr, "Bill %q is not stored\n", key)
			return 1
		}
		logger.Error().Err(err).Str("bill", key).Msg("enrich lookup failed")
		fmt.Fprintf(os.Stderr, "Enrich failed: %v\n", err)
		return 1
	}

	result, err := rt.enricher.Enrich(ctx, enrich.TargetFromBill(bill))
	if err != nil {
		logger.Error().Err(err).Str("bill", key).Str("result", string(result)).Msg("enrich failed")
		fmt.Fprintf(os.Stderr, "Enrich failed: %v\n", err)
		return 1
	}

	fmt.Printf("enrich bill=%s result=%s\n", key, result)
	return 0
}
