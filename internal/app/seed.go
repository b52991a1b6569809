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
	"horse.fit/breakdown/internal/issues"
)

func runSeedIssues(args []string) int {
	fs := flag.NewFlagSet("seed-issues", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	mappingPath := fs.String("mapping", "", "Path to a subject mapping JSON file (default: built-in mapping)")
	timeout := fs.Duration("timeout", 60*time.Second, "Command timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	var (
		mapping issues.Mapping
		err     error
	)
	if path := strings.TrimSpace(*mappingPath); path != "" {
		mapping, err = issues.LoadMapping(path)
	} else {
		mapping, err = issues.DefaultMapping()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load mapping: %v\n", err)
		return 1
	}

	cfg, logger, code := loadSettings(envLoader)
	if code != 0 {
		return code
	}
	pool, code := connect(cfg, logger, "seed-issues")
	if code != 0 {
		return code
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := issues.Seed(ctx, pool, mapping, logger)
	if err != nil {
		logger.Error().Err(err).Msg("seed issues failed")
		fmt.Fprintf(os.Stderr, "Seed issues failed: %v\n", err)
		return 1
	}

	fmt.Printf("seed-issues created=%d updated=%d\n", result.Created, result.Updated)
	return 0
}
