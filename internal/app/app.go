package app

import (
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "health":
		return runHealth(args[1:])
	case "sync":
		return runSync(args[1:])
	case "seed-issues":
		return runSeedIssues(args[1:])
	case "enrich":
		return runEnrich(args[1:])
	case "schedule":
		return runSchedule(args[1:])
	case "serve":
		return runServe(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "breakdown CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  breakdown <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  health       Verify database connectivity")
	fmt.Fprintln(os.Stderr, "  sync         Run one entry point: reps, bills, votes, cosponsors, issues or all")
	fmt.Fprintln(os.Stderr, "  seed-issues  Create or refresh issues from the subject mapping")
	fmt.Fprintln(os.Stderr, "  enrich       Fetch and summarize one bill by natural key")
	fmt.Fprintln(os.Stderr, "  schedule     Run the sync entry points on an interval")
	fmt.Fprintln(os.Stderr, "  serve        Start the ops HTTP server")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"breakdown <command> -h\" for command-specific flags.")
}
