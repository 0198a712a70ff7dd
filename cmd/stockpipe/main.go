// Package main provides the stockpipe CLI entrypoint.
//
// All commands except `run` are read-only.
//
// Usage:
//
//	stockpipe <command> [options]
//
// Exit codes for `run`:
//   - 0: run loop completed (per-symbol failures are outcomes, not errors)
//   - 1: invalid invocation or configuration
//   - 2: warehouse reset or load failure
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/lodeworks/stockpipe/cli/cmd"
	"github.com/lodeworks/stockpipe/types"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	app := &cli.App{
		Name:           "stockpipe",
		Usage:          "Incremental stock data ingestion CLI",
		Version:        fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			cmd.RunCommand(),
			cmd.RunsCommand(),
			cmd.StatsCommand(),
			cmd.VersionCommand(commit),
		},
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already handled cli.ExitCoder errors. This
		// branch handles unexpected errors that weren't wrapped.
		os.Exit(1)
	}
}

// exitErrHandler preserves exit codes from cli.Exit() so run's contract
// codes propagate to the caller.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()

		// cli.Exit("", N).Error() returns "exit status N"; skip those.
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
