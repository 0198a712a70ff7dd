package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/lodeworks/stockpipe/cli/render"
	"github.com/lodeworks/stockpipe/cli/tui"
)

// StatsCommand returns the stats command, which aggregates stored
// outcomes into run-level counts.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show aggregated run statistics from stored outcomes",
		Flags: append(append(ReadOnlyFlags(), StorageFlags()...),
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to stockpipe.yaml config file",
			},
			&cli.StringFlag{
				Name:  "run-id",
				Usage: "Aggregate a single run instead of all stored runs",
			},
		),
		Action: statsAction,
	}
}

func statsAction(c *cli.Context) error {
	wh, err := openReadWarehouse(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to open warehouse: %v", err), exitLoadFailed)
	}
	defer func() { _ = wh.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
	defer cancel()

	outcomes, err := wh.Outcomes(ctx, c.String("run-id"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to read outcomes: %v", err), exitLoadFailed)
	}

	stats := tui.ComputeStats(outcomes)

	if c.Bool("tui") {
		return tui.Run(stats)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitInvalid)
	}
	return r.Render(stats)
}
