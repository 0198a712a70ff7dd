package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/lodeworks/stockpipe/cli/config"
	"github.com/lodeworks/stockpipe/cli/render"
	"github.com/lodeworks/stockpipe/warehouse"
)

// readTimeout bounds warehouse reads for the read-only commands.
const readTimeout = 30 * time.Second

// RunsCommand returns the runs command, which lists stored monitoring
// rows from the pipeline_runs stream.
func RunsCommand() *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "List stored per-symbol run outcomes (newest first)",
		Flags: append(append(ReadOnlyFlags(), StorageFlags()...),
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to stockpipe.yaml config file",
			},
			&cli.StringFlag{
				Name:  "run-id",
				Usage: "Filter outcomes to a single run",
			},
		),
		Action: runsAction,
	}
}

func runsAction(c *cli.Context) error {
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for runs command (use stats --tui)", exitInvalid)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitInvalid)
	}

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

	return r.Render(outcomes)
}

// resolveStorage merges the config file's storage section with the
// storage flags. Flags win. Used by the read-only commands; run has its
// own merge that also covers pipeline and adapter settings.
func resolveStorage(c *cli.Context) (storageChoice, error) {
	var choice storageChoice
	if path := c.String("config"); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return choice, err
		}
		choice = storageChoice{
			dataset:     cfg.Storage.Dataset,
			backend:     cfg.Storage.Backend,
			path:        cfg.Storage.Path,
			region:      cfg.Storage.Region,
			endpoint:    cfg.Storage.Endpoint,
			s3PathStyle: cfg.Storage.S3PathStyle,
		}
	}

	if v := c.String("dataset"); v != "" {
		choice.dataset = v
	}
	if v := c.String("storage-backend"); v != "" {
		choice.backend = v
	}
	if v := c.String("storage-path"); v != "" {
		choice.path = v
	}
	if v := c.String("region"); v != "" {
		choice.region = v
	}
	if v := c.String("endpoint"); v != "" {
		choice.endpoint = v
	}
	if c.Bool("s3-path-style") {
		choice.s3PathStyle = true
	}

	if choice.dataset == "" {
		choice.dataset = defaultPipelineName
	}
	if choice.backend == "" {
		choice.backend = "fs"
	}
	if choice.backend == "fs" && choice.path == "" {
		choice.path = "./stockpipe_data"
	}
	return choice, nil
}

// openReadWarehouse builds a warehouse handle for read-only queries.
// Read paths need no run identity; only the dataset location matters.
func openReadWarehouse(c *cli.Context) (*warehouse.LodeWarehouse, error) {
	choice, err := resolveStorage(c)
	if err != nil {
		return nil, err
	}
	if choice.backend == "memory" {
		return nil, fmt.Errorf("memory backend holds no state across invocations")
	}
	return buildWarehouse(choice, "", "")
}
