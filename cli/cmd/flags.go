// Package cmd provides CLI commands for the stockpipe binary.
package cmd

import "github.com/urfave/cli/v2"

// Shared flags for read-only commands.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// TUIFlag enables Bubble Tea interactive mode.
	// Only valid for commands that render statistics (stats).
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode (stats only)",
	}
)

// ReadOnlyFlags returns the shared flags for all read-only commands.
// Includes --tui so that unsupported commands can provide explicit error
// messages instead of generic "flag not defined" errors.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
		TUIFlag,
	}
}

// StorageFlags returns the flags that locate the warehouse. They are
// shared by run and by the read-only commands that query stored state.
func StorageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "dataset",
			Usage: "Warehouse dataset name",
		},
		&cli.StringFlag{
			Name:  "storage-backend",
			Usage: "Storage backend: fs, s3, or memory",
		},
		&cli.StringFlag{
			Name:  "storage-path",
			Usage: "Storage path (fs: directory, s3: bucket/prefix)",
		},
		&cli.StringFlag{
			Name:  "region",
			Usage: "AWS region for S3 backend",
		},
		&cli.StringFlag{
			Name:  "endpoint",
			Usage: "Custom S3 endpoint URL (MinIO, LocalStack)",
		},
		&cli.BoolFlag{
			Name:  "s3-path-style",
			Usage: "Force path-style S3 addressing",
		},
	}
}
