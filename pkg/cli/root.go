package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/placement-tools/placementctl/pkg/logging"
	ver "github.com/placement-tools/placementctl/pkg/version"
)

// version is embedded at build time via ldflags.
var version = "dev"

// globalFlags builds the flags available on every subcommand. Fresh
// instances per call: cli flags carry parse state, and reusing them across
// App instances would leak values between invocations.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "endpoint",
			Aliases: []string{"e"},
			Value:   "http://127.0.0.1:8778",
			Sources: cli.EnvVars("PLACEMENT_ENDPOINT"),
			Usage:   "placement service endpoint URL",
		},
		&cli.StringFlag{
			Name:    "api-version",
			Value:   ver.Min.String(),
			Sources: cli.EnvVars("PLACEMENT_API_VERSION"),
			Usage:   "placement API microversion to request",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"t"},
			Value:   "table",
			Usage:   "output format (json, yaml, table)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output file path (default: stdout)",
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "enable debug logging",
		},
	}
}

// App assembles the placementctl command tree.
func App() *cli.Command {
	return &cli.Command{
		Name:                  "placementctl",
		Usage:                 "manage resource provider inventories in a placement service",
		Version:               version,
		EnableShellCompletion: true,
		Flags:                 globalFlags(),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				logging.SetDebugLogger(cmd.Name, version)
			} else {
				logging.SetQuietLogger()
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			inventoryCmd(),
			resourceProviderCmd(),
			resourceClassCmd(),
			allocationCmd(),
			serveCmd(),
		},
	}
}
