package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/placement-tools/placementctl/pkg/logging"
	"github.com/placement-tools/placementctl/pkg/server"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the in-memory placement service",
		Description: `Runs an in-memory placement service speaking the same REST API the
other commands consume. State lives in memory only and is lost on exit;
use --seed to preload providers, inventories and custom resource classes
from a YAML file.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "address",
				Usage: "listen address (default: all interfaces)",
			},
			&cli.IntFlag{
				Name:  "port",
				Value: 8778,
				Usage: "listen port",
			},
			&cli.StringFlag{
				Name:  "seed",
				Usage: "YAML seed file with providers, inventories and resource classes",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logging.SetDefaultStructuredLogger("placement", version)

			cfg := server.DefaultConfig()
			cfg.Address = cmd.String("address")
			if cmd.IsSet("port") {
				cfg.Port = int(cmd.Int("port"))
			}

			opts := []server.Option{
				server.WithName("placement"),
				server.WithVersion(version),
				server.WithConfig(cfg),
			}
			if seed := cmd.String("seed"); seed != "" {
				store, err := server.NewStoreFromSeedFile(seed)
				if err != nil {
					return err
				}
				opts = append(opts, server.WithStore(store))
			}

			return server.New(opts...).Run(ctx)
		},
	}
}
