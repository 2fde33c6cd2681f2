package cli

import (
	"context"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/placement-tools/placementctl/pkg/placement"
)

// providerList gives resource providers a stable tabular shape.
type providerList []placement.ResourceProvider

func (l providerList) TableHeader() []string {
	return []string{"uuid", "name", "generation"}
}

func (l providerList) TableRows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, rp := range l {
		rows = append(rows, []string{rp.UUID, rp.Name, strconv.FormatInt(rp.Generation, 10)})
	}
	return rows
}

func resourceProviderCmd() *cli.Command {
	return &cli.Command{
		Name:    "resource-provider",
		Aliases: []string{"rp"},
		Usage:   "Manage resource providers",
		Commands: []*cli.Command{
			resourceProviderCreateCmd(),
			resourceProviderListCmd(),
			resourceProviderAggregateCmd(),
		},
	}
}

func resourceProviderCreateCmd() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "Register a resource provider",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "name",
				Aliases:  []string{"n"},
				Required: true,
				Usage:    "provider name",
			},
			&cli.StringFlag{
				Name:  "uuid",
				Usage: "provider UUID (generated by the service when omitted)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			rp, err := c.CreateResourceProvider(ctx, cmd.String("name"), cmd.String("uuid"))
			if err != nil {
				return err
			}
			return writeResult(ctx, cmd, rp)
		},
	}
}

func resourceProviderListCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List all resource providers",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			providers, err := c.ListResourceProviders(ctx)
			if err != nil {
				return err
			}
			return writeResult(ctx, cmd, providerList(providers))
		},
	}
}

func resourceProviderAggregateCmd() *cli.Command {
	return &cli.Command{
		Name:     "aggregate",
		Usage:    "Manage a provider's aggregate membership",
		Commands: []*cli.Command{resourceProviderAggregateSetCmd()},
	}
}

func resourceProviderAggregateSetCmd() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Replace a provider's aggregate membership",
		ArgsUsage: "<rp_uuid> <aggregate_uuid>...",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args, err := requireArgs(cmd, "rp_uuid", "aggregate_uuid")
			if err != nil {
				return err
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			if err := c.SetAggregates(ctx, args[0], args[1:]); err != nil {
				return err
			}
			result := struct {
				Aggregates []string `json:"aggregates" yaml:"aggregates"`
			}{Aggregates: args[1:]}
			return writeResult(ctx, cmd, result)
		},
	}
}
