package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/placement-tools/placementctl/pkg/placement"
)

func allocationCmd() *cli.Command {
	return &cli.Command{
		Name:     "allocation",
		Usage:    "Manage consumer allocations",
		Commands: []*cli.Command{allocationSetCmd()},
	}
}

func allocationSetCmd() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Replace a consumer's allocations",
		ArgsUsage: "<consumer_uuid>",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "allocation",
				Aliases:  []string{"a"},
				Required: true,
				Usage:    "allocation against one provider (format: rp=UUID,CLASS=AMOUNT[,CLASS=AMOUNT...], can be repeated)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args, err := requireArgs(cmd, "consumer_uuid")
			if err != nil {
				return err
			}

			allocs := make([]placement.Allocation, 0, len(cmd.StringSlice("allocation")))
			for _, arg := range cmd.StringSlice("allocation") {
				alloc, err := placement.ParseAllocationArg(arg)
				if err != nil {
					return err
				}
				allocs = append(allocs, alloc)
			}

			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			return c.SetAllocations(ctx, args[0], allocs)
		},
	}
}
