package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	placementerrors "github.com/placement-tools/placementctl/pkg/errors"
	"github.com/placement-tools/placementctl/pkg/placement"
	ver "github.com/placement-tools/placementctl/pkg/version"
)

// minVersionDeleteAll gates deleting a provider's whole inventory in one
// call.
var minVersionDeleteAll = ver.Version{Major: 1, Minor: 5}

func inventoryCmd() *cli.Command {
	return &cli.Command{
		Name:  "inventory",
		Usage: "Manage resource provider inventories",
		Commands: []*cli.Command{
			inventoryListCmd(),
			inventoryShowCmd(),
			inventorySetCmd(),
			inventoryDeleteCmd(),
			inventoryClassCmd(),
		},
	}
}

func inventoryListCmd() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Usage:     "List a resource provider's inventories",
		ArgsUsage: "<rp_uuid>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args, err := requireArgs(cmd, "rp_uuid")
			if err != nil {
				return err
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			records, err := c.ListInventories(ctx, args[0])
			if err != nil {
				return err
			}
			return writeResult(ctx, cmd, records)
		},
	}
}

func inventoryShowCmd() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one resource class's inventory on a provider",
		ArgsUsage: "<rp_uuid> <resource_class>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args, err := requireArgs(cmd, "rp_uuid", "resource_class")
			if err != nil {
				return err
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			inv, err := c.ShowInventory(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return writeResult(ctx, cmd, placement.Record{ResourceClass: args[1], Inventory: inv})
		},
	}
}

func inventorySetCmd() *cli.Command {
	return &cli.Command{
		Name:  "set",
		Usage: "Replace a provider's inventory with exactly the given resources",
		Description: `Replaces all inventory records of the target provider with the given
CLASS=VALUE and CLASS:FIELD=VALUE assignments. A bare CLASS=VALUE sets the
class total; classes omitted from the call are deleted unless an allocation
holds them in use. An empty resource list clears the provider's inventory.

With --aggregate the UUID names an aggregate and the inventory is set on
every member provider independently; per-provider failures do not stop the
others and are reported individually before the summary.`,
		ArgsUsage: "<rp_uuid|aggregate_uuid> [CLASS=VALUE | CLASS:FIELD=VALUE ...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "aggregate",
				Usage: "treat the UUID as an aggregate and set inventory on every member",
			},
		},
		Action: runInventorySet,
	}
}

func inventoryDeleteCmd() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete one resource class's inventory, or all of it",
		ArgsUsage: "<rp_uuid>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "resource-class",
				Usage: "resource class to delete; omit to delete all classes (requires microversion 1.5)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args, err := requireArgs(cmd, "rp_uuid")
			if err != nil {
				return err
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			if class := cmd.String("resource-class"); class != "" {
				return c.DeleteInventory(ctx, args[0], class)
			}
			if !c.Microversion().AtLeast(minVersionDeleteAll) {
				return placementerrors.Newf(placementerrors.ErrCodeArgumentsRequired,
					"the following arguments are required: %s", "--resource-class")
			}
			return c.DeleteAllInventories(ctx, args[0])
		},
	}
}

func inventoryClassCmd() *cli.Command {
	return &cli.Command{
		Name:     "class",
		Usage:    "Manage a single inventory class on a provider",
		Commands: []*cli.Command{inventoryClassSetCmd()},
	}
}

func inventoryClassSetCmd() *cli.Command {
	return &cli.Command{
		Name:  "set",
		Usage: "Update one class's inventory fields, leaving other classes alone",
		Description: `Partially updates a single resource class's inventory on a provider:
only explicitly given fields change, and other classes are untouched.
--total is always required; a class that does not exist yet is created
with server defaults for the unspecified fields.`,
		ArgsUsage: "<rp_uuid> <resource_class>",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "total", Usage: "total units of the class the provider offers"},
			&cli.Int64Flag{Name: "reserved", Usage: "units held back from consumers"},
			&cli.Int64Flag{Name: "min-unit", Usage: "smallest allocatable amount"},
			&cli.Int64Flag{Name: "max-unit", Usage: "largest allocatable amount"},
			&cli.Int64Flag{Name: "step-size", Usage: "allocation granularity"},
			&cli.Float64Flag{Name: "allocation-ratio", Usage: "overcommit ratio"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args, err := requireArgs(cmd, "rp_uuid", "resource_class")
			if err != nil {
				return err
			}
			if !cmd.IsSet("total") {
				return placementerrors.Newf(placementerrors.ErrCodeArgumentsRequired,
					"the following arguments are required: %s", "--total")
			}

			update := placement.InventoryUpdate{}
			total := cmd.Int64("total")
			update.Total = &total
			if cmd.IsSet("reserved") {
				n := cmd.Int64("reserved")
				update.Reserved = &n
			}
			if cmd.IsSet("min-unit") {
				n := cmd.Int64("min-unit")
				update.MinUnit = &n
			}
			if cmd.IsSet("max-unit") {
				n := cmd.Int64("max-unit")
				update.MaxUnit = &n
			}
			if cmd.IsSet("step-size") {
				n := cmd.Int64("step-size")
				update.StepSize = &n
			}
			if cmd.IsSet("allocation-ratio") {
				f := cmd.Float64("allocation-ratio")
				update.AllocationRatio = &f
			}

			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			if err := resolveClass(ctx, c, args[1]); err != nil {
				return err
			}
			rec, err := c.UpdateInventoryClass(ctx, args[0], args[1], update)
			if err != nil {
				return err
			}
			return writeResult(ctx, cmd, rec)
		},
	}
}
