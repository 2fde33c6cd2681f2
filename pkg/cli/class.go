package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

// classList gives resource class names a stable tabular shape.
type classList []string

func (l classList) TableHeader() []string { return []string{"name"} }

func (l classList) TableRows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, name := range l {
		rows = append(rows, []string{name})
	}
	return rows
}

func resourceClassCmd() *cli.Command {
	return &cli.Command{
		Name:    "resource-class",
		Aliases: []string{"rc"},
		Usage:   "Manage resource classes",
		Commands: []*cli.Command{
			resourceClassListCmd(),
			resourceClassCreateCmd(),
		},
	}
}

func resourceClassListCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List resource classes known to the service",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			names, err := c.ListResourceClasses(ctx)
			if err != nil {
				return err
			}
			return writeResult(ctx, cmd, classList(names))
		},
	}
}

func resourceClassCreateCmd() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Create a custom resource class",
		ArgsUsage: "<CUSTOM_NAME>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args, err := requireArgs(cmd, "name")
			if err != nil {
				return err
			}
			c, err := newClient(cmd)
			if err != nil {
				return err
			}
			return c.CreateResourceClass(ctx, args[0])
		},
	}
}
