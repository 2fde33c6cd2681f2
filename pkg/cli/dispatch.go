package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/placement-tools/placementctl/pkg/client"
	placementerrors "github.com/placement-tools/placementctl/pkg/errors"
	"github.com/placement-tools/placementctl/pkg/placement"
)

// maxConcurrentSets bounds the fan-out when setting inventory across an
// aggregate's members.
const maxConcurrentSets = 4

type setOutcome struct {
	provider string
	records  placement.RecordList
	err      error
}

// runInventorySet implements `inventory set`: parse the resource tokens,
// resolve the target providers, execute per provider, aggregate the
// outcomes, emit.
func runInventorySet(ctx context.Context, cmd *cli.Command) error {
	args, err := requireArgs(cmd, "uuid")
	if err != nil {
		return err
	}
	target, tokens := args[0], args[1:]

	req, err := placement.ParseInventoryTokens(tokens)
	if err != nil {
		return err
	}

	c, err := newClient(cmd)
	if err != nil {
		return err
	}

	// Version gating comes before class resolution so an unsupported
	// --aggregate fails without touching the network.
	aggregate := cmd.Bool("aggregate")
	if aggregate {
		if err := c.Require(client.OpAggregateMembers); err != nil {
			return err
		}
	}

	vocab := placement.NewVocabulary()
	if req.HasNonStandardClass() {
		vocab = c.Vocabulary(ctx)
	}
	if err := req.ValidateClasses(vocab); err != nil {
		return err
	}

	updates := make(map[string]placement.InventoryUpdate, len(req.Classes()))
	for _, class := range req.Classes() {
		updates[class] = req.Update(class)
	}

	if !aggregate {
		records, err := c.SetInventories(ctx, target, updates)
		if err != nil {
			return err
		}
		return writeResult(ctx, cmd, records)
	}

	providers, err := c.ResolveAggregateMembers(ctx, target)
	if err != nil {
		return err
	}

	outcomes := setAcrossProviders(ctx, c, providers, updates)

	var merged placement.RecordList
	failed := 0
	for _, o := range outcomes {
		if o.err != nil {
			failed++
			fmt.Fprintf(cmd.Root().ErrWriter,
				"Failed to set inventory for resource provider %s: %s\n", o.provider, o.err)
			continue
		}
		for _, rec := range o.records {
			rec.ResourceProvider = o.provider
			merged = append(merged, rec)
		}
	}
	if failed > 0 {
		return placementerrors.Newf(placementerrors.ErrCodePartialFailure,
			"Failed to set inventory for %d of %d resource providers.", failed, len(outcomes))
	}
	return writeResult(ctx, cmd, merged)
}

// setAcrossProviders fans the replace out over the aggregate members. Each
// provider is an independent remote transaction: one failure does not stop
// the others. Outcomes come back sorted by provider UUID so output and
// diagnostics are deterministic regardless of completion order.
func setAcrossProviders(ctx context.Context, c *client.Client,
	providers []placement.ResourceProvider, updates map[string]placement.InventoryUpdate) []setOutcome {

	outcomes := make([]setOutcome, len(providers))

	var g errgroup.Group
	g.SetLimit(maxConcurrentSets)
	for i, rp := range providers {
		g.Go(func() error {
			records, err := c.SetInventories(ctx, rp.UUID, updates)
			outcomes[i] = setOutcome{provider: rp.UUID, records: records, err: err}
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].provider < outcomes[j].provider })
	return outcomes
}
