package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/placement-tools/placementctl/pkg/client"
	placementerrors "github.com/placement-tools/placementctl/pkg/errors"
	"github.com/placement-tools/placementctl/pkg/placement"
	"github.com/placement-tools/placementctl/pkg/serializer"
	ver "github.com/placement-tools/placementctl/pkg/version"
)

// parseOutputFormat extracts and validates the output format from CLI flags.
// Returns the validated format or an error if the format is unknown.
func parseOutputFormat(cmd *cli.Command) (serializer.Format, error) {
	outFormat := serializer.Format(cmd.String("format"))
	if outFormat.IsUnknown() {
		return "", fmt.Errorf("unknown output format: %q, valid formats are: yaml, json, table", outFormat)
	}
	return outFormat, nil
}

// newClient builds the placement API client from the global flags.
func newClient(cmd *cli.Command) (*client.Client, error) {
	v, err := ver.Parse(cmd.String("api-version"))
	if err != nil {
		return nil, err
	}
	return client.New(cmd.String("endpoint"), client.WithMicroversion(v))
}

// newResultWriter builds the serializer for command results: the --output
// file when given, the command's writer otherwise.
func newResultWriter(cmd *cli.Command) (*serializer.Writer, error) {
	format, err := parseOutputFormat(cmd)
	if err != nil {
		return nil, err
	}
	path := strings.TrimSpace(cmd.String("output"))
	if path != "" && path != serializer.StdoutURI {
		return serializer.NewFileWriterOrStdout(format, path)
	}
	return serializer.NewWriter(format, cmd.Root().Writer), nil
}

// writeResult serializes one command result, closing file outputs.
func writeResult(ctx context.Context, cmd *cli.Command, data any) error {
	w, err := newResultWriter(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if err := w.Close(); err != nil {
			slog.Warn("failed to close output writer", "error", err)
		}
	}()
	return w.Serialize(ctx, data)
}

// requireArgs returns the positional arguments, failing before any network
// access when fewer than the named ones are present.
func requireArgs(cmd *cli.Command, names ...string) ([]string, error) {
	args := cmd.Args().Slice()
	if len(args) < len(names) {
		return nil, placementerrors.Newf(placementerrors.ErrCodeArgumentsMissing,
			"the following arguments are required: %s", strings.Join(names[len(args):], ", "))
	}
	return args, nil
}

// resolveClass validates a single resource class name: standard classes
// pass locally, anything else is checked against the service vocabulary.
func resolveClass(ctx context.Context, c *client.Client, class string) error {
	vocab := placement.NewVocabulary()
	if !vocab.Contains(class) {
		vocab = c.Vocabulary(ctx)
	}
	return placement.ValidateClass(class, vocab)
}
