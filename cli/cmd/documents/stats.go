package documents

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/compozy/docchunk/cli/api"
	"github.com/compozy/docchunk/cli/cmd"
	"github.com/compozy/docchunk/cli/helpers"
	"github.com/compozy/docchunk/engine/document"
	"github.com/spf13/cobra"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show document and chunk counters from a running server",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(c, cmd.ModeHandlers{JSON: statsJSON, Text: statsText}, args)
		},
	}
}

// NewHealthCommand creates the health command.
func NewHealthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that a server is reachable and its database is ready",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(c, cmd.ModeHandlers{JSON: healthJSON, Text: healthText}, args)
		},
	}
}

func stats(ctx context.Context) (*document.Stats, error) {
	cl, err := client(ctx)
	if err != nil {
		return nil, err
	}
	s, err := cl.Stats(ctx)
	return s, apiError(err)
}

func statsJSON(ctx context.Context, c *cobra.Command, _ helpers.Mode, _ []string) error {
	s, err := stats(ctx)
	if err != nil {
		return err
	}
	return helpers.WriteJSON(c.OutOrStdout(), s)
}

func statsText(ctx context.Context, c *cobra.Command, _ helpers.Mode, _ []string) error {
	s, err := stats(ctx)
	if err != nil {
		return err
	}
	out := c.OutOrStdout()
	fmt.Fprintln(out, helpers.Title("Document statistics"))
	pairs := []helpers.KeyValue{
		{Key: "documents", Value: s.TotalDocuments},
		{Key: "chunks", Value: s.TotalChunks},
		{Key: "average chunks", Value: fmt.Sprintf("%.2f", s.AverageChunksPerDocument)},
		{Key: "stored bytes", Value: s.TotalBytes},
	}
	for _, status := range slices.Sorted(maps.Keys(s.ByStatus)) {
		pairs = append(pairs, helpers.KeyValue{Key: "status " + string(status), Value: s.ByStatus[status]})
	}
	for _, ct := range slices.Sorted(maps.Keys(s.ByContentType)) {
		pairs = append(pairs, helpers.KeyValue{Key: ct, Value: s.ByContentType[ct]})
	}
	return helpers.WriteKeyValues(out, pairs)
}

func health(ctx context.Context) (*api.Health, error) {
	cl, err := client(ctx)
	if err != nil {
		return nil, err
	}
	h, err := cl.Health(ctx)
	if err != nil {
		return nil, apiError(err)
	}
	if h.Status != "ok" {
		return h, helpers.NewCliError("SERVER_UNAVAILABLE", "server is not ready", h.Database.Error)
	}
	return h, nil
}

func healthJSON(ctx context.Context, c *cobra.Command, _ helpers.Mode, _ []string) error {
	h, err := health(ctx)
	if h != nil {
		if werr := helpers.WriteJSON(c.OutOrStdout(), h); werr != nil {
			return werr
		}
	}
	return err
}

func healthText(ctx context.Context, c *cobra.Command, _ helpers.Mode, _ []string) error {
	h, err := health(ctx)
	if h != nil {
		fmt.Fprintf(c.OutOrStdout(), "status %s, version %s, database ready %t\n", h.Status, h.Version, h.Database.Ready)
	}
	return err
}
