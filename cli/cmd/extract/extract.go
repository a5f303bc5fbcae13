package extract

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/compozy/docchunk/cli/cmd"
	"github.com/compozy/docchunk/cli/helpers"
	docextract "github.com/compozy/docchunk/engine/extract"
	"github.com/compozy/docchunk/pkg/config"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// Result is the JSON shape of an extraction.
type Result struct {
	File          string            `json:"file"`
	ContentType   string            `json:"content_type"`
	Format        docextract.Format `json:"format"`
	ContentLength int               `json:"content_length"`
	Metadata      map[string]any    `json:"metadata"`
	Text          string            `json:"text"`
}

// NewExtractCommand creates the extract command.
func NewExtractCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "extract FILE",
		Short: "Extract plain text and metadata from a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(c, cmd.ModeHandlers{JSON: handleJSON, Text: handleText}, args)
		},
	}
	command.Flags().Int("max-rows", 0, "Maximum data rows rendered per sheet or table")
	command.Flags().Bool("strip-html", false, "Remove markup from HTML documents")
	return command
}

// Run extracts the file at path using the configuration in ctx.
func Run(ctx context.Context, fs afero.Fs, path string) (*Result, error) {
	cfg := config.FromContext(ctx)
	in, err := helpers.ReadInputFile(fs, path, cfg.Extraction.MaxFileSize)
	if err != nil {
		return nil, err
	}
	doc, err := helpers.NewExtractor(cfg).Extract(ctx, in.Data, in.ContentType)
	if err != nil {
		return nil, helpers.NewCliError("EXTRACTION_FAILED", "failed to extract text", err.Error())
	}
	return &Result{
		File:          in.Name,
		ContentType:   doc.ContentType,
		Format:        doc.Format,
		ContentLength: len([]rune(doc.Text)),
		Metadata:      doc.Metadata.Fields(),
		Text:          doc.Text,
	}, nil
}

func handleJSON(ctx context.Context, c *cobra.Command, _ helpers.Mode, args []string) error {
	res, err := Run(ctx, afero.NewOsFs(), args[0])
	if err != nil {
		return err
	}
	return helpers.WriteJSON(c.OutOrStdout(), res)
}

func handleText(ctx context.Context, c *cobra.Command, _ helpers.Mode, args []string) error {
	res, err := Run(ctx, afero.NewOsFs(), args[0])
	if err != nil {
		return err
	}
	out := c.OutOrStdout()
	fmt.Fprintln(out, helpers.Title(res.File))
	pairs := []helpers.KeyValue{
		{Key: "content type", Value: res.ContentType},
		{Key: "format", Value: res.Format},
		{Key: "characters", Value: res.ContentLength},
	}
	for _, key := range slices.Sorted(maps.Keys(res.Metadata)) {
		pairs = append(pairs, helpers.KeyValue{Key: key, Value: res.Metadata[key]})
	}
	if err := helpers.WriteKeyValues(out, pairs); err != nil {
		return err
	}
	fmt.Fprintln(out)
	_, err = fmt.Fprintln(out, res.Text)
	return err
}
