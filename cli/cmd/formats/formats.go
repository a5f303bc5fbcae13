package formats

import (
	"context"
	"fmt"
	"strconv"

	"github.com/compozy/docchunk/cli/cmd"
	"github.com/compozy/docchunk/cli/helpers"
	"github.com/compozy/docchunk/engine/extract"
	"github.com/compozy/docchunk/engine/splitter"
	"github.com/spf13/cobra"
)

// Format is one supported file extension.
type Format struct {
	Extension   string         `json:"extension"`
	ContentType string         `json:"content_type"`
	Extractor   extract.Format `json:"extractor"`
}

// Result lists supported formats and the splitter catalogue.
type Result struct {
	Formats  []Format             `json:"formats"`
	Splitter splitter.CatalogInfo `json:"splitter"`
}

// NewFormatsCommand creates the formats command.
func NewFormatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported file formats and splitter recommendations",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(c, cmd.ModeHandlers{JSON: handleJSON, Text: handleText}, args)
		},
	}
}

// Build collects the supported formats.
func Build() *Result {
	exts := extract.SupportedExtensions()
	res := &Result{Formats: make([]Format, 0, len(exts)), Splitter: splitter.Catalog()}
	for _, ext := range exts {
		ct, _ := extract.ContentTypeForExtension(ext)
		res.Formats = append(res.Formats, Format{
			Extension:   ext,
			ContentType: ct,
			Extractor:   extract.FormatFor(ct),
		})
	}
	return res
}

func handleJSON(_ context.Context, c *cobra.Command, _ helpers.Mode, _ []string) error {
	return helpers.WriteJSON(c.OutOrStdout(), Build())
}

func handleText(_ context.Context, c *cobra.Command, _ helpers.Mode, _ []string) error {
	res := Build()
	out := c.OutOrStdout()
	rows := make([][]string, 0, len(res.Formats))
	for _, f := range res.Formats {
		rows = append(rows, []string{f.Extension, f.ContentType, string(f.Extractor)})
	}
	fmt.Fprintln(out, helpers.Title("Supported formats"))
	fmt.Fprintln(out, helpers.Table([]string{"Extension", "Content type", "Extractor"}, rows))

	rows = rows[:0]
	for _, r := range res.Splitter.Recommendations {
		seps := "default"
		if len(r.Config.Separators) > 0 {
			seps = fmt.Sprintf("%q", r.Config.Separators)
		}
		rows = append(rows, []string{
			r.Format,
			string(r.Config.SplitterType),
			strconv.Itoa(r.Config.ChunkSize),
			strconv.Itoa(r.Config.ChunkOverlap),
			seps,
		})
	}
	fmt.Fprintln(out, helpers.Title("Recommended splitter settings"))
	_, err := fmt.Fprintln(out, helpers.Table([]string{"Format", "Splitter", "Size", "Overlap", "Separators"}, rows))
	return err
}
