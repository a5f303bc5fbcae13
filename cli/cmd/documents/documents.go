package documents

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/compozy/docchunk/cli/api"
	"github.com/compozy/docchunk/cli/cmd"
	"github.com/compozy/docchunk/cli/helpers"
	"github.com/compozy/docchunk/engine/document"
	"github.com/compozy/docchunk/engine/splitter"
	"github.com/compozy/docchunk/pkg/config"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var chunkingFlags = []string{"chunk-size", "chunk-overlap", "splitter", "length-function"}

// NewDocumentsCommand creates the documents command group.
func NewDocumentsCommand() *cobra.Command {
	command := &cobra.Command{
		Use:     "documents",
		Aliases: []string{"docs"},
		Short:   "Manage documents on a running server",
	}
	command.AddCommand(newUploadCommand(), newListCommand(), newGetCommand(), newDeleteCommand())
	return command
}

func newUploadCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload a document for extraction and chunking",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(c, cmd.ModeHandlers{JSON: uploadJSON, Text: uploadText}, args)
		},
	}
	f := command.Flags()
	f.Int("chunk-size", 0, "Maximum chunk length")
	f.Int("chunk-overlap", 0, "Overlap between consecutive chunks")
	f.String("splitter", "", "Splitter type: recursive, character or token")
	f.String("length-function", "", "Length function: character_count or token_count")
	return command
}

func newListCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "list",
		Short: "List stored documents",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(c, cmd.ModeHandlers{JSON: listJSON, Text: listText}, args)
		},
	}
	f := command.Flags()
	f.Int("page", 1, "Page number")
	f.Int("per-page", document.DefaultPerPage, "Documents per page")
	f.String("status", "", "Filter by status: processing, completed or failed")
	f.String("content-type", "", "Filter by content type")
	return command
}

func newGetCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "get ID",
		Short: "Show a document and its chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(c, cmd.ModeHandlers{JSON: getJSON, Text: getText}, args)
		},
	}
	return command
}

func newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a document, its chunks and its stored file",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.ExecuteCommand(c, cmd.ModeHandlers{JSON: deleteJSON, Text: deleteText}, args)
		},
	}
}

func client(ctx context.Context) (*api.Client, error) {
	c, err := api.NewClient(config.FromContext(ctx))
	if err != nil {
		return nil, helpers.NewCliError("CONFIGURATION_ERROR", "invalid client configuration", err.Error())
	}
	return c, nil
}

// Upload reads path from fs and uploads it. The chunking section is sent
// only when override is set.
func Upload(ctx context.Context, fs afero.Fs, path string, override bool) (*document.Detail, error) {
	cfg := config.FromContext(ctx)
	in, err := helpers.ReadInputFile(fs, path, cfg.Server.MaxUploadBytes)
	if err != nil {
		return nil, err
	}
	c, err := client(ctx)
	if err != nil {
		return nil, err
	}
	var splitCfg *splitter.Config
	if override {
		sc := helpers.SplitterDefaults(cfg)
		splitCfg = &sc
	}
	detail, err := c.Upload(ctx, in.Name, in.Data, splitCfg)
	return detail, apiError(err)
}

func overridden(c *cobra.Command) bool {
	for _, name := range chunkingFlags {
		if c.Flags().Changed(name) {
			return true
		}
	}
	return false
}

func uploadJSON(ctx context.Context, c *cobra.Command, _ helpers.Mode, args []string) error {
	detail, err := Upload(ctx, afero.NewOsFs(), args[0], overridden(c))
	if err != nil {
		return err
	}
	return helpers.WriteJSON(c.OutOrStdout(), detail)
}

func uploadText(ctx context.Context, c *cobra.Command, _ helpers.Mode, args []string) error {
	detail, err := Upload(ctx, afero.NewOsFs(), args[0], overridden(c))
	if err != nil {
		return err
	}
	return writeDetail(c, detail)
}

func listOptions(c *cobra.Command) api.ListOptions {
	var opts api.ListOptions
	opts.Page, _ = c.Flags().GetInt("page")
	opts.PerPage, _ = c.Flags().GetInt("per-page")
	opts.Status, _ = c.Flags().GetString("status")
	opts.ContentType, _ = c.Flags().GetString("content-type")
	return opts
}

func list(ctx context.Context, c *cobra.Command) (*document.ListResult, error) {
	cl, err := client(ctx)
	if err != nil {
		return nil, err
	}
	res, err := cl.List(ctx, listOptions(c))
	return res, apiError(err)
}

func listJSON(ctx context.Context, c *cobra.Command, _ helpers.Mode, _ []string) error {
	res, err := list(ctx, c)
	if err != nil {
		return err
	}
	return helpers.WriteJSON(c.OutOrStdout(), res)
}

func listText(ctx context.Context, c *cobra.Command, _ helpers.Mode, _ []string) error {
	res, err := list(ctx, c)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(res.Documents))
	for _, d := range res.Documents {
		rows = append(rows, []string{
			d.ID,
			d.OriginalFilename,
			string(d.Status),
			strconv.Itoa(d.TotalChunks),
			d.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	out := c.OutOrStdout()
	fmt.Fprintln(out, helpers.Table([]string{"ID", "File", "Status", "Chunks", "Created"}, rows))
	_, err = fmt.Fprintln(out, helpers.Muted(fmt.Sprintf(
		"page %d of %d, %d documents", res.Page, max(res.TotalPages, 1), res.Total,
	)))
	return err
}

func get(ctx context.Context, id string) (*document.Detail, error) {
	cl, err := client(ctx)
	if err != nil {
		return nil, err
	}
	detail, err := cl.Get(ctx, id)
	return detail, apiError(err)
}

func getJSON(ctx context.Context, c *cobra.Command, _ helpers.Mode, args []string) error {
	detail, err := get(ctx, args[0])
	if err != nil {
		return err
	}
	return helpers.WriteJSON(c.OutOrStdout(), detail)
}

func getText(ctx context.Context, c *cobra.Command, _ helpers.Mode, args []string) error {
	detail, err := get(ctx, args[0])
	if err != nil {
		return err
	}
	return writeDetail(c, detail)
}

func remove(ctx context.Context, id string) error {
	cl, err := client(ctx)
	if err != nil {
		return err
	}
	return apiError(cl.Delete(ctx, id))
}

func deleteJSON(ctx context.Context, c *cobra.Command, _ helpers.Mode, args []string) error {
	if err := remove(ctx, args[0]); err != nil {
		return err
	}
	return helpers.WriteJSON(c.OutOrStdout(), map[string]any{"id": args[0], "deleted": true})
}

func deleteText(ctx context.Context, c *cobra.Command, _ helpers.Mode, args []string) error {
	if err := remove(ctx, args[0]); err != nil {
		return err
	}
	_, err := fmt.Fprintf(c.OutOrStdout(), "Deleted document %s\n", args[0])
	return err
}

func writeDetail(c *cobra.Command, detail *document.Detail) error {
	out := c.OutOrStdout()
	doc := detail.Document
	fmt.Fprintln(out, helpers.Title(doc.OriginalFilename))
	pairs := []helpers.KeyValue{
		{Key: "id", Value: doc.ID},
		{Key: "status", Value: doc.Status},
		{Key: "content type", Value: doc.ContentType},
		{Key: "size", Value: fmt.Sprintf("%d bytes", doc.FileSize)},
		{Key: "characters", Value: doc.ContentLength},
		{Key: "chunks", Value: doc.TotalChunks},
	}
	if doc.ErrorMessage != "" {
		pairs = append(pairs, helpers.KeyValue{Key: "error", Value: doc.ErrorMessage})
	}
	if err := helpers.WriteKeyValues(out, pairs); err != nil {
		return err
	}
	if len(detail.Chunks) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(detail.Chunks))
	for _, ch := range detail.Chunks {
		rows = append(rows, []string{strconv.Itoa(ch.Index), strconv.Itoa(ch.ContentLength), helpers.Preview(ch.Content)})
	}
	_, err := fmt.Fprintln(out, helpers.Table([]string{"#", "Length", "Content"}, rows))
	return err
}

// apiError turns a server problem document into a CLI error.
func apiError(err error) error {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	code := apiErr.Code
	if code == "" {
		code = fmt.Sprintf("HTTP_%d", apiErr.Status)
	}
	cliErr := helpers.NewCliError(code, apiErr.Title, apiErr.Detail).WithContext("status", apiErr.Status)
	for k, v := range apiErr.Extras {
		cliErr = cliErr.WithContext(k, v)
	}
	return cliErr
}
