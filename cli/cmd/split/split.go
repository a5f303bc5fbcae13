package split

import (
	"context"
	"fmt"
	"strconv"

	"github.com/compozy/docchunk/cli/cmd"
	"github.com/compozy/docchunk/cli/helpers"
	"github.com/compozy/docchunk/engine/splitter"
	"github.com/compozy/docchunk/pkg/config"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// Result is the JSON shape of a split.
type Result struct {
	File        string             `json:"file,omitempty"`
	ContentType string             `json:"content_type,omitempty"`
	TotalChunks int                `json:"total_chunks"`
	Config      splitter.Config    `json:"config"`
	Warnings    []splitter.Warning `json:"warnings,omitempty"`
	Chunks      []splitter.Chunk   `json:"chunks"`
}

// NewSplitCommand creates the split command.
func NewSplitCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "split [FILE]",
		Short: "Extract a document and split its text into chunks",
		Long: "Extract a document and split its text into chunks. " +
			"Use --text to split a literal string instead of a file.",
		Args: cobra.MaximumNArgs(1),
		RunE: runSplit,
	}
	f := command.Flags()
	f.Int("chunk-size", 0, "Maximum chunk length in the length function's unit")
	f.Int("chunk-overlap", 0, "Overlap carried between consecutive chunks")
	f.String("splitter", "", "Splitter type: recursive, character or token")
	f.StringArray("separator", nil, "Separator, coarsest first; repeat for a hierarchy (escapes like \\n are decoded)")
	f.String("length-function", "", "Length function: character_count or token_count")
	f.Bool("keep-separator", false, "Keep separators attached to the following piece")
	f.Bool("strip-whitespace", true, "Trim whitespace from each chunk")
	f.Bool("track-offsets", false, "Record each chunk's rune offsets in the source text")
	f.String("text", "", "Split this text instead of a file")
	f.String("encoding", "", "Tokenizer encoding used for token lengths")
	f.Bool("json", false, "Shorthand for --format json")
	return command
}

func runSplit(c *cobra.Command, args []string) error {
	text, _ := c.Flags().GetString("text")
	if len(args) == 0 && text == "" {
		return helpers.NewCliError("MISSING_INPUT", "a FILE argument or --text is required")
	}
	handlers := cmd.ModeHandlers{JSON: handleJSON, Text: handleText}
	if asJSON, _ := c.Flags().GetBool("json"); asJSON {
		handlers.Text = nil
	}
	return cmd.ExecuteCommand(c, handlers, args)
}

// Options are the inputs of Run.
type Options struct {
	Path       string
	Text       string
	Separators []string
}

// Run splits a file or literal text using the chunking defaults in ctx with
// opts applied on top.
func Run(ctx context.Context, fs afero.Fs, opts Options) (*Result, error) {
	cfg := config.FromContext(ctx)
	splitCfg := helpers.SplitterDefaults(cfg)
	if len(opts.Separators) > 0 {
		splitCfg.Separators = decodeSeparators(opts.Separators)
	}
	if err := splitCfg.Validate(); err != nil {
		return nil, helpers.NewCliError("INVALID_CONFIG", "invalid splitter configuration", err.Error())
	}
	res := &Result{}
	text := opts.Text
	var fields map[string]any
	if opts.Path != "" {
		in, err := helpers.ReadInputFile(fs, opts.Path, cfg.Extraction.MaxFileSize)
		if err != nil {
			return nil, err
		}
		doc, err := helpers.NewExtractor(cfg).Extract(ctx, in.Data, in.ContentType)
		if err != nil {
			return nil, helpers.NewCliError("EXTRACTION_FAILED", "failed to extract text", err.Error())
		}
		res.File, res.ContentType, text = in.Name, doc.ContentType, doc.Text
		if doc.Metadata != nil {
			fields = doc.Metadata.Fields()
		}
	}
	sp, err := helpers.NewSplitter(cfg)
	if err != nil {
		return nil, err
	}
	out, err := sp.Split(ctx, text, splitCfg)
	if err != nil {
		return nil, helpers.NewCliError("SPLIT_FAILED", "failed to split text", err.Error())
	}
	out.AttachMetadata(fields)
	res.Config = out.Config
	res.Warnings = out.Warnings
	res.Chunks = out.Chunks
	res.TotalChunks = len(out.Chunks)
	return res, nil
}

// decodeSeparators turns shell-friendly escapes such as \n into characters.
func decodeSeparators(raw []string) []string {
	out := make([]string, len(raw))
	for i, s := range raw {
		if unquoted, err := strconv.Unquote(`"` + s + `"`); err == nil {
			out[i] = unquoted
			continue
		}
		out[i] = s
	}
	return out
}

func optionsFrom(c *cobra.Command, args []string) Options {
	var opts Options
	if len(args) > 0 {
		opts.Path = args[0]
	}
	opts.Text, _ = c.Flags().GetString("text")
	opts.Separators, _ = c.Flags().GetStringArray("separator")
	return opts
}

func handleJSON(ctx context.Context, c *cobra.Command, _ helpers.Mode, args []string) error {
	res, err := Run(ctx, afero.NewOsFs(), optionsFrom(c, args))
	if err != nil {
		return err
	}
	return helpers.WriteJSON(c.OutOrStdout(), res)
}

func handleText(ctx context.Context, c *cobra.Command, _ helpers.Mode, args []string) error {
	res, err := Run(ctx, afero.NewOsFs(), optionsFrom(c, args))
	if err != nil {
		return err
	}
	out := c.OutOrStdout()
	title := fmt.Sprintf("%d chunks", res.TotalChunks)
	if res.File != "" {
		title = fmt.Sprintf("%s: %s", res.File, title)
	}
	fmt.Fprintln(out, helpers.Title(title))
	fmt.Fprintln(out, helpers.Muted(fmt.Sprintf(
		"%s splitter, size %d, overlap %d, %s",
		res.Config.SplitterType, res.Config.ChunkSize, res.Config.ChunkOverlap, res.Config.LengthFunction,
	)))
	for _, w := range res.Warnings {
		fmt.Fprintln(out, helpers.Muted("warning: "+w.Message))
	}
	rows := make([][]string, 0, len(res.Chunks))
	for _, ch := range res.Chunks {
		span := ""
		if ch.StartOffset != nil && ch.EndOffset != nil {
			span = fmt.Sprintf("%d-%d", *ch.StartOffset, *ch.EndOffset)
		}
		rows = append(rows, []string{strconv.Itoa(ch.Index), strconv.Itoa(ch.Length), span, helpers.Preview(ch.Content)})
	}
	_, err = fmt.Fprintln(out, helpers.Table([]string{"#", "Length", "Offsets", "Content"}, rows))
	return err
}
