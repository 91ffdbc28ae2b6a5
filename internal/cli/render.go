package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/masonry/pkg/board"
	"github.com/matzehuels/masonry/pkg/pipeline"
)

// renderCommand creates the render command for generating artifacts.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		noCache    bool
		opts       pipeline.Options
	)

	cmd := &cobra.Command{
		Use:   "render [source|board.json]",
		Short: "Render a masonry layout to SVG or JSON",
		Long: `Render a masonry layout to SVG or JSON.

The input is either a board.json file produced by 'layout' or any item
source accepted by 'layout', in which case the layout is computed first.

With --height the output is limited to the tiles visible from a viewport
at --top, widened by --buffer on both edges.`,
		Args: cobra.MaximumNArgs(1),
		PreRun: func(cmd *cobra.Command, args []string) {
			c.applyLayoutFlagDefaults(cmd, &opts)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			input := opts.Source
			if len(args) == 1 {
				input = args[0]
			}
			return c.runRender(cmd.Context(), input, opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), json (comma-separated)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Labels, "labels", false, "draw item IDs on tiles")
	cmd.Flags().StringVar(&opts.Background, "background", "", "background color")
	cmd.Flags().Float64Var(&opts.Top, "top", 0, "viewport scroll offset")
	cmd.Flags().Float64Var(&opts.Height, "height", 0, "viewport height (0 renders the whole track)")
	cmd.Flags().Float64Var(&opts.Buffer, "buffer", 0, "overscan above and below the viewport (default from config)")
	addLayoutFlags(cmd, &opts)

	return cmd
}

// runRender renders input to the requested formats and writes one file per
// format.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	if input == "" {
		return fmt.Errorf("no input given and catalog.source is not configured")
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	if b, ok := readBoardFile(input); ok {
		c.Logger.Debug("rendering existing board", "path", input, "tiles", len(b.Tiles))
		artifacts, cached, err := runner.RenderWithCacheInfo(ctx, b, opts)
		if err != nil {
			return fmt.Errorf("render: %w", err)
		}
		return writeArtifacts(artifacts, input, output, len(b.Tiles), b.Columns, cached)
	}

	opts.Source = input
	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()
	res, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()
	return writeArtifacts(res.Artifacts, input, output, res.Stats.ItemCount, res.Stats.Columns, res.CacheInfo.RenderHit)
}

// readBoardFile reports whether path is a local board file.
func readBoardFile(path string) (board.Board, bool) {
	if strings.Contains(path, "://") {
		return board.Board{}, false
	}
	b, err := board.ReadFile(path)
	if err != nil {
		return board.Board{}, false
	}
	return b, true
}

// writeArtifacts writes each artifact next to the input, or to output.
func writeArtifacts(artifacts map[string][]byte, input, output string, items, columns int, cached bool) error {
	formats := make([]string, 0, len(artifacts))
	for f := range artifacts {
		formats = append(formats, f)
	}
	slices.Sort(formats)

	base := basePath(output, input)
	printSuccess("Render complete")
	for _, format := range formats {
		path := base + artifactExt(format)
		if len(formats) == 1 && output != "" {
			path = output
		}
		if err := os.WriteFile(path, artifacts[format], 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	printStats(items, columns, cached)
	return nil
}

// artifactExt returns the file suffix for a format. JSON renders get a
// distinct suffix so they never replace an item or board file.
func artifactExt(format string) string {
	if format == pipeline.FormatJSON {
		return ".render.json"
	}
	return "." + format
}

// basePath derives the base output path from the output and input paths.
// Known format extensions and the .board suffix are stripped.
func basePath(output, input string) string {
	if output == "" {
		base := sourceBase(input)
		if !strings.Contains(input, "://") {
			base = filepath.Join(filepath.Dir(input), base)
		}
		return strings.TrimSuffix(base, ".board")
	}
	output = strings.TrimSuffix(output, ".render.json")
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}
