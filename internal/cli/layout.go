package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/masonry/pkg/board"
	"github.com/matzehuels/masonry/pkg/pipeline"
)

// layoutCommand creates the layout command for computing a board from items.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		opts    pipeline.Options
	)

	cmd := &cobra.Command{
		Use:   "layout [source]",
		Short: "Compute a masonry layout from an item source",
		Long: `Compute a masonry layout from an item source.

The source is an item file (items.json), a URL serving one, a SQLite image
database (sqlite:///path/images.db) or a MongoDB collection
(mongodb://host/db?collection=images). Without an argument the catalog.source
setting of the config file is used.

The output is a board.json file that can be rendered with 'render'.
Results are cached for faster subsequent runs.`,
		Args: cobra.MaximumNArgs(1),
		PreRun: func(cmd *cobra.Command, args []string) {
			c.applyLayoutFlagDefaults(cmd, &opts)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.Source = args[0]
			}
			return c.runLayout(cmd.Context(), opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <source>.board.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "bypass cached item lists and boards")
	addLayoutFlags(cmd, &opts)

	return cmd
}

// addLayoutFlags registers the flags shared by commands that compute layouts.
// Defaults come from the config file; see applyLayoutFlagDefaults.
func addLayoutFlags(cmd *cobra.Command, opts *pipeline.Options) {
	cmd.Flags().Float64Var(&opts.Width, "width", pipeline.DefaultWidth, "container width")
	cmd.Flags().Float64Var(&opts.MinColumnWidth, "min-column-width", 0, "minimum column width (default from config)")
	cmd.Flags().Float64Var(&opts.Gap, "gap", 0, "gap between tiles (default from config)")
}

// applyLayoutFlagDefaults fills options whose flags were not given from the
// loaded config. The config is only available after the root pre-run.
func (c *CLI) applyLayoutFlagDefaults(cmd *cobra.Command, opts *pipeline.Options) {
	defaults := c.layoutOptions()
	flags := cmd.Flags()
	if !flags.Changed("min-column-width") {
		opts.MinColumnWidth = defaults.MinColumnWidth
	}
	if !flags.Changed("gap") {
		opts.Gap = defaults.Gap
	}
	if !flags.Changed("buffer") && flags.Lookup("buffer") != nil {
		opts.Buffer = defaults.Buffer
	}
	if opts.Source == "" {
		opts.Source = defaults.Source
	}
	opts.Logger = c.Logger
}

// runLayout loads the items, computes the board, and writes output.
func (c *CLI) runLayout(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	if opts.Source == "" {
		return fmt.Errorf("no source given and catalog.source is not configured")
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Loading items...")
	spinner.Start()
	items, loadHit, err := runner.LoadItemsWithCacheInfo(ctx, opts)
	if err != nil {
		spinner.StopWithError("Load failed")
		return fmt.Errorf("load items: %w", err)
	}
	spinner.Stop()
	c.Logger.Debug("items loaded", "source", opts.Source, "count", len(items), "cached", loadHit)

	b, layoutHit, err := runner.ComputeLayoutWithCacheInfo(ctx, items, opts)
	if err != nil {
		return fmt.Errorf("compute layout: %w", err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		outputPath = basePath("", opts.Source) + ".board.json"
	}
	if err := board.WriteFile(b, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(len(items), b.Columns, layoutHit)
	printBoard(b)
	printNewline()
	printNextStep("Render", appName+" render "+outputPath)

	return nil
}

// sourceBase derives an output base path from a source location: the file
// name without extension for files, the last path element for URIs.
func sourceBase(source string) string {
	if _, rest, ok := strings.Cut(source, "://"); ok {
		source = rest
	}
	source = strings.TrimSuffix(source, "/")
	if i := strings.IndexAny(source, "?#"); i >= 0 {
		source = source[:i]
	}
	base := filepath.Base(source)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == "/" {
		return "items"
	}
	return base
}
