// Package pipeline provides the batch load → layout → render pipeline for
// masonry boards.
//
// The interactive path (package masonry) recomputes layouts on frame
// callbacks as the container resizes and the item list changes. The batch
// path computes one board for a fixed width and renders it, which is what
// the CLI and the layout endpoint of the API server need. Because layout is
// a pure function of the items and the geometry, the [Runner] memoizes
// boards and artifacts in a [cache.Cache].
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Source:  "sqlite:///var/lib/gallery/images.db",
//	    Width:   1200,
//	    Formats: []string{"svg"},
//	})
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	items, err := runner.LoadItems(ctx, opts)
//	b, err := runner.ComputeLayout(ctx, items, opts)
//	artifacts, err := runner.Render(ctx, b, opts)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/masonry/pkg/board"
	"github.com/matzehuels/masonry/pkg/cache"
	"github.com/matzehuels/masonry/pkg/core/geometry"
	"github.com/matzehuels/masonry/pkg/core/layout"
	"github.com/matzehuels/masonry/pkg/core/window"
	"github.com/matzehuels/masonry/pkg/errors"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultWidth is the default container width in pixels.
	DefaultWidth = 1200.0

	// DefaultMinColumnWidth is the default minimum column width.
	DefaultMinColumnWidth = geometry.DefaultMinColumnWidth

	// DefaultGap is the default spacing between columns and items.
	DefaultGap = geometry.DefaultGap

	// DefaultBuffer is the default overscan used for windowed renders.
	DefaultBuffer = window.DefaultBuffer
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatJSON: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options. Items takes precedence over Source.
	Source  string        `json:"source,omitempty"`
	Items   []layout.Item `json:"items,omitempty"`
	Refresh bool          `json:"refresh,omitempty"`

	// Layout options. A zero Gap means no gap.
	Width          float64 `json:"width,omitempty"`
	MinColumnWidth float64 `json:"min_column_width,omitempty"`
	Gap            float64 `json:"gap"`

	// Window options. When Height is positive, renders are limited to the
	// tiles visible from a viewport at Top with the given Height.
	Top    float64 `json:"top,omitempty"`
	Height float64 `json:"height,omitempty"`
	Buffer float64 `json:"buffer,omitempty"`

	// Render options
	Formats    []string `json:"formats,omitempty"`
	Labels     bool     `json:"labels,omitempty"`
	Background string   `json:"background,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Items is the loaded item list.
	Items []layout.Item

	// ItemsHash is the content hash of the item list.
	ItemsHash string

	// Board is the computed layout.
	Board board.Board

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ItemCount   int
	Columns     int
	TrackHeight float64
	LoadTime    time.Duration
	LayoutTime  time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LoadHit   bool // Whether the item list came from cache
	LayoutHit bool // Whether the board came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks that there is something to load.
func (o *Options) ValidateForLoad() error {
	o.setLogger()
	if o.Items != nil {
		return errors.ValidateItems(o.Items)
	}
	if o.Source == "" {
		return errors.New(errors.ErrCodeInvalidInput, "source or items is required")
	}
	return errors.ValidateSourceURI(o.Source)
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.MinColumnWidth == 0 {
		o.MinColumnWidth = DefaultMinColumnWidth
	}
	o.setLogger()
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if err := errors.ValidateLength("width", o.Width); err != nil {
		return err
	}
	if err := errors.ValidateLength("min_column_width", o.MinColumnWidth); err != nil {
		return err
	}
	return errors.ValidateLength("gap", o.Gap)
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	o.setLogger()
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := errors.ValidateLength("top", o.Top); err != nil {
		return err
	}
	if err := errors.ValidateLength("height", o.Height); err != nil {
		return err
	}
	if err := errors.ValidateLength("buffer", o.Buffer); err != nil {
		return err
	}
	return ValidateFormats(o.Formats)
}

// Windowed reports whether renders are limited to a viewport.
func (o *Options) Windowed() bool {
	return o.Height > 0
}

// Columns returns the column count the options produce.
func (o *Options) Columns() int {
	return geometry.ColumnCount(o.Width, o.MinColumnWidth, o.Gap)
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Width:          o.Width,
		MinColumnWidth: o.MinColumnWidth,
		Gap:            o.Gap,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{
		Format:     format,
		Labels:     o.Labels,
		Background: o.Background,
	}
	if o.Windowed() {
		k.WindowTop, k.WindowHeight, k.WindowBuffer = o.Top, o.Height, o.Buffer
	}
	return k
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}
