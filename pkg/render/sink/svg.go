package sink

import (
	"bytes"
	"fmt"
	"hash/fnv"

	"github.com/matzehuels/masonry/pkg/board"
	"github.com/matzehuels/masonry/pkg/core/window"
)

// DefaultPalette holds the tile fill colors.
var DefaultPalette = []string{
	"#8ecae6", "#219ebc", "#ffb703", "#fb8500", "#90be6d",
	"#f4a261", "#e76f51", "#b5838d", "#6d597a", "#2a9d8f",
}

const tileRadius = 6.0

// SVGOption configures [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	labels     bool
	background string
	palette    []string
	windowed   bool
	viewport   window.Viewport
	buffer     float64
}

// WithLabels draws the item ID at the center of each tile.
func WithLabels() SVGOption { return func(r *svgRenderer) { r.labels = true } }

// WithBackground fills the canvas with color.
func WithBackground(color string) SVGOption {
	return func(r *svgRenderer) { r.background = color }
}

// WithPalette overrides the tile colors.
func WithPalette(colors ...string) SVGOption {
	return func(r *svgRenderer) {
		if len(colors) > 0 {
			r.palette = colors
		}
	}
}

// WithWindow draws only the tiles visible from a viewport at top with the
// given height and buffer, and outlines the viewport.
func WithWindow(top, height, buffer float64) SVGOption {
	return func(r *svgRenderer) {
		r.windowed = true
		r.viewport = window.Viewport{Top: top, Height: height}
		r.buffer = buffer
	}
}

// RenderSVG renders b as an SVG document sized to the board.
func RenderSVG(b board.Board, opts ...SVGOption) []byte {
	r := svgRenderer{palette: DefaultPalette}
	for _, opt := range opts {
		opt(&r)
	}

	width, height := b.Width, b.Height
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		width, height, width, height)

	if r.background != "" {
		fmt.Fprintf(&buf, `  <rect x="0" y="0" width="%.1f" height="%.1f" fill="%s"/>`+"\n", width, height, escape(r.background))
	}

	for _, t := range b.Tiles {
		if r.windowed && !window.Intersects(t.Position(), r.viewport, r.buffer) {
			continue
		}
		r.renderTile(&buf, t)
	}

	if r.windowed {
		renderViewport(&buf, width, r.viewport)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r *svgRenderer) renderTile(buf *bytes.Buffer, t board.Tile) {
	fmt.Fprintf(buf, `  <rect id="tile-%d" class="tile" x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="%.0f" fill="%s"/>`+"\n",
		t.ID, t.X, t.Y, t.Width, t.Height, tileRadius, TileColor(r.palette, t.ID))
	if r.labels {
		fmt.Fprintf(buf, `  <text class="tile-label" x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="middle" font-family="monospace" font-size="12">%d</text>`+"\n",
			t.X+t.Width/2, t.Y+t.Height/2, t.ID)
	}
}

func renderViewport(buf *bytes.Buffer, width float64, vp window.Viewport) {
	fmt.Fprintf(buf, `  <rect class="viewport" x="0" y="%.1f" width="%.1f" height="%.1f" fill="none" stroke="#e63946" stroke-width="2" stroke-dasharray="8 4"/>`+"\n",
		vp.Top, width, vp.Height)
}

// TileColor picks a palette entry from the item ID. The same ID always gets
// the same color, so tiles keep their color across renders and viewers.
func TileColor(palette []string, id int64) string {
	h := fnv.New32a()
	fmt.Fprintf(h, "%d", id)
	return palette[h.Sum32()%uint32(len(palette))]
}

func escape(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString("&quot;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '&':
			buf.WriteString("&amp;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}
