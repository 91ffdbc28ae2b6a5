// Package render groups the output formats for masonry boards.
//
// The renderers live in the [sink] subpackage:
//
//   - SVG, one rounded rectangle per tile, optionally cropped to a viewport
//   - JSON, the board wire format annotated with the visible set
//
//	svg := sink.RenderSVG(b, sink.WithLabels())
//	data, err := sink.RenderJSON(b)
//
// [sink]: github.com/matzehuels/masonry/pkg/render/sink
package render
