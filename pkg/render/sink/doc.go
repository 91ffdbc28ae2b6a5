// Package sink renders masonry boards to output formats.
//
// # SVG
//
// [RenderSVG] draws every tile as a rounded rectangle whose color is derived
// from the item ID, so the same item keeps its color across layouts:
//
//	svg := sink.RenderSVG(b, sink.WithLabels(), sink.WithBackground("#111"))
//
// [WithWindow] limits the drawing to the tiles a virtualized view would
// materialize for a scroll position and outlines the viewport. This is
// useful to inspect how the buffer hides pop-in.
//
// # JSON
//
// [RenderJSON] writes the board in its wire format (see package board),
// optionally annotated with the visible set for a viewport.
package sink
