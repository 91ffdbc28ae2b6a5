// Package board provides serialization types for item lists and masonry
// layouts.
//
// This package defines the wire format used for JSON files, API responses
// and cache entries. It sits at the boundary between the internal layout
// representation and external formats:
//
//   - [Board], [Tile]: serialized layout (this package)
//   - [ItemList]: serialized item collection (this package)
//   - pkg/core/layout.Result: internal layout produced by the engine
//
// Use [FromResult] and [Board.Result] to convert between them.
//
// # Item Files
//
// Items are read from either a bare JSON array or an object with an "items"
// key. Width and height are optional:
//
//	[
//	  {"id": 1, "width": 1920, "height": 1080},
//	  {"id": 2}
//	]
//
// # Board Files
//
// A board records the geometry it was computed for and one tile per item,
// in item-list order:
//
//	{
//	  "width": 1200,
//	  "height": 2310.5,
//	  "columns": 4,
//	  "column_width": 288,
//	  "gap": 16,
//	  "tiles": [{"id": 1, "x": 0, "y": 0, "width": 288, "height": 162}]
//	}
//
// "height" is the track height, including the trailing gap below the
// tallest column.
package board
