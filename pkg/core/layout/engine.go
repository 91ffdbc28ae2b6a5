package layout

import "math"

// MinItemHeight is the smallest height an item is ever given. It guards the
// packing against aspect ratios that would produce zero, negative or
// non-finite heights.
const MinItemHeight = 1.0

// ColumnWidth returns the width of one column when containerWidth is split
// into columns separated by gap. Fewer than one column is treated as one.
func ColumnWidth(containerWidth float64, columns int, gap float64) float64 {
	if columns < 1 {
		columns = 1
	}
	return (containerWidth - float64(columns-1)*gap) / float64(columns)
}

// Compute packs items into columns with the greedy shortest-column rule.
//
// Items are processed in list order. Each one goes to the column with the
// smallest accumulated height (lowest index on ties) and gets the column's
// width and a height derived from its aspect ratio. The gap is added below
// every placed item.
//
// The second return value is false when the input is degenerate: no items,
// a container width that is not a positive finite number, or a column width
// that would not be positive. Callers keep their previous result in that
// case instead of publishing an empty layout.
//
// Compute is a pure function: the same items, columns, containerWidth and
// gap always yield the same Result.
func Compute(items []Item, columns int, containerWidth, gap float64) (Result, bool) {
	if len(items) == 0 || !(containerWidth > 0) || math.IsInf(containerWidth, 0) {
		return Result{}, false
	}
	if columns < 1 {
		columns = 1
	}
	if gap < 0 || math.IsNaN(gap) {
		gap = 0
	}

	colWidth := ColumnWidth(containerWidth, columns, gap)
	if !(colWidth > 0) {
		return Result{}, false
	}

	heights := make([]float64, columns)
	positions := make(map[int64]Position, len(items))

	for _, it := range items {
		col := shortestColumn(heights)
		h := itemHeight(colWidth, it.AspectRatio())

		positions[it.ID] = Position{
			X:      float64(col) * (colWidth + gap),
			Y:      heights[col],
			Width:  colWidth,
			Height: h,
		}
		heights[col] += h + gap
	}

	track := 0.0
	for _, h := range heights {
		track = math.Max(track, h)
	}

	return Result{
		TrackHeight:    track,
		Positions:      positions,
		Heights:        heights,
		Columns:        columns,
		ColumnWidth:    colWidth,
		Gap:            gap,
		ContainerWidth: containerWidth,
	}, true
}

// shortestColumn returns the index of the smallest height; ties resolve to
// the lowest index.
func shortestColumn(heights []float64) int {
	idx := 0
	for i := 1; i < len(heights); i++ {
		if heights[i] < heights[idx] {
			idx = i
		}
	}
	return idx
}

func itemHeight(colWidth, aspect float64) float64 {
	if !(aspect > 0) || math.IsInf(aspect, 0) {
		aspect = 1.0
	}
	h := colWidth / aspect
	if math.IsNaN(h) || math.IsInf(h, 0) || h < MinItemHeight {
		return MinItemHeight
	}
	return h
}
