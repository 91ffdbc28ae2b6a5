// Package window selects the items of a layout that intersect the visible
// range of a scroll container.
//
// Selection is a linear scan in item-list order over the latest layout
// result. An item is visible when its vertical extent overlaps
// [top-buffer, top+height+buffer). The buffer pre-renders items just outside
// the viewport to hide pop-in while scrolling.
//
// If the result does not cover every current item (the item list changed
// and the recompute has not run yet) nothing is selected: rendering nothing
// for one frame is preferable to rendering items at made-up positions.
package window

import (
	"iter"

	"github.com/matzehuels/masonry/pkg/core/layout"
)

// DefaultBuffer is the default margin, in pixels, above and below the
// viewport within which items still count as visible.
const DefaultBuffer = 1000.0

// Viewport is the visible vertical range of the container.
type Viewport struct {
	Top    float64 `json:"scroll_top"`
	Height float64 `json:"viewport_height"`
}

// Bottom returns the first y past the viewport.
func (v Viewport) Bottom() float64 { return v.Top + v.Height }

// Entry is one visible item with its placement.
type Entry struct {
	ID     int64   `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Intersects reports whether p overlaps the viewport widened by buffer.
func Intersects(p layout.Position, vp Viewport, buffer float64) bool {
	return p.Y+p.Height > vp.Top-buffer && p.Y < vp.Bottom()+buffer
}

// Stale reports whether r is missing a position for any item in items.
func Stale(items []layout.Item, r *layout.Result) bool {
	if len(items) == 0 {
		return false
	}
	return !r.Covers(items)
}

// Select returns the visible entries of r in item order.
//
// The sequence is evaluated on each range, so it reflects the arguments it
// was built from every time it is iterated and can be restarted freely. It
// yields nothing when r is nil or stale relative to items.
func Select(items []layout.Item, r *layout.Result, vp Viewport, buffer float64) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		if r == nil || Stale(items, r) {
			return
		}
		for _, it := range items {
			p := r.Positions[it.ID]
			if !Intersects(p, vp, buffer) {
				continue
			}
			e := Entry{ID: it.ID, X: p.X, Y: p.Y, Width: p.Width, Height: p.Height}
			if !yield(e) {
				return
			}
		}
	}
}

// Collect materializes seq into a slice. It never returns nil.
func Collect(seq iter.Seq[Entry]) []Entry {
	out := []Entry{}
	for e := range seq {
		out = append(out, e)
	}
	return out
}

// IDs returns the IDs of entries in order.
func IDs(entries []Entry) []int64 {
	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}
