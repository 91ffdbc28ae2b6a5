// Package masonry composes the layout core into a live, virtualized view.
//
// A [View] owns the reactive state of one scroll container:
//
//   - a [geometry.Observer] fed by [View.Resize]
//   - a [scroll.Tracker] fed by [View.Scroll]
//   - the current item list, replaced by [View.SetItems]
//   - a [schedule.Scheduler] that turns width, column and item changes
//     into at most one [layout.Compute] pass per frame
//   - the last published [layout.Result]
//
// Renderers read [View.TrackHeight] to size the scrollable area and range
// over [View.Visible] to draw the items that intersect the viewport.
//
// # Reactivity
//
// Scrolling never recomputes the layout. A resize recomputes it only when
// the width or the derived column count changes. Replacing the item list
// always recomputes it. Triggers that arrive between two frames collapse
// into a single pass that reads the inputs current at the frame.
//
// A pass that cannot produce a layout (zero width, empty item list) keeps
// the previous result. Between an item-list change and the next pass the
// previous result no longer covers the list, and [View.Visible] yields
// nothing rather than items at stale positions.
//
// # Lifecycle
//
//	v, err := masonry.New(masonry.DefaultConfig(), nil, masonry.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	defer v.Close()
//
//	v.SetItems(items)
//	v.Resize(1200, 800)
//	// ... next frame ...
//	for e := range v.Visible() {
//	    draw(e)
//	}
//
// [View.Close] unmounts the view: pending passes are cancelled and later
// input is ignored.
package masonry
