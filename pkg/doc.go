// Package pkg provides the libraries behind masonry, a virtualized masonry
// layout engine.
//
// # Overview
//
// Masonry places an ordered list of items with known aspect ratios into
// equal-width columns, always appending to the shortest column, and then
// materializes only the items that intersect a scroll viewport plus a
// buffer. The pkg directory is organized into three areas:
//
//  1. [core] - Pure layout logic (geometry, placement, windowing, scheduling)
//  2. [masonry] - The reactive view that wires the core together
//  3. Infrastructure - [catalog], [board], [render/sink], [pipeline],
//     [cache], [session], [errors], [observability]
//
// # Architecture
//
// A view recomputes the layout at most once per frame, and only when the
// column count or the item list changes. Scrolling alone never triggers a
// recompute:
//
//	container resize ──▶ [core/geometry] (column count)
//	                              │
//	item list change ─────────────┼──▶ [core/schedule] (one pass per frame)
//	                              │              │
//	                              ▼              ▼
//	                       [core/layout] (positions, track height)
//	                              │
//	scroll offset ──▶ [core/scroll] ──▶ [core/window] (visible set)
//
// Batch use goes through [pipeline], which loads items from a [catalog]
// source, computes a [board] and renders it with [render/sink], caching
// each stage in [cache].
//
// # Quick Start
//
//	v, _ := masonry.New(masonry.DefaultConfig(), nil,
//	    masonry.WithItems(items))
//	defer v.Close()
//
//	v.Resize(1200, 800)
//	v.Flush()
//	v.Scroll(2400)
//	for e := range v.Visible() {
//	    draw(e.ID, e.X, e.Y, e.Width, e.Height)
//	}
//
// [core]: https://pkg.go.dev/github.com/matzehuels/masonry/pkg/core
// [core/geometry]: https://pkg.go.dev/github.com/matzehuels/masonry/pkg/core/geometry
// [core/layout]: https://pkg.go.dev/github.com/matzehuels/masonry/pkg/core/layout
// [core/schedule]: https://pkg.go.dev/github.com/matzehuels/masonry/pkg/core/schedule
// [core/scroll]: https://pkg.go.dev/github.com/matzehuels/masonry/pkg/core/scroll
// [core/window]: https://pkg.go.dev/github.com/matzehuels/masonry/pkg/core/window
// [masonry]: https://pkg.go.dev/github.com/matzehuels/masonry/pkg/masonry
// [catalog]: https://pkg.go.dev/github.com/matzehuels/masonry/pkg/catalog
// [board]: https://pkg.go.dev/github.com/matzehuels/masonry/pkg/board
// [render/sink]: https://pkg.go.dev/github.com/matzehuels/masonry/pkg/render/sink
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/masonry/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/masonry/pkg/cache
// [session]: https://pkg.go.dev/github.com/matzehuels/masonry/pkg/session
// [errors]: https://pkg.go.dev/github.com/matzehuels/masonry/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/masonry/pkg/observability
package pkg
