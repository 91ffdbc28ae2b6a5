// Package scroll tracks the scroll offset of a container.
package scroll

import (
	"math"

	"github.com/matzehuels/masonry/pkg/core/signal"
)

// Tracker holds the current scroll offset and the extent it is clamped to.
//
// Scroll updates never trigger a layout pass; they only change which part
// of an existing layout is visible.
type Tracker struct {
	// Offset is the scroll offset from the top of the track.
	Offset *signal.Signal[float64]

	track    float64
	viewport float64
}

// NewTracker creates a tracker at offset 0 with no extent.
func NewTracker() *Tracker {
	return &Tracker{Offset: signal.New(0.0)}
}

// ScrollTo moves to top, clamped to [0, MaxOffset]. It reports whether the
// offset changed.
func (t *Tracker) ScrollTo(top float64) bool {
	return t.Offset.Set(t.clamp(top))
}

// ScrollBy moves the offset by delta.
func (t *Tracker) ScrollBy(delta float64) bool {
	return t.ScrollTo(t.Offset.Get() + delta)
}

// SetExtent updates the track and viewport heights and re-clamps the
// current offset. Shrinking the track (fewer items, more columns) can pull
// the offset back up.
func (t *Tracker) SetExtent(trackHeight, viewportHeight float64) bool {
	t.track = nonNegative(trackHeight)
	t.viewport = nonNegative(viewportHeight)
	return t.Offset.Set(t.clamp(t.Offset.Get()))
}

// Top returns the current offset.
func (t *Tracker) Top() float64 {
	return t.Offset.Get()
}

// MaxOffset returns the largest reachable offset.
func (t *Tracker) MaxOffset() float64 {
	return math.Max(0, t.track-t.viewport)
}

func (t *Tracker) clamp(top float64) float64 {
	if math.IsNaN(top) {
		return t.Offset.Get()
	}
	return math.Min(math.Max(0, top), t.MaxOffset())
}

func nonNegative(v float64) float64 {
	if !(v > 0) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
