// Package geometry tracks the content box of a scroll container and derives
// the masonry column count from it.
//
// An [Observer] is fed raw size measurements (the initial mount measurement
// and every resize after it) and republishes them as signals. Layout passes
// depend only on width and column count, so [Observer.OnChange] fires when
// one of those two changes value and stays quiet for height-only resizes or
// repeated identical measurements.
package geometry

import (
	"math"

	"github.com/matzehuels/masonry/pkg/core/signal"
)

// Defaults used when deriving the column count.
const (
	DefaultMinColumnWidth = 280.0
	DefaultGap            = 16.0

	// MaxColumns caps the derived column count.
	MaxColumns = 1024
)

// ColumnCount returns max(1, floor((width+gap)/(minColumnWidth+gap))).
//
// A width that is negative or not finite, or a minColumnWidth+gap that is
// not positive, yields 1. The result never exceeds [MaxColumns].
func ColumnCount(width, minColumnWidth, gap float64) int {
	if !(width > 0) || math.IsInf(width, 0) {
		return 1
	}
	if gap < 0 || math.IsNaN(gap) {
		gap = 0
	}
	stride := minColumnWidth + gap
	if !(stride > 0) || math.IsInf(stride, 0) {
		return 1
	}
	n := math.Floor((width + gap) / stride)
	if n < 1 || math.IsNaN(n) {
		return 1
	}
	if n > MaxColumns {
		return MaxColumns
	}
	return int(n)
}

// Key is the part of the geometry that a layout pass depends on.
type Key struct {
	Width   float64
	Columns int
}

// Observer publishes container width, viewport height and column count.
type Observer struct {
	minColumnWidth float64
	gap            float64

	// Width is the content-box width. Negative, NaN and infinite
	// measurements are published as 0.
	Width *signal.Signal[float64]

	// Height is the viewport height.
	Height *signal.Signal[float64]

	// Columns is the derived column count, always >= 1.
	Columns *signal.Signal[int]

	key *signal.Signal[Key]
}

// NewObserver creates an observer with no measurement yet: width and height
// are 0 and the column count is 1.
func NewObserver(minColumnWidth, gap float64) *Observer {
	return &Observer{
		minColumnWidth: minColumnWidth,
		gap:            gap,
		Width:          signal.New(0.0),
		Height:         signal.New(0.0),
		Columns:        signal.New(1),
		key:            signal.New(Key{Columns: 1}),
	}
}

// Observe records a new content-box measurement. It reports whether the
// layout key (width or column count) changed.
func (o *Observer) Observe(width, height float64) bool {
	width = sanitize(width)
	height = sanitize(height)
	cols := ColumnCount(width, o.minColumnWidth, o.gap)

	o.Width.Set(width)
	o.Height.Set(height)
	o.Columns.Set(cols)
	return o.key.Set(Key{Width: width, Columns: cols})
}

// OnChange registers fn to run whenever width or column count changes.
// A resize that changes both runs fn once.
func (o *Observer) OnChange(fn func(Key)) signal.Unbind {
	return o.key.Bind(fn)
}

// Key returns the current layout key.
func (o *Observer) Key() Key {
	return o.key.Get()
}

// MinColumnWidth returns the configured minimum column width.
func (o *Observer) MinColumnWidth() float64 { return o.minColumnWidth }

// Gap returns the configured gap.
func (o *Observer) Gap() float64 { return o.gap }

func sanitize(v float64) float64 {
	if !(v > 0) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
