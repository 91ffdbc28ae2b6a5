package layout

// Position is the placed rectangle of one item, in pixels, relative to the
// top-left corner of the track.
type Position struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Bottom returns the y coordinate just past the item.
func (p Position) Bottom() float64 { return p.Y + p.Height }

// Right returns the x coordinate just past the item.
func (p Position) Right() float64 { return p.X + p.Width }

// Result is the output of one recompute pass.
//
// A Result is never modified after [Compute] returns it. Consumers replace
// the whole value when a new pass is published, so TrackHeight and
// Positions always come from the same pass.
type Result struct {
	// TrackHeight is the height of the scrollable content: the tallest
	// column including the gap stacked after its last item. The trailing gap
	// is kept on purpose and serves as the bottom margin of the track.
	TrackHeight float64

	// Positions holds one entry per item of the pass, keyed by item ID.
	Positions map[int64]Position

	// Heights are the final column heights, trailing gaps included.
	Heights []float64

	Columns        int
	ColumnWidth    float64
	Gap            float64
	ContainerWidth float64
}

// Position returns the placement of id.
func (r *Result) Position(id int64) (Position, bool) {
	if r == nil {
		return Position{}, false
	}
	p, ok := r.Positions[id]
	return p, ok
}

// Len returns the number of placed items.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Positions)
}

// Covers reports whether r has a position for every item in items. A result
// that does not cover the current list is stale: a recompute is pending.
func (r *Result) Covers(items []Item) bool {
	if r == nil {
		return len(items) == 0
	}
	for _, it := range items {
		if _, ok := r.Positions[it.ID]; !ok {
			return false
		}
	}
	return true
}
