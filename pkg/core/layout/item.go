package layout

// Item is one entry of the ordered collection being laid out.
//
// Width and Height are the intrinsic pixel dimensions when known. Either may
// be nil (not yet probed) or zero; such items fall back to a square aspect
// ratio. ID must be unique and stable across recomputes: positions are keyed
// by it, never by list index.
type Item struct {
	ID     int64 `json:"id" bson:"id"`
	Width  *int  `json:"width,omitempty" bson:"width,omitempty"`
	Height *int  `json:"height,omitempty" bson:"height,omitempty"`
}

// NewItem returns an item with known intrinsic dimensions.
func NewItem(id int64, width, height int) Item {
	return Item{ID: id, Width: &width, Height: &height}
}

// HasDimensions reports whether both intrinsic dimensions are present and
// positive.
func (it Item) HasDimensions() bool {
	return it.Width != nil && it.Height != nil && *it.Width > 0 && *it.Height > 0
}

// AspectRatio returns width/height, or 1.0 when the dimensions are missing
// or not positive.
func (it Item) AspectRatio() float64 {
	if !it.HasDimensions() {
		return 1.0
	}
	return float64(*it.Width) / float64(*it.Height)
}

// IDs returns the item IDs in list order.
func IDs(items []Item) []int64 {
	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}
