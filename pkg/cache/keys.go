package cache

// LayoutKeyOpts are the inputs besides the item list that determine a
// layout pass.
type LayoutKeyOpts struct {
	Width          float64 `json:"width"`
	MinColumnWidth float64 `json:"min_column_width"`
	Gap            float64 `json:"gap"`
}

// ArtifactKeyOpts are the render options that determine an artifact.
type ArtifactKeyOpts struct {
	Format       string  `json:"format"`
	Labels       bool    `json:"labels,omitempty"`
	Background   string  `json:"background,omitempty"`
	WindowTop    float64 `json:"window_top,omitempty"`
	WindowHeight float64 `json:"window_height,omitempty"`
	WindowBuffer float64 `json:"window_buffer,omitempty"`
}

// Keyer generates cache keys.
type Keyer interface {
	// ItemsKey identifies a loaded item list by its source location.
	ItemsKey(source string) string

	// LayoutKey identifies a board computed from the items with the given
	// content hash.
	LayoutKey(itemsHash string, opts LayoutKeyOpts) string

	// ArtifactKey identifies a rendered artifact of a board.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer generates keys of the form "type:sha256".
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ItemsKey implements Keyer.
func (DefaultKeyer) ItemsKey(source string) string {
	return hashKey("items", source)
}

// LayoutKey implements Keyer.
func (DefaultKeyer) LayoutKey(itemsHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", itemsHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
