package board

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/masonry/pkg/core/layout"
)

// =============================================================================
// Board - Serialized Layout
// =============================================================================

// Board is the serialized form of a layout pass.
type Board struct {
	Width       float64 `json:"width" bson:"width"`
	Height      float64 `json:"height" bson:"height"`
	Columns     int     `json:"columns" bson:"columns"`
	ColumnWidth float64 `json:"column_width" bson:"column_width"`
	Gap         float64 `json:"gap" bson:"gap"`
	Tiles       []Tile  `json:"tiles" bson:"tiles"`
}

// Tile is one positioned item.
type Tile struct {
	ID     int64   `json:"id" bson:"id"`
	X      float64 `json:"x" bson:"x"`
	Y      float64 `json:"y" bson:"y"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// Position returns the tile rectangle as a layout position.
func (t Tile) Position() layout.Position {
	return layout.Position{X: t.X, Y: t.Y, Width: t.Width, Height: t.Height}
}

// FromResult converts a layout result into a board. Tiles follow the order
// of items; items without a position in r are skipped.
func FromResult(r *layout.Result, items []layout.Item) Board {
	b := Board{
		Width:       r.ContainerWidth,
		Height:      r.TrackHeight,
		Columns:     r.Columns,
		ColumnWidth: r.ColumnWidth,
		Gap:         r.Gap,
		Tiles:       make([]Tile, 0, len(items)),
	}
	for _, it := range items {
		p, ok := r.Positions[it.ID]
		if !ok {
			continue
		}
		b.Tiles = append(b.Tiles, Tile{ID: it.ID, X: p.X, Y: p.Y, Width: p.Width, Height: p.Height})
	}
	return b
}

// Result converts the board back into a layout result. Column heights are
// rebuilt from the tiles.
func (b Board) Result() *layout.Result {
	r := &layout.Result{
		TrackHeight:    b.Height,
		Positions:      make(map[int64]layout.Position, len(b.Tiles)),
		Heights:        make([]float64, max(b.Columns, 1)),
		Columns:        max(b.Columns, 1),
		ColumnWidth:    b.ColumnWidth,
		Gap:            b.Gap,
		ContainerWidth: b.Width,
	}
	stride := b.ColumnWidth + b.Gap
	for _, t := range b.Tiles {
		r.Positions[t.ID] = t.Position()
		col := 0
		if stride > 0 {
			col = min(int(t.X/stride+0.5), len(r.Heights)-1)
		}
		r.Heights[col] = max(r.Heights[col], t.Y+t.Height+b.Gap)
	}
	return r
}

// Items returns the board's item order as bare items without dimensions.
func (b Board) Items() []layout.Item {
	items := make([]layout.Item, len(b.Tiles))
	for i, t := range b.Tiles {
		items[i] = layout.Item{ID: t.ID}
	}
	return items
}

// =============================================================================
// Board Serialization API
// =============================================================================

// Marshal serializes a Board to pretty-printed JSON bytes.
func Marshal(b Board) ([]byte, error) {
	return json.MarshalIndent(b, "", "  ")
}

// Unmarshal deserializes JSON bytes into a Board and validates it.
func Unmarshal(data []byte) (Board, error) {
	var b Board
	if err := json.Unmarshal(data, &b); err != nil {
		return Board{}, fmt.Errorf("unmarshal board: %w", err)
	}
	if err := b.Validate(); err != nil {
		return Board{}, err
	}
	return b, nil
}

// Validate checks structural invariants: at least one column, at least one
// tile, and unique tile IDs.
func (b Board) Validate() error {
	if b.Columns < 1 {
		return fmt.Errorf("board must have at least one column, got %d", b.Columns)
	}
	if len(b.Tiles) == 0 {
		return fmt.Errorf("board must contain tiles")
	}
	seen := make(map[int64]struct{}, len(b.Tiles))
	for _, t := range b.Tiles {
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("duplicate tile id %d", t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	return nil
}

// Write encodes b as indented JSON to w.
func Write(b Board, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Read decodes and validates a board from r.
func Read(r io.Reader) (Board, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Board{}, fmt.Errorf("read board: %w", err)
	}
	return Unmarshal(data)
}

// WriteFile writes a Board to a JSON file.
func WriteFile(b Board, path string) error {
	data, err := Marshal(b)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadFile reads a Board from a JSON file.
func ReadFile(path string) (Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Board{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Unmarshal(data)
}
