package sink

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/masonry/pkg/board"
	"github.com/matzehuels/masonry/pkg/core/window"
)

// JSONOption configures [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	windowed bool
	viewport window.Viewport
	buffer   float64
}

// WithJSONWindow adds the viewport and the IDs of the tiles visible from it.
func WithJSONWindow(top, height, buffer float64) JSONOption {
	return func(r *jsonRenderer) {
		r.windowed = true
		r.viewport = window.Viewport{Top: top, Height: height}
		r.buffer = buffer
	}
}

type jsonOutput struct {
	board.Board
	Viewport *window.Viewport `json:"viewport,omitempty"`
	Visible  []int64          `json:"visible,omitempty"`
}

// RenderJSON renders b as indented JSON.
func RenderJSON(b board.Board, opts ...JSONOption) ([]byte, error) {
	var r jsonRenderer
	for _, opt := range opts {
		opt(&r)
	}

	out := jsonOutput{Board: b}
	if r.windowed {
		vp := r.viewport
		out.Viewport = &vp
		out.Visible = []int64{}
		for _, t := range b.Tiles {
			if window.Intersects(t.Position(), vp, r.buffer) {
				out.Visible = append(out.Visible, t.ID)
			}
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal board: %w", err)
	}
	return append(data, '\n'), nil
}
