package pipeline

import (
	"github.com/matzehuels/masonry/pkg/board"
	"github.com/matzehuels/masonry/pkg/core/layout"
	"github.com/matzehuels/masonry/pkg/errors"
)

// ComputeLayout packs items into a board for the geometry in opts.
//
// Unlike a live view, which keeps its previous result on degenerate input,
// a batch run has nothing to fall back to, so an empty item list or a width
// too narrow for one column is an error.
func ComputeLayout(items []layout.Item, opts Options) (board.Board, error) {
	opts.SetLayoutDefaults()
	if len(items) == 0 {
		return board.Board{}, errors.New(errors.ErrCodeInvalidItems, "no items to lay out")
	}
	r, ok := layout.Compute(items, opts.Columns(), opts.Width, opts.Gap)
	if !ok {
		return board.Board{}, errors.New(errors.ErrCodeInvalidInput,
			"width %g leaves no room for a column with gap %g", opts.Width, opts.Gap)
	}
	return board.FromResult(&r, items), nil
}
