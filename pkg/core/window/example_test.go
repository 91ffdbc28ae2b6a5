package window_test

import (
	"fmt"

	"github.com/matzehuels/masonry/pkg/core/layout"
	"github.com/matzehuels/masonry/pkg/core/window"
)

func ExampleSelect() {
	items := []layout.Item{{ID: 1}, {ID: 2}, {ID: 3}}
	r := &layout.Result{Positions: map[int64]layout.Position{
		1: {Y: 0, Width: 100, Height: 100},
		2: {Y: 110, Width: 100, Height: 190},
		3: {Y: 5000, Width: 100, Height: 100},
	}}

	for e := range window.Select(items, r, window.Viewport{Top: 0, Height: 400}, 50) {
		fmt.Printf("%d at y=%.0f\n", e.ID, e.Y)
	}
	// Output:
	// 1 at y=0
	// 2 at y=110
}
