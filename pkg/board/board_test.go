package board

import (
	"bytes"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/masonry/pkg/core/layout"
	"github.com/matzehuels/masonry/pkg/errors"
)

func computed(t *testing.T, items []layout.Item) *layout.Result {
	t.Helper()
	r, ok := layout.Compute(items, 3, 320, 10)
	if !ok {
		t.Fatal("Compute() reported degenerate input")
	}
	return &r
}

func TestFromResult(t *testing.T) {
	items := []layout.Item{
		layout.NewItem(1, 100, 100),
		layout.NewItem(2, 200, 100),
		{ID: 3},
	}
	r := computed(t, items)
	b := FromResult(r, items)

	if b.Columns != 3 || b.ColumnWidth != 100 || b.Width != 320 || b.Gap != 10 {
		t.Errorf("board header = %+v", b)
	}
	if b.Height != r.TrackHeight {
		t.Errorf("Height = %v, want %v", b.Height, r.TrackHeight)
	}
	var ids []int64
	for _, tile := range b.Tiles {
		ids = append(ids, tile.ID)
	}
	if !slices.Equal(ids, []int64{1, 2, 3}) {
		t.Errorf("tile order = %v", ids)
	}
	if b.Tiles[1].Height != 50 {
		t.Errorf("tile 2 height = %v, want 50", b.Tiles[1].Height)
	}
}

func TestFromResultSkipsUnplaced(t *testing.T) {
	items := []layout.Item{{ID: 1}, {ID: 2}}
	r := computed(t, items[:1])
	b := FromResult(r, items)
	if len(b.Tiles) != 1 || b.Tiles[0].ID != 1 {
		t.Errorf("tiles = %+v", b.Tiles)
	}
}

func TestBoardResultRoundTrip(t *testing.T) {
	var items []layout.Item
	for i, h := range []int{50, 100, 200, 25, 100, 50, 400} {
		items = append(items, layout.NewItem(int64(i+1), 100, h))
	}
	r := computed(t, items)
	back := FromResult(r, items).Result()

	if back.TrackHeight != r.TrackHeight || back.Columns != r.Columns {
		t.Errorf("header mismatch: %+v vs %+v", back, r)
	}
	if !slices.Equal(back.Heights, r.Heights) {
		t.Errorf("Heights = %v, want %v", back.Heights, r.Heights)
	}
	for _, it := range items {
		got, _ := back.Position(it.ID)
		want, _ := r.Position(it.ID)
		if got != want {
			t.Errorf("position %d = %+v, want %+v", it.ID, got, want)
		}
	}
}

func TestItems(t *testing.T) {
	b := Board{Columns: 1, Tiles: []Tile{{ID: 4}, {ID: 2}}}
	if ids := layout.IDs(b.Items()); !slices.Equal(ids, []int64{4, 2}) {
		t.Errorf("Items() = %v", ids)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		board   Board
		wantErr string
	}{
		{"valid", Board{Columns: 1, Tiles: []Tile{{ID: 1}}}, ""},
		{"no columns", Board{Tiles: []Tile{{ID: 1}}}, "column"},
		{"no tiles", Board{Columns: 2}, "tiles"},
		{"duplicate", Board{Columns: 1, Tiles: []Tile{{ID: 1}, {ID: 1}}}, "duplicate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.board.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestWriteRead(t *testing.T) {
	b := Board{Width: 210, Height: 110, Columns: 2, ColumnWidth: 100, Gap: 10,
		Tiles: []Tile{{ID: 1, Width: 100, Height: 100}, {ID: 2, X: 110, Width: 100, Height: 100}}}

	var buf bytes.Buffer
	if err := Write(b, &buf); err != nil {
		t.Fatal(err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Height != b.Height || len(got.Tiles) != 2 || got.Tiles[1].X != 110 {
		t.Errorf("Read() = %+v", got)
	}

	path := filepath.Join(t.TempDir(), "board.json")
	if err := WriteFile(b, path); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(path); err != nil {
		t.Errorf("ReadFile() error = %v", err)
	}
	if _, err := Unmarshal([]byte(`{"columns": 0}`)); err == nil {
		t.Error("Unmarshal() should validate")
	}
}

func TestUnmarshalItems(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []int64
		code  errors.Code
	}{
		{"array", `[{"id": 1, "width": 4, "height": 3}, {"id": 2}]`, []int64{1, 2}, ""},
		{"object", `{"items": [{"id": 9}]}`, []int64{9}, ""},
		{"empty array", `[]`, []int64{}, ""},
		{"blank", "  \n", nil, errors.ErrCodeInvalidItems},
		{"malformed", `[{"id": }]`, nil, errors.ErrCodeInvalidItems},
		{"duplicate", `[{"id": 1}, {"id": 1}]`, nil, errors.ErrCodeInvalidItems},
		{"negative width", `[{"id": 1, "width": -4}]`, nil, errors.ErrCodeInvalidItems},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := UnmarshalItems([]byte(tt.input))
			if tt.code != "" {
				if !errors.Is(err, tt.code) {
					t.Errorf("error = %v, want code %v", err, tt.code)
				}
				return
			}
			if err != nil {
				t.Fatalf("UnmarshalItems() error = %v", err)
			}
			if ids := layout.IDs(items); !slices.Equal(ids, tt.want) {
				t.Errorf("IDs = %v, want %v", ids, tt.want)
			}
		})
	}
}

func TestItemsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	items := []layout.Item{layout.NewItem(1, 640, 480), {ID: 2}}
	if err := WriteItemsFile(items, path); err != nil {
		t.Fatal(err)
	}
	got, err := ReadItemsFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || *got[0].Width != 640 || got[1].Width != nil {
		t.Errorf("ReadItemsFile() = %+v", got)
	}

	_, err = ReadItemsFile(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v", err)
	}
}
