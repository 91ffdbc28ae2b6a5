package pipeline

import (
	"context"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/masonry/pkg/board"
	"github.com/matzehuels/masonry/pkg/cache"
	"github.com/matzehuels/masonry/pkg/core/layout"
	"github.com/matzehuels/masonry/pkg/errors"
	"github.com/matzehuels/masonry/pkg/observability"
)

func testItems() []layout.Item {
	return []layout.Item{
		layout.NewItem(1, 100, 100),
		layout.NewItem(2, 100, 200),
		layout.NewItem(3, 200, 100),
		layout.NewItem(4, 100, 100),
		{ID: 5},
	}
}

// testOptions gives three 100px columns with a 10px gap.
func testOptions() Options {
	return Options{Items: testItems(), Width: 320, MinColumnWidth: 100, Gap: 10}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"json", false},
		{"png", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %v", tt.format, errors.GetCode(err))
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "json"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}
	if err := ValidateFormats([]string{"svg", "pdf"}); err == nil {
		t.Error("Invalid format should fail")
	}
	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Source: "items.json"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error = %v", err)
	}
	if opts.Width != DefaultWidth {
		t.Errorf("Width = %v, want %v", opts.Width, DefaultWidth)
	}
	if opts.MinColumnWidth != DefaultMinColumnWidth {
		t.Errorf("MinColumnWidth = %v, want %v", opts.MinColumnWidth, DefaultMinColumnWidth)
	}
	if opts.Gap != 0 {
		t.Errorf("Gap = %v, zero gap should be kept", opts.Gap)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("Formats = %v, want [svg]", opts.Formats)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
	if opts.Windowed() {
		t.Error("Windowed() should be false without a height")
	}
}

func TestOptionsValidation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"no source", Options{}, errors.ErrCodeInvalidInput},
		{"bad scheme", Options{Source: "ftp://host/items"}, errors.ErrCodeInvalidSource},
		{"duplicate items", Options{Items: []layout.Item{{ID: 1}, {ID: 1}}}, errors.ErrCodeInvalidItems},
		{"negative width", Options{Source: "a.json", Width: -1}, errors.ErrCodeInvalidInput},
		{"NaN gap", Options{Source: "a.json", Gap: math.NaN()}, errors.ErrCodeInvalidInput},
		{"infinite min column", Options{Source: "a.json", MinColumnWidth: math.Inf(1)}, errors.ErrCodeInvalidInput},
		{"negative top", Options{Source: "a.json", Top: -5}, errors.ErrCodeInvalidInput},
		{"bad format", Options{Source: "a.json", Formats: []string{"png"}}, errors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want code %v", err, tt.code)
			}
		})
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Source: "items.json"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	opts.Width = -1 // not revalidated
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("second call should be a no-op, got %v", err)
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	opts := testOptions()
	plain := opts.ArtifactKeyOpts(FormatSVG)
	if plain.WindowHeight != 0 {
		t.Errorf("unwindowed key carries window: %+v", plain)
	}
	opts.Top, opts.Height, opts.Buffer = 100, 400, 50
	k := opts.ArtifactKeyOpts(FormatSVG)
	if k.WindowTop != 100 || k.WindowHeight != 400 || k.WindowBuffer != 50 {
		t.Errorf("ArtifactKeyOpts() = %+v", k)
	}
}

func TestComputeLayout(t *testing.T) {
	b, err := ComputeLayout(testItems(), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	if b.Columns != 3 || b.ColumnWidth != 100 {
		t.Errorf("columns = %d x %v, want 3 x 100", b.Columns, b.ColumnWidth)
	}
	// Columns after placing 100, 200, 50 are [110, 210, 60]; item 4 goes to
	// column 2 and item 5 to column 0.
	want := map[int64][2]float64{1: {0, 0}, 2: {110, 0}, 3: {220, 0}, 4: {220, 60}, 5: {0, 110}}
	for _, tile := range b.Tiles {
		if got := [2]float64{tile.X, tile.Y}; got != want[tile.ID] {
			t.Errorf("tile %d at %v, want %v", tile.ID, got, want[tile.ID])
		}
	}
	if b.Height != 210 {
		t.Errorf("Height = %v, want 210", b.Height)
	}
}

func TestComputeLayoutErrors(t *testing.T) {
	if _, err := ComputeLayout(nil, testOptions()); !errors.Is(err, errors.ErrCodeInvalidItems) {
		t.Errorf("empty items error = %v", err)
	}
	opts := testOptions()
	opts.Width = 50
	b, err := ComputeLayout(testItems(), opts)
	if err != nil {
		t.Fatalf("narrow width error = %v", err)
	}
	if b.Columns != 1 || b.ColumnWidth != 50 {
		t.Errorf("narrow width = %d x %v, want one 50px column", b.Columns, b.ColumnWidth)
	}
}

func TestRender(t *testing.T) {
	b, err := ComputeLayout(testItems(), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	opts := testOptions()
	opts.Formats = []string{FormatSVG, FormatJSON}
	opts.Labels = true

	artifacts, err := Render(b, opts)
	if err != nil {
		t.Fatal(err)
	}
	if svg := string(artifacts[FormatSVG]); !strings.Contains(svg, "tile-label") {
		t.Error("svg should carry labels")
	}
	if _, err := board.Unmarshal(artifacts[FormatJSON]); err != nil {
		t.Errorf("json artifact is not a board: %v", err)
	}

	opts.Formats = []string{"png"}
	if _, err := Render(b, opts); err == nil {
		t.Error("unsupported format should fail")
	}
}

func TestRenderWindowed(t *testing.T) {
	b, _ := ComputeLayout(testItems(), testOptions())
	opts := testOptions()
	opts.Top, opts.Height = 150, 50

	artifacts, err := Render(b, opts)
	if err != nil {
		t.Fatal(err)
	}
	svg := string(artifacts[FormatSVG])
	// Items 2 (y 0..200), 4 (y 60..160) and 5 (y 110..210) reach into 150..200.
	for id, want := range map[string]bool{`"tile-2"`: true, `"tile-4"`: true, `"tile-5"`: true, `"tile-1"`: false, `"tile-3"`: false} {
		if got := strings.Contains(svg, id); got != want {
			t.Errorf("svg contains %s = %v, want %v", id, got, want)
		}
	}
}

func TestRenderFromBoardData(t *testing.T) {
	b, _ := ComputeLayout(testItems(), testOptions())
	data, _ := board.Marshal(b)
	artifacts, err := RenderFromBoardData(data, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(artifacts[FormatSVG]) == 0 {
		t.Error("expected an svg artifact by default")
	}
	if _, err := RenderFromBoardData([]byte(`{}`), Options{}); err == nil {
		t.Error("invalid board should fail")
	}
}

func TestRunnerCaching(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(c, nil, nil)
	defer runner.Close()
	ctx := context.Background()

	first, err := runner.Execute(ctx, testOptions())
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.LayoutHit || first.CacheInfo.RenderHit {
		t.Errorf("first run hit cache: %+v", first.CacheInfo)
	}
	if first.Stats.ItemCount != 5 || first.Stats.Columns != 3 || first.ItemsHash == "" {
		t.Errorf("stats = %+v, hash %q", first.Stats, first.ItemsHash)
	}

	second, err := runner.Execute(ctx, testOptions())
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.LayoutHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run missed cache: %+v", second.CacheInfo)
	}
	if string(second.Artifacts[FormatSVG]) != string(first.Artifacts[FormatSVG]) {
		t.Error("cached svg differs from rendered svg")
	}
	if second.CacheInfo.LoadHit {
		t.Error("inline items should never be cached")
	}

	// A different width is a different layout.
	wider := testOptions()
	wider.Width = 430
	third, err := runner.Execute(ctx, wider)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.LayoutHit || third.Board.Columns != 4 {
		t.Errorf("width change: hit=%v columns=%d", third.CacheInfo.LayoutHit, third.Board.Columns)
	}

	refresh := testOptions()
	refresh.Refresh = true
	fourth, err := runner.Execute(ctx, refresh)
	if err != nil {
		t.Fatal(err)
	}
	if fourth.CacheInfo.LayoutHit || fourth.CacheInfo.RenderHit {
		t.Errorf("refresh should bypass cache: %+v", fourth.CacheInfo)
	}
}

func TestRunnerFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	if err := board.WriteItemsFile(testItems(), path); err != nil {
		t.Fatal(err)
	}
	opts := testOptions()
	opts.Items = nil
	opts.Source = path
	opts.Formats = []string{FormatJSON}

	result, err := NewRunner(nil, nil, nil).Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Board.Tiles) != 5 {
		t.Errorf("tiles = %d, want 5", len(result.Board.Tiles))
	}
	if _, ok := result.Artifacts[FormatSVG]; ok {
		t.Error("svg rendered without being requested")
	}
}

func TestRemoteSource(t *testing.T) {
	tests := map[string]bool{
		"items.json":                    false,
		"file:///tmp/items.json":        false,
		"sqlite:///var/lib/images.db":   true,
		"mongodb://localhost:27017/gal": true,
	}
	for source, want := range tests {
		if got := remoteSource(source); got != want {
			t.Errorf("remoteSource(%q) = %v, want %v", source, got, want)
		}
	}
}

type recordingHooks struct {
	observability.NoopPipelineHooks
	mu     sync.Mutex
	events []string
}

func (h *recordingHooks) record(e string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}

func (h *recordingHooks) OnLoadStart(context.Context, string) { h.record("load") }
func (h *recordingHooks) OnLayoutStart(_ context.Context, _, columns int) {
	h.record("layout")
}
func (h *recordingHooks) OnRenderComplete(_ context.Context, _ []string, _ time.Duration, err error) {
	if err == nil {
		h.record("rendered")
	}
}

func TestRunnerHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetPipelineHooks(hooks)
	defer observability.Reset()

	if _, err := NewRunner(nil, nil, nil).Execute(context.Background(), testOptions()); err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(hooks.events, ","); got != "load,layout,rendered" {
		t.Errorf("events = %s", got)
	}
}
