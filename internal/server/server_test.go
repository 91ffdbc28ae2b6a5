package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/masonry/pkg/board"
	"github.com/matzehuels/masonry/pkg/cache"
	"github.com/matzehuels/masonry/pkg/core/layout"
	"github.com/matzehuels/masonry/pkg/core/window"
	"github.com/matzehuels/masonry/pkg/errors"
	"github.com/matzehuels/masonry/pkg/httputil"
	"github.com/matzehuels/masonry/pkg/masonry"
	"github.com/matzehuels/masonry/pkg/observability"
	"github.com/matzehuels/masonry/pkg/pipeline"
	"github.com/matzehuels/masonry/pkg/session"
)

// gridLayout gives three 100px columns at width 320, with no buffer and no
// load-more threshold.
const gridLayout = `{"min_column_width": 100, "gap": 10, "buffer": 0, "load_more_threshold": 0}`

func testItems() []layout.Item {
	return []layout.Item{
		layout.NewItem(1, 100, 100),
		layout.NewItem(2, 100, 200),
		layout.NewItem(3, 200, 100),
		layout.NewItem(4, 100, 100),
		{ID: 5},
	}
}

func newTestServer(t *testing.T, opts ...Option) (*httptest.Server, *session.MemoryStore) {
	t.Helper()
	logger := log.New(io.Discard)
	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
	store := session.NewMemoryStore(session.DefaultTTL)
	srv := httptest.NewServer(New(runner, store, opts...).Handler())
	t.Cleanup(func() {
		srv.Close()
		store.Close()
		runner.Close()
	})
	return srv, store
}

func do(t *testing.T, method, url, body string, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil {
		data, _ := io.ReadAll(resp.Body)
		if len(data) > 0 {
			if err := json.Unmarshal(data, out); err != nil {
				t.Fatalf("decode %s: %v", data, err)
			}
		}
	}
	return resp.StatusCode
}

func itemsJSON(t *testing.T, items []layout.Item) string {
	t.Helper()
	data, err := json.Marshal(items)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func visibleIDs(resp SessionResponse) []int64 {
	return window.IDs(resp.Visible)
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	var body map[string]any
	if status := do(t, http.MethodGet, srv.URL+"/healthz", "", &body); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestLayout(t *testing.T) {
	srv, _ := newTestServer(t)
	req := `{"items": ` + itemsJSON(t, testItems()) + `, "width": 320, "min_column_width": 100, "gap": 10, "formats": ["svg", "json"]}`

	var resp LayoutResponse
	if status := do(t, http.MethodPost, srv.URL+"/v1/layout", req, &resp); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if resp.Board.Columns != 3 || len(resp.Board.Tiles) != 5 {
		t.Errorf("board = %d columns, %d tiles", resp.Board.Columns, len(resp.Board.Tiles))
	}
	if resp.ItemsHash == "" {
		t.Error("missing items hash")
	}
	if !strings.HasPrefix(strings.TrimSpace(resp.Artifacts["svg"]), "<svg") {
		t.Errorf("svg artifact = %.40q", resp.Artifacts["svg"])
	}
	var rendered board.Board
	if err := json.Unmarshal([]byte(resp.Artifacts["json"]), &rendered); err != nil || rendered.Columns != 3 {
		t.Errorf("json artifact = %.80q (%v)", resp.Artifacts["json"], err)
	}
}

func TestLayoutErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	tests := []struct {
		name   string
		body   string
		status int
		code   errors.Code
	}{
		{"empty body", ``, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown field", `{"columns": 3}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"file source", `{"source": "/etc/items.json"}`, http.StatusBadRequest, errors.ErrCodeInvalidSource},
		{"bad format", `{"items": [{"id": 1}], "formats": ["png"]}`, http.StatusBadRequest, errors.ErrCodeInvalidFormat},
		{"duplicate ids", `{"items": [{"id": 1}, {"id": 1}]}`, http.StatusBadRequest, errors.ErrCodeInvalidItems},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp httputil.ErrorResponse
			if status := do(t, http.MethodPost, srv.URL+"/v1/layout", tt.body, &resp); status != tt.status {
				t.Errorf("status = %d, want %d (%+v)", status, tt.status, resp)
			}
			if resp.Code != tt.code {
				t.Errorf("code = %q, want %q", resp.Code, tt.code)
			}
		})
	}
}

func TestSessionLifecycle(t *testing.T) {
	srv, store := newTestServer(t)

	var created SessionResponse
	req := `{"items": ` + itemsJSON(t, testItems()) + `, "layout": ` + gridLayout + `, "width": 320, "height": 50}`
	if status := do(t, http.MethodPost, srv.URL+"/v1/sessions", req, &created); status != http.StatusCreated {
		t.Fatalf("create status = %d", status)
	}
	if created.ID == "" || store.Len() != 1 {
		t.Fatalf("created = %+v, sessions = %d", created, store.Len())
	}
	if created.Viewport.ColumnCount != 3 || created.ItemCount != 5 {
		t.Errorf("viewport = %+v, items = %d", created.Viewport, created.ItemCount)
	}
	// Items 1 to 3 start at the top; item 4 starts at 60.
	if got := visibleIDs(created); !slices.Equal(got, []int64{1, 2, 3}) {
		t.Errorf("visible at top = %v, want [1 2 3]", got)
	}

	base := srv.URL + "/v1/sessions/" + created.ID
	var scrolled SessionResponse
	if status := do(t, http.MethodPut, base+"/viewport", `{"scroll_top": 150}`, &scrolled); status != http.StatusOK {
		t.Fatalf("viewport status = %d", status)
	}
	if got := visibleIDs(scrolled); !slices.Equal(got, []int64{2, 4, 5}) {
		t.Errorf("visible at 150 = %v, want [2 4 5]", got)
	}

	// Widening to four columns moves every tile into the first row.
	var wide SessionResponse
	do(t, http.MethodPut, base+"/viewport", `{"width": 430, "scroll_top": 0}`, &wide)
	if wide.Viewport.ColumnCount != 4 || wide.Viewport.ContainerWidth != 430 {
		t.Errorf("after widen viewport = %+v", wide.Viewport)
	}
	if wide.Viewport.ViewportHeight != 50 {
		t.Errorf("height should be kept, got %v", wide.Viewport.ViewportHeight)
	}

	var visible SessionResponse
	if status := do(t, http.MethodGet, base+"/visible", "", &visible); status != http.StatusOK {
		t.Fatalf("visible status = %d", status)
	}
	if !slices.Equal(visibleIDs(visible), visibleIDs(wide)) {
		t.Errorf("GET visible = %v, PUT returned %v", visibleIDs(visible), visibleIDs(wide))
	}

	if status := do(t, http.MethodDelete, base, "", nil); status != http.StatusNoContent {
		t.Errorf("delete status = %d", status)
	}
	var gone httputil.ErrorResponse
	if status := do(t, http.MethodGet, base+"/visible", "", &gone); status != http.StatusNotFound {
		t.Errorf("visible after delete status = %d", status)
	}
	if gone.Code != errors.ErrCodeSessionNotFound {
		t.Errorf("code = %q", gone.Code)
	}
}

func TestSessionItems(t *testing.T) {
	srv, _ := newTestServer(t)

	var created SessionResponse
	req := `{"items": ` + itemsJSON(t, testItems()[:2]) + `, "layout": ` + gridLayout + `, "width": 320, "height": 1000}`
	do(t, http.MethodPost, srv.URL+"/v1/sessions", req, &created)
	base := srv.URL + "/v1/sessions/" + created.ID

	var appended SessionResponse
	body := `{"items": ` + itemsJSON(t, testItems()[2:]) + `, "append": true}`
	if status := do(t, http.MethodPut, base+"/items", body, &appended); status != http.StatusOK {
		t.Fatalf("append status = %d", status)
	}
	if appended.ItemCount != 5 || len(appended.Visible) != 5 {
		t.Errorf("after append: %d items, %d visible", appended.ItemCount, len(appended.Visible))
	}

	// Appending an existing ID is rejected and leaves the list alone.
	var errResp httputil.ErrorResponse
	if status := do(t, http.MethodPut, base+"/items", `{"items": [{"id": 1}], "append": true}`, &errResp); status != http.StatusBadRequest {
		t.Errorf("duplicate append status = %d", status)
	}

	var replaced SessionResponse
	do(t, http.MethodPut, base+"/items", `{"items": [{"id": 9}]}`, &replaced)
	if replaced.ItemCount != 1 || !slices.Equal(visibleIDs(replaced), []int64{9}) {
		t.Errorf("after replace: %+v", replaced)
	}
}

func TestSessionLoadsMoreFromSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.json")
	squares := make([]layout.Item, 250)
	for i := range squares {
		squares[i] = layout.NewItem(int64(i+1), 100, 100)
	}
	if err := board.WriteItemsFile(squares, path); err != nil {
		t.Fatal(err)
	}

	srv, _ := newTestServer(t, WithFileSources(), WithBatchSize(100))

	var created SessionResponse
	req := `{"source": ` + strings.TrimSpace(mustJSON(t, path)) + `, "layout": ` + gridLayout + `, "width": 320, "height": 400}`
	if status := do(t, http.MethodPost, srv.URL+"/v1/sessions", req, &created); status != http.StatusCreated {
		t.Fatalf("create status = %d", status)
	}
	// 100 squares in 3 columns: 34 rows of 110px.
	if created.ItemCount != 100 || created.TrackHeight != 3740 || created.Exhausted {
		t.Fatalf("created = items %d, track %v, exhausted %v", created.ItemCount, created.TrackHeight, created.Exhausted)
	}

	base := srv.URL + "/v1/sessions/" + created.ID
	var top SessionResponse
	do(t, http.MethodPut, base+"/viewport", `{"scroll_top": 0}`, &top)
	if top.Loaded != 0 {
		t.Errorf("loaded %d items at the top", top.Loaded)
	}

	var end SessionResponse
	do(t, http.MethodPut, base+"/viewport", `{"scroll_top": 3340}`, &end)
	if end.Loaded != 100 || end.ItemCount != 200 {
		t.Errorf("near end: loaded %d, items %d; want 100, 200", end.Loaded, end.ItemCount)
	}
}

func TestCreateSessionErrors(t *testing.T) {
	srv, store := newTestServer(t)
	tests := []struct {
		name string
		body string
		code errors.Code
	}{
		{"neither", `{"width": 100}`, errors.ErrCodeInvalidInput},
		{"both", `{"items": [{"id": 1}], "source": "items.json"}`, errors.ErrCodeInvalidInput},
		{"file source", `{"source": "items.json"}`, errors.ErrCodeInvalidSource},
		{"negative width", `{"items": [{"id": 1}], "width": -1}`, errors.ErrCodeInvalidInput},
		{"bad layout", `{"items": [{"id": 1}], "layout": {"min_column_width": -5}}`, errors.ErrCodeInvalidConfig},
		{"duplicate ids", `{"items": [{"id": 1}, {"id": 1}]}`, errors.ErrCodeInvalidItems},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp httputil.ErrorResponse
			if status := do(t, http.MethodPost, srv.URL+"/v1/sessions", tt.body, &resp); status != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", status)
			}
			if resp.Code != tt.code {
				t.Errorf("code = %q, want %q", resp.Code, tt.code)
			}
		})
	}
	if store.Len() != 0 {
		t.Errorf("failed requests left %d sessions", store.Len())
	}
}

// recordingHooks collects HTTP hook events.
type recordingHooks struct {
	observability.NoopHTTPHooks
	mu        sync.Mutex
	responses []string
	errors    int
}

func (h *recordingHooks) OnResponse(_ context.Context, method, route string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.responses = append(h.responses, method+" "+route+" "+http.StatusText(status))
}

func (h *recordingHooks) OnError(context.Context, string, string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors++
}

func TestHTTPHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	srv, _ := newTestServer(t)
	do(t, http.MethodGet, srv.URL+"/healthz", "", nil)
	do(t, http.MethodGet, srv.URL+"/v1/sessions/nope/visible", "", nil)

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	want := []string{"GET /healthz OK", "GET /v1/sessions/{id}/visible Not Found"}
	if !slices.Equal(hooks.responses, want) {
		t.Errorf("responses = %v, want %v", hooks.responses, want)
	}
	if hooks.errors != 1 {
		t.Errorf("errors = %d, want 1", hooks.errors)
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func TestCreateSessionKeepsServerLayout(t *testing.T) {
	base := masonry.DefaultConfig()
	base.MinColumnWidth = 100
	base.Gap = 10
	base.Buffer = 0
	srv, _ := newTestServer(t, WithLayoutConfig(base))

	// Only the gap is overridden; the 100px minimum column width is kept.
	var created SessionResponse
	req := `{"items": ` + itemsJSON(t, testItems()) + `, "layout": {"gap": 0}, "width": 300, "height": 100}`
	if status := do(t, http.MethodPost, srv.URL+"/v1/sessions", req, &created); status != http.StatusCreated {
		t.Fatalf("status = %d", status)
	}
	if created.Viewport.ColumnCount != 3 {
		t.Errorf("columns = %d, want 3", created.Viewport.ColumnCount)
	}
}
