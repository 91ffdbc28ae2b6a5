package masonry

import (
	"io"
	"iter"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/masonry/pkg/core/geometry"
	"github.com/matzehuels/masonry/pkg/core/layout"
	"github.com/matzehuels/masonry/pkg/core/schedule"
	"github.com/matzehuels/masonry/pkg/core/scroll"
	"github.com/matzehuels/masonry/pkg/core/signal"
	"github.com/matzehuels/masonry/pkg/core/window"
	"github.com/matzehuels/masonry/pkg/observability"
)

// Skip reasons reported to [observability.LayoutHooks.OnRecomputeSkipped].
const (
	SkipNoItems     = "no items"
	SkipZeroWidth   = "zero container width"
	SkipNarrowWidth = "column width not positive"
)

// ViewportState is the scroll and geometry state of a view. It changes on
// every scroll and resize, independently of the layout result.
type ViewportState struct {
	ScrollTop      float64 `json:"scroll_top"`
	ViewportHeight float64 `json:"viewport_height"`
	ContainerWidth float64 `json:"container_width"`
	ColumnCount    int     `json:"column_count"`
}

// Option configures a View.
type Option func(*View)

// WithLogger sets the logger for pass diagnostics. Passes are logged at
// debug level.
func WithLogger(l *log.Logger) Option {
	return func(v *View) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithItems sets the initial item list.
func WithItems(items []layout.Item) Option {
	return func(v *View) { v.initial = items }
}

// View is a live masonry layout bound to one scroll container.
//
// All methods are safe for concurrent use. Inputs and layout passes are
// serialized; readers of the published result never block on a pass.
type View struct {
	cfg    Config
	logger *log.Logger

	geom   *geometry.Observer
	scroll *scroll.Tracker
	items  *signal.Signal[[]layout.Item]
	sched  *schedule.Scheduler

	// mu serializes inputs and passes.
	mu      sync.Mutex
	closed  atomic.Bool
	unbinds []signal.Unbind

	result    atomic.Pointer[layout.Result]
	published *signal.Signal[*layout.Result]

	// pubMu guards the delivery state below. One goroutine delivers at a
	// time; passes that finish meanwhile set redeliver.
	pubMu      sync.Mutex
	delivering bool
	redeliver  bool
	delivered  *layout.Result

	initial []layout.Item
}

// New creates a view. A nil clock uses a [schedule.TickerClock] at the
// configured frame interval.
func New(cfg Config, clock schedule.Clock, opts ...Option) (*View, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = cfg.Clock()
	}

	v := &View{
		cfg:       cfg,
		logger:    log.NewWithOptions(io.Discard, log.Options{}),
		geom:      geometry.NewObserver(cfg.MinColumnWidth, cfg.Gap),
		scroll:    scroll.NewTracker(),
		items:     signal.NewFunc[[]layout.Item](nil, nil),
		published: signal.NewFunc[*layout.Result](nil, nil),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.sched = schedule.New(clock, v.recompute)

	v.unbinds = append(v.unbinds,
		v.geom.OnChange(func(geometry.Key) { v.sched.Request() }),
		v.items.Bind(func([]layout.Item) { v.sched.Request() }),
	)

	if v.initial != nil {
		v.SetItems(v.initial)
		v.initial = nil
	}
	return v, nil
}

// Config returns the view configuration.
func (v *View) Config() Config { return v.cfg }

// =============================================================================
// Inputs
// =============================================================================

// Resize records a new content-box measurement of the container. The first
// call is the mount measurement. A layout pass is requested only when the
// width or column count changes.
func (v *View) Resize(width, height float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed.Load() {
		return
	}
	v.geom.Observe(width, height)
	v.scroll.SetExtent(v.TrackHeight(), v.geom.Height.Get())
}

// Scroll moves the scroll offset to top, clamped to the track. It never
// triggers a layout pass.
func (v *View) Scroll(top float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed.Load() {
		return
	}
	v.scroll.ScrollTo(top)
}

// ScrollBy moves the scroll offset by delta.
func (v *View) ScrollBy(delta float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed.Load() {
		return
	}
	v.scroll.ScrollBy(delta)
}

// SetItems replaces the item list and requests a layout pass. The view
// keeps its own copy; later changes to items are not observed.
func (v *View) SetItems(items []layout.Item) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed.Load() {
		return
	}
	v.items.Set(slices.Clone(items))
}

// AppendItems adds items to the end of the list, as a paging source does
// when more items are loaded.
func (v *View) AppendItems(items ...layout.Item) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed.Load() || len(items) == 0 {
		return
	}
	cur := v.items.Get()
	next := make([]layout.Item, 0, len(cur)+len(items))
	next = append(append(next, cur...), items...)
	v.items.Set(next)
}

// =============================================================================
// Layout Pass
// =============================================================================

// Flush runs a pending layout pass now instead of at the next frame. It
// reports whether a pass ran.
func (v *View) Flush() bool {
	return v.sched.Flush()
}

// Pending reports whether a layout pass is waiting for its frame.
func (v *View) Pending() bool {
	return v.sched.Pending()
}

// Stats returns the scheduler counters.
func (v *View) Stats() schedule.Stats {
	return v.sched.Stats()
}

func (v *View) recompute() {
	v.mu.Lock()
	if v.closed.Load() {
		v.mu.Unlock()
		return
	}

	items := v.items.Get()
	key := v.geom.Key()
	start := time.Now()
	r, ok := layout.Compute(items, key.Columns, key.Width, v.cfg.Gap)
	if !ok {
		v.mu.Unlock()
		reason := skipReason(len(items), key.Width)
		v.logger.Debug("layout pass skipped", "reason", reason, "items", len(items), "width", key.Width)
		observability.Layout().OnRecomputeSkipped(reason)
		return
	}

	v.result.Store(&r)
	v.scroll.SetExtent(r.TrackHeight, v.geom.Height.Get())
	v.mu.Unlock()

	elapsed := time.Since(start)
	v.logger.Debug("layout pass",
		"items", len(items),
		"columns", r.Columns,
		"track", r.TrackHeight,
		"duration", elapsed)
	observability.Layout().OnRecompute(len(items), r.Columns, r.TrackHeight, elapsed)

	v.publish()
}

// publish delivers the stored result to OnLayout subscribers. Deliveries
// never overlap and the last one always carries the result Layout returns,
// even when passes from several goroutines finish out of order. A pass
// completing inside a subscriber is delivered after the subscriber returns.
func (v *View) publish() {
	v.pubMu.Lock()
	if v.delivering {
		v.redeliver = true
		v.pubMu.Unlock()
		return
	}
	v.delivering = true
	for {
		v.redeliver = false
		r := v.result.Load()
		if r == v.delivered {
			break
		}
		v.delivered = r
		v.pubMu.Unlock()
		v.published.Set(r)
		v.pubMu.Lock()
		if !v.redeliver {
			break
		}
	}
	v.delivering = false
	v.pubMu.Unlock()
}

func skipReason(items int, width float64) string {
	switch {
	case items == 0:
		return SkipNoItems
	case !(width > 0):
		return SkipZeroWidth
	default:
		return SkipNarrowWidth
	}
}

// OnLayout registers fn to run after every published layout pass. fn runs
// outside the view lock, so it may call back into the view. Calls never
// overlap, and the last call receives the result Layout returns.
func (v *View) OnLayout(fn func(*layout.Result)) signal.Unbind {
	return v.published.Bind(fn)
}

// =============================================================================
// Outputs
// =============================================================================

// Layout returns the last published result, or nil before the first
// successful pass. The result must not be modified.
func (v *View) Layout() *layout.Result {
	return v.result.Load()
}

// TrackHeight returns the height of the scrollable content, or 0 before the
// first successful pass.
func (v *View) TrackHeight() float64 {
	if r := v.result.Load(); r != nil {
		return r.TrackHeight
	}
	return 0
}

// Items returns a copy of the current item list.
func (v *View) Items() []layout.Item {
	return slices.Clone(v.items.Get())
}

// Len returns the number of items in the current list.
func (v *View) Len() int {
	return len(v.items.Get())
}

// Viewport returns the current visible range.
func (v *View) Viewport() window.Viewport {
	return window.Viewport{Top: v.scroll.Top(), Height: v.geom.Height.Get()}
}

// State returns the current viewport state.
func (v *View) State() ViewportState {
	key := v.geom.Key()
	return ViewportState{
		ScrollTop:      v.scroll.Top(),
		ViewportHeight: v.geom.Height.Get(),
		ContainerWidth: key.Width,
		ColumnCount:    key.Columns,
	}
}

// Visible returns the items that intersect the viewport widened by the
// configured buffer, in item order.
//
// Each range over the returned sequence reads the view's current state, so
// the same sequence can be ranged again after a scroll or a pass. While a
// pass for a changed item list is pending the sequence is empty.
func (v *View) Visible() iter.Seq[window.Entry] {
	return func(yield func(window.Entry) bool) {
		items := v.items.Get()
		r := v.result.Load()
		n := 0
		for e := range window.Select(items, r, v.Viewport(), v.cfg.Buffer) {
			n++
			if !yield(e) {
				break
			}
		}
		observability.Layout().OnWindow(n, len(items))
	}
}

// NearEnd reports whether the bottom of the viewport is within the
// load-more threshold of the end of the track. It is false before the first
// successful pass.
func (v *View) NearEnd() bool {
	r := v.result.Load()
	if r == nil {
		return false
	}
	vp := v.Viewport()
	return vp.Bottom() >= r.TrackHeight-v.cfg.LoadMoreThreshold
}

// =============================================================================
// Lifecycle
// =============================================================================

// Close unmounts the view. A pending pass is cancelled, a frame that still
// fires does nothing, and later inputs are ignored. The last result stays
// readable. Close is idempotent.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed.Swap(true) {
		return
	}
	v.sched.Stop()
	for _, unbind := range v.unbinds {
		unbind()
	}
	v.unbinds = nil
}

// Closed reports whether Close has been called.
func (v *View) Closed() bool {
	return v.closed.Load()
}
